package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/logger"
)

// NewResultCmd prints the review of a stored result.
func NewResultCmd(configPath *string) *cobra.Command {
	var quizID, userID string
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Print the stored result review for a user as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResult(cmd.Context(), *configPath, quizID, userID, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "", "quiz id")
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	_ = cmd.MarkFlagRequired("quiz")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runResult(ctx context.Context, configPath, quizID, userID string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// stdout carries only the review JSON.
	log := logger.NewLogger(serviceName, logger.Options{Level: "warn", Format: cfg.Log.Format, Output: os.Stderr})

	st, err := buildStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	service := app.NewAttemptService(st.attempts, st.quizzes, app.NewResultGateway(st.results),
		app.WithLogger(log.Entry()))
	review, err := service.Review(ctx, quizID, userID)
	if err != nil {
		return fmt.Errorf("review %s/%s: %w", quizID, userID, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(review)
}
