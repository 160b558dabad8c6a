package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	pgstore "quiz-attempt-service/internal/infra/postgres"
	"quiz-attempt-service/internal/logger"
)

// NewSeedCmd loads quiz definitions from a JSON file into postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate and upsert quizzes from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/quizzes.json", "JSON array of quizzes")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	quizzes, err := readQuizzes(file)
	if err != nil {
		return err
	}
	log := logger.NewLogger(serviceName, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	db := pgstore.OpenDB(cfg.Postgres.URL)
	defer db.Close()
	if _, err := pgstore.Migrate(ctx, db); err != nil {
		return err
	}

	writer := pgstore.NewQuizWriter(db)
	for _, quiz := range quizzes {
		if err := writer.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
		log.Entry().WithField("quiz_id", quiz.ID).Info("quiz seeded")
	}
	return nil
}

func readQuizzes(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var quizzes []domain.Quiz
	if err := json.Unmarshal(data, &quizzes); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return quizzes, nil
}
