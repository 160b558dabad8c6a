package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/config"
	pgstore "quiz-attempt-service/internal/infra/postgres"
	"quiz-attempt-service/internal/logger"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	log := logger.NewLogger(serviceName, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	db := pgstore.OpenDB(cfg.Postgres.URL)
	defer db.Close()

	group, err := pgstore.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Entry().Info("no new migrations")
		return nil
	}
	log.Entry().WithField("group", group.String()).Info("migrations applied")
	return nil
}
