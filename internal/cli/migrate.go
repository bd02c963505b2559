package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"quiz-service/internal/config"
	"quiz-service/internal/infra/sqlstore"
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
	db, err := sqlstore.Open(ctx, sqlstore.Driver(cfg.Database.Driver), cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlstore.Migrate(ctx, db); err != nil {
		return err
	}
	log.Printf("migrations applied (%s)", cfg.Database.Driver)
	return nil
}
