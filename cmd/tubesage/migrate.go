package main

import (
	"github.com/spf13/cobra"

	"github.com/totegamma/tubesage/internal/config"
	"github.com/totegamma/tubesage/internal/infra/database"
	"github.com/totegamma/tubesage/internal/logger"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Server.LogMode)
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info("Migration complete", "database", cfg.Server.Database)
			return nil
		},
	}
}
