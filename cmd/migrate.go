package main

import (
	"context"
	"fmt"

	"movapp-backend/internal/database"
	"movapp-backend/internal/infrastructure/database/postgres"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/routes"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrations(database.Up)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrations(database.Down)
			},
		},
	)
	return cmd
}

func runMigrations(direction database.Direction) error {
	db, err := postgres.Open(cfg.Database.DSN(), gormLogger.Warn)
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	if err := database.Migrate(sqlDB, direction); err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	logger.Info("Migrations finished", zap.String("direction", string(direction)))
	return nil
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired refresh tokens and reset codes once",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := postgres.NewDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			services, err := routes.BuildServices(cfg, db, nil)
			if err != nil {
				return err
			}

			refreshDeleted, resetsDeleted, err := services.Sessions.CleanupExpiredTokens(context.Background())
			if err != nil {
				return err
			}

			logger.Info("Expired tokens deleted",
				zap.Int64("refresh_tokens", refreshDeleted),
				zap.Int64("reset_codes", resetsDeleted),
			)
			return nil
		},
	}
}
