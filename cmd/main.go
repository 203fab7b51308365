package main

import (
	"fmt"
	"os"

	"movapp-backend/internal/config"
	"movapp-backend/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "movapp",
	Short: "MovApp backend",
	Long: `MovApp backend serves the mobile app: accounts and device sessions,
orders and Stripe payments, and Expo push notifications.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		env := cfg.Server.Environment
		if env == "" {
			env = "development"
		}
		if err := logger.Init(env); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Debug("Configuration loaded", zap.String("environment", env), zap.String("command", cmd.Name()))
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func main() {
	rootCmd.AddCommand(newServeCommand(), newMigrateCommand(), newCleanupCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
