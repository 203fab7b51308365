package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"movapp-backend/internal/infrastructure/database/postgres"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/middleware"
	"movapp-backend/internal/routes"
	"movapp-backend/pkg/mqtt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	logger.Info("Starting application", zap.String("environment", cfg.Server.Environment))

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	broker := connectBroker()
	if broker != nil {
		defer broker.Disconnect()
	}

	services, err := routes.BuildServices(cfg, db, broker)
	if err != nil {
		logger.Error("Failed to initialize services", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	go limiter.Run(ctx)

	interval := time.Duration(cfg.JWT.CleanupIntervalMin) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	go services.Sessions.StartTokenCleanupJob(ctx, interval)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.SetupRoutes(cfg, db, services, limiter),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Error("Failed to start server", zap.Error(err))
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
		return err
	}

	logger.Info("Server exited properly")
	return nil
}

// connectBroker returns nil when no broker is configured or it cannot be
// reached; payment events are then skipped.
func connectBroker() *mqtt.Client {
	if cfg.MQTT.Broker == "" {
		return nil
	}

	client := mqtt.NewClient(&mqtt.Config{
		Broker:               cfg.MQTT.Broker,
		ClientID:             cfg.MQTT.ClientID,
		Username:             cfg.MQTT.Username,
		Password:             cfg.MQTT.Password,
		CleanSession:         true,
		KeepAlive:            60,
		ConnectTimeout:       10,
		AutoReconnect:        true,
		MaxReconnectInterval: time.Minute,
	})
	if err := client.Connect(); err != nil {
		logger.Warn("MQTT broker unavailable, payment events disabled",
			zap.String("broker", cfg.MQTT.Broker),
			zap.Error(err),
		)
		return nil
	}
	return client
}
