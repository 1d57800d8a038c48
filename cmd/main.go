package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rafapcjs/climate-system/config"
	"github.com/rafapcjs/climate-system/internal/api"
	"github.com/rafapcjs/climate-system/internal/database"
	"github.com/rafapcjs/climate-system/internal/logging"
	"github.com/rafapcjs/climate-system/internal/metrics"
	"github.com/rafapcjs/climate-system/internal/mqtt"
	"github.com/rafapcjs/climate-system/internal/readings"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)
	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting sensor ingestion API", "driver", cfg.Database.Driver)

	// Initialize database connection
	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing database", "error", err)
		}
		logger.Info("database closed")
	}()

	// Initialize table
	if err := store.InitializeTable(ctx); err != nil {
		return err
	}

	m := metrics.New()
	svc := readings.NewService(store, m, logger, readings.Options{
		ClassifyServerSide: cfg.Readings.ClassifyServerSide,
	})

	// Optional MQTT ingestion
	if cfg.MQTT.Enabled {
		mqttClient := mqtt.NewClient(cfg, svc, logger)
		if err := mqttClient.Connect(); err != nil {
			return err
		}
		defer mqttClient.Disconnect()
	}

	router := api.NewRouter(&api.Handlers{Log: logger, Service: svc}, m, cfg.Server)
	srv := api.NewServer(cfg.ListenAddr(), router, logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// Wait for interrupt signal or a listener failure
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
