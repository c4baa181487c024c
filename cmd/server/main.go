package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/rpsduel/internal/api"
	"github.com/mcoot/rpsduel/internal/config"
	"github.com/mcoot/rpsduel/internal/factory"
	"github.com/mcoot/rpsduel/internal/services/room"
	"github.com/mcoot/rpsduel/internal/services/sweeper"
	badgerstorage "github.com/mcoot/rpsduel/internal/storage/badger"
	redisstorage "github.com/mcoot/rpsduel/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Handler(), serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app.Start(ctx)

	exitCode := 0
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		exitCode = 1
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer closeCancel()
	if err := app.Close(closeCtx); err != nil {
		logger.Error("close error", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func factoryConfig(cfg config.Config, logger *slog.Logger) factory.Config {
	roomCfg := room.DefaultConfig()
	roomCfg.GracePeriod = cfg.GracePeriod
	roomCfg.FinishedTTL = cfg.FinishedTTL
	roomCfg.CountdownSeconds = cfg.CountdownSeconds

	fc := factory.Config{
		Logger:        logger,
		StorageType:   cfg.StorageType,
		ScoringPolicy: cfg.ScoringPolicy,
		Room:          roomCfg,
		Sweeper: sweeper.Config{
			Interval: cfg.SweepInterval,
			MaxAge:   cfg.RoomMaxAge,
		},
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		fc.RedisConfig = &redisCfg
	case factory.StorageTypeBadger:
		badgerCfg := badgerstorage.DefaultConfig()
		badgerCfg.Path = cfg.BadgerPath
		fc.BadgerConfig = &badgerCfg
	}
	return fc
}
