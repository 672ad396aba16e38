// Package main provides the entry point for the admin node.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/quillstore/admind/internal/catalog"
	"github.com/quillstore/admind/internal/cluster"
	"github.com/quillstore/admind/internal/config"
	adminerrors "github.com/quillstore/admind/internal/errors"
	"github.com/quillstore/admind/internal/handler"
	"github.com/quillstore/admind/internal/health"
	"github.com/quillstore/admind/internal/metrics"
	"github.com/quillstore/admind/internal/replicator"
	"github.com/quillstore/admind/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("failed to load configuration", zap.Error(err))
	}

	logger := initLogger(cfg.Logging)
	defer logger.Sync()

	logger.Info("starting admin node",
		zap.String("node_name", cfg.Cluster.NodeName),
		zap.Int("server_port", cfg.Server.Port),
		zap.Bool("gossip_enabled", cfg.Cluster.GossipEnabled),
	)

	cat, err := catalog.Open(catalog.Config{
		Dir:      cfg.Catalog.DataDir,
		InMemory: cfg.Catalog.InMemory,
	}, logger)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer cat.Close()

	view, gossip, err := buildView(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build membership view", zap.Error(err))
	}
	if gossip != nil {
		defer gossip.Shutdown()
	}

	m := metrics.New(cfg.Cluster.NodeName)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	peers := cluster.NewPeerClient(cfg.Replicator.PeerTimeout, logger)
	registry := replicator.NewRegistry(cfg.Cluster.NodeName, logger)
	repl := replicator.NewService(
		cfg.Cluster.NodeName,
		view,
		peers,
		registry,
		cfg.Replicator.BroadcastFanout,
		logger,
	)

	errorHandler := adminerrors.NewHandler(logger)
	handlers := handler.NewHandlers(cat, repl, view, errorHandler, m, cfg.Admin.MaxDBsInfoCount, logger)
	healthCheck := health.New(view, cfg.Admin.MaintenanceMode, logger)

	httpServer := server.New(cfg, handlers, healthCheck, errorHandler, m, logger)
	httpServer.SetupRoutes()

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown admin HTTP server", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}

	logger.Info("admin node shutdown complete")
}

// buildView returns the configured membership view. The gossip view is
// returned separately so main can leave the cluster on shutdown.
func buildView(cfg *config.Config, logger *zap.Logger) (cluster.View, *cluster.GossipView, error) {
	if !cfg.Cluster.GossipEnabled {
		view := cluster.NewStaticView([]cluster.Member{
			{Name: cfg.Cluster.NodeName, AdminURL: cfg.Cluster.AdminURL},
		})
		return view, nil, nil
	}

	gossip, err := cluster.NewGossipView(cluster.GossipConfig{
		NodeName:       cfg.Cluster.NodeName,
		BindPort:       cfg.Cluster.BindPort,
		SeedNodes:      cfg.Cluster.SeedNodes,
		AdminURL:       cfg.Cluster.AdminURL,
		GossipInterval: cfg.Cluster.GossipInterval,
		ProbeTimeout:   cfg.Cluster.ProbeTimeout,
		ProbeInterval:  cfg.Cluster.ProbeInterval,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return gossip, gossip, nil
}

// initLogger builds the zap logger from the logging configuration.
func initLogger(cfg config.LoggingConfig) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
