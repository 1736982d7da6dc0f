package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/app"
	"alfredoptarigan/agentic-curie/internal/config"
	"alfredoptarigan/agentic-curie/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		log.Fatalf("❌ Failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck
	zl.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.Build(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("❌ Failed to initialize services", zap.Error(err))
	}
	defer container.Close()

	if err := app.Serve(ctx, container); err != nil {
		zl.Fatal("❌ Server stopped", zap.Error(err))
	}
}
