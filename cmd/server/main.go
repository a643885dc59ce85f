package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cryptodesk/backend/internal/infrastructure/config"
	"github.com/cryptodesk/backend/internal/infrastructure/logging"
	"github.com/cryptodesk/backend/internal/infrastructure/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides PORT)")
	storageDir := flag.String("storage", "", "Storage directory (overrides STORAGE_DIR)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *storageDir != "" {
		cfg.Storage.Dir = *storageDir
	}
	if *dev {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger.Logger)
	if err != nil {
		logger.Fatal("failed to build server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-sigCh:
		logger.Info("signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
	logger.Info("goodbye")
}
