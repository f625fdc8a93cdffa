package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kapu/genshin-gacha-api/internal/app"
	"github.com/kapu/genshin-gacha-api/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagPort int

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /gacha and GET /health",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(func(cfg *config.Config) {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = flagPort
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Gacha API starting...",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("log_level", cfg.Logging.Level),
	)

	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := app.Build(buildCtx, cfg, logger)
	buildCancel()
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}
	defer container.Close()

	srv, err := container.NewServer()
	if err != nil {
		logger.Error("Failed to initialize server", zap.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := srv.StartAsync()

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok {
			logger.Error("Server error", zap.Error(err))
			runErr = err
		}
	}

	logger.Info("Shutting down gracefully...")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return runErr
}
