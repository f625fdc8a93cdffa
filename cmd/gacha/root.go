package main

import (
	"fmt"
	"os"

	"github.com/kapu/genshin-gacha-api/internal/config"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagLogLevel string

var rootCmd = &cobra.Command{
	Use:           "gacha",
	Short:         "Genshin gacha banner history API built from wiki pages",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime reads configuration, applies flag overrides and builds the logger.
func loadRuntime(override func(*config.Config)) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("invalid flags: %w", err)
		}
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
