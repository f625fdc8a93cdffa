package main

import (
	"context"

	"github.com/kapu/genshin-gacha-api/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagOutput string
	flagLatest int
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Run the pipeline once and write the JSON result to a file",
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&flagOutput, "output", "", "output file path")
	exportCmd.Flags().IntVar(&flagLatest, "latest", 0, "number of newest version groups (default: PIPELINE_LATEST_VERSIONS)")
	_ = exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}

func runExport(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(nil)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// The snapshot tier only backs the server.
	cfg.Redis.Enabled = false

	container, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble application services", zap.Error(err))
		return err
	}
	defer container.Close()

	exporter, err := container.NewExporter(flagLatest)
	if err != nil {
		return err
	}
	return exporter.Export(context.Background(), flagOutput)
}
