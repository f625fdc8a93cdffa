package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"go.uber.org/zap"
)

// Runner produces one response; gacha.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*domain.GachaResponse, error)
}

// Exporter runs the pipeline once and writes the result to a file, bypassing
// the server and cache.
type Exporter struct {
	runner Runner
	logger *zap.Logger
}

func NewExporter(runner Runner, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{runner: runner, logger: logger}
}

// Export writes the success or error body to path as indented JSON. It returns
// the pipeline error when the run failed, even though the file was written.
func (e *Exporter) Export(ctx context.Context, path string) error {
	resp, runErr := e.runner.Run(ctx)

	var body any = resp
	if runErr != nil {
		body = domain.NewErrorResponse(runErr)
	}

	data, err := util.MarshalJSON(body, true)
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	if runErr != nil {
		e.logger.Error("Export wrote error payload", zap.String("path", path), zap.Error(runErr))
		return runErr
	}

	e.logger.Info("Export written",
		zap.String("path", path),
		zap.Int("total_pools", resp.TotalPools),
		zap.Strings("latest_versions", resp.LatestVersions))
	return nil
}
