package app

import (
	"context"
	"fmt"

	"github.com/kapu/genshin-gacha-api/internal/config"
	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/internal/export"
	"github.com/kapu/genshin-gacha-api/internal/server"
	"github.com/kapu/genshin-gacha-api/internal/service/cache"
	"github.com/kapu/genshin-gacha-api/internal/service/gacha"
	"github.com/kapu/genshin-gacha-api/internal/service/wiki"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing the server or an exporter.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Fetcher  *wiki.HTTPFetcher
	Pipeline *gacha.Pipeline
	Results  *cache.ResultCache
	Snapshot *cache.SnapshotStore

	closers []func()
}

// NewServer instantiates the HTTP server on top of the result cache.
func (c *Container) NewServer() (*server.Server, error) {
	if c == nil || c.Results == nil {
		return nil, fmt.Errorf("result cache not initialized")
	}

	handler := server.NewHandler(c.Results, c.Logger)
	return server.NewServer(server.Config{
		Addr:            c.Config.Server.Addr(),
		Debug:           c.Config.Server.Debug,
		ReadTimeout:     constants.ServerConfig.ReadTimeout,
		WriteTimeout:    constants.ServerConfig.WriteTimeout,
		IdleTimeout:     constants.ServerConfig.IdleTimeout,
		ShutdownTimeout: constants.ServerConfig.ShutdownTimeout,
	}, handler, c.Logger), nil
}

// NewExporter returns an exporter selecting latest version groups; latest < 1
// keeps the configured value.
func (c *Container) NewExporter(latest int) (*export.Exporter, error) {
	if c == nil || c.Pipeline == nil {
		return nil, fmt.Errorf("pipeline not initialized")
	}

	pipeline := c.Pipeline
	if latest > 0 {
		pipeline = pipeline.WithLatest(latest)
	}
	return export.NewExporter(pipeline, c.Logger), nil
}

// Close releases external connections in reverse order of creation.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles the fetcher, pipeline and cache. The Redis snapshot tier is
// connected only when enabled; a connection failure there is logged and the
// service runs on the in-process cache alone.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.Fetcher = wiki.NewHTTPFetcher(wiki.HTTPFetcherConfig{
		Timeout:   cfg.Wiki.Timeout,
		UserAgent: cfg.Wiki.UserAgent,
	}, logger)

	c.Pipeline = gacha.NewPipeline(c.Fetcher, gacha.PipelineConfig{
		Sources:        wiki.DefaultSources(cfg.Wiki.HistoryURL, cfg.Wiki.ArchiveURL),
		MaxAttempts:    cfg.Pipeline.MaxAttempts,
		RetryDelay:     cfg.Pipeline.RetryDelay,
		LatestVersions: cfg.Pipeline.LatestVersions,
		ParseWorkers:   cfg.Pipeline.ParseWorkers,
	}, logger)

	c.Results = cache.NewResultCache(c.Pipeline, cfg.Cache.FreshnessWindow, logger)

	if cfg.Redis.Enabled {
		store, storeErr := cache.NewSnapshotStore(cache.SnapshotConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.SnapshotKey,
		}, logger)
		if storeErr != nil {
			logger.Warn("Redis snapshot tier unavailable, continuing with in-process cache only", zap.Error(storeErr))
		} else {
			c.Snapshot = store
			c.Results.WithSnapshots(store)
			c.closers = append(c.closers, func() {
				_ = store.Close()
			})
		}
	}

	logger.Info("Gacha services assembled",
		zap.String("history_url", cfg.Wiki.HistoryURL),
		zap.String("archive_url", cfg.Wiki.ArchiveURL),
		zap.Int("latest_versions", cfg.Pipeline.LatestVersions),
		zap.Duration("freshness_window", cfg.Cache.FreshnessWindow),
		zap.Bool("redis_snapshot", c.Snapshot != nil),
	)

	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return c, nil
}
