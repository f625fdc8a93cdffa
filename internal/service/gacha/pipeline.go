package gacha

import (
	"bytes"
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/internal/service/wiki"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"go.uber.org/zap"
)

type PipelineConfig struct {
	Sources        []wiki.Source
	MaxAttempts    int
	RetryDelay     time.Duration
	LatestVersions int
	ParseWorkers   int
}

// Pipeline fetches the source pages, extracts banners and aggregates them,
// retrying the whole run with a fixed delay.
type Pipeline struct {
	fetcher     wiki.Fetcher
	sources     []wiki.Source
	aggregator  *Aggregator
	maxAttempts int
	retryDelay  time.Duration
	workers     int
	sleep       func(time.Duration)
	now         func() time.Time
	logger      *zap.Logger
}

func NewPipeline(fetcher wiki.Fetcher, cfg PipelineConfig, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = constants.RetryConfig.MaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.ParseWorkers < 1 {
		cfg.ParseWorkers = constants.AggregateConfig.ParseWorkers
	}

	return &Pipeline{
		fetcher:     fetcher,
		sources:     cfg.Sources,
		aggregator:  NewAggregator(cfg.LatestVersions, logger),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		workers:     cfg.ParseWorkers,
		sleep:       time.Sleep,
		now:         util.NowCST,
		logger:      logger,
	}
}

// WithClock replaces the clock for timestamps and year qualification.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	p.aggregator.WithClock(now)
	return p
}

// WithSleep replaces the backoff sleeper; used by tests.
func (p *Pipeline) WithSleep(sleep func(time.Duration)) *Pipeline {
	p.sleep = sleep
	return p
}

// WithLatest returns a copy of p selecting n version groups.
func (p *Pipeline) WithLatest(n int) *Pipeline {
	clone := *p
	clone.aggregator = p.aggregator.WithLatest(n)
	return &clone
}

// Run executes up to maxAttempts attempts. The caller's cancellation is not
// propagated: an abandoned request lets an in-flight refresh finish.
// After the last failed attempt it returns *errors.PipelineError.
func (p *Pipeline) Run(ctx context.Context) (*domain.GachaResponse, error) {
	ctx = context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		resp, err := p.Attempt(ctx)
		if err == nil {
			if attempt > 1 {
				p.logger.Info("Gacha pipeline recovered", zap.Int("attempt", attempt))
			}
			return resp, nil
		}
		lastErr = err

		if attempt < p.maxAttempts {
			p.logger.Warn("Gacha pipeline attempt failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", p.maxAttempts),
				zap.Duration("delay", p.retryDelay),
				zap.Error(err))
			p.sleep(p.retryDelay)
		}
	}

	p.logger.Error("Gacha pipeline exhausted retries",
		zap.Int("attempts", p.maxAttempts),
		zap.Error(lastErr))

	return nil, errors.NewPipelineError("unable to fetch gacha data", p.maxAttempts, lastErr)
}

// Attempt runs the pipeline once without retrying.
func (p *Pipeline) Attempt(ctx context.Context) (*domain.GachaResponse, error) {
	located := make([]LocatedTable, 0)
	for _, src := range p.sources {
		body, err := p.fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, err
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, errors.NewFetchError("HTML parse failed", src.Name, src.URL, err)
		}

		tables := wiki.LocateTables(doc, src)
		p.logger.Debug("Located banner tables",
			zap.String("source", src.Name),
			zap.String("layout", src.Layout.String()),
			zap.Int("tables", len(tables)))

		for i, table := range tables {
			located = append(located, LocatedTable{Source: src.Name, Index: i, Table: table})
		}
	}

	records := make([]*domain.BannerRecord, 0, len(located))
	parseErrors := 0
	for _, result := range ParseTables(located, p.workers) {
		if result.Err != nil {
			parseErrors++
			p.logger.Warn("Skipping banner table", zap.Error(result.Err))
			continue
		}
		records = append(records, result.Record)
	}

	agg, err := p.aggregator.Aggregate(records, parseErrors)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Gacha pipeline completed",
		zap.Int("tables", len(located)),
		zap.Int("kept", agg.Kept),
		zap.Int("parse_errors", parseErrors),
		zap.Strings("latest_versions", agg.Versions))

	return &domain.GachaResponse{
		LastUpdated:    util.FormatTimestamp(p.now()),
		TotalPools:     len(agg.Records),
		LatestVersions: agg.Versions,
		GachaData:      agg.Records,
	}, nil
}
