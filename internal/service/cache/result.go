package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/internal/domain"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"go.uber.org/zap"
)

// Refresher produces a fresh response; gacha.Pipeline satisfies it.
type Refresher interface {
	Run(ctx context.Context) (*domain.GachaResponse, error)
}

// Snapshots is the optional persistent tier behind the in-process entry.
type Snapshots interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, payload []byte, producedAt time.Time, ttl time.Duration) error
}

// Entry is one successful result. Payload is what gets served, byte for byte.
type Entry struct {
	Payload    []byte
	Response   *domain.GachaResponse
	ProducedAt time.Time
}

func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.ProducedAt)
}

// ResultCache holds the single most recent successful result. A lookup and any
// refresh it triggers run under one lock, so concurrent callers on an expired
// entry share one refresh. Failures are never stored.
type ResultCache struct {
	mu        sync.Mutex
	refresher Refresher
	window    time.Duration
	entry     *Entry
	snapshots Snapshots
	now       func() time.Time
	logger    *zap.Logger
}

func NewResultCache(refresher Refresher, window time.Duration, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = constants.CacheTTL.GachaResult
	}
	return &ResultCache{
		refresher: refresher,
		window:    window,
		now:       time.Now,
		logger:    logger,
	}
}

func (c *ResultCache) WithSnapshots(s Snapshots) *ResultCache {
	c.snapshots = s
	return c
}

func (c *ResultCache) WithClock(now func() time.Time) *ResultCache {
	c.now = now
	return c
}

// Get returns the cached entry while it is fresh and refreshes it otherwise.
func (c *ResultCache) Get(ctx context.Context) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isFresh(c.entry) {
		c.logger.Debug("Gacha cache hit", zap.Duration("age", c.entry.Age(c.now())))
		return c.entry, nil
	}

	if snap := c.restore(ctx); snap != nil {
		c.entry = snap
		return c.entry, nil
	}

	c.logger.Info("Gacha cache miss, refreshing")
	resp, err := c.refresher.Run(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := util.MarshalJSON(resp, false)
	if err != nil {
		return nil, errors.NewCacheError("marshal failed", "encode", "", err)
	}

	c.entry = &Entry{Payload: payload, Response: resp, ProducedAt: c.now()}
	c.persist(ctx, c.entry)

	return c.entry, nil
}

// Current returns the stored entry without refreshing, fresh or not.
func (c *ResultCache) Current() *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

func (c *ResultCache) isFresh(e *Entry) bool {
	return e != nil && e.Age(c.now()) < c.window
}

func (c *ResultCache) restore(ctx context.Context) *Entry {
	if c.snapshots == nil {
		return nil
	}

	snap, err := c.snapshots.Load(context.WithoutCancel(ctx))
	if err != nil {
		c.logger.Warn("Snapshot restore failed", zap.Error(err))
		return nil
	}
	if snap == nil {
		return nil
	}

	var resp domain.GachaResponse
	if err := json.Unmarshal(snap.Payload, &resp); err != nil {
		c.logger.Warn("Snapshot payload is not a gacha response", zap.Error(err))
		return nil
	}

	entry := &Entry{Payload: []byte(snap.Payload), Response: &resp, ProducedAt: snap.ProducedAt}
	if !c.isFresh(entry) {
		c.logger.Debug("Snapshot is stale", zap.Time("produced_at", snap.ProducedAt))
		return nil
	}

	c.logger.Info("Restored gacha result from snapshot",
		zap.Time("produced_at", snap.ProducedAt),
		zap.Int("total_pools", resp.TotalPools))
	return entry
}

func (c *ResultCache) persist(ctx context.Context, e *Entry) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.Save(context.WithoutCancel(ctx), e.Payload, e.ProducedAt, c.window); err != nil {
		c.logger.Warn("Snapshot save failed", zap.Error(err))
	}
}
