package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kapu/genshin-gacha-api/internal/constants"
	"github.com/kapu/genshin-gacha-api/internal/util"
	"github.com/kapu/genshin-gacha-api/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SnapshotStore persists the last good payload so a restarted process can
// serve it without a wiki round-trip.
type SnapshotStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

type SnapshotConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Key      string
}

// Snapshot is the stored form of one successful payload.
type Snapshot struct {
	Payload    json.RawMessage `json:"payload"`
	ProducedAt time.Time       `json:"produced_at"`
}

func NewSnapshotStore(cfg SnapshotConfig, logger *zap.Logger) (*SnapshotStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = constants.RedisConfig.SnapshotKey
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  constants.RedisConfig.DialTimeout,
		ReadTimeout:  constants.RedisConfig.ReadTimeout,
		WriteTimeout: constants.RedisConfig.WriteTimeout,
		PoolSize:     4,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.RedisConfig.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", addr),
		zap.Int("db", cfg.DB),
		zap.String("key", cfg.Key),
	)

	return &SnapshotStore{
		client: client,
		key:    cfg.Key,
		logger: logger,
	}, nil
}

// Load returns the stored snapshot, or nil when none exists.
func (s *SnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	value, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Snapshot get failed", zap.String("key", s.key), zap.Error(err))
		return nil, errors.NewCacheError("get failed", "get", s.key, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(value, &snap); err != nil {
		s.logger.Error("Snapshot unmarshal failed", zap.String("key", s.key), zap.Error(err))
		return nil, errors.NewCacheError("unmarshal failed", "get", s.key, err)
	}
	if len(snap.Payload) == 0 {
		return nil, nil
	}

	return &snap, nil
}

// Save stores payload with the given expiry; ttl <= 0 keeps it indefinitely.
func (s *SnapshotStore) Save(ctx context.Context, payload []byte, producedAt time.Time, ttl time.Duration) error {
	data, err := util.MarshalJSON(Snapshot{Payload: payload, ProducedAt: producedAt}, false)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", s.key, err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		s.logger.Error("Snapshot set failed", zap.String("key", s.key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", s.key, err)
	}

	return nil
}

func (s *SnapshotStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	s.logger.Info("Redis disconnected")
	return nil
}

func (s *SnapshotStore) IsConnected(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}
