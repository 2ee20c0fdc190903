package storage

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is how long a saved list survives without being rewritten.
const DefaultTTL = 7 * 24 * time.Hour

type Config struct {
	TTL     time.Duration
	Log     *zap.Logger
	Metrics *Metrics
}

// Bridge stores lists of T as JSON documents in a Backend. It never reports
// failures to its callers: unreadable state loads as an empty list and
// failed writes are logged and counted.
type Bridge[T any] struct {
	backend Backend
	ttl     time.Duration
	log     *zap.Logger
	metrics *Metrics
}

func NewBridge[T any](b Backend, cfg Config) *Bridge[T] {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Bridge[T]{backend: b, ttl: cfg.TTL, log: cfg.Log, metrics: cfg.Metrics}
}

func (b *Bridge[T]) Load(key string) []T {
	raw, ok, err := b.backend.Get(key)
	if err != nil {
		b.log.Warn("persisted state unreadable", zap.String("key", key), zap.Error(err))
		b.metrics.failed(opRead)
		return []T{}
	}
	if !ok {
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		b.log.Warn("persisted state corrupt", zap.String("key", key), zap.Error(err))
		b.metrics.failed(opDecode)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func (b *Bridge[T]) Save(key string, items []T) {
	if items == nil {
		items = []T{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		b.log.Warn("persist encode failed", zap.String("key", key), zap.Error(err))
		b.metrics.failed(opEncode)
		return
	}

	if err := b.backend.Set(key, raw, b.ttl); err != nil {
		b.log.Warn("persist write failed", zap.String("key", key), zap.Int("bytes", len(raw)), zap.Error(err))
		b.metrics.failed(opWrite)
	}
}

func (b *Bridge[T]) Remove(key string) {
	if err := b.backend.Delete(key); err != nil {
		b.log.Warn("persist remove failed", zap.String("key", key), zap.Error(err))
		b.metrics.failed(opRemove)
	}
}
