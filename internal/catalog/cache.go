package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"Storefront/internal/cache"
)

const (
	ProductCacheKey       = "cachedProducts"
	ProductCacheFreshness = 24 * time.Hour
)

// cachedProducts is the stored form: the product list plus the Unix
// millisecond time it was fetched.
type cachedProducts struct {
	Data      []Product `json:"data"`
	Timestamp int64     `json:"timestamp"`
}

type Fetcher interface {
	Products(ctx context.Context) ([]Product, error)
}

// ProductCache serves the catalog from a cache entry while it is younger
// than Freshness and refetches otherwise.
type ProductCache struct {
	Cache     cache.Cache
	Fetch     Fetcher
	Freshness time.Duration
	Log       *zap.Logger

	now func() time.Time
}

func NewProductCache(c cache.Cache, f Fetcher, log *zap.Logger) *ProductCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductCache{
		Cache:     c,
		Fetch:     f,
		Freshness: ProductCacheFreshness,
		Log:       log,
		now:       time.Now,
	}
}

func (c *ProductCache) Products(ctx context.Context) ([]Product, error) {
	now := c.now()

	if entry, ok := c.load(ctx); ok && now.Sub(time.UnixMilli(entry.Timestamp)) < c.Freshness {
		return entry.Data, nil
	}

	products, err := c.Fetch.Products(ctx)
	if err != nil {
		return nil, err
	}

	// An empty catalog is served but never cached, so it cannot stick for a
	// whole freshness window.
	if len(products) > 0 {
		c.store(ctx, cachedProducts{Data: products, Timestamp: now.UnixMilli()})
	}
	return products, nil
}

func (c *ProductCache) load(ctx context.Context) (cachedProducts, bool) {
	raw, err := c.Cache.Get(ctx, ProductCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.Log.Warn("product cache read failed", zap.Error(err))
		}
		return cachedProducts{}, false
	}

	var entry cachedProducts
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.Log.Warn("product cache entry corrupt", zap.Error(err))
		return cachedProducts{}, false
	}
	return entry, true
}

func (c *ProductCache) store(ctx context.Context, entry cachedProducts) {
	raw, err := json.Marshal(entry)
	if err != nil {
		c.Log.Warn("product cache encode failed", zap.Error(err))
		return
	}
	// The entry outlives its freshness window so that the timestamp, not the
	// backend TTL, decides staleness.
	if err := c.Cache.Set(ctx, ProductCacheKey, raw, 2*c.Freshness); err != nil {
		c.Log.Warn("product cache write failed", zap.Error(err))
	}
}
