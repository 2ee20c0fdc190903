package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Storefront/internal/cache"
)

type countingFetcher struct {
	products []Product
	err      error
	calls    int
}

func (f *countingFetcher) Products(context.Context) ([]Product, error) {
	f.calls++
	return f.products, f.err
}

func TestProductCache_FreshEntryServed(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	f := &countingFetcher{products: seedProducts()}
	c := NewProductCache(cache.NewMemoryCache(), f, nil)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	got, err := c.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(seedProducts()))

	now = now.Add(23 * time.Hour)
	_, err = c.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	now = now.Add(2 * time.Hour)
	_, err = c.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestProductCache_CorruptEntryRefetched(t *testing.T) {
	mem := cache.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, ProductCacheKey, []byte("{not json"), 0))

	f := &countingFetcher{products: seedProducts()}
	got, err := NewProductCache(mem, f, nil).Products(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(seedProducts()))
	assert.Equal(t, 1, f.calls)
}

func TestProductCache_FetchErrorNotCached(t *testing.T) {
	f := &countingFetcher{err: ErrCatalogUnavailable}
	c := NewProductCache(cache.NewMemoryCache(), f, nil)

	_, err := c.Products(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	f.err = nil
	f.products = seedProducts()
	got, err := c.Products(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestProductCache_EmptyListNotCached(t *testing.T) {
	f := &countingFetcher{products: []Product{}}
	c := NewProductCache(cache.NewMemoryCache(), f, nil)
	ctx := context.Background()

	got, err := c.Products(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	f.products = seedProducts()
	got, err = c.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(seedProducts()))
	assert.Equal(t, 2, f.calls)
}
