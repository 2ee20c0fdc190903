package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_SetReplacesWholesale(t *testing.T) {
	s := NewSnapshot()
	assert.True(t, s.UpdatedAt().IsZero())

	s.Set(seedProducts())
	s.Set([]Product{{ID: 42, Name: "Only", Price: price("1")}})

	got := s.Products()
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].ID)
	assert.False(t, s.UpdatedAt().IsZero())

	_, ok := s.Find(1)
	assert.False(t, ok)
}

func TestSnapshot_StaleGenerationDropped(t *testing.T) {
	s := NewSnapshot()

	older := s.Begin()
	newer := s.Begin()

	assert.True(t, s.Apply(newer, []Product{{ID: 2, Name: "fresh", Price: price("1")}}))
	assert.False(t, s.Apply(older, []Product{{ID: 1, Name: "stale", Price: price("1")}}))

	got := s.Products()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Name)
}

func TestSnapshot_OnlyLatestIssuedApplies(t *testing.T) {
	s := NewSnapshot()

	first := s.Begin()
	_ = s.Begin()

	// The newer fetch is still in flight; the older completion must not win.
	assert.False(t, s.Apply(first, seedProducts()))
	assert.Equal(t, 0, s.Len())
}

func TestSnapshot_ProductsIsACopy(t *testing.T) {
	s := NewSnapshot()
	s.Set(seedProducts())

	got := s.Products()
	got[0].Name = "mutated"

	p, ok := s.Find(got[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", p.Name)
}

func TestSnapshot_EmptyEncodesAsArray(t *testing.T) {
	raw, err := json.Marshal(NewSnapshot().Products())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))
}

type fakeSource struct {
	mu       sync.Mutex
	products []Product
	err      error
	calls    int
	// block, when set, is waited on inside List.
	block chan struct{}
}

func (f *fakeSource) List(ctx context.Context) ([]Product, error) {
	f.mu.Lock()
	f.calls++
	block, products, err := f.block, f.products, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return products, err
}

func (f *fakeSource) GetProduct(ctx context.Context, id int64) (Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrCatalogNotFound
}

func TestMirror_ProductsFetchesWhenEmpty(t *testing.T) {
	src := &fakeSource{products: seedProducts()}
	m := NewMirror(src, nil)

	got, err := m.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, len(seedProducts()))

	_, err = m.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
}

func TestMirror_RefreshFailureKeepsSnapshot(t *testing.T) {
	src := &fakeSource{products: seedProducts()}
	m := NewMirror(src, nil)
	require.NoError(t, m.Refresh(context.Background()))

	src.err = ErrCatalogUnavailable
	err := m.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Equal(t, len(seedProducts()), m.Snapshot.Len())
}

func TestMirror_OverlappingRefreshes(t *testing.T) {
	slow := &fakeSource{products: []Product{{ID: 1, Name: "stale", Price: price("1")}}, block: make(chan struct{})}
	m := NewMirror(slow, nil)

	done := make(chan error, 1)
	go func() { done <- m.Refresh(context.Background()) }()

	// Wait until the slow fetch has taken its generation.
	require.Eventually(t, func() bool {
		slow.mu.Lock()
		defer slow.mu.Unlock()
		return slow.calls == 1
	}, timeout, tick)

	m.Source = &fakeSource{products: []Product{{ID: 2, Name: "fresh", Price: price("1")}}}
	require.NoError(t, m.Refresh(context.Background()))

	close(slow.block)
	require.NoError(t, <-done)

	got := m.Snapshot.Products()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Name)
}

func TestMirror_Product(t *testing.T) {
	src := &fakeSource{products: seedProducts()}
	m := NewMirror(src, nil)

	p, err := m.Product(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Dumplings", p.Name)

	_, err = m.Product(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	m.Snapshot.Set([]Product{{ID: 77, Name: "cached", Price: price("1")}})
	p, err = m.Product(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "cached", p.Name)
}

// gatedSource holds the n-th List call until gates[n] is closed.
type gatedSource struct {
	mu       sync.Mutex
	calls    int
	gates    []chan struct{}
	products []Product
}

func (g *gatedSource) List(ctx context.Context) ([]Product, error) {
	g.mu.Lock()
	gate := g.gates[g.calls]
	g.calls++
	g.mu.Unlock()

	<-gate
	return g.products, nil
}

func (g *gatedSource) GetProduct(context.Context, int64) (Product, error) {
	return Product{}, ErrCatalogNotFound
}

func (g *gatedSource) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func TestMirror_ProductsServesOwnFetchWhenOvertaken(t *testing.T) {
	src := &gatedSource{
		gates:    []chan struct{}{make(chan struct{}), make(chan struct{})},
		products: seedProducts(),
	}
	m := NewMirror(src, nil)
	ctx := context.Background()

	type result struct {
		products []Product
		err      error
	}
	first := make(chan result, 1)
	go func() {
		p, err := m.Products(ctx)
		first <- result{p, err}
	}()
	require.Eventually(t, func() bool { return src.callCount() == 1 }, timeout, tick)

	second := make(chan error, 1)
	go func() { second <- m.Refresh(ctx) }()
	require.Eventually(t, func() bool { return src.callCount() == 2 }, timeout, tick)

	// The older fetch completes first and is dropped from the snapshot.
	close(src.gates[0])
	got := <-first
	require.NoError(t, got.err)
	assert.Len(t, got.products, len(seedProducts()))
	assert.Equal(t, 0, m.Snapshot.Len())

	close(src.gates[1])
	require.NoError(t, <-second)
	assert.Equal(t, len(seedProducts()), m.Snapshot.Len())
}
