package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Source is the remote side of a Mirror.
type Source interface {
	List(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
}

// Mirror keeps a local Snapshot of a remote catalog.
type Mirror struct {
	Source   Source
	Snapshot *Snapshot
	Log      *zap.Logger
}

func NewMirror(src Source, log *zap.Logger) *Mirror {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{Source: src, Snapshot: NewSnapshot(), Log: log}
}

// Refresh fetches the full catalog and applies it unless a newer fetch was
// started in the meantime.
func (m *Mirror) Refresh(ctx context.Context) error {
	_, err := m.refresh(ctx)
	return err
}

// refresh also returns what it fetched, whether or not it was applied.
func (m *Mirror) refresh(ctx context.Context) ([]Product, error) {
	seq := m.Snapshot.Begin()

	products, err := m.Source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh catalog: %w", err)
	}

	if !m.Snapshot.Apply(seq, products) {
		m.Log.Debug("stale catalog response dropped", zap.Uint64("seq", seq))
		return products, nil
	}
	m.Log.Debug("catalog refreshed", zap.Uint64("seq", seq), zap.Int("products", len(products)))
	return products, nil
}

// Run refreshes every interval until ctx is done. Failures are logged and
// the previous snapshot stays in place.
func (m *Mirror) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
			m.Log.Warn("catalog refresh failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Products returns the snapshot, fetching it first when it is still empty.
// If that fetch lost to a newer one still in flight, its own result is
// served instead of the empty snapshot.
func (m *Mirror) Products(ctx context.Context) ([]Product, error) {
	if m.Snapshot.Len() > 0 {
		return m.Snapshot.Products(), nil
	}

	fetched, err := m.refresh(ctx)
	if err != nil {
		return nil, err
	}
	if m.Snapshot.Len() == 0 {
		return append(make([]Product, 0, len(fetched)), fetched...), nil
	}
	return m.Snapshot.Products(), nil
}

// Product looks id up in the snapshot and falls back to the remote catalog.
func (m *Mirror) Product(ctx context.Context, id int64) (Product, error) {
	if p, ok := m.Snapshot.Find(id); ok {
		return p, nil
	}

	p, err := m.Source.GetProduct(ctx, id)
	if errors.Is(err, ErrCatalogNotFound) {
		return Product{}, fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}
