package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("product not found")

type Store interface {
	Ping(ctx context.Context) error
	ListSortedByID(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, bool, error)
}
