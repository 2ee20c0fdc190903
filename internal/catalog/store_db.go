package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

const selectProducts = `
	SELECT id, name, price, img, category, description, discount_price
	FROM products
`

// PostgresStore reads the catalog from a products table. The catalog is
// read-only from this service's point of view.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) ListSortedByID(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, selectProducts+` ORDER BY id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx, selectProducts+` WHERE id = $1`, id))
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p        Product
		img      sql.NullString
		desc     sql.NullString
		discount decimal.NullDecimal
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &img, &p.Category, &desc, &discount); err != nil {
		return Product{}, err
	}

	p.Img = img.String
	p.Description = desc.String
	if discount.Valid {
		d := discount.Decimal
		p.DiscountPrice = &d
	}
	return p, nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
