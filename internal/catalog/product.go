package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidProduct = errors.New("invalid product")

// Product is a catalog record. DiscountPrice is nil when the product is sold
// at its regular price.
type Product struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	Img           string           `json:"img,omitempty"`
	Category      string           `json:"category"`
	Description   string           `json:"description,omitempty"`
	DiscountPrice *decimal.Decimal `json:"discountPrice,omitempty"`
}

// EffectivePrice is the unit price a buyer pays.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

func (p Product) Validate() error {
	switch {
	case p.ID <= 0:
		return fmt.Errorf("%w: id must be positive", ErrInvalidProduct)
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: id=%d: empty name", ErrInvalidProduct, p.ID)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: id=%d: negative price", ErrInvalidProduct, p.ID)
	}

	if d := p.DiscountPrice; d != nil {
		if d.IsNegative() || d.GreaterThan(p.Price) {
			return fmt.Errorf("%w: id=%d: discount price %s outside [0, %s]", ErrInvalidProduct, p.ID, d, p.Price)
		}
	}
	return nil
}

func FilterByCategory(products []Product, category string) []Product {
	if category == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0, 8)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func discount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
