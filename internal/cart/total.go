package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceDecimalPlaces is the precision totals are presented with.
const PriceDecimalPlaces = 2

// ComputeTotal sums effective unit price times quantity over items.
func ComputeTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.LineTotal())
	}
	return total
}

// ApplyDiscount takes fraction (0.2 for 20%) off total.
func ApplyDiscount(total, fraction decimal.Decimal) decimal.Decimal {
	return total.Mul(decimal.NewFromInt(1).Sub(fraction))
}

// Coupons maps upper-cased coupon codes to discount fractions.
type Coupons map[string]decimal.Decimal

func DefaultCoupons() Coupons {
	return Coupons{
		"SPRING": decimal.RequireFromString("0.2"),
	}
}

// Lookup matches code case-insensitively, ignoring surrounding blanks.
func (c Coupons) Lookup(code string) (decimal.Decimal, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return decimal.Zero, false
	}
	f, ok := c[code]
	return f, ok
}

type Quote struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	CouponApplied bool            `json:"coupon_applied"`
	Total         decimal.Decimal `json:"total"`
}

// Quote prices items with an optional coupon. An unknown code quotes at no
// discount.
func (c Coupons) Quote(items []LineItem, code string) Quote {
	subtotal := ComputeTotal(items)

	fraction, ok := c.Lookup(code)
	if !ok {
		fraction = decimal.Zero
	}

	return Quote{
		Subtotal:      subtotal.Round(PriceDecimalPlaces),
		Discount:      fraction,
		CouponApplied: ok,
		Total:         ApplyDiscount(subtotal, fraction).Round(PriceDecimalPlaces),
	}
}
