// Package cart holds the shopping cart: one line per product, quantities of
// at least one, and a total that is always recomputed from the lines.
package cart

import (
	"math"

	"github.com/shopspring/decimal"

	"Storefront/internal/catalog"
)

// StorageKey is the key a cart is persisted under.
const StorageKey = "cart"

type LineItem struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.EffectivePrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Store persists the line list. Implementations swallow their own failures.
type Store interface {
	Load(key string) []LineItem
	Save(key string, items []LineItem)
}

// Cart is not safe for concurrent use; each request owns its own Cart.
type Cart struct {
	store Store
	key   string
	items []LineItem
	total decimal.Decimal
}

// Load restores the cart persisted under StorageKey.
func Load(store Store) *Cart {
	return LoadKey(store, StorageKey)
}

func LoadKey(store Store, key string) *Cart {
	c := &Cart{store: store, key: key, items: sanitize(store.Load(key))}
	c.total = ComputeTotal(c.items)
	return c
}

// sanitize enforces the line invariants on state that came from outside:
// invalid products and non-positive quantities are dropped, repeated ids
// are merged into the first occurrence.
func sanitize(in []LineItem) []LineItem {
	out := make([]LineItem, 0, len(in))
	index := make(map[int64]int, len(in))

	for _, li := range in {
		if li.Quantity < 1 || li.Validate() != nil {
			continue
		}
		if i, ok := index[li.ID]; ok {
			out[i].Quantity = addQuantity(out[i].Quantity, li.Quantity)
			continue
		}
		index[li.ID] = len(out)
		out = append(out, li)
	}
	return out
}

func (c *Cart) Items() []LineItem {
	return append([]LineItem{}, c.items...)
}

func (c *Cart) Total() decimal.Decimal { return c.total }

func (c *Cart) Len() int { return len(c.items) }

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, li := range c.items {
		n = addQuantity(n, li.Quantity)
	}
	return n
}

func (c *Cart) Quantity(id int64) int {
	if i := c.indexOf(id); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// AddItem adds one unit of p.
func (c *Cart) AddItem(p catalog.Product) decimal.Decimal {
	if i := c.indexOf(p.ID); i >= 0 {
		c.items[i].Quantity = addQuantity(c.items[i].Quantity, 1)
	} else {
		c.items = append(c.items, LineItem{Product: p, Quantity: 1})
	}
	c.commit()
	return c.total
}

// ChangeQuantity moves the quantity of line id by delta. A line that would
// fall below one unit is removed. Unknown ids and a zero delta change
// nothing and are not persisted.
func (c *Cart) ChangeQuantity(id int64, delta int) decimal.Decimal {
	i := c.indexOf(id)
	if i < 0 || delta == 0 {
		return c.total
	}

	if q := addQuantity(c.items[i].Quantity, delta); q < 1 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	} else {
		c.items[i].Quantity = q
	}
	c.commit()
	return c.total
}

func (c *Cart) RemoveItem(id int64) decimal.Decimal {
	if i := c.indexOf(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.commit()
	return c.total
}

// Clear empties the cart and persists the empty list.
func (c *Cart) Clear() {
	c.items = []LineItem{}
	c.commit()
}

// addQuantity adds delta to a non-negative q, saturating at math.MaxInt.
func addQuantity(q, delta int) int {
	if delta > 0 && q > math.MaxInt-delta {
		return math.MaxInt
	}
	return q + delta
}

func (c *Cart) commit() {
	c.total = ComputeTotal(c.items)
	c.store.Save(c.key, c.items)
}

func (c *Cart) indexOf(id int64) int {
	for i, li := range c.items {
		if li.ID == id {
			return i
		}
	}
	return -1
}
