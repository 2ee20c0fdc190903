package favorites

import "Storefront/internal/catalog"

const StorageKey = "favorites_items"

type Store interface {
	Load(key string) []catalog.Product
	Save(key string, items []catalog.Product)
	Remove(key string)
}

// Set is an ordered list of products with no id repeated.
type Set struct {
	store Store
	key   string
	items []catalog.Product
}

func Load(store Store) *Set {
	s := &Set{store: store, key: StorageKey}

	seen := make(map[int64]struct{})
	for _, p := range store.Load(StorageKey) {
		if _, dup := seen[p.ID]; dup || p.Validate() != nil {
			continue
		}
		seen[p.ID] = struct{}{}
		s.items = append(s.items, p)
	}
	return s
}

func (s *Set) Items() []catalog.Product {
	return append([]catalog.Product{}, s.items...)
}

func (s *Set) Len() int { return len(s.items) }

func (s *Set) Contains(id int64) bool { return s.indexOf(id) >= 0 }

// Add appends p unless its id is already present. It reports whether the
// set changed.
func (s *Set) Add(p catalog.Product) bool {
	if s.Contains(p.ID) {
		return false
	}
	s.items = append(s.items, p)
	s.store.Save(s.key, s.items)
	return true
}

func (s *Set) Remove(id int64) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.store.Save(s.key, s.items)
	return true
}

// Clear empties the set and deletes its persisted entry outright.
func (s *Set) Clear() {
	s.items = nil
	s.store.Remove(s.key)
}

// Filter keeps the products of from that are in the set, in from's order.
func (s *Set) Filter(from []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(s.items))
	for _, p := range from {
		if s.Contains(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Set) indexOf(id int64) int {
	for i, p := range s.items {
		if p.ID == id {
			return i
		}
	}
	return -1
}
