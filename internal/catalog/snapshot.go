package catalog

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot holds the most recently fetched catalog. Fetches are tagged with
// a generation number from Begin; Apply only accepts the latest generation,
// so a slow response can never overwrite a newer one.
type Snapshot struct {
	issued atomic.Uint64

	mu        sync.RWMutex
	products  []Product
	applied   uint64
	updatedAt time.Time
	now       func() time.Time
}

func NewSnapshot() *Snapshot {
	return &Snapshot{now: time.Now}
}

// Begin issues the generation number for a new fetch.
func (s *Snapshot) Begin() uint64 {
	return s.issued.Add(1)
}

// Apply replaces the snapshot with products if seq is the latest generation
// issued. It reports whether the replacement happened.
func (s *Snapshot) Apply(seq uint64, products []Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.issued.Load() || seq <= s.applied {
		return false
	}
	s.applied = seq
	s.replace(products)
	return true
}

// Set replaces the snapshot wholesale, outside of any fetch generation.
func (s *Snapshot) Set(products []Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(products)
}

func (s *Snapshot) replace(products []Product) {
	s.products = append(make([]Product, 0, len(products)), products...)
	s.updatedAt = s.now()
}

func (s *Snapshot) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Product, 0, len(s.products)), s.products...)
}

func (s *Snapshot) Find(id int64) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// UpdatedAt is the zero time until the first replacement.
func (s *Snapshot) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
