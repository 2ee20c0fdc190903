package catalog

import (
	"context"
	"sort"
	"sync"
)

const (
	CategoryDairy        = "Dairy"
	CategoryFrozen       = "Frozen"
	CategoryGrocery      = "Grocery"
	CategoryProduce      = "Fruits & Vegetables"
	CategoryBakery       = "Bakery"
	CategoryConfectioner = "Confectionery"
	CategorySeafood      = "Seafood"
	CategoryFarm         = "Farm"
	CategoryMeat         = "Meat"
)

func seedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Milk 3.2%", Price: price("89.90"), Img: "images/milk.png", Category: CategoryDairy, Description: "Pasteurized cow milk, 1 l"},
		{ID: 2, Name: "Greek yogurt", Price: price("129"), DiscountPrice: discount("99"), Img: "images/yogurt.png", Category: CategoryDairy},
		{ID: 3, Name: "Dumplings", Price: price("349"), Img: "images/dumplings.png", Category: CategoryFrozen, Description: "Beef and pork, 800 g"},
		{ID: 4, Name: "Vanilla ice cream", Price: price("219"), DiscountPrice: discount("179"), Img: "images/icecream.png", Category: CategoryFrozen},
		{ID: 5, Name: "Buckwheat", Price: price("119.50"), Img: "images/buckwheat.png", Category: CategoryGrocery},
		{ID: 6, Name: "Olive oil", Price: price("689"), Img: "images/olive-oil.png", Category: CategoryGrocery, Description: "Extra virgin, 500 ml"},
		{ID: 7, Name: "Apples", Price: price("149"), Img: "images/apples.png", Category: CategoryProduce, Description: "Per kilogram"},
		{ID: 8, Name: "Tomatoes", Price: price("259"), DiscountPrice: discount("199"), Img: "images/tomatoes.png", Category: CategoryProduce},
		{ID: 9, Name: "Rye bread", Price: price("69"), Img: "images/bread.png", Category: CategoryBakery},
		{ID: 10, Name: "Croissant", Price: price("89"), Category: CategoryBakery},
		{ID: 11, Name: "Dark chocolate", Price: price("159"), Img: "images/chocolate.png", Category: CategoryConfectioner},
		{ID: 12, Name: "Salmon fillet", Price: price("1290"), DiscountPrice: discount("990"), Img: "images/salmon.png", Category: CategorySeafood},
		{ID: 13, Name: "Farm eggs", Price: price("139"), Img: "images/eggs.png", Category: CategoryFarm, Description: "10 pcs"},
		{ID: 14, Name: "Chicken breast", Price: price("399"), Img: "images/chicken.png", Category: CategoryMeat},
	}
}

type MemStore struct {
	mu sync.RWMutex
	m  map[int64]Product
}

// NewMemStore returns a store holding products, or the built-in catalog when
// none are given.
func NewMemStore(products ...Product) *MemStore {
	if len(products) == 0 {
		products = seedProducts()
	}
	s := &MemStore{m: make(map[int64]Product, len(products))}
	for _, p := range products {
		s.m[p.ID] = p
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) ListSortedByID(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}
