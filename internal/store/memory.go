package store

import (
	"context"
	"sync"

	"priceradar/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local tooling.
type MemoryStore struct {
	mu        sync.Mutex
	products  map[string]models.Product
	listings  []models.Listing
	history   map[string][]models.PricePoint
	nextID    uint
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]models.Product),
		history:  make(map[string][]models.PricePoint),
		nextID:   1,
	}
}

func (s *MemoryStore) FindProductByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (s *MemoryStore) FindProductByName(_ context.Context, name string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Name == name {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) FindProducts(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *MemoryStore) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *MemoryStore) DeleteDemoProducts(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, p := range s.products {
		if !p.IsDemo {
			continue
		}
		delete(s.products, id)
		delete(s.history, id)
		kept := s.listings[:0]
		for _, l := range s.listings {
			if l.ProductID != id {
				kept = append(kept, l)
			}
		}
		s.listings = kept
		deleted++
	}
	return deleted, nil
}

func (s *MemoryStore) FindListings(_ context.Context, productID string) ([]models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Listing
	for _, l := range s.listings {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID
	s.nextID++
	s.listings = append(s.listings, *l)
	return nil
}

func (s *MemoryStore) UpdateListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.listings {
		if s.listings[i].ID == l.ID {
			s.listings[i] = *l
			return nil
		}
	}
	s.listings = append(s.listings, *l)
	return nil
}

func (s *MemoryStore) DeleteListings(_ context.Context, productID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	kept := s.listings[:0]
	for _, l := range s.listings {
		if l.ProductID == productID {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	s.listings = kept
	return deleted, nil
}

func (s *MemoryStore) FindHistory(_ context.Context, productID string) ([]models.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PricePoint(nil), s.history[productID]...), nil
}

func (s *MemoryStore) ReplaceHistory(_ context.Context, productID string, points []models.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.PricePoint, len(points))
	copy(cp, points)
	for i := range cp {
		cp[i].ProductID = productID
	}
	s.history[productID] = cp
	return nil
}
