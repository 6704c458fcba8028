package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string]Product{}}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Insert(ctx context.Context, f Fields) (Product, error) {
	p := Product{ID: newID(), Code: f.Code, Name: f.Name, Price: f.Price}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
	return p, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) Update(ctx context.Context, id string, f Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	s.m[id] = Product{ID: id, Code: f.Code, Name: f.Name, Price: f.Price}
	return nil
}

func (s *MemStore) FindEqual(ctx context.Context, field Field, value string) ([]Product, error) {
	return s.filter(field, func(v string) bool { return v == value })
}

func (s *MemStore) FindRange(ctx context.Context, field Field, lo, hi string) ([]Product, error) {
	return s.filter(field, func(v string) bool { return v >= lo && v <= hi })
}

func (s *MemStore) ListOrderedBy(ctx context.Context, field Field) ([]Product, error) {
	return s.filter(field, func(string) bool { return true })
}

// filter compares Go strings bytewise, which for UTF-8 is code point order.
func (s *MemStore) filter(field Field, keep func(string) bool) ([]Product, error) {
	if !field.valid() {
		return nil, errUnknownField(field)
	}

	s.mu.RLock()
	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		if keep(field.of(p)) {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := field.of(out[i]), field.of(out[j])
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
