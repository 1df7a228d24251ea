package memory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
	"dealdeck/internal/tco"
)

// Store is an in-memory OfferRepository for local runs and tests.
type Store struct {
	mu     sync.RWMutex
	offers map[string]domain.Offer
	order  []string
}

func NewStore() *Store {
	return &Store{offers: make(map[string]domain.Offer)}
}

// LoadFile seeds the store from a JSON array of raw offers and reports
// how many were stored and how many elements were skipped.
func (s *Store) LoadFile(ctx context.Context, path string) (stored, skipped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	offers, skipped, err := domain.DecodeOffers(data)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	stored, err = s.UpsertOffers(ctx, offers)
	return stored, skipped, err
}

func (s *Store) UpsertOffers(_ context.Context, offers []domain.Offer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range offers {
		o = o.Normalize()
		if _, ok := s.offers[o.ID]; !ok {
			s.order = append(s.order, o.ID)
		}
		s.offers[o.ID] = o
	}
	return len(offers), nil
}

// FetchOffers filters, orders by the aggregated sort key and pages.
func (s *Store) FetchOffers(_ context.Context, q ports.OfferQuery) ([]domain.Offer, error) {
	s.mu.RLock()
	matched := make([]domain.Offer, 0, len(s.order))
	for _, id := range s.order {
		if o := s.offers[id]; q.Filter.Match(o) {
			matched = append(matched, o)
		}
	}
	s.mu.RUnlock()

	sorted := feed.Sort(tco.AggregateAll(matched), q.Sort)
	if q.Offset >= len(sorted) {
		return []domain.Offer{}, nil
	}
	end := len(sorted)
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	out := make([]domain.Offer, 0, end-q.Offset)
	for _, a := range sorted[q.Offset:end] {
		out = append(out, a.Offer)
	}
	return out, nil
}

func (s *Store) GetOffer(_ context.Context, id string) (domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.offers[id]
	if !ok {
		return domain.Offer{}, ports.ErrNotFound
	}
	return o, nil
}

func (s *Store) ParsedSince(_ context.Context, t time.Time) ([]domain.Offer, error) {
	s.mu.RLock()
	var out []domain.Offer
	for _, id := range s.order {
		o := s.offers[id]
		if !o.ParsedAt.IsZero() && !o.ParsedAt.Before(t) {
			out = append(out, o)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ParsedAt.After(out[j].ParsedAt.Time) })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
