package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/ports"
)

// Source caches offer pages of an inner OfferSource. Cache failures are
// logged and fall through to the inner source.
type Source struct {
	inner ports.OfferSource
	cache ports.Cache
	ttl   time.Duration
	log   *slog.Logger
}

func NewSource(inner ports.OfferSource, c ports.Cache, ttl time.Duration, log *slog.Logger) *Source {
	if log == nil {
		log = slog.Default()
	}
	return &Source{inner: inner, cache: c, ttl: ttl, log: log}
}

func (s *Source) FetchOffers(ctx context.Context, q ports.OfferQuery) ([]domain.Offer, error) {
	key, err := pageKey(q)
	if err != nil {
		return s.inner.FetchOffers(ctx, q)
	}
	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("page cache get failed", "error", err)
	} else if ok {
		var offers []domain.Offer
		if err := json.Unmarshal(b, &offers); err == nil {
			return offers, nil
		}
	}

	offers, err := s.inner.FetchOffers(ctx, q)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(offers); err == nil {
		if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
			s.log.Warn("page cache set failed", "error", err)
		}
	}
	return offers, nil
}

func pageKey(q ports.OfferQuery) (string, error) {
	f, err := json.Marshal(q.Filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("offers:%s:%d:%d:%s", q.Sort, q.Limit, q.Offset, f), nil
}
