package ports

import (
	"context"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
)

// OfferQuery selects one page of raw offers.
type OfferQuery struct {
	Filter feed.Filter
	Sort   feed.SortKey
	Limit  int
	Offset int
}

// OfferSource pages through raw offers in query order. A page shorter
// than Limit means the source is exhausted.
type OfferSource interface {
	FetchOffers(ctx context.Context, q OfferQuery) ([]domain.Offer, error)
}

// OfferLookup fetches one offer by id or returns ErrNotFound.
type OfferLookup interface {
	GetOffer(ctx context.Context, id string) (domain.Offer, error)
}

// Cache stores opaque payloads with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RefillQueue schedules a deck session for a refill. Enqueue reports false
// when the queue is full and nothing was scheduled.
type RefillQueue interface {
	Enqueue(sessionID string) bool
}

var ErrNotFound = errString("not found")

type errString string

func (e errString) Error() string { return string(e) }
