package ports

import (
	"context"
	"time"

	"dealdeck/internal/domain"
)

// OfferRepository is the offer store. Upserts replace by id.
type OfferRepository interface {
	OfferSource
	OfferLookup
	UpsertOffers(ctx context.Context, offers []domain.Offer) (int, error)
	// ParsedSince returns offers parsed at or after t, newest first.
	ParsedSince(ctx context.Context, t time.Time) ([]domain.Offer, error)
	Ping(ctx context.Context) error
}
