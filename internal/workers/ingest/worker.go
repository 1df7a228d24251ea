package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
)

// Store receives ingested offers.
type Store interface {
	UpsertOffers(ctx context.Context, offers []domain.Offer) (int, error)
}

// Worker polls an upstream source for the newest offers and upserts them
// into the store.
type Worker struct {
	source ports.OfferSource
	store  Store
	batch  int
	log    *slog.Logger
}

func New(source ports.OfferSource, store Store, batch int, log *slog.Logger) *Worker {
	if batch < 1 {
		batch = 200
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{source: source, store: store, batch: batch, log: log}
}

// Once pulls one batch of the most recent offers and stores it.
func (w *Worker) Once(ctx context.Context) (int, error) {
	offers, err := w.source.FetchOffers(ctx, ports.OfferQuery{Sort: feed.SortRecency, Limit: w.batch})
	if err != nil {
		return 0, fmt.Errorf("fetch upstream: %w", err)
	}
	if len(offers) == 0 {
		return 0, nil
	}
	n, err := w.store.UpsertOffers(ctx, offers)
	if err != nil {
		return 0, fmt.Errorf("upsert offers: %w", err)
	}
	return n, nil
}

// Run ingests immediately and then every interval until ctx is done.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	w.tick(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	n, err := w.Once(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("ingest failed", "error", err)
		}
		return
	}
	w.log.Info("ingest done", "upserted", n)
}
