package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/logger"
	"dealdeck/internal/ports"
)

type fakeSource struct {
	offers []domain.Offer
	err    error
	q      ports.OfferQuery
	calls  int
}

func (f *fakeSource) FetchOffers(_ context.Context, q ports.OfferQuery) ([]domain.Offer, error) {
	f.q = q
	f.calls++
	return f.offers, f.err
}

type fakeStore struct {
	got   []domain.Offer
	err   error
	calls chan int
}

func (f *fakeStore) UpsertOffers(_ context.Context, offers []domain.Offer) (int, error) {
	f.got = append(f.got, offers...)
	if f.calls != nil {
		f.calls <- len(offers)
	}
	return len(offers), f.err
}

func TestOnceUpsertsLatestBatch(t *testing.T) {
	src := &fakeSource{offers: []domain.Offer{{ID: "a"}, {ID: "b"}}}
	store := &fakeStore{}
	w := New(src, store, 50, logger.Discard())
	n, err := w.Once(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("once: %d, %v", n, err)
	}
	if src.q.Limit != 50 || src.q.Sort != feed.SortRecency || src.q.Offset != 0 {
		t.Errorf("query: %+v", src.q)
	}
	if len(store.got) != 2 {
		t.Errorf("stored: %+v", store.got)
	}
}

func TestOnceErrors(t *testing.T) {
	boom := errors.New("boom")
	w := New(&fakeSource{err: boom}, &fakeStore{}, 0, logger.Discard())
	if _, err := w.Once(context.Background()); !errors.Is(err, boom) {
		t.Errorf("fetch err = %v", err)
	}
	store := &fakeStore{err: boom}
	w = New(&fakeSource{offers: []domain.Offer{{ID: "a"}}}, store, 0, logger.Discard())
	if _, err := w.Once(context.Background()); !errors.Is(err, boom) {
		t.Errorf("store err = %v", err)
	}
}

func TestOnceEmptyBatchSkipsStore(t *testing.T) {
	store := &fakeStore{}
	w := New(&fakeSource{}, store, 10, logger.Discard())
	if n, err := w.Once(context.Background()); n != 0 || err != nil {
		t.Fatalf("once: %d, %v", n, err)
	}
	if store.got != nil {
		t.Error("store should not be called for an empty batch")
	}
}

func TestRunIngestsImmediately(t *testing.T) {
	store := &fakeStore{calls: make(chan int, 4)}
	w := New(&fakeSource{offers: []domain.Offer{{ID: "a"}}}, store, 10, logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, time.Hour)
	select {
	case n := <-store.calls:
		if n != 1 {
			t.Errorf("first tick stored %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not ingest on start")
	}
}
