package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
)

func ids(offers []domain.Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.ID
	}
	return out
}

func seed(t *testing.T) *Store {
	t.Helper()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewStore()
	_, err := s.UpsertOffers(context.Background(), []domain.Offer{
		{ID: "a", Model: "갤럭시 S25", Carrier: domain.CarrierSKT, Upfront: domain.Some(300), ParsedAt: domain.Timestamp{Time: base}},
		{ID: "b", Model: "아이폰 16", Carrier: domain.CarrierKT, Upfront: domain.Some(100), ParsedAt: domain.Timestamp{Time: base.Add(2 * time.Hour)}},
		{ID: "c", Model: "갤럭시 S24", Carrier: domain.CarrierSKT, Upfront: domain.Some(200), ParsedAt: domain.Timestamp{Time: base.Add(time.Hour)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestFetchOrdersAndPages(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	got, _ := s.FetchOffers(ctx, ports.OfferQuery{Sort: feed.SortRecency, Limit: 10})
	if want := "[b c a]"; fmt.Sprint(ids(got)) != want {
		t.Errorf("latest: %v", ids(got))
	}
	got, _ = s.FetchOffers(ctx, ports.OfferQuery{Sort: feed.SortTotalAsc, Limit: 2})
	if want := "[b c]"; fmt.Sprint(ids(got)) != want {
		t.Errorf("total asc page 1: %v", ids(got))
	}
	got, _ = s.FetchOffers(ctx, ports.OfferQuery{Sort: feed.SortTotalAsc, Limit: 2, Offset: 2})
	if want := "[a]"; fmt.Sprint(ids(got)) != want {
		t.Errorf("total asc page 2: %v", ids(got))
	}
	got, _ = s.FetchOffers(ctx, ports.OfferQuery{Limit: 2, Offset: 9})
	if len(got) != 0 {
		t.Errorf("past the end: %v", ids(got))
	}
	got, _ = s.FetchOffers(ctx, ports.OfferQuery{Filter: feed.Filter{Carrier: "SKT"}, Sort: feed.SortNetAsc})
	if want := "[c a]"; fmt.Sprint(ids(got)) != want {
		t.Errorf("filtered: %v", ids(got))
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	s := seed(t)
	s.UpsertOffers(context.Background(), []domain.Offer{{ID: "a", Model: "갤럭시 S25 울트라"}})
	if s.Len() != 3 {
		t.Errorf("len: %d", s.Len())
	}
	o, err := s.GetOffer(context.Background(), "a")
	if err != nil || o.Model != "갤럭시 S25 울트라" {
		t.Errorf("get: %+v, %v", o, err)
	}
	if _, err := s.GetOffer(context.Background(), "zz"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestParsedSince(t *testing.T) {
	s := seed(t)
	s.UpsertOffers(context.Background(), []domain.Offer{{ID: "undated", Model: "x"}})
	got, _ := s.ParsedSince(context.Background(), time.Date(2025, 5, 1, 0, 30, 0, 0, time.UTC))
	if want := "[b c]"; fmt.Sprint(ids(got)) != want {
		t.Errorf("since: %v", ids(got))
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.json")
	data := `[{"id":"x1","model":"갤럭시 S25","upfront":"120,000원"}, 42, {"model":"아이폰 16","url":"https://x.example/p/1"}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore()
	stored, skipped, err := s.LoadFile(context.Background(), path)
	if err != nil || stored != 2 || skipped != 1 {
		t.Fatalf("load: stored=%d skipped=%d err=%v", stored, skipped, err)
	}
	o, err := s.GetOffer(context.Background(), "x1")
	if err != nil || o.Upfront.V != 120000 {
		t.Errorf("x1: %+v, %v", o, err)
	}
}
