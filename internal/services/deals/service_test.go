package deals

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
	offers  []domain.Offer
	err     error
	queries []ports.OfferQuery
	recent  int
}

func (f *fakeSource) FetchOffers(_ context.Context, q ports.OfferQuery) ([]domain.Offer, error) {
	f.queries = append(f.queries, q)
	return f.offers, f.err
}

func (f *fakeSource) GetOffer(_ context.Context, id string) (domain.Offer, error) {
	for _, o := range f.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Offer{}, ports.ErrNotFound
}

func (f *fakeSource) ParsedSince(_ context.Context, _ time.Time) ([]domain.Offer, error) {
	f.recent++
	return f.offers, f.err
}

type mapCache map[string][]byte

func (m mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := m[key]
	return b, ok, nil
}

func (m mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m[key] = value
	return nil
}

func offer(id, model string, upfront int64) domain.Offer {
	return domain.Offer{ID: id, Model: model, Carrier: domain.CarrierSKT, Upfront: domain.Some(upfront)}
}

func TestNormalizeQuery(t *testing.T) {
	q, err := NormalizeQuery(ports.OfferQuery{})
	if err != nil || q.Limit != DefaultLimit || q.Sort != feed.SortRecency {
		t.Fatalf("defaults: %+v, %v", q, err)
	}
	for _, bad := range []ports.OfferQuery{{Limit: -1}, {Limit: 201}, {Limit: 10, Offset: -1}} {
		if _, err := NormalizeQuery(bad); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("NormalizeQuery(%+v) err = %v; want ErrInvalidQuery", bad, err)
		}
	}
	if _, err := NormalizeQuery(ports.OfferQuery{Limit: 200}); err != nil {
		t.Errorf("limit 200 should be accepted: %v", err)
	}
}

func TestPageAggregatesFiltersAndSorts(t *testing.T) {
	src := &fakeSource{offers: []domain.Offer{
		offer("a", "갤럭시 S25", 300),
		offer("b", "아이폰 16", 100),
		offer("c", "갤럭시 S24", 200),
	}}
	svc := New(src, src, src, nil, 0, logger.Discard())
	q := ports.OfferQuery{Filter: feed.Filter{Brand: feed.BrandGalaxy}, Sort: feed.SortNetAsc, Limit: 3}
	p, err := svc.Page(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if p.Fetched != 3 {
		t.Errorf("fetched: got %d, want 3", p.Fetched)
	}
	if len(p.Offers) != 2 || p.Offers[0].ID() != "c" || p.Offers[1].ID() != "a" {
		t.Fatalf("offers: %+v", p.Offers)
	}
	if p.Offers[0].Net != 200 {
		t.Errorf("net: got %d, want 200", p.Offers[0].Net)
	}
	if len(src.queries) != 1 || src.queries[0].Limit != 3 {
		t.Errorf("query passed through: %+v", src.queries)
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	src := &fakeSource{}
	svc := New(src, src, src, nil, 0, logger.Discard())
	if _, err := svc.List(context.Background(), ports.OfferQuery{Limit: 500}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("err = %v", err)
	}
	if len(src.queries) != 0 {
		t.Error("source must not be queried for an invalid request")
	}
}

func TestListWrapsSourceError(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{err: boom}
	svc := New(src, src, src, nil, 0, logger.Discard())
	if _, err := svc.List(context.Background(), ports.OfferQuery{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestGet(t *testing.T) {
	src := &fakeSource{offers: []domain.Offer{offer("a", "갤럭시 S25", 300)}}
	svc := New(src, src, src, nil, 0, logger.Discard())
	got, err := svc.Get(context.Background(), "a")
	if err != nil || got.Total != 300 {
		t.Fatalf("get: %+v, %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "zzz"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("missing id: err = %v", err)
	}
}

func TestDailyReportIsCached(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := offer("a", "갤럭시 S25", 300)
	a.ParsedAt = domain.Timestamp{Time: now.Add(-time.Hour)}
	old := offer("old", "갤럭시 S25", 999)
	old.ParsedAt = domain.Timestamp{Time: now.Add(-30 * 24 * time.Hour)}
	src := &fakeSource{offers: []domain.Offer{a, old}}
	cache := mapCache{}
	svc := New(src, src, src, cache, time.Minute, logger.Discard())
	svc.now = func() time.Time { return now }

	r, err := svc.DailyReport(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.WindowDays != 7 || len(r.Rows) != 1 || r.Rows[0].N != 1 || r.Rows[0].Median != 300 {
		t.Fatalf("report: %+v", r)
	}
	if _, err := svc.DailyReport(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.recent != 1 {
		t.Errorf("second report should come from cache, store hit %d times", src.recent)
	}
	if _, ok := cache["report:daily:2025-03-10"]; !ok {
		t.Errorf("cache keys: %v", cache)
	}
}

func TestGetFillsDisplayHints(t *testing.T) {
	o := offer("a", "아이폰 16 프로", 300)
	o.URL = "https://m.ppomppu.co.kr/new/bbs_view.php?id=phone&no=1"
	src := &fakeSource{offers: []domain.Offer{o}}
	svc := New(src, src, src, nil, 0, logger.Discard())
	got, err := svc.Get(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Site != "ppomppu.co.kr" || got.Family != "아이폰 16" {
		t.Errorf("hints: site %q family %q", got.Site, got.Family)
	}
}
