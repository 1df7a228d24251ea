package deals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
	"dealdeck/internal/tco"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var ErrInvalidQuery = errString("invalid query")

type errString string

func (e errString) Error() string { return string(e) }

// RecentOffers feeds the daily report.
type RecentOffers interface {
	ParsedSince(ctx context.Context, t time.Time) ([]domain.Offer, error)
}

type Service struct {
	source ports.OfferSource
	lookup ports.OfferLookup
	recent RecentOffers
	cache  ports.Cache
	ttl    time.Duration
	log    *slog.Logger
	now    func() time.Time
}

// New wires the service. cache may be nil.
func New(source ports.OfferSource, lookup ports.OfferLookup, recent RecentOffers, cache ports.Cache, ttl time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{source: source, lookup: lookup, recent: recent, cache: cache, ttl: ttl, log: log, now: time.Now}
}

// Page is one aggregated page. Fetched counts the raw offers the source
// returned before any filtering, which is what decides exhaustion.
type Page struct {
	Offers  []domain.AggregatedOffer
	Fetched int
}

// Page fetches, aggregates and orders one page. Offers the source let
// through despite the filter are dropped.
func (s *Service) Page(ctx context.Context, q ports.OfferQuery) (Page, error) {
	raw, err := s.source.FetchOffers(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("fetch offers: %w", err)
	}
	agg := make([]domain.AggregatedOffer, 0, len(raw))
	for _, o := range raw {
		if q.Filter.Match(o) {
			agg = append(agg, present(o))
		}
	}
	return Page{Offers: feed.Sort(agg, q.Sort), Fetched: len(raw)}, nil
}

// NormalizeQuery applies the listing defaults and bounds.
func NormalizeQuery(q ports.OfferQuery) (ports.OfferQuery, error) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return q, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, MaxLimit)
	}
	if q.Offset < 0 {
		return q, fmt.Errorf("%w: offset must be >= 0", ErrInvalidQuery)
	}
	if q.Sort == "" {
		q.Sort = feed.SortRecency
	}
	return q, nil
}

func (s *Service) List(ctx context.Context, q ports.OfferQuery) ([]domain.AggregatedOffer, error) {
	q, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}
	p, err := s.Page(ctx, q)
	if err != nil {
		return nil, err
	}
	return p.Offers, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.AggregatedOffer, error) {
	o, err := s.lookup.GetOffer(ctx, id)
	if err != nil {
		return domain.AggregatedOffer{}, err
	}
	return present(o), nil
}

// present aggregates an offer and fills its display hints.
func present(o domain.Offer) domain.AggregatedOffer {
	a := tco.Aggregate(o)
	a.Site = feed.SourceSite(o.URL)
	a.Family = feed.ExtractFamily(o.Model)
	return a
}

type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	WindowDays  int               `json:"window_days"`
	Rows        []feed.SummaryRow `json:"rows"`
}

// DailyReport summarizes the last week of offers. Results are cached per
// calendar day for the configured ttl.
func (s *Service) DailyReport(ctx context.Context) (Report, error) {
	now := s.now()
	key := "report:daily:" + now.Format("2006-01-02")
	if s.cache != nil {
		if b, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn("report cache get failed", "key", key, "error", err)
		} else if ok {
			var r Report
			if err := json.Unmarshal(b, &r); err == nil {
				return r, nil
			}
		}
	}

	offers, err := s.recent.ParsedSince(ctx, now.Add(-feed.ReportWindow))
	if err != nil {
		return Report{}, fmt.Errorf("recent offers: %w", err)
	}
	r := Report{
		GeneratedAt: now.UTC(),
		WindowDays:  int(feed.ReportWindow / (24 * time.Hour)),
		Rows:        feed.DailySummary(tco.AggregateAll(offers), now),
	}
	if s.cache != nil {
		if b, err := json.Marshal(r); err == nil {
			if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
				s.log.Warn("report cache set failed", "key", key, "error", err)
			}
		}
	}
	return r, nil
}
