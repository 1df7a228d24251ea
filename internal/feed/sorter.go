package feed

import (
	"sort"
	"strings"

	"dealdeck/internal/domain"
)

// SortKey selects the feed order.
type SortKey string

const (
	SortRecency  SortKey = "latest"
	SortNetAsc   SortKey = "net_asc"
	SortTotalAsc SortKey = "tco_asc"
)

// ParseSortKey accepts the wire names and their long aliases. The empty
// string selects recency.
func ParseSortKey(s string) (SortKey, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latest", "recency", "recent":
		return SortRecency, true
	case "net_asc", "net-ascending":
		return SortNetAsc, true
	case "tco_asc", "total_asc", "total-ascending":
		return SortTotalAsc, true
	}
	return "", false
}

// Sort returns a new slice ordered by key. Equal keys keep their input order
// and the input is never modified. Recency puts the newest parse time first;
// an offer without one sorts as the oldest.
func Sort(offers []domain.AggregatedOffer, key SortKey) []domain.AggregatedOffer {
	out := make([]domain.AggregatedOffer, len(offers))
	copy(out, offers)

	var less func(a, b domain.AggregatedOffer) bool
	switch key {
	case SortNetAsc:
		less = func(a, b domain.AggregatedOffer) bool { return a.Net < b.Net }
	case SortTotalAsc:
		less = func(a, b domain.AggregatedOffer) bool { return a.Total < b.Total }
	default:
		less = func(a, b domain.AggregatedOffer) bool {
			return parsedUnix(a) > parsedUnix(b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func parsedUnix(a domain.AggregatedOffer) int64 {
	if a.Offer.ParsedAt.IsZero() {
		return 0
	}
	return a.Offer.ParsedAt.UnixNano()
}
