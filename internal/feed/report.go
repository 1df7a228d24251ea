package feed

import (
	"math"
	"sort"
	"time"

	"dealdeck/internal/domain"
)

// ReportWindow is the look-back of the daily summary.
const ReportWindow = 7 * 24 * time.Hour

// SummaryRow is the net-cost distribution of one model and capacity.
type SummaryRow struct {
	Model    string `json:"model"`
	Capacity string `json:"capacity"`
	TS       string `json:"ts"`
	N        int    `json:"n"`
	Min      int64  `json:"min"`
	P25      int64  `json:"p25"`
	Median   int64  `json:"median"`
	P75      int64  `json:"p75"`
	Max      int64  `json:"max"`
	Avg      int64  `json:"avg"`
}

// DailySummary groups offers parsed within ReportWindow of now by model and
// capacity. Rows are ordered by median, cheapest first.
func DailySummary(offers []domain.AggregatedOffer, now time.Time) []SummaryRow {
	type key struct{ model, capacity string }
	groups := make(map[key][]int64)
	var order []key
	since := now.Add(-ReportWindow)

	for _, a := range offers {
		at := a.Offer.ParsedAt.Time
		if at.IsZero() || at.Before(since) || at.After(now) {
			continue
		}
		k := key{a.Offer.Model, NormalizeCapacity(a.Offer.Capacity)}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], a.Net)
	}

	ts := now.Format("2006-01-02")
	rows := make([]SummaryRow, 0, len(order))
	for _, k := range order {
		nets := groups[k]
		sort.Slice(nets, func(i, j int) bool { return nets[i] < nets[j] })
		var sum int64
		for _, v := range nets {
			sum += v
		}
		rows = append(rows, SummaryRow{
			Model:    k.model,
			Capacity: k.capacity,
			TS:       ts,
			N:        len(nets),
			Min:      nets[0],
			P25:      percentile(nets, 0.25),
			Median:   percentile(nets, 0.5),
			P75:      percentile(nets, 0.75),
			Max:      nets[len(nets)-1],
			Avg:      int64(math.Round(float64(sum) / float64(len(nets)))),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Median < rows[j].Median })
	return rows
}

// percentile interpolates linearly between closest ranks of sorted values.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	v := float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
	return int64(math.Round(v))
}
