package postgres

import (
	"fmt"
	"testing"

	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name string
		q    ports.OfferQuery
		sql  string
		args string
	}{
		{
			name: "defaults",
			q:    ports.OfferQuery{},
			sql:  "SELECT payload FROM offers ORDER BY parsed_at DESC NULLS LAST, id OFFSET $1",
			args: "[0]",
		},
		{
			name: "filters and net order",
			q: ports.OfferQuery{
				Filter: feed.Filter{Carrier: "SKT", City: "서울", Payment: "할부"},
				Sort:   feed.SortNetAsc,
				Limit:  30,
				Offset: 60,
			},
			sql:  "SELECT payload FROM offers WHERE carrier = $1 AND city = $2 AND payment = $3 ORDER BY net ASC, id LIMIT $4 OFFSET $5",
			args: "[SKT 서울 할부 30 60]",
		},
		{
			name: "brand and family",
			q: ports.OfferQuery{
				Filter: feed.Filter{Brand: feed.BrandGalaxy, Family: "갤럭시 S25"},
				Sort:   feed.SortTotalAsc,
				Limit:  10,
			},
			sql:  "SELECT payload FROM offers WHERE starts_with(model, $1) AND starts_with(model, $2) ORDER BY total ASC, id LIMIT $3 OFFSET $4",
			args: "[갤럭시 갤럭시 S25 10 0]",
		},
		{
			name: "other brand",
			q:    ports.OfferQuery{Filter: feed.Filter{Brand: feed.BrandOther}, Limit: 5},
			sql:  "SELECT payload FROM offers WHERE NOT starts_with(model, $1) AND NOT starts_with(model, $2) ORDER BY parsed_at DESC NULLS LAST, id LIMIT $3 OFFSET $4",
			args: "[갤럭시 아이폰 5 0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildListQuery(tt.q)
			if sql != tt.sql {
				t.Errorf("sql:\n got  %s\n want %s", sql, tt.sql)
			}
			if got := fmt.Sprint(args); got != tt.args {
				t.Errorf("args: got %s, want %s", got, tt.args)
			}
		})
	}
}
