package feed

import (
	"testing"
	"time"

	"dealdeck/internal/domain"
	"dealdeck/internal/tco"
)

func TestExtractFamily(t *testing.T) {
	tests := []struct{ model, want string }{
		{"아이폰 16 프로 맥스", "아이폰 16"},
		{"아이폰16", "아이폰 16"},
		{"갤럭시 S25 울트라", "갤럭시 S25"},
		{"갤럭시 Z 폴드 6", "갤럭시 Z 폴드 6"},
		{"갤럭시 Z 플립6", "갤럭시 Z 플립 6"},
		{"갤럭시 퀀텀 5", "갤럭시 퀀텀 5"},
		{"픽셀 9 프로", "픽셀 9"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractFamily(tt.model); got != tt.want {
			t.Errorf("ExtractFamily(%q) = %q; want %q", tt.model, got, tt.want)
		}
	}
}

func TestDetectBrand(t *testing.T) {
	if got := DetectBrand("갤럭시 S25"); got != BrandGalaxy {
		t.Errorf("galaxy: got %s", got)
	}
	if got := DetectBrand("아이폰 16"); got != BrandIPhone {
		t.Errorf("iphone: got %s", got)
	}
	if got := DetectBrand("픽셀 9"); got != BrandOther {
		t.Errorf("other: got %s", got)
	}
}

func TestNormalizeCapacity(t *testing.T) {
	empty, unknown, gb := "", "미상", "256GB"
	if NormalizeCapacity(nil) != UnknownCapacity || NormalizeCapacity(&empty) != UnknownCapacity || NormalizeCapacity(&unknown) != UnknownCapacity {
		t.Error("missing capacities should normalize to 미상")
	}
	if NormalizeCapacity(&gb) != "256GB" {
		t.Error("capacity should pass through")
	}
}

func TestSourceSite(t *testing.T) {
	tests := []struct{ url, want string }{
		{"https://www.ppomppu.co.kr/zboard/view.php?id=phone&no=1", "ppomppu.co.kr"},
		{"https://cafe.naver.com/some/123", "naver.com"},
		{"", ""},
		{"not a url", ""},
	}
	for _, tt := range tests {
		if got := SourceSite(tt.url); got != tt.want {
			t.Errorf("SourceSite(%q) = %q; want %q", tt.url, got, tt.want)
		}
	}
}

func TestFilterMatch(t *testing.T) {
	o := domain.Offer{ID: "1", Model: "아이폰 16 프로", Carrier: "SKT", Channel: domain.ChannelOnline, City: "서울"}
	tests := []struct {
		name string
		f    Filter
		want bool
	}{
		{"zero", Filter{}, true},
		{"carrier", Filter{Carrier: "SKT"}, true},
		{"carrier mismatch", Filter{Carrier: "KT"}, false},
		{"brand", Filter{Brand: BrandIPhone}, true},
		{"brand mismatch", Filter{Brand: BrandGalaxy}, false},
		{"family", Filter{Family: "아이폰 16"}, true},
		{"family mismatch", Filter{Family: "아이폰 15"}, false},
		{"city and channel", Filter{City: "서울", Channel: "online"}, true},
		{"model exact", Filter{Model: "아이폰 16"}, false},
	}
	for _, tt := range tests {
		if got := tt.f.Match(o); got != tt.want {
			t.Errorf("%s: Match = %v; want %v", tt.name, got, tt.want)
		}
	}
}

func TestDailySummary(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	gb := "256GB"
	mk := func(id, model string, capacity *string, net int64, age time.Duration) domain.AggregatedOffer {
		return tco.Aggregate(domain.Offer{
			ID: id, Model: model, Capacity: capacity,
			TCONet:   domain.Some(net),
			ParsedAt: domain.Timestamp{Time: now.Add(-age)},
		})
	}
	offers := []domain.AggregatedOffer{
		mk("1", "아이폰 16", &gb, 400, time.Hour),
		mk("2", "아이폰 16", &gb, 100, 2*time.Hour),
		mk("3", "아이폰 16", &gb, 200, 3*time.Hour),
		mk("4", "아이폰 16", &gb, 300, 4*time.Hour),
		mk("5", "아이폰 16", &gb, 9999, 8*24*time.Hour),
		mk("6", "갤럭시 S25", nil, 50, time.Hour),
	}
	rows := DailySummary(offers, now)
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[0].Model != "갤럭시 S25" || rows[0].Capacity != UnknownCapacity || rows[0].N != 1 {
		t.Errorf("first row: got %+v", rows[0])
	}
	r := rows[1]
	if r.N != 4 || r.Min != 100 || r.Max != 400 {
		t.Errorf("iphone row: got %+v", r)
	}
	if r.Median != 250 || r.P25 != 175 || r.P75 != 325 || r.Avg != 250 {
		t.Errorf("iphone distribution: got %+v", r)
	}
	if r.TS != "2025-05-10" {
		t.Errorf("ts: got %q", r.TS)
	}
}
