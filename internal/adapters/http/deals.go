package httpadapter

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
	"dealdeck/internal/services/deals"
)

type dealsResponse struct {
	Items  any    `json:"items"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Sort   string `json:"sort"`
}

func (s *Server) listDeals(w http.ResponseWriter, r *http.Request) {
	q, err := parseOfferQuery(r.URL.Query())
	if err == nil {
		q, err = deals.NormalizeQuery(q)
	}
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	items, err := s.deals.List(r.Context(), q)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dealsResponse{Items: items, Count: len(items), Limit: q.Limit, Offset: q.Offset, Sort: string(q.Sort)})
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) {
	a, err := s.deals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) getDailyReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deals.DailyReport(r.Context())
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// parseOfferQuery reads filters, sort, limit and offset. Bounds on limit
// and offset are enforced by the deals service.
func parseOfferQuery(v url.Values) (ports.OfferQuery, error) {
	var q ports.OfferQuery
	f, err := parseFilter(v)
	if err != nil {
		return q, err
	}
	q.Filter = f
	if raw := v.Get("sort"); raw != "" {
		key, ok := feed.ParseSortKey(raw)
		if !ok {
			return q, badRequest("unknown sort " + strconv.Quote(raw))
		}
		q.Sort = key
	}
	if q.Limit, err = intParam(v, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(v, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func parseFilter(v url.Values) (feed.Filter, error) {
	f := feed.Filter{
		Model:    v.Get("model"),
		Carrier:  v.Get("carrier"),
		City:     v.Get("city"),
		MoveType: v.Get("move_type"),
		Contract: v.Get("contract"),
		Payment:  v.Get("payment"),
		Channel:  v.Get("channel"),
		Family:   v.Get("family"),
	}
	if raw := v.Get("brand"); raw != "" {
		b, ok := feed.ParseBrand(raw)
		if !ok {
			return f, badRequest("unknown brand " + strconv.Quote(raw))
		}
		f.Brand = b
	}
	return f, nil
}

func intParam(v url.Values, key string) (int, error) {
	raw := v.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(key + " must be an integer")
	}
	if key == "limit" && n == 0 {
		return 0, badRequest("limit must be between 1 and 200")
	}
	return n, nil
}
