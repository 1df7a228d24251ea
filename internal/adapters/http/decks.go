package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dealdeck/internal/deck"
	"dealdeck/internal/feed"
	"dealdeck/internal/services/sessions"
)

type createDeckRequest struct {
	Sort      string      `json:"sort"`
	CardWidth int         `json:"card_width"`
	Filter    feed.Filter `json:"filter"`
}

func (s *Server) createDeck(w http.ResponseWriter, r *http.Request) {
	var body createDeckRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	key, ok := feed.ParseSortKey(body.Sort)
	if !ok {
		writeError(w, r, s.log, badRequest("unknown sort "+strconv.Quote(body.Sort)))
		return
	}
	if body.Filter.Brand != "" {
		b, ok := feed.ParseBrand(string(body.Filter.Brand))
		if !ok {
			writeError(w, r, s.log, badRequest("unknown brand "+strconv.Quote(string(body.Filter.Brand))))
			return
		}
		body.Filter.Brand = b
	}
	st, err := s.decks.Create(r.Context(), sessions.CreateRequest{Filter: body.Filter, Sort: key, CardWidth: body.CardWidth})
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) getDeck(w http.ResponseWriter, r *http.Request) {
	st, err := s.decks.State(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) deleteDeck(w http.ResponseWriter, r *http.Request) {
	if err := s.decks.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) touchDeck(w http.ResponseWriter, r *http.Request) {
	var in sessions.TouchInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, s.log, err)
		return
	}
	res, err := s.decks.Touch(chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type pressResponse struct {
	Outcome deck.Result    `json:"outcome"`
	State   sessions.State `json:"state"`
}

func (s *Server) pressDeck(dec deck.Decision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, st, err := s.decks.Press(r.Context(), chi.URLParam(r, "id"), dec)
		if err != nil {
			writeError(w, r, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, pressResponse{Outcome: res, State: st})
	}
}

func (s *Server) getDecisions(w http.ResponseWriter, r *http.Request) {
	d, err := s.decks.Decisions(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// decodeBody decodes a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid JSON body")
	}
	return nil
}
