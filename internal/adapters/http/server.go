package httpadapter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dealdeck/internal/deck"
	"dealdeck/internal/domain"
	"dealdeck/internal/ports"
	"dealdeck/internal/services/deals"
	"dealdeck/internal/services/sessions"
)

// Deals serves the aggregated offer feed.
type Deals interface {
	List(ctx context.Context, q ports.OfferQuery) ([]domain.AggregatedOffer, error)
	Get(ctx context.Context, id string) (domain.AggregatedOffer, error)
	DailyReport(ctx context.Context) (deals.Report, error)
}

// Decks drives per-viewer swipe decks.
type Decks interface {
	Create(ctx context.Context, req sessions.CreateRequest) (sessions.State, error)
	State(id string) (sessions.State, error)
	Delete(id string) error
	Touch(id string, in sessions.TouchInput) (sessions.TouchResult, error)
	Press(ctx context.Context, id string, dec deck.Decision) (deck.Result, sessions.State, error)
	Decisions(id string) (sessions.Decisions, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	deals  Deals
	decks  Decks
	health Pinger
	opts   Options
	log    *slog.Logger
}

// New builds the server. health may be nil.
func New(deals Deals, decks Decks, health Pinger, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{deals: deals, decks: decks, health: health, opts: opts, log: log}
}

// touchRateFactor scales the touch bucket: a swipe posts one request per
// pointer sample.
const touchRateFactor = 20

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(cors(s.opts.CORSOrigins))

	limited := s.limiter(1)
	touchLimited := s.limiter(touchRateFactor)

	r.Group(func(r chi.Router) {
		r.Use(limited)
		r.Get("/healthz", s.getHealthz)
		r.Get("/deals", s.listDeals)
		r.Get("/deals/{id}", s.getDeal)
		r.Get("/reports/daily/latest", s.getDailyReport)
	})

	r.Route("/decks", func(r chi.Router) {
		r.With(limited).Post("/", s.createDeck)
		r.Route("/{id}", func(r chi.Router) {
			r.With(touchLimited).Post("/touch", s.touchDeck)
			r.Group(func(r chi.Router) {
				r.Use(limited)
				r.Get("/", s.getDeck)
				r.Delete("/", s.deleteDeck)
				r.Post("/like", s.pressDeck(deck.Like))
				r.Post("/skip", s.pressDeck(deck.Skip))
				r.Get("/decisions", s.getDecisions)
			})
		})
	})
	return r
}

// limiter returns a per-IP rate limit middleware with the configured rate
// scaled by factor, or a pass-through when limiting is off.
func (s *Server) limiter(factor int) func(http.Handler) http.Handler {
	if s.opts.RateLimitRPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newIPLimiter(s.opts.RateLimitRPS*float64(factor), s.opts.RateLimitBurst*factor)
	return rateLimit(l, s.log)
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			s.log.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
