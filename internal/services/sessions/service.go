// Package sessions keeps one swipe deck per viewer and feeds it pages from
// the offer store. Each session is guarded by its own mutex; the deck
// itself is single threaded.
package sessions

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dealdeck/internal/deck"
	"dealdeck/internal/domain"
	"dealdeck/internal/feed"
	"dealdeck/internal/ports"
	"dealdeck/internal/services/deals"
)

var (
	ErrUnknownSession = errString("unknown session")
	ErrEmptyStack     = errString("no card on top")
	ErrPressPending   = errString("press already pending")
	ErrInvalidPhase   = errString("invalid touch phase")
)

type errString string

func (e errString) Error() string { return string(e) }

// Pager is the page loader; deals.Service implements it.
type Pager interface {
	Page(ctx context.Context, q ports.OfferQuery) (deals.Page, error)
}

type Options struct {
	PageSize     int
	ButtonSettle time.Duration
	IdleTimeout  time.Duration
}

type Service struct {
	pages Pager
	opts  Options
	log   *slog.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	queue    ports.RefillQueue
	sessions map[string]*session
}

type session struct {
	mu        sync.Mutex
	id        string
	query     ports.OfferQuery
	deck      *deck.Deck
	offset    int
	refilling bool
	exhausted bool
	decided   map[string]struct{}
	liked     []domain.AggregatedOffer
	skipped   []domain.AggregatedOffer
	lastSeen  time.Time
}

func New(pages Pager, opts Options, log *slog.Logger) *Service {
	if opts.PageSize < 1 {
		opts.PageSize = 30
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pages:    pages,
		opts:     opts,
		log:      log,
		now:      time.Now,
		sleep:    sleepCtx,
		sessions: make(map[string]*session),
	}
}

// SetQueue attaches the refill queue. Without one, decks only ever hold
// their first page.
func (s *Service) SetQueue(q ports.RefillQueue) {
	s.mu.Lock()
	s.queue = q
	s.mu.Unlock()
}

type CreateRequest struct {
	Filter    feed.Filter  `json:"filter"`
	Sort      feed.SortKey `json:"sort"`
	CardWidth int          `json:"card_width"`
}

type State struct {
	ID        string                   `json:"id"`
	Top       *domain.AggregatedOffer  `json:"top"`
	Next      []domain.AggregatedOffer `json:"next,omitempty"`
	Depth     int                      `json:"depth"`
	Threshold int                      `json:"threshold"`
	Refilling bool                     `json:"refilling"`
	Pressing  bool                     `json:"pressing"`
	Exhausted bool                     `json:"exhausted"`
	Liked     int                      `json:"liked"`
	Skipped   int                      `json:"skipped"`
}

// Create opens a session and loads its first page.
func (s *Service) Create(ctx context.Context, req CreateRequest) (State, error) {
	if req.Sort == "" {
		req.Sort = feed.SortRecency
	}
	q := ports.OfferQuery{Filter: req.Filter, Sort: req.Sort, Limit: s.opts.PageSize}
	page, err := s.pages.Page(ctx, q)
	if err != nil {
		return State{}, err
	}

	sess := &session{
		id:       uuid.NewString(),
		query:    q,
		decided:  make(map[string]struct{}),
		lastSeen: s.now(),
	}
	sess.deck = deck.New(req.CardWidth, deck.Callbacks{
		OnLike: func(o domain.AggregatedOffer) {
			sess.liked = append(sess.liked, o)
			sess.decided[o.ID()] = struct{}{}
		},
		OnSkip: func(o domain.AggregatedOffer) {
			sess.skipped = append(sess.skipped, o)
			sess.decided[o.ID()] = struct{}{}
		},
		OnNeedMore: func() { s.requestRefill(sess) },
	})
	sess.deck.Merge(page.Offers)
	sess.offset = page.Fetched
	sess.exhausted = page.Fetched < s.opts.PageSize

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.kick(sess)
	s.log.Info("deck session created", "session", sess.id, "sort", string(q.Sort), "depth", sess.deck.Len())
	return sess.state(), nil
}

func (s *Service) State(id string) (State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return State{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	s.kick(sess)
	return sess.state(), nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrUnknownSession
	}
	delete(s.sessions, id)
	return nil
}

type Phase string

const (
	PhaseStart  Phase = "start"
	PhaseMove   Phase = "move"
	PhaseEnd    Phase = "end"
	PhaseCancel Phase = "cancel"
)

type TouchInput struct {
	Phase     Phase   `json:"phase"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	CardWidth int     `json:"card_width,omitempty"`
}

type TouchResult struct {
	Sample  deck.Sample  `json:"sample"`
	Outcome *deck.Result `json:"outcome,omitempty"`
	State   State        `json:"state"`
}

// Touch feeds one touch event to the session's deck.
func (s *Service) Touch(id string, in TouchInput) (TouchResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return TouchResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	if in.CardWidth > 0 {
		sess.deck.SetCardWidth(in.CardWidth)
	}

	var out TouchResult
	d := sess.deck
	switch in.Phase {
	case PhaseStart:
		d.TouchStart(in.X, in.Y)
	case PhaseMove:
		out.Sample = d.TouchMove(in.X, in.Y)
	case PhaseEnd:
		res := d.TouchEnd()
		out.Outcome = &res
		if res.Committed {
			s.log.Debug("swipe committed", "session", id, "decision", res.Decision.String(), "offer", res.Offer.ID())
		}
	case PhaseCancel:
		d.TouchCancel()
	default:
		return TouchResult{}, ErrInvalidPhase
	}
	s.kick(sess)
	out.State = sess.state()
	return out, nil
}

// Press commits a button decision on the top card after the settle delay.
// The session is not locked while waiting, so a swipe can decide the same
// card first; the press then reports Committed=false.
func (s *Service) Press(ctx context.Context, id string, dec deck.Decision) (deck.Result, State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return deck.Result{}, State{}, err
	}

	sess.mu.Lock()
	sess.lastSeen = s.now()
	if !sess.deck.BeginPress(dec) {
		empty := sess.deck.Len() == 0
		sess.mu.Unlock()
		if empty {
			return deck.Result{Decision: dec}, State{}, ErrEmptyStack
		}
		return deck.Result{Decision: dec}, State{}, ErrPressPending
	}
	sess.mu.Unlock()

	if err := s.sleep(ctx, s.opts.ButtonSettle); err != nil {
		sess.mu.Lock()
		sess.deck.CancelPress()
		sess.mu.Unlock()
		return deck.Result{}, State{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	res := sess.deck.FinishPress()
	s.kick(sess)
	return res, sess.state(), nil
}

type Decisions struct {
	Liked   []domain.AggregatedOffer `json:"liked"`
	Skipped []domain.AggregatedOffer `json:"skipped"`
}

func (s *Service) Decisions(id string) (Decisions, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Decisions{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return Decisions{
		Liked:   append([]domain.AggregatedOffer{}, sess.liked...),
		Skipped: append([]domain.AggregatedOffer{}, sess.skipped...),
	}, nil
}

// Refill loads the next page for a session and merges it. On error the
// deck is left as it was and a later interaction may request again.
func (s *Service) Refill(ctx context.Context, id string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	q := sess.query
	q.Offset = sess.offset
	sess.mu.Unlock()

	page, err := s.pages.Page(ctx, q)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.refilling = false
	if err != nil {
		return err
	}
	fresh := page.Offers[:0:0]
	for _, o := range page.Offers {
		if _, done := sess.decided[o.ID()]; !done {
			fresh = append(fresh, o)
		}
	}
	added := sess.deck.Merge(fresh)
	sess.offset += page.Fetched
	sess.exhausted = page.Fetched < q.Limit
	s.log.Debug("deck refilled", "session", id, "offset", q.Offset, "fetched", page.Fetched, "added", added)
	s.kick(sess)
	return nil
}

// Sweep drops sessions idle for longer than the idle timeout and reports
// how many were removed.
func (s *Service) Sweep() int {
	if s.opts.IdleTimeout <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.IdleTimeout)
	s.mu.Lock()
	all := make(map[string]*session, len(s.sessions))
	for id, sess := range s.sessions {
		all[id] = sess
	}
	s.mu.Unlock()

	var idle []string
	for id, sess := range all {
		sess.mu.Lock()
		if sess.lastSeen.Before(cutoff) {
			idle = append(idle, id)
		}
		sess.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range idle {
		if s.sessions[id] == all[id] {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info("idle deck sessions dropped", "count", n)
			}
		}
	}
}

// IDs lists live sessions in a stable order.
func (s *Service) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Service) lookup(id string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

// requestRefill schedules at most one refill per session. Callers hold
// sess.mu; s.mu is only ever taken after it, never before.
func (s *Service) requestRefill(sess *session) {
	if sess.refilling || sess.exhausted {
		return
	}
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		return
	}
	sess.refilling = true
	if !q.Enqueue(sess.id) {
		sess.refilling = false
		s.log.Warn("refill queue full", "session", sess.id)
	}
}

// kick retries a refill when the deck is low and nothing is in flight,
// covering a failed or dropped earlier request. Callers hold sess.mu.
func (s *Service) kick(sess *session) {
	if sess.deck.Len() <= deck.LowStockDepth {
		s.requestRefill(sess)
	}
}

func (sess *session) state() State {
	st := State{
		ID:        sess.id,
		Depth:     sess.deck.Len(),
		Threshold: sess.deck.Threshold(),
		Refilling: sess.refilling,
		Pressing:  sess.deck.Pressing(),
		Exhausted: sess.exhausted,
		Liked:     len(sess.liked),
		Skipped:   len(sess.skipped),
	}
	if peek := sess.deck.Peek(3); len(peek) > 0 {
		top := peek[0]
		st.Top = &top
		st.Next = peek[1:]
	}
	return st
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
