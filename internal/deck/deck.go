package deck

import "dealdeck/internal/domain"

// Callbacks are the outputs of a deck. OnLike and OnSkip run exactly once
// per committed decision, in commit order. OnNeedMore follows the low-stock
// policy of Stack.
type Callbacks struct {
	OnLike     func(domain.AggregatedOffer)
	OnSkip     func(domain.AggregatedOffer)
	OnNeedMore func()
}

// Result describes what ending a touch or a button press did.
type Result struct {
	Decision  Decision                `json:"decision"`
	Committed bool                    `json:"committed"`
	Offer     *domain.AggregatedOffer `json:"offer,omitempty"`
}

// Deck owns the pending stack, the active touch and any pending button
// press of one viewer.
type Deck struct {
	stack     *Stack
	engine    *CommitEngine
	cardWidth int
	touch     *Touch
	press     *pendingPress
}

type pendingPress struct {
	decision Decision
	offerID  string
}

func New(cardWidth int, cb Callbacks) *Deck {
	s := NewStack(cb.OnNeedMore)
	return &Deck{
		stack:     s,
		engine:    NewCommitEngine(s, cb.OnLike, cb.OnSkip),
		cardWidth: cardWidth,
	}
}

func (d *Deck) Merge(offers []domain.AggregatedOffer) int { return d.stack.Merge(offers) }
func (d *Deck) Top() (domain.AggregatedOffer, bool)        { return d.stack.Top() }
func (d *Deck) Len() int                                   { return d.stack.Len() }
func (d *Deck) Peek(n int) []domain.AggregatedOffer        { return d.stack.Peek(n) }
func (d *Deck) CardWidth() int                             { return d.cardWidth }
func (d *Deck) Threshold() int                             { return Threshold(d.cardWidth) }

// SetCardWidth records the rendered width of the top card.
func (d *Deck) SetCardWidth(w int) {
	if w > 0 {
		d.cardWidth = w
	}
}

// Clear empties the stack and abandons any touch or press in progress.
func (d *Deck) Clear() {
	d.stack.Clear()
	d.touch = nil
	d.press = nil
}

// TouchStart begins a fresh touch. A touch already in progress is abandoned
// without committing.
func (d *Deck) TouchStart(x, y float64) {
	d.touch = StartTouch(x, y)
}

// TouchMove feeds a position of the active touch. Without one it reports
// Undecided and does nothing.
func (d *Deck) TouchMove(x, y float64) Sample {
	if d.touch == nil {
		return Sample{}
	}
	return d.touch.Move(x, y)
}

// TouchEnd finishes the active touch and commits if the drag qualifies.
// Either way the card returns to rest and the touch is gone, so a second
// end for the same touch is a no-op.
func (d *Deck) TouchEnd() Result {
	t := d.touch
	d.touch = nil
	if t == nil {
		return Result{}
	}
	dx, _ := t.Offset()
	return d.commit(Decide(t.Axis(), dx, d.cardWidth))
}

// TouchCancel abandons the active touch. It never commits.
func (d *Deck) TouchCancel() {
	d.touch = nil
}

// Offset is the current drag offset of the top card; zero at rest.
func (d *Deck) Offset() (dx, dy float64) {
	if d.touch == nil || d.touch.Axis() != LockedHorizontal {
		return 0, 0
	}
	return d.touch.Offset()
}

// BeginPress starts a button-triggered decision on the current top card.
// It bypasses the drag threshold. The caller waits out the visual settle
// delay and then calls FinishPress. It reports false when the stack is
// empty or another press is pending.
func (d *Deck) BeginPress(dec Decision) bool {
	if dec == NoDecision || d.press != nil {
		return false
	}
	top, ok := d.stack.Top()
	if !ok {
		return false
	}
	d.touch = nil
	d.press = &pendingPress{decision: dec, offerID: top.ID()}
	return true
}

// FinishPress commits the pending press if its card is still on top. A card
// that was already decided in the meantime is not decided twice.
func (d *Deck) FinishPress() Result {
	p := d.press
	d.press = nil
	if p == nil {
		return Result{}
	}
	top, ok := d.stack.Top()
	if !ok || top.ID() != p.offerID {
		return Result{Decision: p.decision}
	}
	return d.commit(p.decision)
}

// CancelPress drops a pending press without committing.
func (d *Deck) CancelPress() { d.press = nil }

func (d *Deck) Pressing() bool { return d.press != nil }

func (d *Deck) commit(dec Decision) Result {
	offer, ok := d.engine.Commit(dec)
	if !ok {
		return Result{Decision: dec}
	}
	return Result{Decision: dec, Committed: true, Offer: &offer}
}
