package deck

import (
	"fmt"

	"dealdeck/internal/domain"
)

// Decision is the outcome of a finished gesture or button press.
type Decision int

const (
	NoDecision Decision = iota
	Like
	Skip
)

func (d Decision) String() string {
	switch d {
	case Like:
		return "like"
	case Skip:
		return "skip"
	}
	return "none"
}

func (d Decision) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// ParseDecision reads "like", "skip" or "none".
func ParseDecision(s string) (Decision, bool) {
	switch s {
	case "like":
		return Like, true
	case "skip":
		return Skip, true
	case "none", "":
		return NoDecision, true
	}
	return NoDecision, false
}

func (d *Decision) UnmarshalText(b []byte) error {
	v, ok := ParseDecision(string(b))
	if !ok {
		return fmt.Errorf("unknown decision %q", b)
	}
	*d = v
	return nil
}

const (
	// MinThreshold is the smallest drag that commits, in the same units as
	// touch positions.
	MinThreshold = 72
	// DefaultCardWidth is assumed when the rendered width is unknown.
	DefaultCardWidth = 320
)

// Threshold is max(72, floor(0.35·width)).
func Threshold(width int) int {
	if width <= 0 {
		width = DefaultCardWidth
	}
	t := width * 35 / 100
	if t < MinThreshold {
		return MinThreshold
	}
	return t
}

// Decide maps a finished drag to a decision. Only a horizontally locked drag
// strictly past the threshold commits.
func Decide(axis Axis, dx float64, width int) Decision {
	if axis != LockedHorizontal {
		return NoDecision
	}
	t := float64(Threshold(width))
	switch {
	case dx > t:
		return Like
	case dx < -t:
		return Skip
	}
	return NoDecision
}

// CommitEngine applies decisions to a stack and reports them.
type CommitEngine struct {
	stack  *Stack
	onLike func(domain.AggregatedOffer)
	onSkip func(domain.AggregatedOffer)
}

func NewCommitEngine(stack *Stack, onLike, onSkip func(domain.AggregatedOffer)) *CommitEngine {
	return &CommitEngine{stack: stack, onLike: onLike, onSkip: onSkip}
}

// Commit emits the top offer to the matching output and removes it. It is a
// no-op for NoDecision or an empty stack.
func (e *CommitEngine) Commit(d Decision) (domain.AggregatedOffer, bool) {
	if d == NoDecision {
		return domain.AggregatedOffer{}, false
	}
	top, ok := e.stack.Top()
	if !ok {
		return domain.AggregatedOffer{}, false
	}
	switch d {
	case Like:
		if e.onLike != nil {
			e.onLike(top)
		}
	case Skip:
		if e.onSkip != nil {
			e.onSkip(top)
		}
	}
	e.stack.RemoveTop()
	return top, true
}
