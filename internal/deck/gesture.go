// Package deck turns raw touch samples into Like/Skip decisions over a
// queue of aggregated offers. Everything here is synchronous and must be
// driven from one goroutine at a time.
package deck

import (
	"fmt"
	"math"
)

// Axis is the lock state of one touch.
type Axis int

const (
	Undecided Axis = iota
	LockedHorizontal
	LockedVertical
)

func (a Axis) String() string {
	switch a {
	case LockedHorizontal:
		return "horizontal"
	case LockedVertical:
		return "vertical"
	}
	return "undecided"
}

func (a Axis) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Axis) UnmarshalText(b []byte) error {
	switch string(b) {
	case "horizontal":
		*a = LockedHorizontal
	case "vertical":
		*a = LockedVertical
	case "undecided", "":
		*a = Undecided
	default:
		return fmt.Errorf("unknown axis %q", b)
	}
	return nil
}

const (
	// ActivationDistance is how far a touch must travel before its axis is
	// decided.
	ActivationDistance = 12.0
	// A horizontal lock needs |dx| > lockRatio·|dy| and a heading within
	// lockAngle degrees of straight left or right.
	lockRatio    = 2.0
	lockAngle    = 20.0
	ratioEpsilon = 1e-6
)

// Classify decides the axis for a displacement from the touch start. Below
// the activation distance it stays Undecided.
func Classify(dx, dy float64) Axis {
	if math.Hypot(dx, dy) <= ActivationDistance {
		return Undecided
	}
	ratio := math.Abs(dx) / (math.Abs(dy) + ratioEpsilon)
	angle := math.Abs(math.Atan2(dy, dx)) * 180 / math.Pi
	if ratio > lockRatio && (angle < lockAngle || angle > 180-lockAngle) {
		return LockedHorizontal
	}
	return LockedVertical
}

// Sample is what one move reports back to the input layer.
type Sample struct {
	Axis Axis `json:"axis"`
	// PreventDefault is set while the touch is claimed as a swipe; the caller
	// must suppress native scrolling for it.
	PreventDefault bool    `json:"prevent_default"`
	DX             float64 `json:"dx"`
	DY             float64 `json:"dy"`
}

// Touch is the per-touch classifier state. A new touch starts Undecided and
// the first lock is final for its lifetime.
type Touch struct {
	startX, startY float64
	dx, dy         float64
	axis           Axis
}

func StartTouch(x, y float64) *Touch {
	return &Touch{startX: x, startY: y}
}

func (t *Touch) Axis() Axis { return t.axis }

// Offset is the drag offset; it only moves while locked horizontal.
func (t *Touch) Offset() (dx, dy float64) { return t.dx, t.dy }

// Move feeds one pointer position.
func (t *Touch) Move(x, y float64) Sample {
	dx, dy := x-t.startX, y-t.startY
	if t.axis == Undecided {
		t.axis = Classify(dx, dy)
	}
	switch t.axis {
	case LockedHorizontal:
		t.dx, t.dy = dx, dy
		return Sample{Axis: LockedHorizontal, PreventDefault: true, DX: dx, DY: dy}
	case LockedVertical:
		return Sample{Axis: LockedVertical}
	}
	return Sample{Axis: Undecided}
}
