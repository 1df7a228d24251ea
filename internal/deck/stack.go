package deck

import "dealdeck/internal/domain"

// LowStockDepth is the depth at or below which a removal asks for more.
const LowStockDepth = 3

// Stack is the ordered queue of offers awaiting a decision. Membership is
// keyed by offer id; the front is the next card to act on.
type Stack struct {
	order      []domain.AggregatedOffer
	ids        map[string]struct{}
	onNeedMore func()
	// armed is cleared when a refill is requested and set again once a
	// merge changes the depth.
	armed bool
}

// NewStack returns an empty stack. onNeedMore may be nil.
func NewStack(onNeedMore func()) *Stack {
	return &Stack{ids: make(map[string]struct{}), onNeedMore: onNeedMore, armed: true}
}

// Merge appends offers whose id is not already present, keeping the order
// of both the existing entries and the new arrivals. It returns how many
// were added.
func (s *Stack) Merge(offers []domain.AggregatedOffer) int {
	added := 0
	for _, o := range offers {
		id := o.ID()
		if _, ok := s.ids[id]; ok {
			continue
		}
		s.ids[id] = struct{}{}
		s.order = append(s.order, o)
		added++
	}
	if added > 0 {
		s.armed = true
	}
	return added
}

func (s *Stack) Top() (domain.AggregatedOffer, bool) {
	if len(s.order) == 0 {
		return domain.AggregatedOffer{}, false
	}
	return s.order[0], true
}

// RemoveTop removes and returns the front entry; it reports false on an
// empty stack.
func (s *Stack) RemoveTop() (domain.AggregatedOffer, bool) {
	if len(s.order) == 0 {
		return domain.AggregatedOffer{}, false
	}
	top := s.order[0]
	s.order[0] = domain.AggregatedOffer{}
	s.order = s.order[1:]
	delete(s.ids, top.ID())
	s.lowStockCheck()
	return top, true
}

// lowStockCheck raises one refill request per depth change into the low
// zone.
func (s *Stack) lowStockCheck() {
	if !s.armed || len(s.order) > LowStockDepth {
		return
	}
	s.armed = false
	if s.onNeedMore != nil {
		s.onNeedMore()
	}
}

// Clear drops every entry.
func (s *Stack) Clear() {
	s.order = nil
	s.ids = make(map[string]struct{})
	s.armed = true
}

func (s *Stack) Len() int { return len(s.order) }

func (s *Stack) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Peek returns up to n entries from the front.
func (s *Stack) Peek(n int) []domain.AggregatedOffer {
	if n > len(s.order) {
		n = len(s.order)
	}
	if n < 0 {
		n = 0
	}
	out := make([]domain.AggregatedOffer, n)
	copy(out, s.order[:n])
	return out
}
