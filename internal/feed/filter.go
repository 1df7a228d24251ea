package feed

import (
	"strings"

	"dealdeck/internal/domain"
)

// Filter narrows a feed. Empty fields match everything; string fields match
// the raw offer value exactly, so unrecognized values can still be selected.
type Filter struct {
	Model    string `json:"model,omitempty"`
	Carrier  string `json:"carrier,omitempty"`
	City     string `json:"city,omitempty"`
	MoveType string `json:"move_type,omitempty"`
	Contract string `json:"contract,omitempty"`
	Payment  string `json:"payment,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Brand    Brand  `json:"brand,omitempty"`
	Family   string `json:"family,omitempty"`
}

func (f Filter) IsZero() bool { return f == Filter{} }

func (f Filter) Match(o domain.Offer) bool {
	if f.Model != "" && o.Model != f.Model {
		return false
	}
	if f.Carrier != "" && string(o.Carrier) != f.Carrier {
		return false
	}
	if f.City != "" && o.City != f.City {
		return false
	}
	if f.MoveType != "" && string(o.MoveType) != f.MoveType {
		return false
	}
	if f.Contract != "" && string(o.Contract) != f.Contract {
		return false
	}
	if f.Payment != "" && string(o.Payment) != f.Payment {
		return false
	}
	if f.Channel != "" && string(o.Channel) != f.Channel {
		return false
	}
	if f.Brand != "" && DetectBrand(o.Model) != f.Brand {
		return false
	}
	if f.Family != "" && !strings.HasPrefix(o.Model, f.Family) {
		return false
	}
	return true
}
