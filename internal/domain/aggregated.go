package domain

// CostKind identifies one of the cost contributors that make up a total.
type CostKind string

const (
	CostUpfront       CostKind = "upfront"
	CostPlanHigh      CostKind = "plan_high"
	CostPlanAfter     CostKind = "plan_after"
	CostMVNOTail      CostKind = "mvno_tail"
	CostAddons        CostKind = "addons"
	CostDeviceFinance CostKind = "device_finance"
)

// CostLine is one itemized contributor. Fee and Months are set for
// fee×duration contributors only.
type CostLine struct {
	Kind   CostKind `json:"kind"`
	Label  string   `json:"label"`
	Fee    int64    `json:"fee,omitempty"`
	Months int64    `json:"months,omitempty"`
	Cost   int64    `json:"cost"`
}

type BaselineComparison struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
	Delta int64  `json:"delta"`
}

// AggregatedOffer is an offer with its derived cost figures. It is replaced,
// never mutated, when the source offer changes.
type AggregatedOffer struct {
	Offer        Offer               `json:"offer"`
	Lines        []CostLine          `json:"lines"`
	Total        int64               `json:"total"`
	Monthly24    int64               `json:"monthly_24m"`
	SupportCash  int64               `json:"support_cash"`
	Net          int64               `json:"net"`
	NetMonthly24 int64               `json:"net_monthly_24m"`
	Baseline     *BaselineComparison `json:"baseline,omitempty"`

	// Display hints: the source site of the offer URL and the model line-up.
	Site   string `json:"site,omitempty"`
	Family string `json:"family,omitempty"`
}

func (a AggregatedOffer) ID() string { return a.Offer.ID }

// LinesTotal is the exact sum of the itemized lines.
func (a AggregatedOffer) LinesTotal() int64 {
	var sum int64
	for _, l := range a.Lines {
		sum += l.Cost
	}
	return sum
}
