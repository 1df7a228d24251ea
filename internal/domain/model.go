package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Core domain models. Offers arrive from scraped forum posts, so every
// numeric field decodes leniently and bad values degrade to "absent".

type Carrier string

const (
	CarrierSKT     Carrier = "SKT"
	CarrierKT      Carrier = "KT"
	CarrierLGU     Carrier = "LGU+"
	CarrierMVNO    Carrier = "MVNO"
	CarrierUnknown Carrier = "미상"
)

// Known maps values outside the closed set to CarrierUnknown. The raw value
// is kept on the offer for display.
func (c Carrier) Known() Carrier {
	switch c {
	case CarrierSKT, CarrierKT, CarrierLGU, CarrierMVNO:
		return c
	}
	return CarrierUnknown
}

type Channel string

const (
	ChannelOnline  Channel = "online"
	ChannelOffline Channel = "offline"
	ChannelUnknown Channel = "unknown"
)

type MoveType string

const (
	MovePortIn   MoveType = "번호이동"
	MoveUpgrade  MoveType = "기기변경"
	MoveUnlocked MoveType = "자급"
)

type Contract string

const (
	ContractSubsidy   Contract = "공시지원"
	ContractSelective Contract = "선택약정"
	ContractNone      Contract = "무약정"
)

type Payment string

const (
	PaymentCash        Payment = "현금완납"
	PaymentInstallment Payment = "할부"
)

// Amount is a won amount or month count that may be absent. It decodes from
// JSON numbers, numeric strings ("1,200원" included) or null; anything else
// decodes as absent instead of failing the whole offer.
type Amount struct {
	V     int64
	Valid bool
}

// MaxAmount is the largest magnitude an Amount decodes to; anything beyond
// it decodes as absent.
const MaxAmount = 1e15

func Some(v int64) Amount { return Amount{V: v, Valid: true} }

func fromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > MaxAmount {
		return Amount{}
	}
	return Some(int64(math.Round(f)))
}

// NonNeg returns the value clamped at zero, zero when absent.
func (a Amount) NonNeg() int64 {
	if !a.Valid || a.V < 0 {
		return 0
	}
	return a.V
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*a = ParseAmount(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	*a = fromFloat(f)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, a.V, 10), nil
}

var amountNoise = strings.NewReplacer(",", "", "원", "", " ", "", "\u00a0", "")

// ParseAmount reads free-form numeric text. Unparseable text is absent.
func ParseAmount(s string) Amount {
	s = amountNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return Amount{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Amount{}
	}
	return fromFloat(f)
}

// Timestamp is a parse time that decodes to the zero time when malformed.
type Timestamp struct{ time.Time }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

type Badge struct {
	Label string `json:"label"`
	Tone  string `json:"tone,omitempty"`
}

type AddonItem struct {
	Name   string `json:"name"`
	Fee    Amount `json:"fee"`
	Months Amount `json:"months"`
	Note   string `json:"note,omitempty"`
}

// Baseline is the unlocked-device + flat MVNO plan reference an offer is
// compared against.
type Baseline struct {
	DevicePrice Amount `json:"device_price"`
	MVNOFee     Amount `json:"mvno_fee"`
	Months      Amount `json:"months"`
}

func (b *Baseline) Known() bool {
	return b != nil && (b.DevicePrice.Valid || (b.MVNOFee.Valid && b.Months.Valid))
}

// Offer is one raw purchase offer. It is read-only once normalized.
type Offer struct {
	ID                   string    `json:"id"`
	PostID               string    `json:"post_id,omitempty"`
	URL                  string    `json:"url,omitempty"`
	Model                string    `json:"model"`
	Capacity             *string   `json:"capacity"`
	Carrier              Carrier   `json:"carrier"`
	MoveType             MoveType  `json:"move_type,omitempty"`
	Contract             Contract  `json:"contract,omitempty"`
	ContractType         string    `json:"contract_type,omitempty"`
	ContractMonths       Amount    `json:"contract_months"`
	ContractExtraSupport bool      `json:"contract_extra_support,omitempty"`
	Payment              Payment   `json:"payment,omitempty"`
	Channel              Channel   `json:"channel,omitempty"`
	City                 string    `json:"city,omitempty"`
	Store                string    `json:"store,omitempty"`
	SummaryRaw           string    `json:"summary_raw,omitempty"`
	ParsedAt             Timestamp `json:"parsed_at"`

	Upfront              Amount      `json:"upfront"`
	PlanHighFee          Amount      `json:"plan_high_fee"`
	PlanHighMonths       Amount      `json:"plan_high_months"`
	PlanAfterFee         Amount      `json:"plan_after_fee"`
	PlanAfterMonths      Amount      `json:"plan_after_months"`
	MVNOTailFee          Amount      `json:"mvno_tail_fee"`
	MVNOTailMonths       Amount      `json:"mvno_tail_months"`
	AddonsMonthly        Amount      `json:"addons_monthly"`
	AddonsMonths         Amount      `json:"addons_months"`
	AddonsCount          Amount      `json:"addons_count"`
	AddonsDetail         []AddonItem `json:"addons_detail,omitempty"`
	DeviceFinanceTotal   Amount      `json:"device_finance_total"`
	DeviceFinanceMonthly Amount      `json:"device_finance_monthly"`
	DeviceFinanceMonths  Amount      `json:"device_finance_months"`
	SupportCash          Amount      `json:"support_cash"`
	// CashDelta is the legacy field support_cash replaced; a negative delta
	// is cash handed to the buyer.
	CashDelta Amount `json:"cash_delta,omitempty"`

	RetentionLineMonths   Amount `json:"retention_line_months"`
	RetentionPlanMonths   Amount `json:"retention_plan_months"`
	RetentionAddonsMonths Amount `json:"retention_addons_months"`

	BaselineUnlocked *Baseline `json:"baseline_unlocked,omitempty"`

	// Pre-computed figures from the source; authoritative when present.
	TCOTotal        Amount `json:"tco_total"`
	TCOMonthly24    Amount `json:"tco_monthly_24m"`
	TCONet          Amount `json:"tco_net"`
	TCONetMonthly24 Amount `json:"tco_net_monthly_24m"`

	AdvertorialScore *float64 `json:"advertorial_score,omitempty"`
	Flags            []string `json:"flags,omitempty"`
	Badges           []Badge  `json:"badges,omitempty"`
	Slang            []string `json:"slang,omitempty"`
}

// Normalize enforces the record invariants: a synthesized id when the
// source has none, support cash folded from the legacy cash delta, and
// fee/duration pairs that are either both present or both absent.
func (o Offer) Normalize() Offer {
	if strings.TrimSpace(o.ID) == "" {
		parsed := ""
		if !o.ParsedAt.IsZero() {
			parsed = o.ParsedAt.Format(time.RFC3339)
		}
		o.ID = o.Model + "-" + parsed + "-" + o.URL
	}
	if o.Carrier == "" {
		o.Carrier = CarrierUnknown
	}
	if !o.SupportCash.Valid && o.CashDelta.Valid && o.CashDelta.V < 0 {
		o.SupportCash = Some(-o.CashDelta.V)
	}
	o.CashDelta = Amount{}
	pair(&o.PlanHighFee, &o.PlanHighMonths)
	pair(&o.PlanAfterFee, &o.PlanAfterMonths)
	pair(&o.MVNOTailFee, &o.MVNOTailMonths)
	pair(&o.AddonsMonthly, &o.AddonsMonths)
	return o
}

func pair(fee, months *Amount) {
	if fee.Valid != months.Valid {
		*fee, *months = Amount{}, Amount{}
	}
}

// DecodeOffers decodes a JSON array of raw offers. Elements that are not
// objects at all are skipped and counted; everything else is normalized.
func DecodeOffers(data []byte) ([]Offer, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, err
	}
	out := make([]Offer, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		var o Offer
		if err := json.Unmarshal(r, &o); err != nil {
			skipped++
			continue
		}
		out = append(out, o.Normalize())
	}
	return out, skipped, nil
}
