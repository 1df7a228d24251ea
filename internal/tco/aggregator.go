// Package tco normalizes an offer's sparse cost fields into a total cost of
// ownership, a net cost after cash support and 24-month equivalents.
package tco

import (
	"fmt"
	"strconv"

	"dealdeck/internal/domain"
)

// Months is the amortization horizon of the monthly-equivalent figures.
const Months = 24

// Aggregate computes the itemized breakdown and summary figures of one offer.
// Locally derived figures are computed first; source-supplied figures then
// override them. Missing or invalid fields contribute nothing.
func Aggregate(o domain.Offer) domain.AggregatedOffer {
	support := o.SupportCash.NonNeg()
	a := domain.AggregatedOffer{
		Offer:       o,
		Lines:       Lines(o),
		SupportCash: support,
	}
	a.Total = a.LinesTotal()

	if o.TCOTotal.Valid {
		a.Total = o.TCOTotal.V
	}
	a.Monthly24 = RoundMonthly(a.Total)
	if o.TCOMonthly24.Valid {
		a.Monthly24 = o.TCOMonthly24.V
	}
	a.Net = a.Total - support
	if o.TCONet.Valid {
		a.Net = o.TCONet.V
	}
	// Net amortizes with partial months rounded up while the total rounds to
	// nearest. Both figures are published as-is.
	a.NetMonthly24 = CeilMonthly(a.Net)
	if o.TCONetMonthly24.Valid {
		a.NetMonthly24 = o.TCONetMonthly24.V
	}

	if b := o.BaselineUnlocked; b.Known() {
		device, fee, months := b.DevicePrice.NonNeg(), b.MVNOFee.NonNeg(), b.Months.NonNeg()
		value := device + fee*months
		a.Baseline = &domain.BaselineComparison{
			Label: fmt.Sprintf("자급+알뜰 (%s + %s×%d)", Won(device), Won(fee), months),
			Value: value,
			Delta: a.Total - value,
		}
	}
	return a
}

// AggregateAll aggregates offers in order.
func AggregateAll(offers []domain.Offer) []domain.AggregatedOffer {
	out := make([]domain.AggregatedOffer, len(offers))
	for i, o := range offers {
		out[i] = Aggregate(o)
	}
	return out
}

// Lines returns the non-zero cost contributors in display order.
func Lines(o domain.Offer) []domain.CostLine {
	lines := make([]domain.CostLine, 0, 6)
	if v := o.Upfront.NonNeg(); v > 0 {
		lines = append(lines, domain.CostLine{Kind: domain.CostUpfront, Label: "일시금", Cost: v})
	}
	lines = appendTerm(lines, domain.CostPlanHigh, "요금제 1구간", o.PlanHighFee, o.PlanHighMonths)
	lines = appendTerm(lines, domain.CostPlanAfter, "요금제 2구간", o.PlanAfterFee, o.PlanAfterMonths)
	lines = appendTerm(lines, domain.CostMVNOTail, "MVNO 꼬리", o.MVNOTailFee, o.MVNOTailMonths)
	lines = appendTerm(lines, domain.CostAddons, "부가서비스", o.AddonsMonthly, o.AddonsMonths)
	if v := o.DeviceFinanceTotal.NonNeg(); v > 0 {
		label := "단말(할부)"
		if m, n := o.DeviceFinanceMonthly.NonNeg(), o.DeviceFinanceMonths.NonNeg(); m > 0 && n > 0 {
			label = fmt.Sprintf("단말(할부) 월 %s × %d개월", Won(m), n)
		}
		lines = append(lines, domain.CostLine{Kind: domain.CostDeviceFinance, Label: label, Cost: v})
	}
	return lines
}

func appendTerm(lines []domain.CostLine, kind domain.CostKind, name string, fee, months domain.Amount) []domain.CostLine {
	f, m := fee.NonNeg(), months.NonNeg()
	if f == 0 || m == 0 || f > domain.MaxAmount/m {
		return lines
	}
	return append(lines, domain.CostLine{
		Kind:   kind,
		Label:  fmt.Sprintf("%s %s × %d개월", name, Won(f), m),
		Fee:    f,
		Months: m,
		Cost:   f * m,
	})
}

// RoundMonthly is total/24 rounded half up.
func RoundMonthly(total int64) int64 { return floorDiv(2*total+Months, 2*Months) }

// CeilMonthly is (net+23) div 24: any partial month counts as a full one.
func CeilMonthly(net int64) int64 { return floorDiv(net+Months-1, Months) }

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Won formats an amount with thousands separators and the 원 suffix.
func Won(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if n < 0 {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3+4)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out) + "원"
	}
	return string(out) + "원"
}
