package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MetricWindow describes the flow window a metric was computed over.
type MetricWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// CreditCycleMetric is DSO (receivable side) or DPO (payable side) for one
// month. Value is nil when no window had enough flow to trust the ratio;
// Reason then explains why.
type CreditCycleMetric struct {
	Value               *float64     `json:"value"`
	Method              string       `json:"method"` // month | trailing_<N>d
	Reason              string       `json:"reason,omitempty"`
	Window              MetricWindow `json:"window"`
	Denominator         float64      `json:"denominator"`
	EndBalance          float64      `json:"end_balance"`
	RequiredDenominator float64      `json:"required_denominator"`
}

// CreditCycle computes the metric for a calendar month. The gate is
// required = max(MinAbsDenominator, endBalance * MinRelDenominator); the
// month's own flow is preferred, the trailing window is the fallback, and an
// under-determined metric comes back with a nil value instead of a noisy one.
func (a *Aggregator) CreditCycle(ctx context.Context, year int, month time.Month, loc *time.Location) (*CreditCycleMetric, error) {
	if loc == nil {
		loc = time.UTC
	}
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0).Add(-time.Second)
	daysInMonth := monthStart.AddDate(0, 1, -1).Day()

	trailStart := monthEnd.AddDate(0, 0, -a.cfg.WindowDays)
	trailingMethod := fmt.Sprintf("trailing_%dd", a.cfg.WindowDays)

	endBalance, err := a.openBalanceAt(ctx, monthEnd)
	if err != nil {
		return nil, err
	}
	required := a.requiredDenominator(endBalance)

	flowMonth, err := a.flowBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	if flowMonth.GreaterThanOrEqual(required) && flowMonth.IsPositive() {
		value := endBalance.Div(flowMonth).Mul(decimal.NewFromInt(int64(daysInMonth))).InexactFloat64()
		return &CreditCycleMetric{
			Value:               &value,
			Method:              "month",
			Window:              metricWindow(monthStart, monthEnd, daysInMonth),
			Denominator:         flowMonth.InexactFloat64(),
			EndBalance:          endBalance.InexactFloat64(),
			RequiredDenominator: required.InexactFloat64(),
		}, nil
	}

	flowTrailing, err := a.flowBetween(ctx, trailStart, monthEnd)
	if err != nil {
		return nil, err
	}
	if flowTrailing.LessThan(required) || !flowTrailing.IsPositive() {
		return &CreditCycleMetric{
			Value:  nil,
			Method: trailingMethod,
			Reason: fmt.Sprintf(
				"flow too small to estimate the metric with confidence (month=%s, trailing=%s, required=%s)",
				flowMonth.StringFixed(2), flowTrailing.StringFixed(2), required.StringFixed(2)),
			Window:              metricWindow(trailStart, monthEnd, a.cfg.WindowDays),
			Denominator:         flowTrailing.InexactFloat64(),
			EndBalance:          endBalance.InexactFloat64(),
			RequiredDenominator: required.InexactFloat64(),
		}, nil
	}

	value := endBalance.Div(flowTrailing).Mul(decimal.NewFromInt(int64(a.cfg.WindowDays))).InexactFloat64()
	return &CreditCycleMetric{
		Value:  &value,
		Method: trailingMethod,
		Reason: fmt.Sprintf(
			"month flow insufficient, trailing window used (month=%s < required=%s)",
			flowMonth.StringFixed(2), required.StringFixed(2)),
		Window:              metricWindow(trailStart, monthEnd, a.cfg.WindowDays),
		Denominator:         flowTrailing.InexactFloat64(),
		EndBalance:          endBalance.InexactFloat64(),
		RequiredDenominator: required.InexactFloat64(),
	}, nil
}

// openBalanceAt sums outstanding over records issued on or before end.
func (a *Aggregator) openBalanceAt(ctx context.Context, end time.Time) (decimal.Decimal, error) {
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{IssuedOnOrBefore: &end})
	if err != nil {
		return decimal.Zero, fmt.Errorf("end balance query: %w", err)
	}
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Outstanding())
	}
	return total, nil
}

// flowBetween sums gross amounts issued inside [start, end]: sales for the
// receivable side, purchases for the payable side.
func (a *Aggregator) flowBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{IssuedBetween: &Range{Start: start, End: end}})
	if err != nil {
		return decimal.Zero, fmt.Errorf("flow query: %w", err)
	}
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.GrossAmount)
	}
	return total, nil
}

func (a *Aggregator) requiredDenominator(endBalance decimal.Decimal) decimal.Decimal {
	minAbs := a.cfg.MinAbsDenominator
	if minAbs.IsNegative() {
		minAbs = decimal.Zero
	}
	ratio := a.cfg.MinRelDenominator
	if ratio.IsNegative() {
		ratio = decimal.Zero
	}
	rel := endBalance.Mul(ratio)
	if rel.GreaterThan(minAbs) {
		return rel
	}
	return minAbs
}

func metricWindow(start, end time.Time, days int) MetricWindow {
	return MetricWindow{
		Start: start.Format("2006-01-02"),
		End:   end.Format("2006-01-02"),
		Days:  days,
	}
}
