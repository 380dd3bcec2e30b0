package report

import (
	"finsight/pkg/core/agents"
	"finsight/pkg/core/ledger"
	"finsight/pkg/models"
)

// Context is the deterministic extract the synthesizer works from. It is
// built once from the module trace; both the narrative prompt and the
// post-pass read this, never the raw trace.
type Context struct {
	Period string `json:"period"`

	// KPI values and their calculation basis, consolidated view first.
	KPIs  map[string]*float64                  `json:"kpis"`
	Basis map[string]*ledger.CreditCycleMetric `json:"calc_basis,omitempty"`
	Bands map[string]string                    `json:"kpi_bands,omitempty"`

	ARAging *ledger.AgingSnapshot `json:"ar_aging,omitempty"`
	APAging *ledger.AgingSnapshot `json:"ap_aging,omitempty"`

	AROpen      *float64 `json:"ar_outstanding,omitempty"`
	APOpen      *float64 `json:"ap_outstanding,omitempty"`
	AROpenCount int      `json:"ar_open_invoices"`
	APOpenCount int      `json:"ap_open_invoices"`
	ARtoAP      *float64 `json:"ar_to_ap,omitempty"`
	NetPosition *float64 `json:"net_position,omitempty"`
}

// ExtractContext folds the module trace into one Context. Consolidation
// results win for KPIs; side results fill in aging, balances and the metric
// basis. Errored results are skipped, not fatal.
func ExtractContext(trace []agents.Result) *Context {
	ctx := &Context{
		KPIs:  map[string]*float64{},
		Basis: map[string]*ledger.CreditCycleMetric{},
	}

	for i := range trace {
		res := &trace[i]
		if res.Failed() {
			continue
		}
		if ctx.Period == "" && res.Data != nil && res.Data.Period != "" {
			ctx.Period = res.Data.Period
		}

		switch res.Agent {
		case "consolidation":
			if res.Data != nil {
				for k, v := range res.Data.KPI {
					if v != nil {
						ctx.KPIs[k] = v
					}
				}
			}
			if bal, ok := res.Detail.(agents.Balances); ok {
				ar, ap := bal.ReceivableOpen, bal.PayableOpen
				ctx.AROpen = &ar
				ctx.APOpen = &ap
				ctx.ARtoAP = bal.ARtoAP
				net := bal.NetPosition
				ctx.NetPosition = &net
			}
		case "receivable":
			ctx.fillSide(res, models.Receivable)
		case "payable":
			ctx.fillSide(res, models.Payable)
		}
	}

	// Mirrors cover the case where consolidation never ran.
	for i := range trace {
		res := &trace[i]
		if res.Failed() {
			continue
		}
		if ctx.KPIs["dso"] == nil && res.DSO != nil {
			ctx.KPIs["dso"] = res.DSO
		}
		if ctx.KPIs["dpo"] == nil && res.DPO != nil {
			ctx.KPIs["dpo"] = res.DPO
		}
		if ctx.KPIs["ccc"] == nil && res.CCC != nil {
			ctx.KPIs["ccc"] = res.CCC
		}
	}

	ctx.Bands = KPIBands(ctx.KPIs)
	return ctx
}

func (c *Context) fillSide(res *agents.Result, dir models.Direction) {
	if res.Data == nil {
		return
	}
	if res.Data.Aging != nil {
		if dir == models.Receivable {
			c.ARAging = res.Data.Aging
		} else {
			c.APAging = res.Data.Aging
		}
	}
	if res.Action == agents.ActionMetrics || res.Data.Aging != nil {
		open := res.Data.OpenTotal
		if dir == models.Receivable {
			if c.AROpen == nil {
				c.AROpen = &open
				c.AROpenCount = res.Data.OpenCount
			}
		} else if c.APOpen == nil {
			c.APOpen = &open
			c.APOpenCount = res.Data.OpenCount
		}
	}
	for k, b := range res.Data.Basis {
		if b != nil && c.Basis[k] == nil {
			c.Basis[k] = b
		}
	}
}

// HasHardData reports whether the trace produced anything numeric worth a
// KPI board: a computed KPI, a non-empty aging snapshot, or an open balance.
func (c *Context) HasHardData() bool {
	for _, v := range c.KPIs {
		if v != nil {
			return true
		}
	}
	if c.ARAging != nil && c.ARAging.OpenCount > 0 {
		return true
	}
	if c.APAging != nil && c.APAging.OpenCount > 0 {
		return true
	}
	if c.AROpen != nil && *c.AROpen > 0 {
		return true
	}
	if c.APOpen != nil && *c.APOpen > 0 {
		return true
	}
	return false
}

// OverdueTotal sums the overdue buckets of a snapshot, zero when absent.
func OverdueTotal(s *ledger.AgingSnapshot) float64 {
	if s == nil {
		return 0
	}
	return s.TotalOverdue.InexactFloat64()
}

// overdueRatio is overdue/outstanding for one side, nil when the side has no
// outstanding balance.
func overdueRatio(s *ledger.AgingSnapshot, open *float64) *float64 {
	if s == nil || open == nil || *open <= 0 {
		return nil
	}
	r := s.TotalOverdue.InexactFloat64() / *open
	return &r
}

// DominantBucket finds the largest overdue bucket, nil for an empty snapshot.
func DominantBucket(s *ledger.AgingSnapshot) (string, *float64) {
	if s == nil {
		return "", nil
	}
	var bestKey string
	var bestVal float64
	for _, key := range ledger.OverdueBucketOrder {
		v := s.Overdue[key].InexactFloat64()
		if v > bestVal {
			bestKey, bestVal = key, v
		}
	}
	if bestKey == "" {
		return "", nil
	}
	return bestKey, &bestVal
}
