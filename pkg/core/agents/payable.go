package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"finsight/pkg/core/ledger"
)

// PayableAgent answers accounts-payable questions: DPO, payable aging, open
// summaries and supplier balances.
type PayableAgent struct {
	agg *ledger.Aggregator
	log zerolog.Logger
}

var _ ModuleAgent = (*PayableAgent)(nil)

func NewPayableAgent(agg *ledger.Aggregator, log zerolog.Logger) *PayableAgent {
	return &PayableAgent{agg: agg, log: log}
}

func (a *PayableAgent) Name() string { return "payable" }

func (a *PayableAgent) Handle(ctx context.Context, req Request) Result {
	action := a.decideAction(req)
	res := Result{Agent: a.Name(), Action: action}

	switch action {
	case ActionOpenSummary:
		snap, err := a.agg.ComputeAging(ctx, refDate(req.Window))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = map[string]interface{}{
			"as_of":       snap.AsOf.Format("2006-01-02"),
			"count":       snap.OpenCount,
			"outstanding": snap.TotalOutstanding,
		}
		res.Summary = fmt.Sprintf("%d open payable invoices as of %s, outstanding %s",
			snap.OpenCount, snap.AsOf.Format("2006-01-02"), snap.TotalOutstanding.StringFixed(2))

	case ActionAging:
		snap, err := a.agg.ComputeAging(ctx, refDate(req.Window))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = snap
		res.Summary = fmt.Sprintf("payable aging at %s: outstanding %s, overdue %s",
			snap.AsOf.Format("2006-01-02"), snap.TotalOutstanding.StringFixed(2), snap.TotalOverdue.StringFixed(2))

	case ActionTopCounterparties:
		rows, err := a.agg.TopCounterparties(ctx, refDate(req.Window), req.Params.Limit)
		if err != nil {
			return fail(res, err)
		}
		res.Detail = rows
		res.Summary = fmt.Sprintf("top %d suppliers by open payable balance", len(rows))

	case ActionCounterpartyBalance:
		bal, err := a.agg.BalanceFor(ctx, counterpartyHint(req), refDate(req.Window))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = bal
		if bal.Warning != "" {
			res.Summary = fmt.Sprintf("supplier %q: %s", bal.Counterparty, bal.Warning)
		} else {
			res.Summary = fmt.Sprintf("open balance with supplier %s is %s across %d invoices as of %s",
				bal.Counterparty, bal.Outstanding.StringFixed(2), bal.Count, bal.AsOf)
		}

	case ActionDueRange:
		start, end := dueSpan(req)
		sum, err := a.agg.DueBetween(ctx, start, end)
		if err != nil {
			return fail(res, err)
		}
		res.Detail = sum
		res.Summary = fmt.Sprintf("%d payable invoices due between %s and %s, outstanding %s",
			sum.Count, sum.Start, sum.End, sum.Outstanding.StringFixed(2))

	case ActionDueOn:
		list, err := a.agg.DueOn(ctx, dueDay(req))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = list
		res.Summary = fmt.Sprintf("%d payable invoices due on %s, outstanding %s",
			list.Count, list.Date, list.Outstanding.StringFixed(2))

	case ActionTopOverdue:
		rows, err := a.agg.TopOverdue(ctx, refDate(req.Window), req.Params.Limit)
		if err != nil {
			return fail(res, err)
		}
		res.Detail = rows
		res.Summary = fmt.Sprintf("top %d overdue payable invoices", len(rows))

	case ActionListOpen:
		rows, err := a.agg.ListOpen(ctx, refDate(req.Window))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = rows
		res.Summary = fmt.Sprintf("%d open payable invoices", len(rows))

	default: // ActionMetrics
		payload, err := a.metrics(ctx, req)
		if err != nil {
			return fail(res, err)
		}
		res.Data = payload
		res.DPO = payload.KPI["dpo"]
		res.Summary = fmt.Sprintf("payable KPIs for %s", payload.Period)
	}
	return res
}

func (a *PayableAgent) decideAction(req Request) Action {
	if req.Action != "" {
		return req.Action
	}
	it := req.Intent
	switch {
	case it.PayablesOpenSummary:
		return ActionOpenSummary
	case it.PayablesAging:
		return ActionAging
	case it.TopSuppliersByBalance:
		return ActionTopCounterparties
	case it.SupplierBalance:
		return ActionCounterpartyBalance
	case it.DueRange:
		return ActionDueRange
	case it.DueOnDate:
		return ActionDueOn
	}

	q := strings.ToLower(req.Question)
	topKw := strings.Contains(q, "top") || strings.Contains(q, "largest") || strings.Contains(q, "biggest")
	overdueKw := strings.Contains(q, "overdue") || strings.Contains(q, "past due")
	listKw := strings.Contains(q, "list") || strings.Contains(q, "which invoices") || strings.Contains(q, "show me")
	switch {
	case topKw && overdueKw, listKw && overdueKw:
		return ActionTopOverdue
	case listKw:
		return ActionListOpen
	case it.Aging:
		return ActionAging
	}
	return ActionMetrics
}

func (a *PayableAgent) metrics(ctx context.Context, req Request) (*Payload, error) {
	ref := refDate(req.Window)
	metric, err := a.agg.CreditCycle(ctx, req.Window.End.Year(), req.Window.End.Month(), req.Window.End.Location())
	if err != nil {
		return nil, err
	}
	snap, err := a.agg.ComputeAging(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Period:    req.Window.Label,
		KPI:       map[string]*float64{"dpo": metric.Value},
		Basis:     map[string]*ledger.CreditCycleMetric{"dpo": metric},
		Aging:     snap,
		AgingView: snap.LegacyOverdue(),
		OpenTotal: snap.TotalOutstanding.InexactFloat64(),
		OpenCount: snap.OpenCount,
	}, nil
}
