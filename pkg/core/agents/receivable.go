package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"finsight/pkg/core/ledger"
)

// ReceivableAgent answers accounts-receivable questions: DSO, aging, due
// dates, customer balances and rankings.
type ReceivableAgent struct {
	agg *ledger.Aggregator
	log zerolog.Logger
}

var _ ModuleAgent = (*ReceivableAgent)(nil)

func NewReceivableAgent(agg *ledger.Aggregator, log zerolog.Logger) *ReceivableAgent {
	return &ReceivableAgent{agg: agg, log: log}
}

func (a *ReceivableAgent) Name() string { return "receivable" }

func (a *ReceivableAgent) Handle(ctx context.Context, req Request) Result {
	action := a.decideAction(req)
	res := Result{Agent: a.Name(), Action: action}

	switch action {
	case ActionDueRange:
		start, end := dueSpan(req)
		sum, err := a.agg.DueBetween(ctx, start, end)
		if err != nil {
			return fail(res, err)
		}
		res.Detail = sum
		res.Summary = fmt.Sprintf("%d receivable invoices due between %s and %s, outstanding %s",
			sum.Count, sum.Start, sum.End, sum.Outstanding.StringFixed(2))

	case ActionDueOn:
		list, err := a.agg.DueOn(ctx, dueDay(req))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = list
		res.Summary = fmt.Sprintf("%d receivable invoices due on %s, outstanding %s",
			list.Count, list.Date, list.Outstanding.StringFixed(2))

	case ActionPartialPayments:
		list, err := a.agg.PartialPayments(ctx, req.Window.Start, req.Window.End)
		if err != nil {
			return fail(res, err)
		}
		res.Detail = list
		res.Summary = fmt.Sprintf("%d partially paid receivable invoices between %s and %s, outstanding %s",
			list.Count, list.Start, list.End, list.Outstanding.StringFixed(2))

	case ActionTopCounterparties:
		rows, err := a.agg.TopCounterparties(ctx, refDate(req.Window), req.Params.Limit)
		if err != nil {
			return fail(res, err)
		}
		res.Detail = rows
		res.Summary = fmt.Sprintf("top %d customers by open receivable balance", len(rows))

	case ActionCounterpartyBalance:
		bal, err := a.agg.BalanceFor(ctx, counterpartyHint(req), refDate(req.Window))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = bal
		if bal.Warning != "" {
			res.Summary = fmt.Sprintf("customer %q: %s", bal.Counterparty, bal.Warning)
		} else {
			res.Summary = fmt.Sprintf("customer %s owes %s across %d open invoices as of %s",
				bal.Counterparty, bal.Outstanding.StringFixed(2), bal.Count, bal.AsOf)
		}

	case ActionTopOverdue:
		rows, err := a.agg.TopOverdue(ctx, refDate(req.Window), req.Params.Limit)
		if err != nil {
			return fail(res, err)
		}
		res.Detail = rows
		res.Summary = fmt.Sprintf("top %d overdue receivable invoices", len(rows))

	case ActionListOpen:
		rows, err := a.agg.ListOpen(ctx, refDate(req.Window))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = rows
		res.Summary = fmt.Sprintf("%d open receivable invoices", len(rows))

	case ActionAging:
		snap, err := a.agg.ComputeAging(ctx, refDate(req.Window))
		if err != nil {
			return fail(res, err)
		}
		res.Detail = snap
		res.Summary = fmt.Sprintf("receivable aging at %s: outstanding %s, overdue %s",
			snap.AsOf.Format("2006-01-02"), snap.TotalOutstanding.StringFixed(2), snap.TotalOverdue.StringFixed(2))

	default: // ActionMetrics
		payload, err := a.metrics(ctx, req)
		if err != nil {
			return fail(res, err)
		}
		res.Data = payload
		res.DSO = payload.KPI["dso"]
		res.Summary = fmt.Sprintf("receivable KPIs for %s", payload.Period)
	}
	return res
}

func (a *ReceivableAgent) decideAction(req Request) Action {
	if req.Action != "" {
		return req.Action
	}
	it := req.Intent
	switch {
	case it.PartialPayments:
		return ActionPartialPayments
	case it.DueRange:
		return ActionDueRange
	case it.DueOnDate:
		return ActionDueOn
	case it.TopCustomersByBalance:
		return ActionTopCounterparties
	case it.CustomerBalance:
		return ActionCounterpartyBalance
	}

	q := strings.ToLower(req.Question)
	topKw := strings.Contains(q, "top") || strings.Contains(q, "largest") || strings.Contains(q, "biggest")
	overdueKw := strings.Contains(q, "overdue") || strings.Contains(q, "past due")
	listKw := strings.Contains(q, "list") || strings.Contains(q, "which invoices") || strings.Contains(q, "show me")
	switch {
	case topKw && overdueKw:
		return ActionTopOverdue
	case listKw && overdueKw:
		return ActionTopOverdue
	case listKw:
		return ActionListOpen
	case it.Aging:
		return ActionAging
	}
	return ActionMetrics
}

// metrics is the default view: DSO for the window's month plus the aging
// snapshot at the reference date.
func (a *ReceivableAgent) metrics(ctx context.Context, req Request) (*Payload, error) {
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
		KPI:       map[string]*float64{"dso": metric.Value},
		Basis:     map[string]*ledger.CreditCycleMetric{"dso": metric},
		Aging:     snap,
		AgingView: snap.LegacyOverdue(),
		OpenTotal: snap.TotalOutstanding.InexactFloat64(),
		OpenCount: snap.OpenCount,
	}, nil
}

func fail(res Result, err error) Result {
	res.Err = err.Error()
	return res
}
