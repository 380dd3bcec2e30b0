// Package agents holds the ledger module agents. Each agent resolves one
// action per request and returns a tagged result the synthesizer can read
// without knowing the agent internals.
package agents

import (
	"context"
	"regexp"
	"strings"
	"time"

	"finsight/pkg/core/intent"
	"finsight/pkg/core/ledger"
	"finsight/pkg/core/period"
)

// Action tags the operation a module agent performed.
type Action string

const (
	ActionMetrics             Action = "metrics"
	ActionAging               Action = "aging"
	ActionListOpen            Action = "list_open"
	ActionTopOverdue          Action = "top_overdue"
	ActionDueRange            Action = "due_range"
	ActionDueOn               Action = "due_on"
	ActionPartialPayments     Action = "partial_payments"
	ActionTopCounterparties   Action = "top_counterparties"
	ActionCounterpartyBalance Action = "counterparty_balance"
	ActionOpenSummary         Action = "open_summary"
)

// Params are optional caller-forced arguments for an action.
type Params struct {
	Limit        int       `json:"limit,omitempty"`
	Counterparty string    `json:"counterparty,omitempty"`
	Start        time.Time `json:"start,omitempty"`
	End          time.Time `json:"end,omitempty"`
	Date         time.Time `json:"date,omitempty"`
}

// Request is what the router hands each module agent.
type Request struct {
	Question string
	Window   period.Window
	Intent   intent.Intent
	Action   Action // optional forced action, wins over intent
	Params   Params
}

// Payload is the KPI block shared by metric-style results.
type Payload struct {
	Period     string                               `json:"period"`
	KPI        map[string]*float64                  `json:"kpi"`
	Basis      map[string]*ledger.CreditCycleMetric `json:"calc_basis,omitempty"`
	Aging      *ledger.AgingSnapshot                `json:"aging,omitempty"`
	AgingView  map[string]float64                   `json:"aging_overdue_view,omitempty"`
	OpenTotal  float64                              `json:"open_total"`
	OpenCount  int                                  `json:"open_count"`
	DataSource string                               `json:"data_source,omitempty"`
}

// Result is the tagged outcome of one agent run. Detail carries the
// action-specific structure; Err is set instead of aborting the pipeline.
type Result struct {
	Agent   string      `json:"agent"`
	Action  Action      `json:"action,omitempty"`
	Summary string      `json:"summary,omitempty"`
	Data    *Payload    `json:"data,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`

	// KPI mirrors for the consolidator and the router's derived metrics.
	DSO *float64 `json:"dso,omitempty"`
	DPO *float64 `json:"dpo,omitempty"`
	CCC *float64 `json:"ccc,omitempty"`

	Err string `json:"error,omitempty"`
}

// Failed reports whether the agent errored.
func (r Result) Failed() bool { return r.Err != "" }

// ModuleAgent is one ledger-side worker.
type ModuleAgent interface {
	Name() string
	Handle(ctx context.Context, req Request) Result
}

// refDate picks the reference date for point-in-time views: an explicit
// single date in the window label first, then the window end.
func refDate(w period.Window) time.Time {
	if d := w.RefDate(); !d.IsZero() {
		return d
	}
	return w.End
}

// dueDay picks the day for due-on lookups: forced param, explicit date in the
// question, a day-granularity window, then the window reference date.
func dueDay(req Request) time.Time {
	if !req.Params.Date.IsZero() {
		return req.Params.Date
	}
	if dates := period.ExtractDates(req.Question, req.Window.Start.Location()); len(dates) > 0 {
		return dates[0]
	}
	if req.Window.Granularity == "day" {
		return req.Window.Start
	}
	return refDate(req.Window)
}

// dueSpan picks the range for due-range lookups: forced params, the first two
// dates in the question, then the whole window.
func dueSpan(req Request) (time.Time, time.Time) {
	if !req.Params.Start.IsZero() && !req.Params.End.IsZero() {
		return req.Params.Start, req.Params.End
	}
	if dates := period.ExtractDates(req.Question, req.Window.Start.Location()); len(dates) >= 2 {
		start, end := dates[0], dates[1]
		if end.Before(start) {
			start, end = end, start
		}
		return start, endOfDay(end)
	}
	return req.Window.Start, req.Window.End
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

var (
	reQuotedName = regexp.MustCompile(`["'“”]([^"'“”]{2,60})["'“”]`)
	reAfterPrep  = regexp.MustCompile(`(?i)\b(?:with|of|for|from)\s+([A-ZÁÉÍÓÚÑ][\wÁÉÍÓÚÑáéíóúñ&.,\- ]{1,60})`)
)

// counterpartyHint pulls a counterparty name out of the question when the
// caller did not force one: a quoted name first, then a capitalized name
// after "with/of/for/from".
func counterpartyHint(req Request) string {
	if req.Params.Counterparty != "" {
		return req.Params.Counterparty
	}
	if m := reQuotedName.FindStringSubmatch(req.Question); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := reAfterPrep.FindStringSubmatch(req.Question); m != nil {
		name := strings.TrimSpace(m[1])
		// Trim trailing date-ish or filler tokens picked up by the greedy match.
		name = strings.TrimRight(name, " .,")
		return name
	}
	return ""
}
