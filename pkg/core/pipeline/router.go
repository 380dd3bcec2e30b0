// Package pipeline orchestrates one question end to end: resolve the
// period, classify the intent, dispatch the module agents, consolidate,
// and synthesize the executive report. Agent failures are recorded in the
// trace and the run continues with whatever is available.
package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finsight/pkg/core/agents"
	"finsight/pkg/core/intent"
	"finsight/pkg/core/knowledge"
	"finsight/pkg/core/ledger"
	"finsight/pkg/core/llm"
	"finsight/pkg/core/period"
	"finsight/pkg/core/report"
	"finsight/pkg/models"
)

// Query is one user question plus its optional UI context.
type Query struct {
	Question string `json:"question"`

	// Period is the coarse "YYYY-MM" picker value. It is coerced into an
	// override, so it wins over any period phrase inside the question.
	Period string `json:"period,omitempty"`

	// Override is an explicit range; it wins over Period.
	Override *period.Override `json:"-"`

	// Action and Params force a specific agent action, bypassing the
	// intent-to-action mapping. Used by programmatic callers.
	Action agents.Action `json:"action,omitempty"`
	Params agents.Params `json:"params,omitempty"`
}

// Metrics are the run-level derived KPIs.
type Metrics struct {
	DSO *float64 `json:"dso"`
	DPO *float64 `json:"dpo"`
	CCC *float64 `json:"ccc"`
}

// Outcome is the full result of one run: the resolved window, the intent,
// the agent trace, derived metrics and the final report.
type Outcome struct {
	RunID    string                  `json:"run_id"`
	Question string                  `json:"question"`
	Window   period.Window           `json:"window"`
	Intent   intent.Intent           `json:"intent"`
	Modules  []string                `json:"modules"`
	Trace    []agents.Result         `json:"trace"`
	Metrics  Metrics                 `json:"metrics"`
	Report   *report.ExecutiveReport `json:"report"`
	Markdown string                  `json:"markdown,omitempty"`
	Elapsed  time.Duration           `json:"elapsed"`
}

// Router wires the stages together. Construct one per store; it is safe for
// concurrent use because every stage is stateless across runs.
type Router struct {
	resolver      *period.Resolver
	classifier    *intent.Classifier
	receivable    *agents.ReceivableAgent
	payable       *agents.PayableAgent
	consolidation *agents.ConsolidationAgent
	synth         *report.Synthesizer
	log           zerolog.Logger
}

// NewRouter builds the standard pipeline on top of a ledger store. The
// provider may be nil; classification then relies on keyword heuristics and
// the report takes the deterministic path.
func NewRouter(store ledger.Store, provider llm.Provider, kb *knowledge.Registry, log zerolog.Logger) *Router {
	cfg := ledger.DefaultConfig()
	return &Router{
		resolver:      period.NewResolver(),
		classifier:    intent.NewClassifier(provider, log),
		receivable:    agents.NewReceivableAgent(ledger.NewAggregator(store, models.Receivable, cfg), log),
		payable:       agents.NewPayableAgent(ledger.NewAggregator(store, models.Payable, cfg), log),
		consolidation: agents.NewConsolidationAgent(log),
		synth:         report.NewSynthesizer(provider, kb, log),
		log:           log.With().Str("component", "router").Logger(),
	}
}

// SetResolver swaps the period resolver, used by tests to pin the clock.
func (r *Router) SetResolver(res *period.Resolver) { r.resolver = res }

var reSidebarPeriod = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Run executes the full pipeline for one query.
func (r *Router) Run(ctx context.Context, q Query) Outcome {
	start := time.Now()
	out := Outcome{
		RunID:    uuid.NewString(),
		Question: q.Question,
	}
	log := r.log.With().Str("run_id", out.RunID).Logger()

	override := q.Override
	if override == nil {
		override = r.sidebarOverride(q.Period)
	}
	out.Window = r.resolver.Resolve(q.Question, override)
	log.Info().Str("period", out.Window.Label).Str("source", out.Window.Source).Msg("period resolved")

	out.Intent = r.classifier.Classify(ctx, q.Question)
	out.Modules = r.selectModules(q.Question, out.Intent)
	log.Info().Strs("modules", out.Modules).Str("reason", out.Intent.Reason).Msg("modules selected")

	if len(out.Modules) == 0 {
		out.Report = guidanceReport(out.Window.Label)
		out.Markdown = report.RenderMarkdown(out.Report)
		out.Elapsed = time.Since(start)
		return out
	}

	var rx, px *agents.Result
	for _, name := range out.Modules {
		req := agents.Request{
			Question: q.Question,
			Window:   out.Window,
			Intent:   out.Intent,
			Action:   q.Action,
			Params:   q.Params,
		}
		var res agents.Result
		switch name {
		case r.receivable.Name():
			res = r.receivable.Handle(ctx, req)
		case r.payable.Name():
			res = r.payable.Handle(ctx, req)
		}
		if res.Failed() {
			log.Warn().Str("agent", name).Str("error", res.Err).Msg("module agent failed")
		}
		out.Trace = append(out.Trace, res)
		switch name {
		case r.receivable.Name():
			rx = &out.Trace[len(out.Trace)-1]
		case r.payable.Name():
			px = &out.Trace[len(out.Trace)-1]
		}
	}

	if sideSucceeded(rx) || sideSucceeded(px) {
		cons := r.consolidation.Consolidate(ctx, rx, px, out.Window.Label)
		out.Trace = append(out.Trace, cons)
	}

	out.Metrics = deriveMetrics(out.Trace)

	out.Report = r.synth.Synthesize(ctx, q.Question, out.Window, out.Trace)
	out.Markdown = report.RenderMarkdown(out.Report)
	out.Elapsed = time.Since(start)
	log.Info().Dur("elapsed", out.Elapsed).Str("narrative", out.Report.Narrative).Msg("run complete")
	return out
}

// sidebarOverride coerces a "YYYY-MM" picker value into a month override.
func (r *Router) sidebarOverride(p string) *period.Override {
	m := reSidebarPeriod.FindStringSubmatch(strings.TrimSpace(p))
	if m == nil {
		return nil
	}
	y, _ := strconv.Atoi(m[1])
	n, _ := strconv.Atoi(m[2])
	mo := time.Month(n)
	if mo < time.January || mo > time.December {
		return nil
	}
	startAt, endAt := period.MonthBounds(y, mo, r.resolver.Location())
	return &period.Override{
		Start:       startAt,
		End:         endAt,
		Label:       m[0],
		Granularity: "month",
	}
}

var (
	receivableKeywords = []string{
		"receivable", "receivables", "collect", "collection", "collections",
		"customer", "customers", "client", "clients", "invoice", "invoices",
		"dso", "billing",
	}
	payableKeywords = []string{
		"payable", "payables", "supplier", "suppliers", "vendor", "vendors",
		"dpo", "pay", "payment", "payments",
	}
)

// selectModules merges the keyword score with the intent flags, first-seen
// order preserved. A pure-ambiguity intent with no keyword evidence selects
// nothing, which triggers the guidance terminal.
func (r *Router) selectModules(question string, it intent.Intent) []string {
	q := strings.ToLower(question)
	rxScore := keywordScore(q, receivableKeywords)
	pxScore := keywordScore(q, payableKeywords)

	var seq []string
	if rxScore > 0 || (!it.Fallback && (it.Receivable || it.ReceivableSpecific())) {
		seq = append(seq, "receivable")
	}
	if pxScore > 0 || (!it.Fallback && (it.Payable || it.PayableSpecific())) {
		seq = append(seq, "payable")
	}
	if it.Report && len(seq) == 0 {
		seq = []string{"receivable", "payable"}
	}
	return dedup(seq)
}

func keywordScore(q string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if containsWord(q, kw) {
			score++
		}
	}
	return score
}

// containsWord matches kw on word boundaries so "pay" does not fire inside
// "repay" or "payload".
func containsWord(q, kw string) bool {
	idx := 0
	for {
		i := strings.Index(q[idx:], kw)
		if i < 0 {
			return false
		}
		s := idx + i
		e := s + len(kw)
		beforeOK := s == 0 || !isWordByte(q[s-1])
		afterOK := e == len(q) || !isWordByte(q[e])
		if beforeOK && afterOK {
			return true
		}
		idx = s + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func dedup(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sideSucceeded(res *agents.Result) bool {
	return res != nil && !res.Failed()
}

// deriveMetrics reads the run KPIs out of the trace: the consolidation
// result first, then the per-agent mirrors.
func deriveMetrics(trace []agents.Result) Metrics {
	var m Metrics
	for i := range trace {
		if trace[i].Agent == "consolidation" && !trace[i].Failed() {
			m.DSO, m.DPO, m.CCC = trace[i].DSO, trace[i].DPO, trace[i].CCC
			return m
		}
	}
	for i := range trace {
		res := &trace[i]
		if res.Failed() {
			continue
		}
		if m.DSO == nil {
			m.DSO = res.DSO
		}
		if m.DPO == nil {
			m.DPO = res.DPO
		}
		if m.CCC == nil {
			m.CCC = res.CCC
		}
	}
	return m
}

// guidanceReport is the terminal answer when no module could be selected.
func guidanceReport(periodLabel string) *report.ExecutiveReport {
	return &report.ExecutiveReport{
		Period:  periodLabel,
		Summary: "The question did not give enough signal to pick a ledger. Ask about receivables, payables, or request an executive report.",
		Findings: []string{
			"No receivable or payable signal was detected in the question.",
		},
		Risks: []string{},
		Recommendations: []string{
			"Ask, for example: \"How is my DSO this month?\"",
			"Or: \"Which payable invoices are due this week?\"",
			"Or: \"Give me the executive report for last month.\"",
		},
		Causality:      report.Causality{Hypotheses: []string{}, Links: []report.CausalLink{}},
		PriorityOrders: []report.PriorityOrder{},
		Narrative:      "guidance",
	}
}
