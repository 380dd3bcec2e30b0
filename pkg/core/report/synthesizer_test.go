package report

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"finsight/pkg/core/agents"
	"finsight/pkg/core/llm"
)

func newTestSynthesizer(provider llm.Provider) *Synthesizer {
	return NewSynthesizer(provider, nil, zerolog.Nop())
}

// =============================================================================
// CAUSALITY
// =============================================================================

func TestCausalHypotheses(t *testing.T) {
	c := ExtractContext(metricsTrace(50, 42))
	hyps := CausalHypotheses(c)
	if len(hyps) == 0 {
		t.Fatal("no hypotheses for a stressed context")
	}
	joined := strings.Join(hyps, " | ")
	if !strings.Contains(joined, "Slow collections") {
		t.Errorf("missing the DSO hypothesis: %s", joined)
	}
	if !strings.Contains(joined, "61-90 day bucket (₡60,000.00)") {
		t.Errorf("missing the dominant bucket hypothesis: %s", joined)
	}
}

func TestCausalLinksStrongOverdue(t *testing.T) {
	c := ExtractContext(metricsTrace(50, 42))
	links := CausalLinks(c)
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	l := links[0]
	if l.Confidence != "high" {
		t.Errorf("confidence = %q", l.Confidence)
	}
	if !strings.Contains(l.Evidence, "95.0%") {
		t.Errorf("evidence = %q", l.Evidence)
	}
}

func TestCausalLinksCriticalDSO(t *testing.T) {
	c := &Context{KPIs: map[string]*float64{"dso": ptr(130)}}
	links := CausalLinks(c)
	if len(links) != 1 || links[0].Confidence != "high" {
		t.Errorf("DSO at 130 should yield one high-confidence link, got %+v", links)
	}
	c.KPIs["dso"] = ptr(70)
	links = CausalLinks(c)
	if len(links) != 1 || links[0].Confidence != "medium" {
		t.Errorf("DSO at 70 should yield one medium-confidence link, got %+v", links)
	}
}

// =============================================================================
// SYNTHESIS PATHS
// =============================================================================

func TestSynthesizeFallbackWithoutProvider(t *testing.T) {
	s := newTestSynthesizer(nil)
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), metricsTrace(50, 42))

	if rep.Narrative != "fallback" {
		t.Fatalf("narrative = %q", rep.Narrative)
	}
	if !strings.Contains(rep.Summary, "Deterministic summary for March 2025") {
		t.Errorf("summary = %q", rep.Summary)
	}
	if len(rep.Board.Finance) != 6 || rep.Board.Finance[0] != "DSO: 50.0 days" {
		t.Errorf("finance board = %v", rep.Board.Finance)
	}
	if rep.Board.Finance[3] != "Open receivables: ₡100,000.00 across 4 invoices" {
		t.Errorf("receivables line = %q", rep.Board.Finance[3])
	}

	titles := map[string]bool{}
	for _, o := range rep.PriorityOrders {
		titles[o.Title] = true
	}
	if !titles["Run a collections sprint on the top overdue customers"] {
		t.Errorf("rule order missing: %v", titles)
	}
	if !titles["Dunning campaign for the top 10 overdue customers"] {
		t.Errorf("deterministic order missing: %v", titles)
	}
	if rep.Appendix == nil {
		t.Fatal("appendix missing")
	}
	if !rep.Appendix.DataQuality.HasData || rep.Appendix.DataQuality.Confidence != "high" {
		t.Errorf("data quality = %+v", rep.Appendix.DataQuality)
	}
}

func TestSynthesizeNarrativeKeepsProseRebuildsBoard(t *testing.T) {
	provider := &llm.StaticProvider{Responses: []string{`{
		"summary": "Collections are slipping.",
		"findings": ["The model sees slow payers."],
		"risks": [],
		"recommendations": [],
		"causality": {"hypotheses": ["Model hypothesis"], "links": []},
		"priority_orders": [{"title": "dunning campaign for the top 10 overdue customers", "owner": "Model", "priority": "P9", "kpi": "DSO", "due": "tomorrow"}]
	}`}}
	s := newTestSynthesizer(provider)
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), metricsTrace(50, 42))

	if rep.Narrative != "llm" {
		t.Fatalf("narrative = %q", rep.Narrative)
	}
	if provider.Calls() != 1 {
		t.Errorf("provider calls = %d", provider.Calls())
	}
	if !strings.HasPrefix(rep.Summary, "Collections are slipping.") {
		t.Errorf("model prose lost: %q", rep.Summary)
	}
	if !strings.Contains(rep.Summary, "open receivables total ₡100,000.00 across 4 invoices") {
		t.Errorf("factual totals line missing: %q", rep.Summary)
	}
	// The board never comes from the model.
	if len(rep.Board.Finance) != 6 || rep.Board.Finance[0] != "DSO: 50.0 days" {
		t.Errorf("finance board = %v", rep.Board.Finance)
	}

	// The model's order wins the title dedup against the deterministic one.
	dunning := 0
	for _, o := range rep.PriorityOrders {
		if strings.EqualFold(o.Title, "dunning campaign for the top 10 overdue customers") {
			dunning++
			if o.Owner != "Model" {
				t.Errorf("first-seen order lost: %+v", o)
			}
		}
	}
	if dunning != 1 {
		t.Errorf("dunning orders = %d, want 1", dunning)
	}

	joined := strings.Join(rep.Causality.Hypotheses, " | ")
	if !strings.Contains(joined, "Model hypothesis") || !strings.Contains(joined, "Slow collections") {
		t.Errorf("hypotheses = %s", joined)
	}
}

func TestSynthesizeFallsBackOnProviderError(t *testing.T) {
	s := newTestSynthesizer(&llm.StaticProvider{Err: errors.New("backend down")})
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), metricsTrace(50, 42))
	if rep.Narrative != "fallback" {
		t.Errorf("narrative = %q", rep.Narrative)
	}
}

func TestSynthesizeFallsBackOnGarbageOutput(t *testing.T) {
	s := newTestSynthesizer(&llm.StaticProvider{Responses: []string{"not json at all"}})
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), metricsTrace(50, 42))
	if rep.Narrative != "fallback" {
		t.Errorf("narrative = %q", rep.Narrative)
	}
	if len(rep.Board.Finance) != 6 {
		t.Errorf("board missing after fallback")
	}
}

func TestSynthesizePointAnswerBypass(t *testing.T) {
	provider := &llm.StaticProvider{Responses: []string{"{}"}}
	s := newTestSynthesizer(provider)
	trace := []agents.Result{{
		Agent:   "receivable",
		Action:  agents.ActionTopCounterparties,
		Summary: "top 2 customers by open receivable balance",
	}}
	rep := s.Synthesize(context.Background(), "who owes me the most?", testWindow(), trace)

	if rep.Narrative != "direct" {
		t.Fatalf("narrative = %q", rep.Narrative)
	}
	if rep.Summary != "top 2 customers by open receivable balance" {
		t.Errorf("summary = %q", rep.Summary)
	}
	if provider.Calls() != 0 {
		t.Errorf("point answers must not call the model")
	}
	if len(rep.Board.Finance) != 0 {
		t.Errorf("point answers carry no KPI board")
	}
	if rep.Appendix != nil {
		t.Errorf("point answers carry no appendix")
	}
}

func TestSynthesizeMetricsNeverBypass(t *testing.T) {
	// An aging run with no computable KPI still gets the full report shape.
	trace := metricsTrace(50, 42)[:1]
	trace[0].Data.KPI = map[string]*float64{"dso": nil}
	trace[0].DSO = nil
	s := newTestSynthesizer(nil)
	rep := s.Synthesize(context.Background(), "aging of my receivables", testWindow(), trace)
	if rep.Narrative != "fallback" {
		t.Errorf("narrative = %q, metrics actions must produce a full report", rep.Narrative)
	}
	if len(rep.Board.Finance) != 6 {
		t.Errorf("board missing")
	}
}

func TestSynthesizeNoData(t *testing.T) {
	s := newTestSynthesizer(nil)
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), nil)

	if rep.Narrative != "fallback" {
		t.Fatalf("narrative = %q", rep.Narrative)
	}
	if rep.Period != "March 2025" {
		t.Errorf("period = %q, want the window label", rep.Period)
	}
	if !strings.Contains(rep.Summary, "No ledger activity") {
		t.Errorf("summary = %q", rep.Summary)
	}
	if rep.Appendix.DataQuality.HasData {
		t.Errorf("empty trace reports data present")
	}
	if rep.Appendix.DataQuality.Confidence != "medium" {
		t.Errorf("confidence = %q", rep.Appendix.DataQuality.Confidence)
	}
}

// =============================================================================
// STRONG SIGNALS AND APPENDIX
// =============================================================================

func TestStrongSignalsOverdueBook(t *testing.T) {
	s := newTestSynthesizer(nil)
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), metricsTrace(50, 42))

	if len(rep.Findings) == 0 || !strings.Contains(rep.Findings[0], "practically fully overdue") {
		t.Errorf("liquidity finding not first: %v", rep.Findings)
	}
	if len(rep.Risks) == 0 || !strings.Contains(rep.Risks[0], "Critical liquidity risk") {
		t.Errorf("liquidity risk not first: %v", rep.Risks)
	}
	if len(rep.Recommendations) == 0 || !strings.Contains(rep.Recommendations[0], "three-level collection plan") {
		t.Errorf("collection plan not first: %v", rep.Recommendations)
	}
	if len(rep.Board.Customers) == 0 || len(rep.Board.InternalProcess) == 0 || len(rep.Board.Learning) == 0 {
		t.Errorf("board guidance missing: %+v", rep.Board)
	}
}

func TestAppendixEstimatedMetric(t *testing.T) {
	trace := metricsTrace(50, 42)
	basis := trace[0].Data.Basis["dso"]
	basis.Method = "trailing_90d"
	basis.Reason = "month flow insufficient, trailing window used (month=5000.00 < required=10000.00)"

	s := newTestSynthesizer(nil)
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), trace)

	q := rep.Appendix.DataQuality
	if !q.IsEstimated {
		t.Errorf("trailing method must mark the report estimated")
	}
	if q.Confidence != "medium" {
		t.Errorf("confidence = %q", q.Confidence)
	}
	found := false
	for _, w := range q.Warnings {
		if strings.Contains(w, "trailing window used") {
			found = true
		}
	}
	if !found {
		t.Errorf("basis reason not surfaced: %v", q.Warnings)
	}

	explain := rep.Appendix.KPIExplain["dso"]
	if explain.Method != "trailing_90d" || explain.Window == nil {
		t.Errorf("kpi explain = %+v", explain)
	}
}

func TestAppendixAgingSummary(t *testing.T) {
	s := newTestSynthesizer(nil)
	rep := s.Synthesize(context.Background(), "how is my cash?", testWindow(), metricsTrace(50, 42))

	ag := rep.Appendix.AgingSummary
	if ag.OpenInvoices != 4 {
		t.Errorf("open invoices = %d", ag.OpenInvoices)
	}
	if ag.TotalOverdue == nil || *ag.TotalOverdue != 95000 {
		t.Errorf("total overdue = %v", ag.TotalOverdue)
	}
	if ag.DominantBucket != "61-90" || ag.DominantAmount == nil || *ag.DominantAmount != 60000 {
		t.Errorf("dominant = %q %v", ag.DominantBucket, ag.DominantAmount)
	}
	if len(rep.Appendix.RulesApplied) == 0 || rep.Appendix.RulesApplied[0] != "R_AR_001" {
		t.Errorf("rules applied = %v", rep.Appendix.RulesApplied)
	}
}

// =============================================================================
// LIST HYGIENE
// =============================================================================

func TestDedupAndCaps(t *testing.T) {
	in := []string{"a", " a ", "b", "", "c", "d"}
	out := dedupStrings(in, 3)
	if len(out) != 3 || out[0] != "a" || out[1] != "b" || out[2] != "c" {
		t.Errorf("dedupStrings = %v", out)
	}

	links := mergeLinks(
		[]CausalLink{{Cause: "X", Effect: "Y"}, {Cause: "", Effect: "Z"}},
		[]CausalLink{{Cause: "x", Effect: "y"}, {Cause: "P", Effect: "Q"}},
		8,
	)
	if len(links) != 2 {
		t.Errorf("mergeLinks = %+v", links)
	}
}
