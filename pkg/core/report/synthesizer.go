package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"finsight/pkg/core/agents"
	"finsight/pkg/core/knowledge"
	"finsight/pkg/core/ledger"
	"finsight/pkg/core/llm"
	"finsight/pkg/core/period"
	"finsight/pkg/core/prompt"
	"finsight/pkg/core/utils"
)

// DefaultNarrativeTimeout bounds the narrative stage. A slow model falls
// back to the deterministic report instead of stalling the answer.
const DefaultNarrativeTimeout = 45 * time.Second

// Synthesizer builds the executive report from a module trace. The provider
// is optional: with a nil provider every report takes the deterministic
// fallback path.
type Synthesizer struct {
	provider llm.Provider
	kb       *knowledge.Registry
	timeout  time.Duration
	log      zerolog.Logger
}

func NewSynthesizer(provider llm.Provider, kb *knowledge.Registry, log zerolog.Logger) *Synthesizer {
	if kb == nil {
		kb = knowledge.Default()
	}
	return &Synthesizer{
		provider: provider,
		kb:       kb,
		timeout:  DefaultNarrativeTimeout,
		log:      log.With().Str("component", "synthesizer").Logger(),
	}
}

// SetTimeout overrides the narrative stage timeout.
func (s *Synthesizer) SetTimeout(d time.Duration) { s.timeout = d }

// llmNarrative is the JSON shape the narrative prompt asks for.
type llmNarrative struct {
	Summary         string   `json:"summary"`
	Findings        []string `json:"findings"`
	Risks           []string `json:"risks"`
	Recommendations []string `json:"recommendations"`
	Causality       struct {
		Hypotheses []string     `json:"hypotheses"`
		Links      []CausalLink `json:"links"`
	} `json:"causality"`
	PriorityOrders []PriorityOrder `json:"priority_orders"`
}

// Synthesize is the entry point. It never fails: any degradation inside
// (missing provider, timeout, unparseable model output) lands on the
// deterministic fallback so the caller always gets a complete report.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, window period.Window, trace []agents.Result) *ExecutiveReport {
	ectx := ExtractContext(trace)
	if ectx.Period == "" {
		ectx.Period = window.Label
	}

	// Point questions (one balance, one due date, one list) get their
	// answer straight from the agent summaries. No KPI board, no model.
	if rep := s.pointAnswer(trace, ectx); rep != nil {
		return rep
	}

	rules := s.applicableRules(question, ectx)
	due := DueDate(window)
	detOrders := DeterministicOrders(ectx, due)
	kbOrders := KBOrders(rules, due)
	hypotheses := CausalHypotheses(ectx)
	links := CausalLinks(ectx)

	rep, narrErr := s.narrative(ctx, question, ectx, rules)
	if narrErr != nil {
		s.log.Warn().Err(narrErr).Msg("narrative stage failed, using fallback report")
		rep = s.fallback(question, ectx)
	}

	s.postProcess(rep, ectx, hypotheses, links, kbOrders, detOrders)
	rep.Appendix = buildAppendix(ectx, rules)
	return rep
}

// pointAnswer short-circuits when the trace holds only point lookups and no
// KPI came out of the run.
func (s *Synthesizer) pointAnswer(trace []agents.Result, ectx *Context) *ExecutiveReport {
	for _, v := range ectx.KPIs {
		if v != nil {
			return nil
		}
	}

	var summaries []string
	point := false
	for _, res := range trace {
		if res.Failed() || res.Agent == "consolidation" {
			continue
		}
		switch res.Action {
		case agents.ActionMetrics, agents.ActionAging:
			return nil
		default:
			point = true
		}
		if res.Summary != "" {
			summaries = append(summaries, res.Summary)
		}
	}
	if !point || len(summaries) == 0 {
		return nil
	}

	return &ExecutiveReport{
		Period:          ectx.Period,
		Summary:         strings.Join(summaries, " "),
		Findings:        summaries,
		Risks:           []string{},
		Recommendations: []string{},
		Causality:       Causality{Hypotheses: []string{}, Links: []CausalLink{}},
		PriorityOrders:  []PriorityOrder{},
		Narrative:       "direct",
	}
}

func (s *Synthesizer) applicableRules(question string, ectx *Context) []knowledge.Rule {
	metrics := map[string]float64{}
	for _, k := range []string{"dso", "dpo", "ccc"} {
		if v := ectx.KPIs[k]; v != nil {
			metrics[k] = *v
		}
	}
	if t := OverdueTotal(ectx.ARAging); t > 0 {
		metrics["overdue_receivable"] = t
	}
	if t := OverdueTotal(ectx.APAging); t > 0 {
		metrics["overdue_payable"] = t
	}
	if ectx.ARtoAP != nil {
		metrics["ar_to_ap"] = *ectx.ARtoAP
	}
	return s.kb.Applicable(knowledge.ExecutiveAgent, metrics, question, nil)
}

// narrative runs the model stage under a timeout and decodes its JSON.
func (s *Synthesizer) narrative(ctx context.Context, question string, ectx *Context, rules []knowledge.Rule) (*ExecutiveReport, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no provider configured")
	}

	tpl, err := prompt.Get().GetPrompt(prompt.ExecutiveReportID)
	if err != nil {
		return nil, err
	}

	ctxBlob, err := json.MarshalIndent(s.promptContext(ectx, rules), "", "  ")
	if err != nil {
		return nil, err
	}
	userPrompt, err := tpl.RenderUser(map[string]interface{}{
		"Question": question,
		"Context":  string(ctxBlob),
	})
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.provider.GenerateResponse(callCtx, userPrompt, tpl.SystemPrompt, llm.JSONMode())
	if err != nil {
		return nil, err
	}

	var out llmNarrative
	if err := utils.DecodeLLMJSON(raw, &out); err != nil {
		return nil, err
	}

	return &ExecutiveReport{
		Period:          ectx.Period,
		Summary:         out.Summary,
		Findings:        out.Findings,
		Risks:           out.Risks,
		Recommendations: out.Recommendations,
		Causality:       Causality{Hypotheses: out.Causality.Hypotheses, Links: out.Causality.Links},
		PriorityOrders:  out.PriorityOrders,
		Narrative:       "llm",
	}, nil
}

// promptContext is the redacted view the model sees: bands, formatted
// amounts and summaries, never raw invoice rows.
func (s *Synthesizer) promptContext(ectx *Context, rules []knowledge.Rule) map[string]interface{} {
	ruleNotes := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Recommendation != "" {
			ruleNotes = append(ruleNotes, r.Recommendation)
		}
	}
	pc := map[string]interface{}{
		"period":    ectx.Period,
		"kpi_bands": ectx.Bands,
		"kpis": map[string]string{
			"dso": FormatDays(ectx.KPIs["dso"]),
			"dpo": FormatDays(ectx.KPIs["dpo"]),
			"ccc": FormatDays(ectx.KPIs["ccc"]),
		},
		"open_receivables": FormatCurrency(ectx.AROpen),
		"open_payables":    FormatCurrency(ectx.APOpen),
		"rule_guidance":    ruleNotes,
	}
	if ectx.ARAging != nil {
		pc["receivable_overdue"] = FormatCurrency(ptr(OverdueTotal(ectx.ARAging)))
	}
	if ectx.APAging != nil {
		pc["payable_overdue"] = FormatCurrency(ptr(OverdueTotal(ectx.APAging)))
	}
	return pc
}

// fallback builds the deterministic report used when the narrative stage is
// unavailable or fails.
func (s *Synthesizer) fallback(question string, ectx *Context) *ExecutiveReport {
	rep := &ExecutiveReport{
		Period:          ectx.Period,
		Findings:        []string{},
		Risks:           []string{},
		Recommendations: []string{},
		Causality:       Causality{Hypotheses: []string{}, Links: []CausalLink{}},
		PriorityOrders:  []PriorityOrder{},
		Narrative:       "fallback",
	}

	dso := ectx.KPIs["dso"]
	dpo := ectx.KPIs["dpo"]
	ccc := ectx.KPIs["ccc"]

	if !ectx.HasHardData() {
		rep.Summary = "No ledger activity was found for the requested period, so no financial conclusions can be drawn."
		rep.Recommendations = append(rep.Recommendations, "Verify the requested period or load the ledger data for it.")
		return rep
	}

	rep.Summary = fmt.Sprintf("Deterministic summary for %s: DSO %s, DPO %s, CCC %s.",
		ectx.Period, FormatDays(dso), FormatDays(dpo), FormatDays(ccc))

	if dso != nil && *dso > DSOAlert {
		rep.Findings = append(rep.Findings, fmt.Sprintf("Collections are slow: DSO is %s, above the %.0f-day target.", FormatDays(dso), DSOAlert))
	}
	if dpo != nil && *dpo < DPOAlert {
		rep.Findings = append(rep.Findings, fmt.Sprintf("Suppliers are paid in %s, faster than the %.0f-day target.", FormatDays(dpo), DPOAlert))
	}
	if ccc != nil && *ccc > 0 {
		rep.Risks = append(rep.Risks, fmt.Sprintf("Cash is tied up for %s before it returns, pressuring liquidity.", FormatDays(ccc)))
	}
	if dso != nil && dpo != nil && *dso-*dpo > 10 {
		rep.Risks = append(rep.Risks, "Customers pay noticeably later than suppliers are paid, an unbalanced credit cycle.")
	}
	if len(rep.Findings) == 0 {
		rep.Findings = append(rep.Findings, "Working capital indicators are within their target ranges.")
	}
	rep.Recommendations = append(rep.Recommendations, "Review the priority orders below and assign each owner a due date.")
	return rep
}

// postProcess is the deterministic pass that runs after any narrative. The
// KPI board is rebuilt from scratch, the summary gets the factual totals
// line, and the causal and order lists are merged with dedup and caps.
func (s *Synthesizer) postProcess(rep *ExecutiveReport, ectx *Context, hypotheses []string, links []CausalLink, kbOrders, detOrders []PriorityOrder) {
	rep.Period = ectx.Period

	// The finance board always comes from the ledger, whatever the model
	// wrote.
	rep.Board.Finance = []string{
		"DSO: " + FormatDays(ectx.KPIs["dso"]),
		"DPO: " + FormatDays(ectx.KPIs["dpo"]),
		"CCC: " + FormatDays(ectx.KPIs["ccc"]),
		fmt.Sprintf("Open receivables: %s across %d invoices", FormatCurrency(ectx.AROpen), ectx.AROpenCount),
		fmt.Sprintf("Open payables: %s across %d invoices", FormatCurrency(ectx.APOpen), ectx.APOpenCount),
		"Net position: " + FormatCurrency(ectx.NetPosition),
	}

	extra := fmt.Sprintf("In this period, open receivables total %s across %d invoices and open payables total %s across %d invoices; the net position is %s.",
		FormatCurrency(ectx.AROpen), ectx.AROpenCount,
		FormatCurrency(ectx.APOpen), ectx.APOpenCount,
		FormatCurrency(ectx.NetPosition))
	if sum := strings.TrimSpace(rep.Summary); sum != "" {
		rep.Summary = sum + " " + extra
	} else {
		rep.Summary = extra
	}

	rep.Causality.Hypotheses = dedupStrings(append(rep.Causality.Hypotheses, hypotheses...), maxHypotheses)
	rep.Causality.Links = mergeLinks(rep.Causality.Links, links, maxCausalLinks)
	rep.PriorityOrders = MergeOrders(rep.PriorityOrders, kbOrders, detOrders)

	s.strongSignals(rep, ectx)

	rep.Findings = capStrings(rep.Findings, maxListItems)
	rep.Risks = capStrings(rep.Risks, maxListItems)
	rep.Recommendations = capStrings(rep.Recommendations, maxListItems)

	rep.Summary = utils.StripReasoning(rep.Summary)
	rep.Findings = sanitizeAll(rep.Findings)
	rep.Risks = sanitizeAll(rep.Risks)
	rep.Recommendations = sanitizeAll(rep.Recommendations)
}

// strongSignals injects the findings and board guidance for the loudest
// conditions: an almost fully overdue receivable book, critical DSO, and a
// large overdue payable share.
func (s *Synthesizer) strongSignals(rep *ExecutiveReport, ectx *Context) {
	arRatio := overdueRatio(ectx.ARAging, ectx.AROpen)
	apRatio := overdueRatio(ectx.APAging, ectx.APOpen)
	dso := ectx.KPIs["dso"]

	if arRatio != nil && *arRatio >= 0.95 {
		rep.Findings = prepend(rep.Findings,
			fmt.Sprintf("Liquidity: the receivable book is practically fully overdue (%s).", FormatPct(arRatio)))
		rep.Risks = prepend(rep.Risks,
			"Critical liquidity risk: expected collections are not reaching the bank.")
	}
	if dso != nil && *dso > DSOCritical {
		rep.Findings = append(rep.Findings,
			fmt.Sprintf("Collection efficiency: a DSO of %s points to slow collections or lax credit terms.", FormatDays(dso)))
	}
	if arRatio != nil && *arRatio >= 0.50 {
		rep.Board.Customers = prepend(rep.Board.Customers,
			"Customers: tighten payment agreements and review credit limits to curb delinquency.")
		rep.Board.InternalProcess = prepend(rep.Board.InternalProcess,
			"Process: weekly aging review plus staged dunning with named owners and dates.")
		rep.Board.Learning = prepend(rep.Board.Learning,
			"Learning: collection and negotiation playbooks with short team training.")
		rep.Recommendations = prepend(rep.Recommendations,
			"Run a three-level collection plan (reminder, negotiation, escalation) starting with the oldest invoices.")
	}
	if apRatio != nil && *apRatio >= 0.50 {
		rep.Findings = append(rep.Findings,
			fmt.Sprintf("Suppliers: a significant share of payables is overdue (%s).", FormatPct(apRatio)))
		rep.Risks = append(rep.Risks,
			"Operational risk: supplier friction, penalties or restricted credit.")
		rep.Board.InternalProcess = append(rep.Board.InternalProcess,
			"Process: payment calendar by criticality (essentials first) and renegotiated terms.")
	}
}

func buildAppendix(ectx *Context, rules []knowledge.Rule) *TechnicalAppendix {
	app := &TechnicalAppendix{
		KPIExplain: map[string]KPIExplain{},
	}

	hasData := ectx.HasHardData()
	quality := DataQuality{HasData: hasData, Confidence: "high"}
	if !hasData {
		quality.Confidence = "medium"
	}

	for _, k := range []string{"dso", "dpo"} {
		explain := KPIExplain{Value: ectx.KPIs[k]}
		if b := ectx.Basis[k]; b != nil {
			w := b.Window
			d, rd := b.Denominator, b.RequiredDenominator
			explain.Method = b.Method
			explain.BasisReason = b.Reason
			explain.Window = &w
			explain.Denominator = &d
			explain.RequiredDenominator = &rd

			if strings.Contains(strings.ToLower(b.Method), "trailing") {
				quality.IsEstimated = true
				if quality.Confidence == "high" {
					quality.Confidence = "medium"
				} else {
					quality.Confidence = "low"
				}
			}
			if r := strings.TrimSpace(b.Reason); r != "" {
				quality.Warnings = append(quality.Warnings, r)
			}
		}
		app.KPIExplain[k] = explain
	}
	app.KPIExplain["ccc"] = KPIExplain{Value: ectx.KPIs["ccc"]}

	if hasData && ectx.Basis["dso"] == nil && ectx.KPIs["dso"] != nil {
		quality.Confidence = "medium"
		quality.Warnings = append(quality.Warnings, "No calculation basis was recorded for the DSO in this cut.")
	}
	if len(quality.Warnings) > maxWarnings {
		quality.Warnings = quality.Warnings[:maxWarnings]
	}
	app.DataQuality = quality

	if s := ectx.ARAging; s != nil {
		summary := AgingSummary{
			OpenInvoices:     s.OpenCount,
			TotalOverdue:     ptr(s.TotalOverdue.InexactFloat64()),
			TotalCurrent:     ptr(s.TotalCurrent.InexactFloat64()),
			TotalOutstanding: ptr(s.TotalOutstanding.InexactFloat64()),
			OverdueBuckets:   map[string]float64{},
		}
		for _, key := range ledger.OverdueBucketOrder {
			summary.OverdueBuckets[key] = s.Overdue[key].InexactFloat64()
		}
		if bucket, amount := DominantBucket(s); bucket != "" {
			summary.DominantBucket = bucket
			summary.DominantAmount = amount
		}
		app.AgingSummary = summary
	}

	for _, r := range rules {
		if r.ID != "" {
			app.RulesApplied = append(app.RulesApplied, r.ID)
		}
	}
	if len(app.RulesApplied) > maxRuleIDs {
		app.RulesApplied = app.RulesApplied[:maxRuleIDs]
	}
	return app
}

func dedupStrings(in []string, limit int) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func mergeLinks(a, b []CausalLink, limit int) []CausalLink {
	seen := map[string]bool{}
	var out []CausalLink
	for _, l := range append(a, b...) {
		key := strings.ToLower(l.Cause + "|" + l.Effect)
		if l.Cause == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	if out == nil {
		out = []CausalLink{}
	}
	return out
}

func capStrings(in []string, n int) []string {
	if in == nil {
		return []string{}
	}
	if len(in) > n {
		return in[:n]
	}
	return in
}

func sanitizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if clean := strings.TrimSpace(utils.StripReasoning(s)); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func prepend(list []string, item string) []string {
	return append([]string{item}, list...)
}

func ptr(v float64) *float64 { return &v }
