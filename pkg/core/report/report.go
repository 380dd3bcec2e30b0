// Package report turns a module trace into the executive answer: a KPI
// board filled from deterministic numbers, a narrative layer that may come
// from a language model but is always post-processed, and a technical
// appendix explaining how each metric was computed.
//
// Core rule: the model writes prose, never numbers. Every figure the reader
// sees is formatted here from the ledger results, and the board is
// overwritten after the narrative stage regardless of what the model said.
package report

import "finsight/pkg/core/ledger"

// CausalLink ties one observed cause to an effect with its evidence.
type CausalLink struct {
	Cause      string `json:"cause"`
	Effect     string `json:"effect"`
	Evidence   string `json:"evidence"`
	Confidence string `json:"confidence"` // high | medium | low
}

// Causality groups the hypotheses and the evidence-backed links.
type Causality struct {
	Hypotheses []string     `json:"hypotheses"`
	Links      []CausalLink `json:"links"`
}

// PriorityOrder is one concrete action item with an owner and a due date.
type PriorityOrder struct {
	Title      string `json:"title"`
	Owner      string `json:"owner"`
	Priority   string `json:"priority,omitempty"`
	KPI        string `json:"kpi"`
	Due        string `json:"due"`
	Impact     string `json:"impact,omitempty"`
	SourceRule string `json:"source_rule,omitempty"`
}

// KPIBoard is the scorecard block of the report. Finance lines are always
// rebuilt deterministically; the other dimensions hold qualitative guidance.
type KPIBoard struct {
	Finance         []string `json:"finance"`
	Customers       []string `json:"customers"`
	InternalProcess []string `json:"internal_process"`
	Learning        []string `json:"learning"`
}

// KPIExplain documents how one KPI was computed for the appendix.
type KPIExplain struct {
	Value               *float64             `json:"value"`
	Method              string               `json:"method,omitempty"`
	BasisReason         string               `json:"basis_reason,omitempty"`
	Window              *ledger.MetricWindow `json:"window,omitempty"`
	Denominator         *float64             `json:"denominator,omitempty"`
	RequiredDenominator *float64             `json:"required_denominator,omitempty"`
}

// DataQuality summarizes how much the reader should trust the numbers.
type DataQuality struct {
	HasData     bool     `json:"has_data"`
	Confidence  string   `json:"confidence"` // high | medium | low
	IsEstimated bool     `json:"is_estimated"`
	Warnings    []string `json:"warnings,omitempty"`
}

// AgingSummary is the appendix view of the receivable aging.
type AgingSummary struct {
	OpenInvoices     int                `json:"open_invoices"`
	TotalOverdue     *float64           `json:"total_overdue,omitempty"`
	TotalCurrent     *float64           `json:"total_current,omitempty"`
	TotalOutstanding *float64           `json:"total_outstanding,omitempty"`
	OverdueBuckets   map[string]float64 `json:"overdue_buckets,omitempty"`
	DominantBucket   string             `json:"dominant_bucket,omitempty"`
	DominantAmount   *float64           `json:"dominant_amount,omitempty"`
}

// TechnicalAppendix carries the non-narrative detail: data quality, per-KPI
// calculation basis, the aging summary and which rules fired.
type TechnicalAppendix struct {
	DataQuality  DataQuality           `json:"data_quality"`
	KPIExplain   map[string]KPIExplain `json:"kpi_explain"`
	AgingSummary AgingSummary          `json:"aging_summary"`
	RulesApplied []string              `json:"rules_applied,omitempty"`
}

// ExecutiveReport is the final answer for one question.
type ExecutiveReport struct {
	Period          string             `json:"period,omitempty"`
	Summary         string             `json:"summary"`
	Findings        []string           `json:"findings"`
	Risks           []string           `json:"risks"`
	Recommendations []string           `json:"recommendations"`
	Board           KPIBoard           `json:"kpi_board"`
	Causality       Causality          `json:"causality"`
	PriorityOrders  []PriorityOrder    `json:"priority_orders"`
	Appendix        *TechnicalAppendix `json:"technical_appendix,omitempty"`

	// Narrative records which path produced the prose: "llm", "fallback",
	// "direct" for point answers that skip the narrative stage, or
	// "guidance" when no ledger module could be selected.
	Narrative string `json:"narrative_source"`
}

// Caps applied during the post-pass so a chatty model cannot flood the
// report.
const (
	maxListItems   = 8
	maxHypotheses  = 10
	maxCausalLinks = 8
	maxWarnings    = 6
	maxRuleIDs     = 20
)
