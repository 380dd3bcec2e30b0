package report

import (
	"testing"
	"time"

	"finsight/pkg/core/knowledge"
	"finsight/pkg/core/period"
)

func testWindow() period.Window {
	return period.Window{
		Label:       "March 2025",
		Start:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
		Granularity: "month",
	}
}

func TestDueDate(t *testing.T) {
	if got := DueDate(testWindow()); got != "2025-03-30" {
		t.Errorf("DueDate = %q", got)
	}
	if got := DueDate(period.Window{}); got != "" {
		t.Errorf("zero window DueDate = %q", got)
	}
}

func TestDeterministicOrdersFireAtThresholds(t *testing.T) {
	c := &Context{
		KPIs:   map[string]*float64{"dso": ptr(50), "dpo": ptr(30), "ccc": ptr(25)},
		ARtoAP: ptr(1.4),
	}
	orders := DeterministicOrders(c, "2025-03-30")
	if len(orders) != 4 {
		t.Fatalf("got %d orders, want 4", len(orders))
	}
	wantTitles := []string{
		"Dunning campaign for the top 10 overdue customers",
		"Renegotiate payment terms with 3 key suppliers",
		"Freeze non-essential spending for 30 days",
		"Weekly receivables/payables sync on cash flows",
	}
	for i, w := range wantTitles {
		if orders[i].Title != w {
			t.Errorf("order %d title = %q, want %q", i, orders[i].Title, w)
		}
		if orders[i].Due != "2025-03-30" {
			t.Errorf("order %d due = %q", i, orders[i].Due)
		}
	}
}

func TestDeterministicOrdersQuietWhenHealthy(t *testing.T) {
	c := &Context{
		KPIs:   map[string]*float64{"dso": ptr(30), "dpo": ptr(50), "ccc": ptr(10)},
		ARtoAP: ptr(1.0),
	}
	if orders := DeterministicOrders(c, "2025-03-30"); len(orders) != 0 {
		t.Errorf("healthy KPIs produced %d orders", len(orders))
	}
}

func TestKBOrdersFillsDefaults(t *testing.T) {
	rules := []knowledge.Rule{
		{ID: "R1", Orders: []knowledge.Order{{Title: "Call the top debtor"}}},
		{ID: "R2", Recommendation: "Review the credit policy"},
	}
	orders := KBOrders(rules, "2025-03-30")
	if len(orders) != 2 {
		t.Fatalf("got %d orders", len(orders))
	}
	first := orders[0]
	if first.Owner != "Administration" || first.KPI != "N/D" || first.Due != "2025-03-30" || first.Impact != "medium" {
		t.Errorf("defaults not filled: %+v", first)
	}
	if first.SourceRule != "R1" {
		t.Errorf("source rule = %q", first.SourceRule)
	}
	if orders[1].Title != "Review the credit policy" || orders[1].SourceRule != "R2" {
		t.Errorf("recommendation-only rule not lifted: %+v", orders[1])
	}
}

func TestMergeOrdersDedup(t *testing.T) {
	a := []PriorityOrder{
		{Title: "Dunning Campaign", Owner: "Model"},
		{Title: ""},
	}
	b := []PriorityOrder{
		{Title: "  dunning campaign ", Owner: "Deterministic"},
		{Title: "Something else", Owner: "KB"},
	}
	merged := MergeOrders(a, b)
	if len(merged) != 2 {
		t.Fatalf("got %d orders, want 2", len(merged))
	}
	if merged[0].Owner != "Model" {
		t.Errorf("first-seen order must win, got owner %q", merged[0].Owner)
	}
	if merged[1].Title != "Something else" {
		t.Errorf("second order = %q", merged[1].Title)
	}
}
