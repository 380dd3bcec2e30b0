package knowledge

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Builtin rule base
// ---------------------------------------------------------------------------

func TestDefaultParses(t *testing.T) {
	reg := Default()
	rules := reg.Rules(ExecutiveAgent)
	if len(rules) != 4 {
		t.Fatalf("executive rules = %d, want 4", len(rules))
	}
	ids := map[string]bool{}
	for _, r := range rules {
		if r.ID == "" || r.Recommendation == "" {
			t.Errorf("rule %q missing id or recommendation", r.Name)
		}
		ids[r.ID] = true
	}
	for _, want := range []string{"R_AR_001", "R_AP_001", "R_CCC_001", "R_BAL_001"} {
		if !ids[want] {
			t.Errorf("missing builtin rule %s", want)
		}
	}
}

func TestDefaultThresholds(t *testing.T) {
	reg := Default()
	cases := []struct {
		name    string
		metrics map[string]float64
		want    []string
	}{
		{
			name:    "all healthy",
			metrics: map[string]float64{"dso": 30, "dpo": 50, "ccc": 10, "ar_to_ap": 1.0},
			want:    nil,
		},
		{
			name:    "slow collections",
			metrics: map[string]float64{"dso": 46, "dpo": 50, "ccc": 10, "ar_to_ap": 1.0},
			want:    []string{"R_AR_001"},
		},
		{
			name:    "paying too fast",
			metrics: map[string]float64{"dso": 30, "dpo": 39, "ccc": 10, "ar_to_ap": 1.0},
			want:    []string{"R_AP_001"},
		},
		{
			name:    "long cycle and imbalance",
			metrics: map[string]float64{"dso": 30, "dpo": 50, "ccc": 21, "ar_to_ap": 1.31},
			want:    []string{"R_CCC_001", "R_BAL_001"},
		},
		{
			name:    "exactly at the threshold stays quiet",
			metrics: map[string]float64{"dso": 45, "dpo": 40, "ccc": 20, "ar_to_ap": 1.30},
			want:    nil,
		},
	}
	for _, tc := range cases {
		got := reg.Applicable(ExecutiveAgent, tc.metrics, "how are we doing?", nil)
		if len(got) != len(tc.want) {
			t.Errorf("%s: fired %d rules, want %d", tc.name, len(got), len(tc.want))
			continue
		}
		for i, r := range got {
			if r.ID != tc.want[i] {
				t.Errorf("%s: rule %d = %s, want %s", tc.name, i, r.ID, tc.want[i])
			}
		}
	}
}

func TestMissingMetricBlocksRule(t *testing.T) {
	reg := Default()
	// dso is absent, so R_AR_001 cannot evaluate its condition.
	got := reg.Applicable(ExecutiveAgent, map[string]float64{"dpo": 50, "ccc": 10, "ar_to_ap": 1.0}, "", nil)
	for _, r := range got {
		if r.ID == "R_AR_001" {
			t.Errorf("R_AR_001 fired without a dso reading")
		}
	}
}

// ---------------------------------------------------------------------------
// Trigger keywords and conditions
// ---------------------------------------------------------------------------

func TestTriggerKeywords(t *testing.T) {
	reg, err := parse([]byte(`
agents:
  executive:
    rules:
      - id: KW_1
        name: keyword gated
        triggers:
          keywords: ["cobros", "collections"]
        recommendation: "call the customers"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := reg.Applicable(ExecutiveAgent, nil, "How are Collections going?", nil); len(got) != 1 {
		t.Errorf("case-insensitive keyword should match, got %d rules", len(got))
	}
	if got := reg.Applicable(ExecutiveAgent, nil, "what is the weather?", nil); len(got) != 0 {
		t.Errorf("unrelated question fired %d rules", len(got))
	}
}

func TestNoKeywordsAlwaysTriggers(t *testing.T) {
	reg, err := parse([]byte(`
agents:
  executive:
    rules:
      - id: OPEN_1
        name: unconditional
        recommendation: "always on"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := reg.Applicable(ExecutiveAgent, nil, "anything at all", nil); len(got) != 1 {
		t.Errorf("rule without keywords or conditions should always apply, got %d", len(got))
	}
}

func TestAllConditionsMustHold(t *testing.T) {
	reg, err := parse([]byte(`
agents:
  executive:
    rules:
      - id: AND_1
        name: two conditions
        conditions:
          - metric: dso
            op: ">"
            value: 45
          - metric: dpo
            op: "<"
            value: 40
        recommendation: "squeeze from both sides"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	both := map[string]float64{"dso": 50, "dpo": 30}
	if got := reg.Applicable(ExecutiveAgent, both, "", nil); len(got) != 1 {
		t.Errorf("both conditions true, fired %d", len(got))
	}
	half := map[string]float64{"dso": 50, "dpo": 60}
	if got := reg.Applicable(ExecutiveAgent, half, "", nil); len(got) != 0 {
		t.Errorf("one condition false, fired %d", len(got))
	}
}

func TestMetricReferenceValue(t *testing.T) {
	reg, err := parse([]byte(`
agents:
  executive:
    rules:
      - id: REF_1
        name: dso exceeds dpo
        conditions:
          - metric: dso
            op: ">"
            value: dpo
        recommendation: "collections lag payments"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := reg.Applicable(ExecutiveAgent, map[string]float64{"dso": 50, "dpo": 30}, "", nil); len(got) != 1 {
		t.Errorf("dso > dpo should fire, got %d", len(got))
	}
	if got := reg.Applicable(ExecutiveAgent, map[string]float64{"dso": 20, "dpo": 30}, "", nil); len(got) != 0 {
		t.Errorf("dso < dpo fired %d", len(got))
	}
}

func TestQualitativeCondition(t *testing.T) {
	reg, err := parse([]byte(`
agents:
  executive:
    rules:
      - id: DIM_1
        name: high risk segment
        conditions:
          - dimension: liquidity
            level: tight
        recommendation: "hold discretionary spend"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := reg.Applicable(ExecutiveAgent, nil, "", map[string]string{"liquidity": " Tight "}); len(got) != 1 {
		t.Errorf("matching level (case/space folded) should fire, got %d", len(got))
	}
	if got := reg.Applicable(ExecutiveAgent, nil, "", map[string]string{"liquidity": "comfortable"}); len(got) != 0 {
		t.Errorf("wrong level fired %d", len(got))
	}
	if got := reg.Applicable(ExecutiveAgent, nil, "", nil); len(got) != 0 {
		t.Errorf("absent dimension fired %d", len(got))
	}
}

// ---------------------------------------------------------------------------
// Loading and number coercion
// ---------------------------------------------------------------------------

func TestLoadMissingFileFallsBack(t *testing.T) {
	reg, err := Load("/nonexistent/path/rules.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.Rules(ExecutiveAgent)) != 4 {
		t.Errorf("missing file should yield builtin rules")
	}
}

func TestLoadEmptyPathFallsBack(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.Rules(ExecutiveAgent)) == 0 {
		t.Errorf("empty path should yield builtin rules")
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := parse([]byte("agents: [not a map")); err == nil || !strings.Contains(err.Error(), "KB_PARSE_ERROR") {
		t.Errorf("err = %v, want KB_PARSE_ERROR", err)
	}
}

func TestCoerceNumber(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{42, 42, true},
		{int64(7), 7, true},
		{3.5, 3.5, true},
		{"45", 45, true},
		{"₡80,899.99", 80899.99, true},
		{"$1,000", 1000, true},
		{"95%", 95, true},
		{" 12 ", 12, true},
		{"", 0, false},
		{"abc", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := coerceNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("coerceNumber(%v) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
