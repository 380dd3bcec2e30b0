// Package knowledge holds the policy rule base: YAML-defined business rules
// that turn KPI readings into recommendations and priority orders. The
// registry is loaded once and immutable afterwards.
package knowledge

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// Rule is one policy rule. It applies when any trigger keyword matches the
// question (no keywords = always) and every condition holds.
type Rule struct {
	ID             string      `yaml:"id"`
	Name           string      `yaml:"name"`
	Triggers       Triggers    `yaml:"triggers"`
	Conditions     []Condition `yaml:"conditions"`
	Recommendation string      `yaml:"recommendation"`
	Orders         []Order     `yaml:"orders"`
}

type Triggers struct {
	Keywords []string `yaml:"keywords"`
}

// Condition is either numeric (Metric/Op/Value, where Value may name another
// metric) or qualitative (Dimension/Level against the context).
type Condition struct {
	Metric    string      `yaml:"metric"`
	Op        string      `yaml:"op"`
	Value     interface{} `yaml:"value"`
	Dimension string      `yaml:"dimension"`
	Level     string      `yaml:"level"`
}

// Order is a concrete action item a rule emits.
type Order struct {
	Title  string `yaml:"title" json:"title"`
	Owner  string `yaml:"owner" json:"owner"`
	KPI    string `yaml:"kpi" json:"kpi"`
	Due    string `yaml:"due" json:"due"`
	Impact string `yaml:"impact" json:"impact"`
}

type kbFile struct {
	Agents map[string]struct {
		Rules []Rule `yaml:"rules"`
	} `yaml:"agents"`
}

// Registry is the loaded rule base, keyed by agent name.
type Registry struct {
	agents map[string][]Rule
}

// Load reads a rule file. A missing path falls back to the builtin defaults,
// a malformed file is an error.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("KB_READ_ERROR: %v", err)
	}
	return parse(data)
}

// Default returns the builtin rule base.
func Default() *Registry {
	r, err := parse([]byte(defaultKB))
	if err != nil {
		// The builtin YAML is a constant; a parse failure is a programming
		// error caught by tests.
		panic(err)
	}
	return r
}

func parse(data []byte) (*Registry, error) {
	var file kbFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("KB_PARSE_ERROR: %v", err)
	}
	agents := make(map[string][]Rule, len(file.Agents))
	for name, blk := range file.Agents {
		agents[name] = blk.Rules
	}
	return &Registry{agents: agents}, nil
}

// Rules returns every rule of one agent.
func (r *Registry) Rules(agent string) []Rule {
	return r.agents[agent]
}

// Applicable filters an agent's rules against the metrics, the question text
// and the qualitative context.
func (r *Registry) Applicable(agent string, metrics map[string]float64, question string, context map[string]string) []Rule {
	var out []Rule
	for _, rule := range r.agents[agent] {
		if ruleApplies(rule, metrics, question, context) {
			out = append(out, rule)
		}
	}
	return out
}

func ruleApplies(rule Rule, metrics map[string]float64, question string, context map[string]string) bool {
	if len(rule.Triggers.Keywords) > 0 {
		q := strings.ToLower(question)
		hit := false
		for _, kw := range rule.Triggers.Keywords {
			if strings.Contains(q, strings.ToLower(kw)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	for _, cond := range rule.Conditions {
		if cond.Dimension != "" {
			actual, ok := context[cond.Dimension]
			if !ok || !strings.EqualFold(strings.TrimSpace(actual), strings.TrimSpace(cond.Level)) {
				return false
			}
			continue
		}

		if cond.Metric == "" {
			return false
		}
		mv, ok := metrics[cond.Metric]
		if !ok {
			return false
		}

		// Value may reference another metric by name.
		var ref float64
		if name, isStr := cond.Value.(string); isStr {
			if other, ok := metrics[name]; ok {
				ref = other
			} else if v, ok := coerceNumber(name); ok {
				ref = v
			} else {
				return false
			}
		} else if v, ok := coerceNumber(cond.Value); ok {
			ref = v
		} else {
			return false
		}

		switch cond.Op {
		case ">":
			if !(mv > ref) {
				return false
			}
		case "<":
			if !(mv < ref) {
				return false
			}
		case ">=":
			if !(mv >= ref) {
				return false
			}
		case "<=":
			if !(mv <= ref) {
				return false
			}
		case "==":
			if mv != ref {
				return false
			}
		default:
			return false
		}
	}
	return true
}

var reNumberJunk = regexp.MustCompile(`[₡$%,\s]`)

// coerceNumber accepts numbers and strings carrying currency symbols,
// percent signs or thousands separators.
func coerceNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case string:
		s := reNumberJunk.ReplaceAllString(strings.TrimSpace(t), "")
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
