package report

import (
	"strings"

	"finsight/pkg/core/knowledge"
	"finsight/pkg/core/period"
)

// DueDate derives the default due date for orders from the resolved window:
// the 30th of the window's month.
func DueDate(w period.Window) string {
	if w.Start.IsZero() {
		return ""
	}
	return w.Start.Format("2006-01") + "-30"
}

// DeterministicOrders fires the threshold-driven action items. These are
// appended after any rule- or model-proposed orders and deduplicated by
// title, so a better-worded duplicate from the knowledge base wins.
func DeterministicOrders(c *Context, due string) []PriorityOrder {
	var orders []PriorityOrder
	dso := c.KPIs["dso"]
	dpo := c.KPIs["dpo"]
	ccc := c.KPIs["ccc"]

	if dso != nil && *dso > DSOAlert {
		orders = append(orders, PriorityOrder{
			Title: "Dunning campaign for the top 10 overdue customers", Owner: "Receivables",
			Priority: "P1", KPI: "DSO", Due: due,
		})
	}
	if dpo != nil && *dpo < DPOAlert {
		orders = append(orders, PriorityOrder{
			Title: "Renegotiate payment terms with 3 key suppliers", Owner: "Payables",
			Priority: "P2", KPI: "DPO", Due: due,
		})
	}
	if ccc != nil && *ccc > CCCAlert {
		orders = append(orders, PriorityOrder{
			Title: "Freeze non-essential spending for 30 days", Owner: "Administration",
			Priority: "P1", KPI: "CCC", Due: due,
		})
	}
	if c.ARtoAP != nil && *c.ARtoAP > ARtoAPAlert {
		orders = append(orders, PriorityOrder{
			Title: "Weekly receivables/payables sync on cash flows", Owner: "Administration",
			Priority: "P3", KPI: "CCC", Due: due,
		})
	}
	return orders
}

// KBOrders lifts the action items out of the applicable knowledge rules. A
// rule without explicit orders still contributes its recommendation as one.
func KBOrders(rules []knowledge.Rule, due string) []PriorityOrder {
	var orders []PriorityOrder
	for _, r := range rules {
		for _, o := range r.Orders {
			po := PriorityOrder{
				Title: o.Title, Owner: o.Owner, KPI: o.KPI,
				Due: o.Due, Impact: o.Impact, SourceRule: r.ID,
			}
			if po.Title == "" {
				po.Title = firstNonEmpty(r.Recommendation, r.Name, "Action")
			}
			if po.Owner == "" {
				po.Owner = "Administration"
			}
			if po.KPI == "" {
				po.KPI = NotAvailable
			}
			if po.Due == "" {
				po.Due = due
			}
			if po.Impact == "" {
				po.Impact = "medium"
			}
			orders = append(orders, po)
		}
		if len(r.Orders) == 0 && r.Recommendation != "" {
			orders = append(orders, PriorityOrder{
				Title: r.Recommendation, Owner: "Administration", KPI: NotAvailable,
				Due: due, Impact: "medium", SourceRule: r.ID,
			})
		}
	}
	return orders
}

// MergeOrders concatenates order lists keeping first-seen titles. Titles are
// compared case-insensitively after trimming; empty titles are dropped.
func MergeOrders(lists ...[]PriorityOrder) []PriorityOrder {
	seen := map[string]bool{}
	var merged []PriorityOrder
	for _, list := range lists {
		for _, o := range list {
			key := strings.ToLower(strings.TrimSpace(o.Title))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, o)
		}
	}
	return merged
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
