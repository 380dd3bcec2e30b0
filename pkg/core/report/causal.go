package report

import "fmt"

// CausalHypotheses derives threshold-driven hypotheses from the context.
// These are merged with whatever the narrative stage proposed, deterministic
// entries first.
func CausalHypotheses(c *Context) []string {
	var out []string
	dso := c.KPIs["dso"]
	dpo := c.KPIs["dpo"]
	ccc := c.KPIs["ccc"]

	if dso != nil && *dso > DSOAlert {
		out = append(out, "Slow collections are stretching the receivable cycle beyond target.")
	}
	if dpo != nil && *dpo < DPOAlert {
		out = append(out, "Suppliers are being paid faster than customers pay, compressing available cash.")
	}
	if ccc != nil && *ccc > CCCAlert {
		out = append(out, "The cash conversion cycle leaves working capital tied up longer than the business can comfortably fund.")
	}
	if c.ARtoAP != nil && *c.ARtoAP > ARtoAPAlert {
		out = append(out, "Open receivables significantly exceed open payables, concentrating collection risk.")
	}
	if bucket, amount := DominantBucket(c.ARAging); bucket != "" && amount != nil {
		out = append(out, fmt.Sprintf("Most of the overdue receivable balance sits in the %s day bucket (%s).", bucket, FormatCurrency(amount)))
	}
	return out
}

// CausalLinks builds the evidence-backed links for the strong signals:
// a receivable book that is almost fully overdue, a high DSO, and a payable
// book with a large overdue share.
func CausalLinks(c *Context) []CausalLink {
	var links []CausalLink

	if r := overdueRatio(c.ARAging, c.AROpen); r != nil && *r >= 0.95 {
		overdue := OverdueTotal(c.ARAging)
		links = append(links, CausalLink{
			Cause:      "Nearly the entire receivable book is overdue",
			Effect:     "Direct pressure on cash and liquidity",
			Evidence:   fmt.Sprintf("overdue %s of %s open (%s)", FormatCurrency(&overdue), FormatCurrency(c.AROpen), FormatPct(r)),
			Confidence: "high",
		})
	}

	if dso := c.KPIs["dso"]; dso != nil && *dso > DSOCritical {
		conf := "medium"
		if *dso >= 120 {
			conf = "high"
		}
		links = append(links, CausalLink{
			Cause:      "High DSO",
			Effect:     "Slow collections or lax credit terms",
			Evidence:   "DSO=" + FormatDays(dso),
			Confidence: conf,
		})
	}

	if r := overdueRatio(c.APAging, c.APOpen); r != nil && *r >= 0.50 {
		overdue := OverdueTotal(c.APAging)
		links = append(links, CausalLink{
			Cause:      "Large overdue share of payables",
			Effect:     "Supplier friction, penalties or credit restriction",
			Evidence:   fmt.Sprintf("overdue %s of %s open (%s)", FormatCurrency(&overdue), FormatCurrency(c.APOpen), FormatPct(r)),
			Confidence: "medium",
		})
	}

	return links
}
