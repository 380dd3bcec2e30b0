package report

import (
	"fmt"
	"strings"

	"finsight/pkg/core/utils"
)

// RenderMarkdown lays the report out as a markdown document for the CLI and
// for HTML conversion.
func RenderMarkdown(r *ExecutiveReport) string {
	var b strings.Builder

	title := "Executive Report"
	if r.Period != "" {
		title += " - " + r.Period
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "%s\n", r.Summary)

	writeList(&b, "Findings", r.Findings)
	writeList(&b, "Risks", r.Risks)
	writeList(&b, "Recommendations", r.Recommendations)

	if len(r.Board.Finance) > 0 {
		b.WriteString("\n## KPI Board\n\n")
		writeBoardDim(&b, "Finance", r.Board.Finance)
		writeBoardDim(&b, "Customers", r.Board.Customers)
		writeBoardDim(&b, "Internal process", r.Board.InternalProcess)
		writeBoardDim(&b, "Learning", r.Board.Learning)
	}

	if len(r.Causality.Hypotheses) > 0 || len(r.Causality.Links) > 0 {
		b.WriteString("\n## Causality\n")
		if len(r.Causality.Hypotheses) > 0 {
			b.WriteString("\n### Hypotheses\n\n")
			for _, h := range r.Causality.Hypotheses {
				fmt.Fprintf(&b, "- %s\n", h)
			}
		}
		if len(r.Causality.Links) > 0 {
			b.WriteString("\n### Links\n\n")
			for _, l := range r.Causality.Links {
				fmt.Fprintf(&b, "- **%s** → %s (%s; confidence: %s)\n", l.Cause, l.Effect, l.Evidence, l.Confidence)
			}
		}
	}

	if len(r.PriorityOrders) > 0 {
		b.WriteString("\n## Priority Orders\n\n")
		b.WriteString("| Title | Owner | KPI | Due | Impact |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, o := range r.PriorityOrders {
			impact := o.Impact
			if impact == "" {
				impact = o.Priority
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", o.Title, o.Owner, o.KPI, o.Due, impact)
		}
	}

	if app := r.Appendix; app != nil {
		b.WriteString("\n## Technical Appendix\n\n")
		fmt.Fprintf(&b, "- Confidence: %s", app.DataQuality.Confidence)
		if app.DataQuality.IsEstimated {
			b.WriteString(" (estimated)")
		}
		b.WriteByte('\n')
		for _, w := range app.DataQuality.Warnings {
			fmt.Fprintf(&b, "- Warning: %s\n", w)
		}
		for _, k := range []string{"dso", "dpo", "ccc"} {
			e, ok := app.KPIExplain[k]
			if !ok || e.Value == nil {
				continue
			}
			line := fmt.Sprintf("- %s: %s", strings.ToUpper(k), FormatDays(e.Value))
			if e.Method != "" {
				line += " (method: " + e.Method
				if e.Window != nil {
					line += fmt.Sprintf(", window %s to %s", e.Window.Start, e.Window.End)
				}
				line += ")"
			}
			b.WriteString(line + "\n")
		}
		if len(app.RulesApplied) > 0 {
			fmt.Fprintf(&b, "- Rules applied: %s\n", strings.Join(app.RulesApplied, ", "))
		}
	}

	return b.String()
}

// RenderHTML converts the markdown rendering to HTML. The document is parsed
// once before conversion so a broken rendering surfaces as an error instead
// of silent garbage HTML.
func RenderHTML(r *ExecutiveReport) (string, error) {
	md := RenderMarkdown(r)
	if !utils.ValidateMarkdown(md) {
		return "", fmt.Errorf("MARKDOWN_RENDER_ERROR: report document failed to parse")
	}
	return utils.MarkdownToHTML(md)
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func writeBoardDim(b *strings.Builder, dim string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", dim)
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", l)
	}
	b.WriteByte('\n')
}
