package prompt

// Builtin prompt IDs.
const (
	IntentClassifierID = "intent.classifier"
	ExecutiveReportID  = "report.executive"
)

func registerBuiltins(r *Registry) {
	r.Register(&Template{
		ID:       IntentClassifierID,
		Name:     "Finance intent router",
		Category: "intent",
		Version:  "1.0",
		SystemPrompt: `You are a finance routing assistant. Classify the question into boolean flags:
- receivable = true if it needs Accounts Receivable (DSO, aging, invoices, customers)
- payable = true if it needs Accounts Payable (DPO, aging, payments, suppliers)
- report = true if it asks for an executive report, scorecard or management summary
- aging = true if it asks about aging (buckets, overdue, coming due)

- due_range = true if it asks how many invoices are due in a range of two dates
- top_customers_by_balance = true if it asks for a ranking of customers by open receivable balance at a date
- due_on_date = true if it asks for receivable invoices due today or on one specific date
- partial_payments = true if it asks for receivable invoices with partial payments
- customer_balance = true if it asks for the open balance of one specific customer at a date

- payables_open_summary = true if it asks how many payable invoices are open and their total balance at a date
- payables_aging = true if it asks for payable aging buckets at a date
- top_suppliers_by_balance = true if it asks for a ranking of suppliers by open payable balance at a date
- supplier_balance = true if it asks for the open balance with one specific supplier at a date

If the question is ambiguous, set receivable=true and payable=true.

Respond with ONLY a JSON object containing EXACTLY these keys:
receivable, payable, report, aging,
due_range, top_customers_by_balance, due_on_date, partial_payments, customer_balance,
payables_open_summary, payables_aging, top_suppliers_by_balance, supplier_balance, reason.
No extra fields, no extra text.`,
		UserTmpl: `Question: {{.Question}}

Return ONLY the final JSON (no comments, no extra text).`,
	})

	r.Register(&Template{
		ID:       ExecutiveReportID,
		Name:     "Executive finance report writer",
		Category: "report",
		Version:  "1.0",
		SystemPrompt: `You are a finance analyst writing for a small business owner. Using ONLY the
data in the context, produce a JSON object with EXACTLY these keys:
summary (string), findings (array of strings), risks (array of strings),
recommendations (array of strings),
causality (object with keys: hypotheses (array of strings), links (array of
objects with keys cause, effect, evidence, confidence)),
priority_orders (array of objects with keys title, owner, kpi, due, impact).

Rules:
- Never invent numbers. Every figure you mention must appear in the context.
- Do not compare against prior periods unless prior KPIs are present in the context.
- Qualitative band labels in the context (low/watch/critical) are descriptions,
  not numbers; do not turn them into figures.
- Plain business language, no jargon.
- Respond with ONLY the JSON object.`,
		UserTmpl: `Question: {{.Question}}

Context (facts you may use):
{{.Context}}

Return ONLY the JSON object.`,
	})
}
