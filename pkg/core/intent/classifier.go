package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"finsight/pkg/core/llm"
	"finsight/pkg/core/period"
	"finsight/pkg/core/prompt"
	"finsight/pkg/core/utils"
)

// Classifier runs the two-stage classification. A nil provider disables the
// LLM stage; ambiguous questions then fall back to both directions.
type Classifier struct {
	provider llm.Provider
	log      zerolog.Logger
}

func NewClassifier(provider llm.Provider, log zerolog.Logger) *Classifier {
	return &Classifier{provider: provider, log: log}
}

var (
	reDueVerb = regexp.MustCompile(`\bdue\b|\bexpir(?:e|es|ing)\b|\bmatur(?:e|es|ing|ity)\b`)
	reHowMany = regexp.MustCompile(`\bhow many\b|\bcount\b|\bnumber of\b`)
)

func containsAny(s string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Classify resolves the question's routing flags. Stage 1 is deterministic
// keyword and date-count heuristics; stage 2 asks the model only when stage 1
// found nothing.
func (c *Classifier) Classify(ctx context.Context, question string) Intent {
	q := normalize(question)

	it := c.heuristics(q)
	if it.Any() {
		it.Reason = "keyword heuristics"
		it.forceDirections()
		it.applyDirectionGuard()
		return it
	}

	return c.llmFallback(ctx, question)
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func (c *Classifier) heuristics(q string) Intent {
	var it Intent

	oneDate := period.HasDate(q) && !period.HasTwoDates(q)
	twoDates := period.HasTwoDates(q)

	customerKw := containsAny(q, "customer", "customers", "client", "clients")
	supplierKw := containsAny(q, "supplier", "suppliers", "vendor", "vendors", "provider", "providers")
	invoiceKw := containsAny(q, "invoice", "invoices", "bill", "bills")

	it.Receivable = containsAny(q, "receivable", "receivables", "collect", "collection", "dso") ||
		customerKw || invoiceKw
	it.Payable = containsAny(q, "payable", "payables", "dpo", "payment", "payments") || supplierKw
	it.Report = containsAny(q, "executive report", "bsc", "balanced scorecard", "management summary", "report")
	it.Aging = containsAny(q, "aging", "buckets", "overdue", "past due", "coming due",
		"1-30", "31-60", "61-90", "90+")

	dueVerb := reDueVerb.MatchString(q)

	// Due today or on one specific date.
	if dueVerb && strings.Contains(q, "today") {
		it.DueOnDate = true
	}
	if !it.DueOnDate && dueVerb && oneDate {
		it.DueOnDate = true
	}

	// Due inside an explicit two-date range.
	rangeKw := dueVerb || containsAny(q, "between", "from", "until", "deadline")
	it.DueRange = rangeKw && twoDates

	topKw := containsAny(q, "top", "ranking", "largest", "biggest", "main")
	balanceKw := containsAny(q, "balance", "balances", "amount", "amounts")
	openKw := containsAny(q, "open", "outstanding", "pending", "unpaid")
	receivableKw := containsAny(q, "receivable", "receivables")
	payableKw := containsAny(q, "payable", "payables")

	it.TopCustomersByBalance = topKw && customerKw && balanceKw &&
		(openKw || receivableKw) && !supplierKw && !payableKw &&
		oneDate

	partialKw := containsAny(q, "partial payment", "partial payments", "partially paid",
		"paid partially", "incomplete payment", "part payment", "installment")
	it.PartialPayments = partialKw && (invoiceKw || receivableKw || customerKw)
	if it.PartialPayments {
		it.DueRange = false
		it.Aging = false
	}

	it.CustomerBalance = balanceKw && oneDate && !it.TopCustomersByBalance &&
		(customerKw || receivableKw) &&
		!(supplierKw || payableKw)

	it.PayablesOpenSummary = (it.Payable || payableKw) &&
		(invoiceKw || payableKw) &&
		(openKw || reHowMany.MatchString(q)) &&
		reHowMany.MatchString(q) &&
		(balanceKw || containsAny(q, "total")) &&
		oneDate && !customerKw && !topKw

	it.PayablesAging = it.Payable && it.Aging && oneDate

	it.TopSuppliersByBalance = topKw && supplierKw && balanceKw &&
		(openKw || payableKw) && oneDate && !customerKw
	if it.TopSuppliersByBalance {
		it.CustomerBalance = false
		it.PayablesOpenSummary = false
	}

	it.SupplierBalance = it.Payable && balanceKw &&
		(openKw || payableKw) && oneDate &&
		strings.Contains(q, " with ") &&
		!it.TopSuppliersByBalance && !it.PayablesOpenSummary

	return it
}

// llmFallback asks the model for the flag set. Anything unparseable degrades
// to both directions so downstream modules still run.
func (c *Classifier) llmFallback(ctx context.Context, question string) Intent {
	both := Intent{Receivable: true, Payable: true, Fallback: true}

	if c.provider == nil {
		both.Reason = "ambiguous, no classifier model configured"
		return both
	}

	tmpl, err := prompt.Get().GetPrompt(prompt.IntentClassifierID)
	if err != nil {
		both.Reason = "ambiguous, classifier prompt missing"
		return both
	}
	userPrompt, err := tmpl.RenderUser(map[string]interface{}{"Question": question})
	if err != nil {
		both.Reason = "ambiguous, classifier prompt render failed"
		return both
	}

	raw, err := c.provider.GenerateResponse(ctx, userPrompt, tmpl.SystemPrompt, llm.JSONMode())
	if err != nil {
		c.log.Warn().Err(err).Msg("intent model call failed")
		both.Reason = "model error fallback: " + err.Error()
		return both
	}

	var obj map[string]interface{}
	if err := utils.DecodeLLMJSON(raw, &obj); err != nil {
		c.log.Warn().Err(err).Msg("intent model output unparseable")
		both.Reason = "unparseable model output, defaulting to both sides"
		return both
	}

	it := Intent{
		Receivable:            coerceBool(obj["receivable"]),
		Payable:               coerceBool(obj["payable"]),
		Report:                coerceBool(obj["report"]),
		Aging:                 coerceBool(obj["aging"]),
		DueRange:              coerceBool(obj["due_range"]),
		TopCustomersByBalance: coerceBool(obj["top_customers_by_balance"]),
		DueOnDate:             coerceBool(obj["due_on_date"]),
		PartialPayments:       coerceBool(obj["partial_payments"]),
		CustomerBalance:       coerceBool(obj["customer_balance"]),
		PayablesOpenSummary:   coerceBool(obj["payables_open_summary"]),
		PayablesAging:         coerceBool(obj["payables_aging"]),
		TopSuppliersByBalance: coerceBool(obj["top_suppliers_by_balance"]),
		SupplierBalance:       coerceBool(obj["supplier_balance"]),
	}
	if reason, ok := obj["reason"].(string); ok {
		it.Reason = strings.TrimSpace(reason)
	}

	if !it.Any() {
		both.Reason = "ambiguous fallback: both sides"
		return both
	}

	it.forceDirections()
	it.applyDirectionGuard()
	return it
}

// coerceBool accepts the loose truthy shapes models emit.
func coerceBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}
