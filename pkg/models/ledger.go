package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells which side of the ledger a record belongs to.
type Direction string

const (
	Receivable Direction = "receivable"
	Payable    Direction = "payable"
)

// Counterparty is a customer (receivable side) or supplier (payable side).
type Counterparty struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id,omitempty"`
}

// BillingRecord is one invoice on either side of the ledger. DueDate is
// optional; records without one never count as overdue. Amounts stay decimal
// until the serialization boundary.
type BillingRecord struct {
	ID               int64           `json:"id"`
	Direction        Direction       `json:"direction"`
	CounterpartyID   int64           `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name"`
	Reference        string          `json:"reference,omitempty"`
	IssueDate        time.Time       `json:"issue_date"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	Settled          bool            `json:"settled"`
}

// Outstanding is gross minus paid, floored at zero so overpayments do not
// produce negative open balances.
func (r BillingRecord) Outstanding() decimal.Decimal {
	out := r.GrossAmount.Sub(r.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Open reports whether the record still carries an outstanding balance.
func (r BillingRecord) Open() bool {
	return !r.Settled && r.Outstanding().IsPositive()
}

// PartiallyPaid reports 0 < paid < gross.
func (r BillingRecord) PartiallyPaid() bool {
	return r.PaidAmount.IsPositive() && r.PaidAmount.LessThan(r.GrossAmount)
}

// DaysOverdue is days past due at ref, 0 when not yet due, -1 when the record
// has no due date.
func (r BillingRecord) DaysOverdue(ref time.Time) int {
	if r.DueDate == nil {
		return -1
	}
	d := daysBetween(*r.DueDate, ref)
	if d < 0 {
		return 0
	}
	return d
}

// DaysUntilDue is days remaining until the due date at ref, 0 when already
// due or past due, -1 when the record has no due date.
func (r BillingRecord) DaysUntilDue(ref time.Time) int {
	if r.DueDate == nil {
		return -1
	}
	d := daysBetween(ref, *r.DueDate)
	if d < 0 {
		return 0
	}
	return d
}

func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ta := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	tb := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(tb.Sub(ta).Hours() / 24)
}
