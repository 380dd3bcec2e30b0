// Package ledger computes aggregate views over billing records: aging
// snapshots, open-balance listings and credit cycle metrics. It never writes;
// the Store collaborator is read-only.
package ledger

import (
	"context"
	"time"

	"finsight/pkg/models"
)

// Range is an inclusive [Start, End] time filter.
type Range struct {
	Start time.Time
	End   time.Time
}

// InvoiceFilter narrows an invoice query. Zero-value fields are ignored, so
// the empty filter returns everything for a direction.
type InvoiceFilter struct {
	IssuedOnOrBefore *time.Time
	IssuedBefore     *time.Time
	IssuedBetween    *Range
	DueBetween       *Range
	CounterpartyID   int64
	OpenOnly         bool
	PartialOnly      bool
}

// Matches applies the filter in memory. Backends that can push predicates
// into a query may use it only as a reference semantics.
func (f InvoiceFilter) Matches(r models.BillingRecord) bool {
	if f.IssuedOnOrBefore != nil && r.IssueDate.After(*f.IssuedOnOrBefore) {
		return false
	}
	if f.IssuedBefore != nil && !r.IssueDate.Before(*f.IssuedBefore) {
		return false
	}
	if f.IssuedBetween != nil && (r.IssueDate.Before(f.IssuedBetween.Start) || r.IssueDate.After(f.IssuedBetween.End)) {
		return false
	}
	if f.DueBetween != nil {
		if r.DueDate == nil {
			return false
		}
		if r.DueDate.Before(f.DueBetween.Start) || r.DueDate.After(f.DueBetween.End) {
			return false
		}
	}
	if f.CounterpartyID != 0 && r.CounterpartyID != f.CounterpartyID {
		return false
	}
	if f.OpenOnly && !r.Open() {
		return false
	}
	if f.PartialOnly && !(r.Open() && r.PartiallyPaid()) {
		return false
	}
	return true
}

// Store is the read-only ledger collaborator. FindCounterparty accepts a
// numeric ID or a case-insensitive name fragment; a miss returns (nil, nil).
type Store interface {
	Invoices(ctx context.Context, dir models.Direction, f InvoiceFilter) ([]models.BillingRecord, error)
	FindCounterparty(ctx context.Context, nameOrID string) (*models.Counterparty, error)
}
