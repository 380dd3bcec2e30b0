package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsight/pkg/models"
)

// Config carries the tunables of the credit cycle metric and listings.
type Config struct {
	// WindowDays is the trailing fallback window for DSO/DPO.
	WindowDays int
	// MinAbsDenominator is the absolute flow floor below which the metric is
	// not trusted.
	MinAbsDenominator decimal.Decimal
	// MinRelDenominator scales the floor with the period-end balance.
	MinRelDenominator decimal.Decimal
	// TopLimit is the default size of ranking listings.
	TopLimit int
}

// DefaultConfig matches the production thresholds.
func DefaultConfig() Config {
	return Config{
		WindowDays:        90,
		MinAbsDenominator: decimal.NewFromInt(10000),
		MinRelDenominator: decimal.NewFromFloat(0.10),
		TopLimit:          5,
	}
}

// Aggregator computes one direction's views. Build one per direction.
type Aggregator struct {
	store Store
	dir   models.Direction
	cfg   Config
}

func NewAggregator(store Store, dir models.Direction, cfg Config) *Aggregator {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 90
	}
	if cfg.TopLimit <= 0 {
		cfg.TopLimit = 5
	}
	return &Aggregator{store: store, dir: dir, cfg: cfg}
}

func (a *Aggregator) Direction() models.Direction { return a.dir }

// ComputeAging builds the two-sided aging snapshot at asOf. Only records
// issued on or before asOf participate.
func (a *Aggregator) ComputeAging(ctx context.Context, asOf time.Time) (*AgingSnapshot, error) {
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{IssuedOnOrBefore: &asOf, OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("aging query: %w", err)
	}

	snap := &AgingSnapshot{
		Direction: a.dir,
		AsOf:      asOf,
		Overdue:   zeroBuckets(OverdueBucketOrder),
		Current:   zeroBuckets(CurrentBucketOrder),
	}
	for _, r := range records {
		out := r.Outstanding()
		snap.TotalOutstanding = snap.TotalOutstanding.Add(out)
		snap.OpenCount++
		if r.DueDate == nil {
			snap.NoDueDate = snap.NoDueDate.Add(out)
			continue
		}
		if over := r.DaysOverdue(asOf); over > 0 {
			snap.Overdue[overdueBucket(over)] = snap.Overdue[overdueBucket(over)].Add(out)
			snap.TotalOverdue = snap.TotalOverdue.Add(out)
		} else {
			b := currentBucket(r.DaysUntilDue(asOf))
			snap.Current[b] = snap.Current[b].Add(out)
			snap.TotalCurrent = snap.TotalCurrent.Add(out)
		}
	}
	return snap, nil
}

// OpenInvoice is one open record in a listing, ready for serialization.
type OpenInvoice struct {
	InvoiceID    int64           `json:"invoice_id"`
	Counterparty string          `json:"counterparty"`
	IssueDate    string          `json:"issue_date"`
	DueDate      string          `json:"due_date,omitempty"`
	DaysOverdue  int             `json:"days_overdue"`
	GrossAmount  decimal.Decimal `json:"gross_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

func openInvoiceRow(r models.BillingRecord, asOf time.Time) OpenInvoice {
	row := OpenInvoice{
		InvoiceID:    r.ID,
		Counterparty: counterpartyLabel(r),
		IssueDate:    r.IssueDate.Format("2006-01-02"),
		GrossAmount:  r.GrossAmount,
		PaidAmount:   r.PaidAmount,
		Outstanding:  r.Outstanding(),
	}
	if r.DueDate != nil {
		row.DueDate = r.DueDate.Format("2006-01-02")
		if over := r.DaysOverdue(asOf); over > 0 {
			row.DaysOverdue = over
		}
	}
	return row
}

func counterpartyLabel(r models.BillingRecord) string {
	if name := strings.TrimSpace(r.CounterpartyName); name != "" {
		return name
	}
	return fmt.Sprintf("#%d", r.CounterpartyID)
}

// ListOpen returns every open record at asOf, most overdue first and largest
// outstanding within the same age.
func (a *Aggregator) ListOpen(ctx context.Context, asOf time.Time) ([]OpenInvoice, error) {
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{IssuedOnOrBefore: &asOf, OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open listing query: %w", err)
	}
	rows := make([]OpenInvoice, 0, len(records))
	for _, r := range records {
		rows = append(rows, openInvoiceRow(r, asOf))
	}
	sortOpenRows(rows)
	return rows, nil
}

// TopOverdue returns the n most overdue open records at asOf.
func (a *Aggregator) TopOverdue(ctx context.Context, asOf time.Time, n int) ([]OpenInvoice, error) {
	rows, err := a.ListOpen(ctx, asOf)
	if err != nil {
		return nil, err
	}
	overdue := rows[:0]
	for _, row := range rows {
		if row.DaysOverdue > 0 {
			overdue = append(overdue, row)
		}
	}
	if n <= 0 {
		n = a.cfg.TopLimit
	}
	if len(overdue) > n {
		overdue = overdue[:n]
	}
	return overdue, nil
}

// DueSummary counts open records whose due date falls inside a range.
type DueSummary struct {
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Count       int             `json:"count"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// DueBetween summarizes open records due inside [start, end].
func (a *Aggregator) DueBetween(ctx context.Context, start, end time.Time) (*DueSummary, error) {
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{DueBetween: &Range{Start: start, End: end}, OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("due range query: %w", err)
	}
	sum := &DueSummary{Start: start.Format("2006-01-02"), End: end.Format("2006-01-02")}
	for _, r := range records {
		sum.Count++
		sum.Outstanding = sum.Outstanding.Add(r.Outstanding())
	}
	return sum, nil
}

// DueList is the detail listing for a single due day.
type DueList struct {
	Date        string          `json:"date"`
	Count       int             `json:"count"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Rows        []OpenInvoice   `json:"rows"`
}

// DueOn lists open records due on exactly one calendar day.
func (a *Aggregator) DueOn(ctx context.Context, day time.Time) (*DueList, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{DueBetween: &Range{Start: start, End: end}, OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("due-on query: %w", err)
	}
	list := &DueList{Date: start.Format("2006-01-02")}
	for _, r := range records {
		row := openInvoiceRow(r, day)
		list.Rows = append(list.Rows, row)
		list.Count++
		list.Outstanding = list.Outstanding.Add(row.Outstanding)
	}
	sortOpenRows(list.Rows)
	return list, nil
}

// PartialList holds open records with a partial payment.
type PartialList struct {
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Count       int             `json:"count"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Rows        []OpenInvoice   `json:"rows"`
}

// PartialPayments lists open records issued inside [start, end] with
// 0 < paid < gross.
func (a *Aggregator) PartialPayments(ctx context.Context, start, end time.Time) (*PartialList, error) {
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{IssuedBetween: &Range{Start: start, End: end}, PartialOnly: true})
	if err != nil {
		return nil, fmt.Errorf("partial payments query: %w", err)
	}
	list := &PartialList{Start: start.Format("2006-01-02"), End: end.Format("2006-01-02")}
	for _, r := range records {
		row := openInvoiceRow(r, end)
		list.Rows = append(list.Rows, row)
		list.Count++
		list.Outstanding = list.Outstanding.Add(row.Outstanding)
	}
	sortOpenRows(list.Rows)
	return list, nil
}

// CounterpartyTotal is one row of a balance ranking.
type CounterpartyTotal struct {
	CounterpartyID int64           `json:"counterparty_id"`
	Counterparty   string          `json:"counterparty"`
	Count          int             `json:"count"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

// TopCounterparties ranks counterparties by open balance at asOf.
func (a *Aggregator) TopCounterparties(ctx context.Context, asOf time.Time, limit int) ([]CounterpartyTotal, error) {
	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{IssuedOnOrBefore: &asOf, OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("counterparty ranking query: %w", err)
	}
	byID := map[int64]*CounterpartyTotal{}
	for _, r := range records {
		t, ok := byID[r.CounterpartyID]
		if !ok {
			t = &CounterpartyTotal{CounterpartyID: r.CounterpartyID, Counterparty: counterpartyLabel(r)}
			byID[r.CounterpartyID] = t
		}
		t.Count++
		t.Outstanding = t.Outstanding.Add(r.Outstanding())
	}
	rows := make([]CounterpartyTotal, 0, len(byID))
	for _, t := range byID {
		rows = append(rows, *t)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Outstanding.Equal(rows[j].Outstanding) {
			return rows[i].Outstanding.GreaterThan(rows[j].Outstanding)
		}
		return rows[i].CounterpartyID < rows[j].CounterpartyID
	})
	if limit <= 0 {
		limit = a.cfg.TopLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// CounterpartyBalance is the open balance of one customer or supplier at a
// date. An unknown counterparty yields a zero balance plus a warning, not an
// error.
type CounterpartyBalance struct {
	CounterpartyID int64           `json:"counterparty_id"`
	Counterparty   string          `json:"counterparty"`
	AsOf           string          `json:"as_of"`
	Count          int             `json:"count"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Warning        string          `json:"warning,omitempty"`
}

// BalanceFor resolves nameOrID and sums the counterparty's open records
// issued on or before asOf.
func (a *Aggregator) BalanceFor(ctx context.Context, nameOrID string, asOf time.Time) (*CounterpartyBalance, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if nameOrID == "" {
		return nil, fmt.Errorf("counterparty name or ID required")
	}
	cp, err := a.store.FindCounterparty(ctx, nameOrID)
	if err != nil {
		return nil, fmt.Errorf("counterparty lookup: %w", err)
	}
	bal := &CounterpartyBalance{Counterparty: nameOrID, AsOf: asOf.Format("2006-01-02")}
	if cp == nil {
		bal.Warning = "counterparty not found, name/ID match failed"
		return bal, nil
	}
	bal.CounterpartyID = cp.ID
	bal.Counterparty = cp.Name

	records, err := a.store.Invoices(ctx, a.dir, InvoiceFilter{
		IssuedOnOrBefore: &asOf,
		CounterpartyID:   cp.ID,
		OpenOnly:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("counterparty balance query: %w", err)
	}
	for _, r := range records {
		bal.Count++
		bal.Outstanding = bal.Outstanding.Add(r.Outstanding())
	}
	return bal, nil
}

func zeroBuckets(keys []string) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(keys))
	for _, k := range keys {
		m[k] = decimal.Zero
	}
	return m
}

func sortOpenRows(rows []OpenInvoice) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DaysOverdue != rows[j].DaysOverdue {
			return rows[i].DaysOverdue > rows[j].DaysOverdue
		}
		return rows[i].Outstanding.GreaterThan(rows[j].Outstanding)
	})
}
