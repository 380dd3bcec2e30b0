package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"finsight/pkg/core/ledger"
	"finsight/pkg/models"
)

// PgLedgerStore is the Postgres-backed ledger.Store. It reads an existing
// schema and never writes.
//
// Schema assumption (managed elsewhere):
//
//	CREATE TABLE counterparty (
//	  id BIGINT PRIMARY KEY,
//	  name TEXT NOT NULL,
//	  tax_id TEXT
//	);
//	CREATE TABLE invoice (
//	  id BIGINT PRIMARY KEY,
//	  direction TEXT NOT NULL,            -- 'receivable' | 'payable'
//	  counterparty_id BIGINT REFERENCES counterparty(id),
//	  reference TEXT,
//	  issue_date TIMESTAMPTZ NOT NULL,
//	  due_date TIMESTAMPTZ,
//	  gross_amount NUMERIC NOT NULL,
//	  paid_amount NUMERIC DEFAULT 0,
//	  settled BOOLEAN DEFAULT FALSE
//	);
type PgLedgerStore struct{}

var _ ledger.Store = (*PgLedgerStore)(nil)

func NewPgLedgerStore() *PgLedgerStore {
	return &PgLedgerStore{}
}

func (s *PgLedgerStore) Invoices(ctx context.Context, dir models.Direction, f ledger.InvoiceFilter) ([]models.BillingRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	var where []string
	var args []interface{}
	add := func(cond string, vals ...interface{}) {
		for _, v := range vals {
			args = append(args, v)
			cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(args)), 1)
		}
		where = append(where, cond)
	}

	add("i.direction = ?", string(dir))
	if f.IssuedOnOrBefore != nil {
		add("i.issue_date <= ?", *f.IssuedOnOrBefore)
	}
	if f.IssuedBefore != nil {
		add("i.issue_date < ?", *f.IssuedBefore)
	}
	if f.IssuedBetween != nil {
		add("i.issue_date >= ?", f.IssuedBetween.Start)
		add("i.issue_date <= ?", f.IssuedBetween.End)
	}
	if f.DueBetween != nil {
		add("i.due_date IS NOT NULL")
		add("i.due_date >= ?", f.DueBetween.Start)
		add("i.due_date <= ?", f.DueBetween.End)
	}
	if f.CounterpartyID != 0 {
		add("i.counterparty_id = ?", f.CounterpartyID)
	}
	if f.OpenOnly || f.PartialOnly {
		add("i.settled = FALSE")
		add("i.gross_amount - COALESCE(i.paid_amount, 0) > 0")
	}
	if f.PartialOnly {
		add("COALESCE(i.paid_amount, 0) > 0")
	}

	query := `
		SELECT i.id, i.counterparty_id, COALESCE(c.name, ''), COALESCE(i.reference, ''),
		       i.issue_date, i.due_date,
		       i.gross_amount::text, COALESCE(i.paid_amount, 0)::text, i.settled
		FROM invoice i
		LEFT JOIN counterparty c ON c.id = i.counterparty_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY i.id`

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("invoice query failed: %w", err)
	}
	defer rows.Close()

	var records []models.BillingRecord
	for rows.Next() {
		var (
			r          models.BillingRecord
			due        *time.Time
			gross, pad string
		)
		if err := rows.Scan(&r.ID, &r.CounterpartyID, &r.CounterpartyName, &r.Reference,
			&r.IssueDate, &due, &gross, &pad, &r.Settled); err != nil {
			return nil, fmt.Errorf("invoice scan failed: %w", err)
		}
		r.Direction = dir
		r.DueDate = due
		if r.GrossAmount, err = decimal.NewFromString(gross); err != nil {
			return nil, fmt.Errorf("invoice %d gross amount: %w", r.ID, err)
		}
		if r.PaidAmount, err = decimal.NewFromString(pad); err != nil {
			return nil, fmt.Errorf("invoice %d paid amount: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PgLedgerStore) FindCounterparty(ctx context.Context, nameOrID string) (*models.Counterparty, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	nameOrID = strings.TrimSpace(nameOrID)
	var row pgx.Row
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		row = pool.QueryRow(ctx,
			`SELECT id, name, COALESCE(tax_id, '') FROM counterparty WHERE id = $1`, id)
	} else {
		row = pool.QueryRow(ctx,
			`SELECT id, name, COALESCE(tax_id, '') FROM counterparty
			 WHERE name ILIKE '%' || $1 || '%' ORDER BY id LIMIT 1`, nameOrID)
	}

	var cp models.Counterparty
	if err := row.Scan(&cp.ID, &cp.Name, &cp.TaxID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("counterparty lookup failed: %w", err)
	}
	return &cp, nil
}
