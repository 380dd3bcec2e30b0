package main

import (
	"time"

	"github.com/shopspring/decimal"

	"finsight/pkg/core/store"
	"finsight/pkg/models"
)

// seedDemoStore fills an in-memory ledger with a month of plausible activity
// around now: customers in every aging bucket, a partially paid invoice, a
// supplier book with upcoming due dates, and one record without a due date.
func seedDemoStore(now time.Time) *store.MemoryStore {
	s := store.NewMemoryStore()

	customers := []models.Counterparty{
		{ID: 1, Name: "Distribuidora La Central", TaxID: "3-101-111111"},
		{ID: 2, Name: "Cafetal del Sur", TaxID: "3-101-222222"},
		{ID: 3, Name: "Comercial Rivas", TaxID: "3-101-333333"},
	}
	suppliers := []models.Counterparty{
		{ID: 101, Name: "Papeles y Empaques SA", TaxID: "3-101-444444"},
		{ID: 102, Name: "Transportes Umana", TaxID: "3-101-555555"},
	}
	for _, c := range append(customers, suppliers...) {
		s.AddCounterparty(c)
	}

	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }
	due := func(offset int) *time.Time { d := day(offset); return &d }

	invoices := []models.BillingRecord{
		// Receivables: one per overdue bucket, one current, one partial.
		{ID: 1001, Direction: models.Receivable, CounterpartyID: 1, Reference: "F-1001",
			IssueDate: day(-45), DueDate: due(-15), GrossAmount: dec(250000)},
		{ID: 1002, Direction: models.Receivable, CounterpartyID: 1, Reference: "F-1002",
			IssueDate: day(-80), DueDate: due(-50), GrossAmount: dec(180000)},
		{ID: 1003, Direction: models.Receivable, CounterpartyID: 2, Reference: "F-1003",
			IssueDate: day(-110), DueDate: due(-75), GrossAmount: dec(96000)},
		{ID: 1004, Direction: models.Receivable, CounterpartyID: 2, Reference: "F-1004",
			IssueDate: day(-150), DueDate: due(-120), GrossAmount: dec(312000)},
		{ID: 1005, Direction: models.Receivable, CounterpartyID: 3, Reference: "F-1005",
			IssueDate: day(-10), DueDate: due(12), GrossAmount: dec(140000)},
		{ID: 1006, Direction: models.Receivable, CounterpartyID: 3, Reference: "F-1006",
			IssueDate: day(-20), DueDate: due(5), GrossAmount: dec(200000), PaidAmount: dec(80000)},
		{ID: 1007, Direction: models.Receivable, CounterpartyID: 1, Reference: "F-1007",
			IssueDate: day(-30), GrossAmount: dec(55000)},
		{ID: 1008, Direction: models.Receivable, CounterpartyID: 2, Reference: "F-1008",
			IssueDate: day(-60), DueDate: due(-30), GrossAmount: dec(120000), PaidAmount: dec(120000), Settled: true},

		// Payables: mostly current, a couple overdue.
		{ID: 2001, Direction: models.Payable, CounterpartyID: 101, Reference: "P-2001",
			IssueDate: day(-40), DueDate: due(-10), GrossAmount: dec(90000)},
		{ID: 2002, Direction: models.Payable, CounterpartyID: 101, Reference: "P-2002",
			IssueDate: day(-15), DueDate: due(10), GrossAmount: dec(130000)},
		{ID: 2003, Direction: models.Payable, CounterpartyID: 102, Reference: "P-2003",
			IssueDate: day(-8), DueDate: due(20), GrossAmount: dec(75000)},
		{ID: 2004, Direction: models.Payable, CounterpartyID: 102, Reference: "P-2004",
			IssueDate: day(-70), DueDate: due(-35), GrossAmount: dec(48000), PaidAmount: dec(20000)},
	}
	for _, inv := range invoices {
		s.AddInvoice(inv)
	}
	return s
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
