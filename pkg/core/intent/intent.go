// Package intent classifies a finance question into routing flags. A fast
// keyword stage answers most questions; an LLM stage handles the rest.
package intent

// Intent is the routing flag set. Direction flags (Receivable, Payable) say
// which ledger sides are involved; action flags narrow the operation.
type Intent struct {
	Receivable bool `json:"receivable"`
	Payable    bool `json:"payable"`
	Report     bool `json:"report"`
	Aging      bool `json:"aging"`

	// Receivable-side actions.
	DueRange              bool `json:"due_range"`
	TopCustomersByBalance bool `json:"top_customers_by_balance"`
	DueOnDate             bool `json:"due_on_date"`
	PartialPayments       bool `json:"partial_payments"`
	CustomerBalance       bool `json:"customer_balance"`

	// Payable-side actions.
	PayablesOpenSummary   bool `json:"payables_open_summary"`
	PayablesAging         bool `json:"payables_aging"`
	TopSuppliersByBalance bool `json:"top_suppliers_by_balance"`
	SupplierBalance       bool `json:"supplier_balance"`

	Reason string `json:"reason"`

	// Fallback marks an intent produced by the pure-ambiguity default (both
	// directions on with no real signal). The router treats it as weaker than
	// detected flags.
	Fallback bool `json:"-"`
}

// ReceivableSpecific reports whether any receivable-side action flag is set.
func (it Intent) ReceivableSpecific() bool {
	return it.DueRange || it.TopCustomersByBalance || it.DueOnDate ||
		it.PartialPayments || it.CustomerBalance
}

// PayableSpecific reports whether any payable-side action flag is set.
func (it Intent) PayableSpecific() bool {
	return it.PayablesOpenSummary || it.PayablesAging ||
		it.TopSuppliersByBalance || it.SupplierBalance
}

// Any reports whether anything at all was detected.
func (it Intent) Any() bool {
	return it.Receivable || it.Payable || it.Report || it.Aging ||
		it.ReceivableSpecific() || it.PayableSpecific()
}

// forceDirections turns on the direction flag implied by each specific action
// flag.
func (it *Intent) forceDirections() {
	if it.DueOnDate && !it.Receivable && !it.Payable {
		it.Receivable = true
	}
	if it.DueRange && !(it.Receivable || it.Payable) {
		it.Receivable = true
	}
	if it.ReceivableSpecific() {
		it.Receivable = true
	}
	if it.PayableSpecific() {
		it.Payable = true
	}
}

// applyDirectionGuard enforces mutual exclusion: when exactly one side has
// specific flags, the opposite side's flags are cleared. Applying it twice
// changes nothing.
func (it *Intent) applyDirectionGuard() {
	rx := it.ReceivableSpecific()
	px := it.PayableSpecific()

	if px && !rx {
		it.Receivable = false
		it.DueRange = false
		it.TopCustomersByBalance = false
		it.DueOnDate = false
		it.PartialPayments = false
		it.CustomerBalance = false
	}
	if rx && !px {
		it.Payable = false
		it.PayablesOpenSummary = false
		it.PayablesAging = false
		it.TopSuppliersByBalance = false
		it.SupplierBalance = false
	}
}
