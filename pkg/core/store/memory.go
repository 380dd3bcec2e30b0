package store

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"finsight/pkg/core/ledger"
	"finsight/pkg/models"
)

// MemoryStore is a seedable in-memory ledger.Store. Tests and the demo mode
// use it; it applies InvoiceFilter.Matches as the reference semantics.
type MemoryStore struct {
	mu             sync.RWMutex
	invoices       []models.BillingRecord
	counterparties []models.Counterparty
}

var _ ledger.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddCounterparty registers a counterparty for name lookups.
func (s *MemoryStore) AddCounterparty(cp models.Counterparty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counterparties = append(s.counterparties, cp)
}

// AddInvoice seeds one record. The counterparty display name is filled from
// the registered counterparties when empty.
func (s *MemoryStore) AddInvoice(r models.BillingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.CounterpartyName == "" {
		for _, cp := range s.counterparties {
			if cp.ID == r.CounterpartyID {
				r.CounterpartyName = cp.Name
				break
			}
		}
	}
	s.invoices = append(s.invoices, r)
}

func (s *MemoryStore) Invoices(ctx context.Context, dir models.Direction, f ledger.InvoiceFilter) ([]models.BillingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.BillingRecord
	for _, r := range s.invoices {
		if r.Direction == dir && f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindCounterparty(ctx context.Context, nameOrID string) (*models.Counterparty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nameOrID = strings.TrimSpace(nameOrID)
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		for _, cp := range s.counterparties {
			if cp.ID == id {
				c := cp
				return &c, nil
			}
		}
		return nil, nil
	}

	needle := strings.ToLower(nameOrID)
	for _, cp := range s.counterparties {
		if strings.Contains(strings.ToLower(cp.Name), needle) {
			c := cp
			return &c, nil
		}
	}
	return nil, nil
}
