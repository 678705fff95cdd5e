package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"finbase/txlink/internal/models"
)

// MemoryStore is an in-memory Store used by tests and dry runs. It mirrors
// the SQLite implementation's semantics, including the all-or-nothing
// guarantee on UpdateLinks.
type MemoryStore struct {
	mu  sync.Mutex
	txs map[string]*models.Transaction

	// FailUpdates forces UpdateLinks to fail, for exercising error paths.
	FailUpdates bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]*models.Transaction)}
}

// GetTransaction returns a copy of the stored transaction or ErrNotFound.
func (m *MemoryStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.txs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

// ListTransactions returns copies of matching transactions, newest first.
func (m *MemoryStore) ListTransactions(_ context.Context, filter Filter) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Transaction
	for _, tx := range m.txs {
		if filter.UnlinkedOnly && tx.IsLinked() {
			continue
		}
		if filter.MerchantContains != "" &&
			!strings.Contains(strings.ToLower(tx.Merchant), strings.ToLower(filter.MerchantContains)) {
			continue
		}
		if !filter.From.IsZero() && tx.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && tx.Date.After(filter.To) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// SaveTransactions inserts or replaces the given transactions.
func (m *MemoryStore) SaveTransactions(_ context.Context, txs []*models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tx := range txs {
		cp := *tx
		m.txs[tx.ID] = &cp
	}
	return nil
}

// UpdateLinks applies the link fields to every child or to none.
func (m *MemoryStore) UpdateLinks(_ context.Context, parentID string, childIDs []string, fields LinkFields) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUpdates {
		return 0, fmt.Errorf("simulated storage failure")
	}

	// Validate the whole batch before touching anything.
	for _, childID := range childIDs {
		child, ok := m.txs[childID]
		if !ok {
			return 0, fmt.Errorf("child %s: %w", childID, ErrNotFound)
		}
		if child.IsLinked() {
			return 0, fmt.Errorf("child %s: %w", childID, ErrAlreadyLinked)
		}
	}

	for _, childID := range childIDs {
		child := m.txs[childID]
		child.ParentTransactionID = parentID
		confidence := fields.Confidence
		child.LinkConfidence = &confidence
		child.LinkType = fields.LinkType
		child.LinkMetadata = fields.Metadata
	}
	return len(childIDs), nil
}

// UpdateLinkAttrs mutates link fields on an already-linked child.
func (m *MemoryStore) UpdateLinkAttrs(_ context.Context, childID string, fields LinkFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	child, ok := m.txs[childID]
	if !ok || !child.IsLinked() {
		return fmt.Errorf("child %s has no link to update: %w", childID, ErrNotFound)
	}
	confidence := fields.Confidence
	child.LinkConfidence = &confidence
	child.LinkType = fields.LinkType
	child.LinkMetadata = fields.Metadata
	return nil
}

// ClearLink removes the link fields from a single child.
func (m *MemoryStore) ClearLink(_ context.Context, childID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	child, ok := m.txs[childID]
	if !ok {
		return fmt.Errorf("child %s: %w", childID, ErrNotFound)
	}
	child.ParentTransactionID = ""
	child.LinkConfidence = nil
	child.LinkType = ""
	child.LinkMetadata = nil
	return nil
}

// CountChildren returns how many transactions reference the given parent.
func (m *MemoryStore) CountChildren(_ context.Context, parentID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, tx := range m.txs {
		if tx.ParentTransactionID == parentID {
			count++
		}
	}
	return count, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
