// Package store provides transaction persistence behind a narrow
// interface, so the linking core stays decoupled from the concrete
// database. A SQLite implementation backs the CLI; an in-memory
// implementation backs tests.
package store

import (
	"context"
	"errors"
	"time"

	"finbase/txlink/internal/models"
)

// ErrNotFound is returned when a transaction id does not exist.
var ErrNotFound = errors.New("transaction not found")

// ErrAlreadyLinked is returned when a link mutation finds a child whose
// parent reference was set concurrently.
var ErrAlreadyLinked = errors.New("transaction is already linked")

// LinkFields is the set of link columns written atomically onto children.
type LinkFields struct {
	LinkType   models.LinkType
	Confidence float64
	Metadata   *models.LinkMetadata
}

// Filter narrows ListTransactions scans. Zero values mean "no constraint".
type Filter struct {
	// UnlinkedOnly keeps transactions whose parent reference is null.
	UnlinkedOnly bool
	// MerchantContains is a case-insensitive substring match.
	MerchantContains string
	// From and To bound the transaction date (inclusive).
	From time.Time
	To   time.Time
	// Limit caps the result count; 0 means no cap.
	Limit int
}

// Store is the persistence collaborator consumed by the linking core.
// Implementations must make UpdateLinks all-or-nothing: either every child
// receives the link fields or none does. Errors propagate verbatim; the
// core adds no retry logic.
type Store interface {
	// GetTransaction returns the transaction with the given id or
	// ErrNotFound.
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)

	// ListTransactions returns transactions matching the filter, newest
	// first.
	ListTransactions(ctx context.Context, filter Filter) ([]*models.Transaction, error)

	// SaveTransactions inserts or replaces the given transactions.
	SaveTransactions(ctx context.Context, txs []*models.Transaction) error

	// UpdateLinks atomically sets the parent reference and link fields on
	// every listed child. A child that is concurrently linked elsewhere
	// fails the whole batch with ErrAlreadyLinked.
	UpdateLinks(ctx context.Context, parentID string, childIDs []string, fields LinkFields) (int, error)

	// UpdateLinkAttrs mutates link type, confidence and metadata on an
	// already-linked child without changing its parent.
	UpdateLinkAttrs(ctx context.Context, childID string, fields LinkFields) error

	// ClearLink removes the link fields from a single child. Siblings are
	// unaffected.
	ClearLink(ctx context.Context, childID string) error

	// CountChildren returns how many transactions reference the given id
	// as their parent.
	CountChildren(ctx context.Context, parentID string) (int, error)

	Close() error
}
