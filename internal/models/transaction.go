// Package models defines the core data types shared across the application:
// transactions, link state, parsed import records and match scores.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LinkType describes how a parent/child link came into existence.
type LinkType string

const (
	LinkTypeAuto      LinkType = "auto"
	LinkTypeManual    LinkType = "manual"
	LinkTypeSuggested LinkType = "suggested"
)

// Transaction is the linkable unit of the system. Amounts are stored as
// positive magnitudes; the direction is carried by IsIncome.
//
// Linking is modeled as fields on the child transaction rather than a
// separate join entity: a child points at exactly one parent through
// ParentTransactionID, and a parent may have many children. Links are
// exactly one level deep.
type Transaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	IsIncome    bool            `json:"is_income"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id,omitempty"`
	AccountID   string          `json:"account_id,omitempty"`
	ReceiptID   string          `json:"receipt_id,omitempty"`

	// OrderGroup is the originating order identifier extracted from import
	// metadata (e.g. an Amazon order id). Empty for manual entries.
	OrderGroup string `json:"order_group,omitempty"`

	// Link fields. ParentTransactionID is empty when the transaction is
	// unlinked or is itself a parent.
	ParentTransactionID string        `json:"parent_transaction_id,omitempty"`
	LinkConfidence      *float64      `json:"link_confidence,omitempty"`
	LinkType            LinkType      `json:"link_type,omitempty"`
	LinkMetadata        *LinkMetadata `json:"link_metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLinked returns true if the transaction is a child of another transaction.
func (t *Transaction) IsLinked() bool {
	return strings.TrimSpace(t.ParentTransactionID) != ""
}

// SignedAmount returns the amount with its direction applied: expenses are
// positive, income negative. Useful for balance arithmetic.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.IsIncome {
		return t.Amount.Neg()
	}
	return t.Amount
}

// LinkMetadata is the structured bag persisted alongside a link. It records
// how the link was scored, where the children came from and the audit trail
// of user review.
type LinkMetadata struct {
	Scores             *MatchScore     `json:"scores,omitempty"`
	OrderGroup         string          `json:"order_group,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	AllocatedTax       decimal.Decimal `json:"allocated_tax,omitempty"`
	AllocatedShipping  decimal.Decimal `json:"allocated_shipping,omitempty"`
	PreviousConfidence *float64        `json:"previous_confidence,omitempty"`
	LinkedAt           time.Time       `json:"linked_at,omitempty"`
	ReviewedAt         time.Time       `json:"reviewed_at,omitempty"`
}
