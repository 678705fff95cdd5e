package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParsedTransaction is the normalized output of any CSV parser. It is a
// transient import artifact consumed by the persistence layer to create
// real Transactions.
type ParsedTransaction struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	IsIncome    bool            `json:"is_income"`

	// OrderGroup carries the originating order id for marketplace imports
	// so the matching engine can award order-group credit later.
	OrderGroup string `json:"order_group,omitempty"`
}

// ParseResult is the outcome of a CSV parse. Success is true iff at least
// one row produced a transaction; row-level problems accumulate in Errors
// without aborting the batch.
type ParseResult struct {
	Success      bool                `json:"success"`
	Transactions []ParsedTransaction `json:"transactions"`
	Errors       []string            `json:"errors,omitempty"`
}

// AmazonParseResult extends ParseResult with order-history statistics.
type AmazonParseResult struct {
	ParseResult
	TotalOrders   int             `json:"total_orders"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	SkippedOrders int             `json:"skipped_orders"`
}
