package models

// LinkRequest asks the lifecycle manager to attach a set of child
// transactions to a parent.
type LinkRequest struct {
	ParentTransactionID string   `json:"parent_transaction_id"`
	ChildTransactionIDs []string `json:"child_transaction_ids"`
	LinkType            LinkType `json:"link_type"`
	Confidence          float64  `json:"confidence"`
	Scores              *MatchScore `json:"scores,omitempty"`
	Notes               string   `json:"notes,omitempty"`
}

// UpdateLinkRequest mutates confidence, type or notes on an already-linked
// child without changing its parent.
type UpdateLinkRequest struct {
	ChildTransactionID string   `json:"child_transaction_id"`
	LinkType           LinkType `json:"link_type,omitempty"`
	Confidence         *float64 `json:"confidence,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// ValidationResult reports every validation problem at once so callers can
// display them simultaneously. Warnings never block the operation.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// LinkResult is the outcome of a link mutation.
type LinkResult struct {
	Success     bool     `json:"success"`
	LinkedCount int      `json:"linked_count"`
	Errors      []string `json:"errors,omitempty"`
}
