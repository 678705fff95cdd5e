// Package parsererror defines the typed errors produced by the import
// pipeline. Batch-level errors abort a parse entirely; row-level errors
// accumulate while the batch continues.
package parsererror

import "fmt"

// InvalidFormatError reports input that does not conform to the expected
// CSV layout. It is always fatal for the batch.
type InvalidFormatError struct {
	Expected string
	Msg      string
	Snippet  string
}

func (e *InvalidFormatError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("invalid format: %s. Expected: %s. Content snippet: '%s'",
			e.Msg, e.Expected, e.Snippet)
	}
	return fmt.Sprintf("invalid format: %s. Expected: %s", e.Msg, e.Expected)
}

// MissingColumnError reports a required column absent from the header row.
// It is fatal: no partial parse is attempted for a structurally invalid
// file.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column '%s' not found in header", e.Column)
}

// RowError reports a single bad row. The row is excluded from the output
// and the batch continues.
type RowError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s '%s': %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ValidationError reports a link-validation failure that blocks the
// operation.
type ValidationError struct {
	TransactionID string
	Reason        string
}

func (e *ValidationError) Error() string {
	if e.TransactionID != "" {
		return fmt.Sprintf("validation failed for transaction %s: %s", e.TransactionID, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}
