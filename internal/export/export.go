// Package export writes normalized transactions to CSV in a single
// standardized layout, so downstream budgeting tools see the same columns
// regardless of which parser produced the data.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/models"
)

// Record is the normalized CSV row written on export.
type Record struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Amount      string `csv:"amount"`
	IsIncome    bool   `csv:"is_income"`
	Merchant    string `csv:"merchant"`
	Description string `csv:"description"`
	OrderGroup  string `csv:"order_group"`
	ParentID    string `csv:"parent_transaction_id"`
	LinkType    string `csv:"link_type"`
	Confidence  string `csv:"link_confidence"`
}

// Writer exports transactions to CSV files.
type Writer struct {
	logger logging.Logger
}

// NewWriter creates a Writer. A nil logger gets a default adapter.
func NewWriter(logger logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Writer{logger: logger}
}

// WriteFile writes the transactions to the given path, creating parent
// directories as needed. Dates are emitted as ISO calendar dates and amounts
// with two decimal places.
func (w *Writer) WriteFile(txs []*models.Transaction, path string) error {
	if txs == nil {
		return fmt.Errorf("cannot export nil transactions")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			w.logger.WithError(err).Warn("Failed to close export file")
		}
	}()

	records := make([]Record, 0, len(txs))
	for _, tx := range txs {
		records = append(records, toRecord(tx))
	}

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	w.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(records)},
	).Info("Exported transactions to CSV")
	return nil
}

// ReadFile reads a previously exported file back into records, mainly for
// round-trip verification and re-import.
func (w *Writer) ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			w.logger.WithError(err).Warn("Failed to close export file")
		}
	}()

	var records []Record
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, fmt.Errorf("parsing export file: %w", err)
	}
	return records, nil
}

func toRecord(tx *models.Transaction) Record {
	record := Record{
		ID:          tx.ID,
		Date:        tx.Date.Format("2006-01-02"),
		Amount:      tx.Amount.StringFixed(2),
		IsIncome:    tx.IsIncome,
		Merchant:    tx.Merchant,
		Description: tx.Description,
		OrderGroup:  tx.OrderGroup,
		ParentID:    tx.ParentTransactionID,
		LinkType:    string(tx.LinkType),
	}
	if tx.LinkConfidence != nil {
		record.Confidence = fmt.Sprintf("%.1f", *tx.LinkConfidence)
	}
	return record
}
