// Package common provides shared processing helpers for the commands:
// reading input files, materializing parsed rows into stored transactions
// and writing results.
package common

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"finbase/txlink/internal/export"
	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/models"
	"finbase/txlink/internal/store"
)

// ReadInputFile reads the whole input file as text.
func ReadInputFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("input file is required (use --input)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading input file %s: %w", path, err)
	}
	return string(data), nil
}

// ToTransactions materializes parsed rows into storable transactions,
// assigning fresh ids and timestamps.
func ToTransactions(parsed []models.ParsedTransaction) []*models.Transaction {
	now := time.Now().UTC()
	txs := make([]*models.Transaction, 0, len(parsed))
	for _, row := range parsed {
		txs = append(txs, &models.Transaction{
			ID:          uuid.New().String(),
			Date:        row.Date,
			Amount:      row.Amount,
			IsIncome:    row.IsIncome,
			Merchant:    row.Merchant,
			Description: row.Description,
			OrderGroup:  row.OrderGroup,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return txs
}

// OpenStore opens the SQLite store at the given path.
func OpenStore(path string) (store.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	return store.NewSQLiteStore(path)
}

// PersistAndExport saves the transactions to the store (when one is given)
// and writes them to the output CSV (when a path is given). Either side is
// optional; doing neither is an error since the parse would be discarded.
func PersistAndExport(ctx context.Context, st store.Store, txs []*models.Transaction, outputPath string, log *logrus.Logger) error {
	if st == nil && outputPath == "" {
		return fmt.Errorf("nothing to do: provide --store and/or --output")
	}

	if st != nil {
		if err := st.SaveTransactions(ctx, txs); err != nil {
			return fmt.Errorf("saving transactions: %w", err)
		}
		log.WithField("count", len(txs)).Info("Saved transactions to store")
	}

	if outputPath != "" {
		writer := export.NewWriter(logging.NewLogrusAdapterFromLogger(log))
		if err := writer.WriteFile(txs, outputPath); err != nil {
			return fmt.Errorf("exporting transactions: %w", err)
		}
	}

	return nil
}
