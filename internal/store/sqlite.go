package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"finbase/txlink/internal/models"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL,
	amount TEXT NOT NULL,
	is_income INTEGER NOT NULL DEFAULT 0,
	merchant TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	category_id TEXT,
	account_id TEXT,
	receipt_id TEXT,
	order_group TEXT,
	parent_transaction_id TEXT REFERENCES transactions(id),
	link_confidence REAL,
	link_type TEXT,
	link_metadata TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_parent ON transactions(parent_transaction_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
`

// NewSQLiteStore opens (and if needed initializes) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const transactionColumns = `id, owner_id, date, amount, is_income, merchant, description,
	category_id, account_id, receipt_id, order_group,
	parent_transaction_id, link_confidence, link_type, link_metadata,
	created_at, updated_at`

// GetTransaction returns the transaction with the given id or ErrNotFound.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return tx, err
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, filter Filter) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var clauses []string
	var args []interface{}

	if filter.UnlinkedOnly {
		clauses = append(clauses, "parent_transaction_id IS NULL")
	}
	if filter.MerchantContains != "" {
		clauses = append(clauses, "LOWER(merchant) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.MerchantContains)+"%")
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, filter.To.Format(time.RFC3339))
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SaveTransactions inserts or replaces the given transactions.
func (s *SQLiteStore) SaveTransactions(ctx context.Context, txs []*models.Transaction) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, tx := range txs {
		metadataJSON, err := marshalMetadata(tx.LinkMetadata)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			tx.ID,
			tx.OwnerID,
			tx.Date.Format(time.RFC3339),
			tx.Amount.String(),
			tx.IsIncome,
			tx.Merchant,
			tx.Description,
			nullable(tx.CategoryID),
			nullable(tx.AccountID),
			nullable(tx.ReceiptID),
			nullable(tx.OrderGroup),
			nullable(tx.ParentTransactionID),
			tx.LinkConfidence,
			nullable(string(tx.LinkType)),
			metadataJSON,
			tx.CreatedAt.Format(time.RFC3339),
			tx.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("error saving transaction %s: %w", tx.ID, err)
		}
	}

	return dbTx.Commit()
}

// UpdateLinks sets the link fields on every listed child inside a single
// database transaction. The WHERE clause re-checks that each child is still
// unlinked, so a concurrent link from another request rolls the whole batch
// back instead of half-applying.
func (s *SQLiteStore) UpdateLinks(ctx context.Context, parentID string, childIDs []string, fields LinkFields) (int, error) {
	metadataJSON, err := marshalMetadata(fields.Metadata)
	if err != nil {
		return 0, err
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, childID := range childIDs {
		res, err := dbTx.ExecContext(ctx, `
			UPDATE transactions
			SET parent_transaction_id = ?, link_confidence = ?, link_type = ?,
			    link_metadata = ?, updated_at = ?
			WHERE id = ? AND parent_transaction_id IS NULL`,
			parentID, fields.Confidence, string(fields.LinkType), metadataJSON, now, childID)
		if err != nil {
			return 0, fmt.Errorf("error linking child %s: %w", childID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			if exists, err := rowExists(ctx, dbTx, childID); err != nil {
				return 0, err
			} else if !exists {
				return 0, fmt.Errorf("child %s: %w", childID, ErrNotFound)
			}
			return 0, fmt.Errorf("child %s: %w", childID, ErrAlreadyLinked)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing links: %w", err)
	}
	return len(childIDs), nil
}

// UpdateLinkAttrs mutates the link fields on an already-linked child.
func (s *SQLiteStore) UpdateLinkAttrs(ctx context.Context, childID string, fields LinkFields) error {
	metadataJSON, err := marshalMetadata(fields.Metadata)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET link_confidence = ?, link_type = ?, link_metadata = ?, updated_at = ?
		WHERE id = ? AND parent_transaction_id IS NOT NULL`,
		fields.Confidence, string(fields.LinkType), metadataJSON,
		time.Now().UTC().Format(time.RFC3339), childID)
	if err != nil {
		return fmt.Errorf("error updating link on %s: %w", childID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("child %s has no link to update: %w", childID, ErrNotFound)
	}
	return nil
}

// ClearLink removes the link fields from a single child.
func (s *SQLiteStore) ClearLink(ctx context.Context, childID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET parent_transaction_id = NULL, link_confidence = NULL,
		    link_type = NULL, link_metadata = NULL, updated_at = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), childID)
	if err != nil {
		return fmt.Errorf("error clearing link on %s: %w", childID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("child %s: %w", childID, ErrNotFound)
	}
	return nil
}

// CountChildren returns how many transactions reference the given parent.
func (s *SQLiteStore) CountChildren(ctx context.Context, parentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE parent_transaction_id = ?`, parentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting children of %s: %w", parentID, err)
	}
	return count, nil
}

func rowExists(ctx context.Context, dbTx *sql.Tx, id string) (bool, error) {
	var n int
	err := dbTx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var tx models.Transaction
	var dateStr, amountStr, createdStr, updatedStr string
	var categoryID, accountID, receiptID, orderGroup sql.NullString
	var parentID, linkType, metadataJSON sql.NullString
	var confidence sql.NullFloat64

	err := row.Scan(
		&tx.ID, &tx.OwnerID, &dateStr, &amountStr, &tx.IsIncome,
		&tx.Merchant, &tx.Description,
		&categoryID, &accountID, &receiptID, &orderGroup,
		&parentID, &confidence, &linkType, &metadataJSON,
		&createdStr, &updatedStr,
	)
	if err != nil {
		return nil, err
	}

	tx.Date, err = time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt date on %s: %w", tx.ID, err)
	}
	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount on %s: %w", tx.ID, err)
	}
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	tx.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)

	tx.CategoryID = categoryID.String
	tx.AccountID = accountID.String
	tx.ReceiptID = receiptID.String
	tx.OrderGroup = orderGroup.String
	tx.ParentTransactionID = parentID.String
	if confidence.Valid {
		tx.LinkConfidence = &confidence.Float64
	}
	tx.LinkType = models.LinkType(linkType.String)
	if metadataJSON.Valid && metadataJSON.String != "" {
		var metadata models.LinkMetadata
		if err := json.Unmarshal([]byte(metadataJSON.String), &metadata); err == nil {
			tx.LinkMetadata = &metadata
		}
	}

	return &tx, nil
}

func marshalMetadata(metadata *models.LinkMetadata) (interface{}, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("error encoding link metadata: %w", err)
	}
	return string(data), nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
