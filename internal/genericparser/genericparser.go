// Package genericparser maps generic, bank-statement and credit-card CSV
// layouts into normalized transaction records.
//
// Parsing has partial-failure semantics: structurally invalid files (empty,
// header-only, missing required columns) abort with a batch-level error,
// while individual bad rows are excluded and recorded as row-numbered
// errors without stopping the rest of the batch.
package genericparser

import (
	"strings"

	"finbase/txlink/internal/csvutil"
	"finbase/txlink/internal/currencyutils"
	"finbase/txlink/internal/dateutils"
	"finbase/txlink/internal/format"
	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/models"
	"finbase/txlink/internal/parsererror"
)

// Column alias lists, matched against normalized headers. Positions are
// resolved once per file; date and amount are mandatory.
var (
	dateAliases        = []string{"date", "transaction date", "trans date", "posted date", "post date"}
	amountAliases      = []string{"amount", "transaction amount", "debit"}
	merchantAliases    = []string{"merchant", "payee", "name", "description"}
	descriptionAliases = []string{"description", "memo", "notes", "details"}
)

// Parser parses generic transaction CSVs.
type Parser struct {
	logger logging.Logger
}

// New creates a Parser with the given logger.
func New(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Parser{logger: logger}
}

// Parse converts raw CSV text into normalized transactions. The result is
// successful iff at least one row parsed; per-row problems are collected in
// Errors either way.
func (p *Parser) Parse(csvText string) (*models.ParseResult, error) {
	rows := csvutil.SplitRows(csvText)
	if len(rows) == 0 {
		return nil, &parsererror.InvalidFormatError{
			Expected: "transaction CSV",
			Msg:      "file is empty",
		}
	}
	if len(rows) < 2 {
		return nil, &parsererror.InvalidFormatError{
			Expected: "transaction CSV",
			Msg:      "file contains only a header row",
		}
	}

	headers := csvutil.ParseLine(rows[0])
	cols, err := resolveColumns(headers)
	if err != nil {
		return nil, err
	}

	result := &models.ParseResult{}
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, counting the header
		fields := csvutil.ParseLine(row)

		tx, rowErr := p.parseRow(fields, cols, rowNum)
		if rowErr != nil {
			result.Errors = append(result.Errors, rowErr.Error())
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
	}

	result.Success = len(result.Transactions) > 0
	p.logger.WithFields(
		logging.Field{Key: logging.FieldParser, Value: "generic"},
		logging.Field{Key: logging.FieldCount, Value: len(result.Transactions)},
		logging.Field{Key: "error_count", Value: len(result.Errors)},
	).Info("Parsed transaction CSV")

	return result, nil
}

// columnIndexes holds the resolved positions; -1 means absent.
type columnIndexes struct {
	date        int
	amount      int
	merchant    int
	description int
}

func resolveColumns(headers []string) (columnIndexes, error) {
	cols := columnIndexes{
		date:        findColumn(headers, dateAliases),
		amount:      findColumn(headers, amountAliases),
		merchant:    findColumn(headers, merchantAliases),
		description: findColumn(headers, descriptionAliases),
	}

	if cols.date < 0 {
		return cols, &parsererror.MissingColumnError{Column: "date"}
	}
	if cols.amount < 0 {
		return cols, &parsererror.MissingColumnError{Column: "amount"}
	}

	return cols, nil
}

// findColumn returns the index of the first header equal to any alias
// after normalization, or -1.
func findColumn(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, header := range headers {
			if format.NormalizeHeader(header) == alias {
				return i
			}
		}
	}
	return -1
}

func (p *Parser) parseRow(fields []string, cols columnIndexes, rowNum int) (*models.ParsedTransaction, error) {
	dateStr := fieldAt(fields, cols.date)
	date, _, err := dateutils.ParseDate(dateStr)
	if err != nil {
		return nil, &parsererror.RowError{Row: rowNum, Field: "date", Value: dateStr, Err: err}
	}

	amountStr := fieldAt(fields, cols.amount)
	amount, err := currencyutils.ParseAmount(amountStr)
	if err != nil {
		return nil, &parsererror.RowError{Row: rowNum, Field: "amount", Value: amountStr, Err: err}
	}

	merchantName := strings.TrimSpace(fieldAt(fields, cols.merchant))
	if merchantName == "" {
		merchantName = "Unknown"
	}

	// Negative amounts denote money coming in (refunds, deposits); the
	// stored amount is always a positive magnitude.
	isIncome := amount.IsNegative()

	return &models.ParsedTransaction{
		Date:        dateutils.ToDateOnly(date),
		Amount:      amount.Abs(),
		Merchant:    merchantName,
		Description: strings.TrimSpace(fieldAt(fields, cols.description)),
		IsIncome:    isIncome,
	}, nil
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
