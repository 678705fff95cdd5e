package genericparser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/parsererror"
)

func newTestParser() *Parser {
	return New(logging.NewMockLogger())
}

func TestParseBasicCSV(t *testing.T) {
	csvText := `Date,Amount,Merchant,Description
2024-03-15,42.50,Coffee Shop,Morning espresso
2024-03-16,125.00,Grocery Store,Weekly shop
`
	result, err := newTestParser().Parse(csvText)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Transactions, 2)

	first := result.Transactions[0]
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "42.5", first.Amount.String())
	assert.Equal(t, "Coffee Shop", first.Merchant)
	assert.Equal(t, "Morning espresso", first.Description)
	assert.False(t, first.IsIncome)
}

func TestParseHeaderAliases(t *testing.T) {
	csvText := `Transaction Date,Transaction Amount,Payee,Memo
03/15/2024,$1,Target,Socks
`
	result, err := newTestParser().Parse(csvText)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Target", result.Transactions[0].Merchant)
	assert.Equal(t, "Socks", result.Transactions[0].Description)
}

func TestParseNegativeAmountIsIncome(t *testing.T) {
	csvText := `Date,Amount,Merchant
2024-03-15,-25.00,Refund Dept
`
	result, err := newTestParser().Parse(csvText)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)

	tx := result.Transactions[0]
	assert.True(t, tx.IsIncome)
	// Stored amount is always a positive magnitude.
	assert.Equal(t, "25", tx.Amount.String())
}

func TestParseMissingMerchantDefaultsToUnknown(t *testing.T) {
	csvText := `Date,Amount
2024-03-15,10.00
`
	result, err := newTestParser().Parse(csvText)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "Unknown", result.Transactions[0].Merchant)
}

func TestParseQuotedFields(t *testing.T) {
	csvText := `Date,Amount,Merchant,Description
2024-03-15,"1,234.56","Smith, John & Co","He said ""thanks"""
`
	result, err := newTestParser().Parse(csvText)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)

	tx := result.Transactions[0]
	assert.Equal(t, "1234.56", tx.Amount.String())
	assert.Equal(t, "Smith, John & Co", tx.Merchant)
	assert.Equal(t, `He said "thanks"`, tx.Description)
}

func TestParseBadRowsCollectedNotFatal(t *testing.T) {
	csvText := `Date,Amount,Merchant
2024-03-15,42.50,Good Row
not-a-date,10.00,Bad Date
2024-03-16,not-a-number,Bad Amount
2024-03-17,7.77,Another Good Row
`
	result, err := newTestParser().Parse(csvText)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.Transactions, 2)
	require.Len(t, result.Errors, 2)

	// Row numbers are 1-based and count the header.
	assert.Contains(t, result.Errors[0], "row 3")
	assert.Contains(t, result.Errors[1], "row 4")
}

func TestParseAllRowsBadIsUnsuccessful(t *testing.T) {
	csvText := `Date,Amount
garbage,garbage
`
	result, err := newTestParser().Parse(csvText)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.Transactions)
	assert.Len(t, result.Errors, 1)
}

func TestParseEmptyFile(t *testing.T) {
	_, err := newTestParser().Parse("")
	require.Error(t, err)

	var formatErr *parsererror.InvalidFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestParseHeaderOnly(t *testing.T) {
	_, err := newTestParser().Parse("Date,Amount,Merchant\n")
	require.Error(t, err)

	var formatErr *parsererror.InvalidFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestParseMissingRequiredColumns(t *testing.T) {
	_, err := newTestParser().Parse("Merchant,Amount\nShop,10.00\n")
	require.Error(t, err)

	var missingErr *parsererror.MissingColumnError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "date", missingErr.Column)

	_, err = newTestParser().Parse("Date,Merchant\n2024-03-15,Shop\n")
	require.Error(t, err)
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "amount", missingErr.Column)
}
