package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Format
	}{
		{
			"amazon order history",
			[]string{"Order ID", "Order Date", "Unit Price", "ASIN", "Order Status", "Quantity"},
			Amazon,
		},
		{
			"chase credit card",
			[]string{"Transaction Date", "Post Date", "Description", "Category", "Type", "Amount"},
			ChaseCreditCard,
		},
		{
			"bank statement",
			[]string{"Date", "Description", "Debit", "Credit", "Balance"},
			BankStatement,
		},
		{
			"minimal credit card",
			[]string{"Date", "Amount", "Merchant"},
			CreditCard,
		},
		{
			"only a date column",
			[]string{"Date", "Reference"},
			Generic,
		},
		{
			"nothing recognizable",
			[]string{"Foo", "Bar"},
			Generic,
		},
		{
			"empty header list",
			nil,
			Generic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.headers))
		})
	}
}

func TestDetectHeaderNormalization(t *testing.T) {
	// Separators and case must not affect detection.
	assert.Equal(t, BankStatement, Detect([]string{"DATE", "debit_amount", "Credit-Amount", "balance"}))
	assert.Equal(t, Amazon, Detect([]string{"order.id", "ASIN", "unit_price"}))
}

func TestDetectPrefersMoreSpecificSignature(t *testing.T) {
	// Two signatures with identical evidence: the lower priority wins.
	signatures := []Signature{
		{Format: CreditCard, Required: []string{"date", "amount"}, Priority: 4},
		{Format: "CUSTOM", Required: []string{"date", "amount"}, Priority: 2},
	}
	assert.Equal(t, Format("CUSTOM"), DetectWith([]string{"Date", "Amount"}, signatures))
}

func TestDetectWithEmptySignatures(t *testing.T) {
	assert.Equal(t, Generic, DetectWith([]string{"Date", "Amount"}, nil))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "transaction date", NormalizeHeader("  Transaction_Date "))
	assert.Equal(t, "unit price tax", NormalizeHeader("Unit.Price.Tax"))
	assert.Equal(t, "post date", NormalizeHeader("POST-DATE"))
	assert.Equal(t, "a b", NormalizeHeader("a    b"))
	assert.Equal(t, "", NormalizeHeader("   "))
}
