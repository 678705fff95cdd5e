// Package currencyutils provides amount parsing and rounding shared by the
// import parsers and the matching engine.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// currency symbols and whitespace stripped before numeric parsing.
var symbolPattern = regexp.MustCompile(`[$€£¥\s]`)

// ParseAmount parses a string amount into a decimal value. It strips
// currency symbols and thousands separators, handling both US (1,234.56)
// and European (1.234,56) separator conventions.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	if strings.TrimSpace(amountStr) == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	standardized := StandardizeAmount(amountStr)
	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	return amount, nil
}

// StandardizeAmount converts the common currency string notations into a
// plain numeric form decimal.NewFromString accepts: "$1,234.56",
// "€1.234,56", "(42.00)" (accounting negative), "1'234.56".
func StandardizeAmount(amountStr string) string {
	amountStr = strings.TrimSpace(amountStr)

	// Accounting notation uses parentheses for negatives.
	if strings.HasPrefix(amountStr, "(") && strings.HasSuffix(amountStr, ")") {
		amountStr = "-" + strings.Trim(amountStr, "()")
	}

	amountStr = symbolPattern.ReplaceAllString(amountStr, "")

	if strings.Contains(amountStr, ",") && strings.Contains(amountStr, ".") {
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			// European format: dot is the thousands separator.
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	} else if strings.Contains(amountStr, ",") {
		parts := strings.Split(amountStr, ",")
		if len(parts) > 1 && len(parts[len(parts)-1]) <= 2 {
			// Comma as decimal separator.
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}

	// Apostrophes appear as thousands separators in Swiss exports.
	return strings.ReplaceAll(amountStr, "'", "")
}

// RoundCents rounds to 2 decimal places with half-up rounding on the cent
// boundary, avoiding floating-point drift from repeated addition.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FormatAmount formats an amount with two decimal places.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
