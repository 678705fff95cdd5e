package matcher

import (
	"github.com/shopspring/decimal"

	"finbase/txlink/internal/merchant"
)

// Maximum points each score component contributes to the 0-100 total.
const (
	maxDateScore       = 40.0
	maxAmountScore     = 50.0
	maxOrderGroupScore = 10.0
)

// Confidence-level cutoffs on the total score. These label the match
// quality; the operational auto-link/suggest thresholds are configured
// separately.
const (
	exactCutoff   = 90.0
	partialCutoff = 70.0
	fuzzyCutoff   = 50.0
)

// MatchingConfig holds the tunable parameters of the engine. It is always
// passed explicitly, never read from ambient state, so multiple configs can
// coexist in one process.
type MatchingConfig struct {
	// DateWindowDays is the gap (in days) beyond which the date score
	// reaches zero.
	DateWindowDays int
	// AmountTolerance is the fixed difference absorbed at full score,
	// chosen to cover small delivery and handling fee variance.
	AmountTolerance decimal.Decimal
	// AutoLinkThreshold is the minimum total score for automatic linking.
	AutoLinkThreshold float64
	// SuggestThreshold is the minimum total score for surfacing a
	// suggestion to the user.
	SuggestThreshold float64
	// MerchantRules pre-filters which parent charges are candidates.
	MerchantRules merchant.Rules
}

// DefaultConfig returns the standard tuning: ±30 day window, $3.00 amount
// tolerance, auto-link at 80, suggest at 70.
func DefaultConfig() MatchingConfig {
	return MatchingConfig{
		DateWindowDays:    30,
		AmountTolerance:   decimal.NewFromInt(3),
		AutoLinkThreshold: 80,
		SuggestThreshold:  70,
		MerchantRules:     merchant.DefaultRules(),
	}
}
