// Package merchant classifies merchant strings for link eligibility.
//
// A charge qualifies as a linkable marketplace charge only when it looks
// like an aggregate order charge (brand token plus a transaction-code
// pattern such as "MKTPL*NM9QH43N0"). Subscription and platform-service
// charges are excluded by a denylist, and a bare brand name denotes an
// already-resolved line item rather than a charge.
package merchant

import (
	"regexp"
	"strings"
)

// Rules holds the keyword lists driving eligibility classification. The
// lists are data, not control flow: they are loaded from configuration so
// behavior is tunable without a redeploy.
type Rules struct {
	// Brand is the bare marketplace name, e.g. "amazon".
	Brand string `yaml:"brand" mapstructure:"brand"`
	// Aliases are common abbreviations of the brand, e.g. "amzn".
	Aliases []string `yaml:"aliases" mapstructure:"aliases"`
	// PatternTokens mark a marketplace transaction line, e.g. "mktpl".
	PatternTokens []string `yaml:"pattern_tokens" mapstructure:"pattern_tokens"`
	// Denylist substrings denote subscriptions or platform services that
	// are never linkable, regardless of other matches.
	Denylist []string `yaml:"denylist" mapstructure:"denylist"`
}

// DefaultRules returns the built-in Amazon rule set.
func DefaultRules() Rules {
	return Rules{
		Brand:         "amazon",
		Aliases:       []string{"amzn"},
		PatternTokens: []string{"mktpl", "mktp", ".com"},
		Denylist: []string{
			"prime",
			"grocery subscri",
			"music",
			"digital",
			"aws",
			"web services",
			"kindle",
			"audible",
		},
	}
}

// transaction code: an asterisk immediately followed by an alphanumeric.
// Additional asterisk-separated segments after the code are permitted.
var codePattern = regexp.MustCompile(`\*[a-z0-9]`)

// IsLinkableMarketplaceCharge reports whether the merchant string denotes a
// parent marketplace charge that is a candidate for linking.
func (r Rules) IsLinkableMarketplaceCharge(merchantName string) bool {
	trimmed := strings.TrimSpace(merchantName)
	if trimmed == "" {
		return false
	}

	normalized := strings.ToLower(trimmed)

	// The bare brand name is an already-resolved line item, not a charge.
	if normalized == strings.ToLower(r.Brand) {
		return false
	}

	// Denylist takes precedence over everything else.
	for _, keyword := range r.Denylist {
		if strings.Contains(normalized, strings.ToLower(keyword)) {
			return false
		}
	}

	if !r.containsBrand(normalized) {
		return false
	}

	return r.containsPatternToken(normalized) && codePattern.MatchString(normalized)
}

func (r Rules) containsBrand(normalized string) bool {
	if strings.Contains(normalized, strings.ToLower(r.Brand)) {
		return true
	}
	for _, alias := range r.Aliases {
		if strings.Contains(normalized, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

func (r Rules) containsPatternToken(normalized string) bool {
	for _, token := range r.PatternTokens {
		if strings.Contains(normalized, strings.ToLower(token)) {
			return true
		}
	}
	return false
}
