// Package format detects which known CSV layout a header row belongs to.
//
// Each layout is described by a Signature of required and optional header
// patterns. Detection is total: every header list maps to exactly one
// Format, with Generic as the universal fallback.
package format

import "strings"

// Format identifies a known CSV layout.
type Format string

const (
	Amazon          Format = "AMAZON"
	ChaseCreditCard Format = "CHASE_CREDIT_CARD"
	BankStatement   Format = "BANK_STATEMENT"
	CreditCard      Format = "CREDIT_CARD"
	Generic         Format = "GENERIC"
)

// Signature describes the column fingerprint of one format. Patterns are
// substring-matched against normalized headers; a pattern may contain
// OR-alternatives separated by "|", satisfied by any alternative. Priority
// disambiguates near-identical signatures: lower means more specific and
// wins ties.
type Signature struct {
	Format   Format   `yaml:"format" mapstructure:"format"`
	Required []string `yaml:"required" mapstructure:"required"`
	Optional []string `yaml:"optional" mapstructure:"optional"`
	Priority int      `yaml:"priority" mapstructure:"priority"`
}

// DefaultSignatures returns the built-in signature set, ordered by
// specificity.
func DefaultSignatures() []Signature {
	return []Signature{
		{
			Format:   Amazon,
			Required: []string{"order", "asin|item"},
			Optional: []string{"price", "quantity", "status"},
			Priority: 1,
		},
		{
			Format:   ChaseCreditCard,
			Required: []string{"transaction date|post date", "amount", "type"},
			Optional: []string{"memo", "category"},
			Priority: 2,
		},
		{
			Format:   BankStatement,
			Required: []string{"date", "debit|credit"},
			Optional: []string{"balance", "description"},
			Priority: 3,
		},
		{
			Format:   CreditCard,
			Required: []string{"date", "amount"},
			Optional: []string{"merchant|payee", "category"},
			Priority: 4,
		},
		{
			Format:   Generic,
			Required: []string{"date"},
			Optional: []string{"amount", "description", "merchant"},
			Priority: 10,
		},
	}
}

// Detect selects the best matching format for the given header row using
// the built-in signatures.
func Detect(headers []string) Format {
	return DetectWith(headers, DefaultSignatures())
}

// DetectWith selects the best matching format among the provided
// signatures. A signature scores zero unless every required pattern matches
// at least one header. Otherwise its score rewards evidence
// (200 per required pattern, 50 per matched optional pattern) and penalizes
// low specificity (100 per priority step). Generic is the fallback when
// nothing scores.
func DetectWith(headers []string, signatures []Signature) Format {
	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		normalized = append(normalized, NormalizeHeader(h))
	}

	best := Generic
	bestScore := 0
	bestPriority := 0
	for _, sig := range signatures {
		score := sig.score(normalized)
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && sig.Priority < bestPriority) {
			best = sig.Format
			bestScore = score
			bestPriority = sig.Priority
		}
	}

	return best
}

// NormalizeHeader lowercases a header and collapses the separators `_`,
// `-` and `.` plus runs of whitespace into single spaces.
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func (s Signature) score(normalizedHeaders []string) int {
	for _, pattern := range s.Required {
		if !matchesAny(pattern, normalizedHeaders) {
			return 0
		}
	}

	matchedOptional := 0
	for _, pattern := range s.Optional {
		if matchesAny(pattern, normalizedHeaders) {
			matchedOptional++
		}
	}

	return 1000 + 200*len(s.Required) + 50*matchedOptional - 100*s.Priority
}

// matchesAny reports whether any OR-alternative of the pattern is a
// substring of any header.
func matchesAny(pattern string, headers []string) bool {
	for _, alternative := range strings.Split(pattern, "|") {
		alternative = strings.TrimSpace(alternative)
		if alternative == "" {
			continue
		}
		for _, header := range headers {
			if strings.Contains(header, alternative) {
				return true
			}
		}
	}
	return false
}
