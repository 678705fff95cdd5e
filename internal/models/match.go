package models

// ConfidenceLevel classifies a total match score into a coarse bucket.
type ConfidenceLevel string

const (
	ConfidenceExact     ConfidenceLevel = "EXACT"
	ConfidencePartial   ConfidenceLevel = "PARTIAL"
	ConfidenceFuzzy     ConfidenceLevel = "FUZZY"
	ConfidenceUnmatched ConfidenceLevel = "UNMATCHED"
)

// Recommendation is the suggested action for a scored candidate. It is
// derived from the operator-tuned thresholds, not from the confidence
// level labels.
type Recommendation string

const (
	RecommendAutoLink Recommendation = "auto_link"
	RecommendSuggest  Recommendation = "suggest"
	RecommendIgnore   Recommendation = "ignore"
)

// MatchScore is the component breakdown of a parent/children comparison.
// The three components sum to a 0-100 total.
type MatchScore struct {
	DateScore       float64         `json:"date_score"`
	AmountScore     float64         `json:"amount_score"`
	OrderGroupScore float64         `json:"order_group_score"`
	Total           float64         `json:"total"`
	Level           ConfidenceLevel `json:"level"`
}

// MatchCandidate pairs a parent transaction with a set of candidate
// children and their score. Candidates are request-scoped and never
// persisted.
type MatchCandidate struct {
	Parent         *Transaction
	Children       []*Transaction
	Score          MatchScore
	Recommendation Recommendation
}
