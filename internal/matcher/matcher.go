// Package matcher computes multi-factor confidence scores between a parent
// marketplace charge and candidate child line items.
//
// Three independent components sum to a 0-100 total: date proximity (max
// 40), amount agreement (max 50) and order-group cohesion (max 10). The
// total maps to a confidence level and to an auto-link / suggest / ignore
// recommendation driven by the configured thresholds.
package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"finbase/txlink/internal/dateutils"
	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/models"
)

// Engine scores parent/children candidate pairs.
type Engine struct {
	cfg    MatchingConfig
	logger logging.Logger
}

// New creates an Engine with the given configuration.
func New(cfg MatchingConfig, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Score computes the component breakdown for linking the given children
// under the parent. An empty child set scores zero.
func (e *Engine) Score(parent *models.Transaction, children []*models.Transaction) models.MatchScore {
	score := models.MatchScore{Level: models.ConfidenceUnmatched}
	if parent == nil || len(children) == 0 {
		return score
	}

	score.DateScore = e.dateScore(parent, children)
	score.AmountScore = e.amountScore(parent, children)
	score.OrderGroupScore = e.orderGroupScore(children)
	score.Total = score.DateScore + score.AmountScore + score.OrderGroupScore
	score.Level = Level(score.Total)

	return score
}

// dateScore awards full points when parent and children share a calendar
// date and decays linearly to zero at the window boundary. The widest gap
// among the children governs the score.
//
// Linear decay is a deliberate implementation choice; only the endpoints
// and monotonicity are contractual, so the curve can be swapped here
// without touching callers.
func (e *Engine) dateScore(parent *models.Transaction, children []*models.Transaction) float64 {
	window := float64(e.cfg.DateWindowDays)
	if window <= 0 {
		return 0
	}

	maxGap := 0.0
	for _, child := range children {
		if gap := dateutils.DaysBetween(parent.Date, child.Date); gap > maxGap {
			maxGap = gap
		}
	}

	if maxGap >= window {
		return 0
	}
	return maxDateScore * (1 - maxGap/window)
}

// amountScore awards full points when the children sum to the parent's
// amount within the configured tolerance, then decays linearly, reaching
// zero once the difference exceeds ten times the tolerance.
func (e *Engine) amountScore(parent *models.Transaction, children []*models.Transaction) float64 {
	childSum := decimal.Zero
	for _, child := range children {
		childSum = childSum.Add(child.Amount)
	}

	diff := parent.Amount.Sub(childSum).Abs()
	if diff.LessThanOrEqual(e.cfg.AmountTolerance) {
		return maxAmountScore
	}

	ceiling := e.cfg.AmountTolerance.Mul(decimal.NewFromInt(10))
	if diff.GreaterThanOrEqual(ceiling) || ceiling.LessThanOrEqual(e.cfg.AmountTolerance) {
		return 0
	}

	span, _ := ceiling.Sub(e.cfg.AmountTolerance).Float64()
	excess, _ := diff.Sub(e.cfg.AmountTolerance).Float64()
	return maxAmountScore * (1 - excess/span)
}

// orderGroupScore is binary: full points only when every child carries the
// same non-empty originating order identifier.
func (e *Engine) orderGroupScore(children []*models.Transaction) float64 {
	group := children[0].OrderGroup
	if group == "" {
		return 0
	}
	for _, child := range children[1:] {
		if child.OrderGroup != group {
			return 0
		}
	}
	return maxOrderGroupScore
}

// Level classifies a total score into a confidence bucket.
func Level(total float64) models.ConfidenceLevel {
	switch {
	case total >= exactCutoff:
		return models.ConfidenceExact
	case total >= partialCutoff:
		return models.ConfidencePartial
	case total >= fuzzyCutoff:
		return models.ConfidenceFuzzy
	default:
		return models.ConfidenceUnmatched
	}
}

// Recommend maps a total score to an action using the configured
// thresholds. A score labeled PARTIAL may still auto-link or be ignored
// depending on operator tuning.
func (e *Engine) Recommend(total float64) models.Recommendation {
	switch {
	case total >= e.cfg.AutoLinkThreshold:
		return models.RecommendAutoLink
	case total >= e.cfg.SuggestThreshold:
		return models.RecommendSuggest
	default:
		return models.RecommendIgnore
	}
}

// Suggest assembles scored candidates for the parent from a pool of
// potential children. The parent must pass the merchant eligibility filter;
// pool entries that are already linked, are the parent itself, or share no
// usable grouping are excluded. Candidates are returned in descending score
// order and include everything at or above the suggest threshold.
func (e *Engine) Suggest(parent *models.Transaction, pool []*models.Transaction) []models.MatchCandidate {
	if parent == nil || !e.cfg.MerchantRules.IsLinkableMarketplaceCharge(parent.Merchant) {
		return nil
	}

	grouped := make(map[string][]*models.Transaction)
	var singles []*models.Transaction
	for _, tx := range pool {
		if tx.ID == parent.ID || tx.IsLinked() {
			continue
		}
		if tx.OrderGroup != "" {
			grouped[tx.OrderGroup] = append(grouped[tx.OrderGroup], tx)
		} else {
			singles = append(singles, tx)
		}
	}

	var candidates []models.MatchCandidate
	addCandidate := func(children []*models.Transaction) {
		score := e.Score(parent, children)
		if score.Total < e.cfg.SuggestThreshold {
			return
		}
		candidates = append(candidates, models.MatchCandidate{
			Parent:         parent,
			Children:       children,
			Score:          score,
			Recommendation: e.Recommend(score.Total),
		})
	}

	for _, children := range grouped {
		addCandidate(children)
	}
	for _, tx := range singles {
		addCandidate([]*models.Transaction{tx})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score.Total > candidates[j].Score.Total
	})

	e.logger.WithFields(
		logging.Field{Key: logging.FieldParentID, Value: parent.ID},
		logging.Field{Key: logging.FieldCount, Value: len(candidates)},
	).Debug("Generated link suggestions")

	return candidates
}
