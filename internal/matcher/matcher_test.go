package matcher

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbase/txlink/internal/logging"
	"finbase/txlink/internal/models"
)

func newTestEngine() *Engine {
	return New(DefaultConfig(), logging.NewMockLogger())
}

func tx(id string, date time.Time, amount string, orderGroup string) *models.Transaction {
	return &models.Transaction{
		ID:         id,
		Date:       date,
		Amount:     decimal.RequireFromString(amount),
		OrderGroup: orderGroup,
	}
}

var baseDate = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

func TestScoreExactMatch(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "29.82", "")
	children := []*models.Transaction{
		tx("c1", baseDate, "19.16", "111-222"),
		tx("c2", baseDate, "10.66", "111-222"),
	}

	score := engine.Score(parent, children)
	assert.Equal(t, 40.0, score.DateScore)
	assert.Equal(t, 50.0, score.AmountScore)
	assert.Equal(t, 10.0, score.OrderGroupScore)
	assert.Equal(t, 100.0, score.Total)
	assert.Equal(t, models.ConfidenceExact, score.Level)
}

func TestScoreNoOrderGroup(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "42.00", "")
	children := []*models.Transaction{tx("c1", baseDate, "42.00", "")}

	score := engine.Score(parent, children)
	assert.Equal(t, 0.0, score.OrderGroupScore)
	assert.Equal(t, 90.0, score.Total)
	assert.Equal(t, models.ConfidenceExact, score.Level)
}

func TestScoreMixedOrderGroups(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "20.00", "")
	children := []*models.Transaction{
		tx("c1", baseDate, "10.00", "order-a"),
		tx("c2", baseDate, "10.00", "order-b"),
	}

	score := engine.Score(parent, children)
	assert.Equal(t, 0.0, score.OrderGroupScore)
}

func TestScoreDateDecay(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "10.00", "")

	// Half the window gives half the points.
	halfway := []*models.Transaction{tx("c1", baseDate.AddDate(0, 0, 15), "10.00", "")}
	score := engine.Score(parent, halfway)
	assert.InDelta(t, 20.0, score.DateScore, 0.001)

	// At or beyond the window the component is zero.
	atWindow := []*models.Transaction{tx("c2", baseDate.AddDate(0, 0, 30), "10.00", "")}
	assert.Equal(t, 0.0, engine.Score(parent, atWindow).DateScore)

	beyond := []*models.Transaction{tx("c3", baseDate.AddDate(0, 0, 45), "10.00", "")}
	assert.Equal(t, 0.0, engine.Score(parent, beyond).DateScore)
}

func TestScoreWidestChildGapGoverns(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "20.00", "")
	children := []*models.Transaction{
		tx("c1", baseDate, "10.00", "g"),
		tx("c2", baseDate.AddDate(0, 0, 15), "10.00", "g"),
	}

	score := engine.Score(parent, children)
	assert.InDelta(t, 20.0, score.DateScore, 0.001)
}

func TestScoreAmountWithinTolerance(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "100.00", "")

	// $3.00 off is still inside the default tolerance.
	children := []*models.Transaction{tx("c1", baseDate, "97.00", "")}
	assert.Equal(t, 50.0, engine.Score(parent, children).AmountScore)

	// Just past tolerance, the score starts decaying.
	children = []*models.Transaction{tx("c2", baseDate, "96.99", "")}
	score := engine.Score(parent, children).AmountScore
	assert.Less(t, score, 50.0)
	assert.Greater(t, score, 49.0)
}

func TestScoreAmountDecayToZero(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "100.00", "")

	// A $30 difference (ten times the tolerance) scores zero.
	children := []*models.Transaction{tx("c1", baseDate, "70.00", "")}
	assert.Equal(t, 0.0, engine.Score(parent, children).AmountScore)

	children = []*models.Transaction{tx("c2", baseDate, "10.00", "")}
	assert.Equal(t, 0.0, engine.Score(parent, children).AmountScore)
}

func TestScoreEmptyChildren(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "10.00", "")

	score := engine.Score(parent, nil)
	assert.Equal(t, 0.0, score.Total)
	assert.Equal(t, models.ConfidenceUnmatched, score.Level)

	score = engine.Score(nil, []*models.Transaction{tx("c", baseDate, "10.00", "")})
	assert.Equal(t, 0.0, score.Total)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, models.ConfidenceExact, Level(100))
	assert.Equal(t, models.ConfidenceExact, Level(90))
	assert.Equal(t, models.ConfidencePartial, Level(89.9))
	assert.Equal(t, models.ConfidencePartial, Level(70))
	assert.Equal(t, models.ConfidenceFuzzy, Level(69.9))
	assert.Equal(t, models.ConfidenceFuzzy, Level(50))
	assert.Equal(t, models.ConfidenceUnmatched, Level(49.9))
	assert.Equal(t, models.ConfidenceUnmatched, Level(0))
}

func TestRecommend(t *testing.T) {
	engine := newTestEngine()
	assert.Equal(t, models.RecommendAutoLink, engine.Recommend(95))
	assert.Equal(t, models.RecommendAutoLink, engine.Recommend(80))
	assert.Equal(t, models.RecommendSuggest, engine.Recommend(79.9))
	assert.Equal(t, models.RecommendSuggest, engine.Recommend(70))
	assert.Equal(t, models.RecommendIgnore, engine.Recommend(69.9))
}

func TestSuggestRequiresEligibleParent(t *testing.T) {
	engine := newTestEngine()
	pool := []*models.Transaction{tx("c1", baseDate, "29.82", "111-222")}

	// A grocery charge is not a marketplace parent.
	parent := tx("p", baseDate, "29.82", "")
	parent.Merchant = "Whole Foods Market"
	assert.Nil(t, engine.Suggest(parent, pool))

	// The bare brand name is a line item, not a charge.
	parent.Merchant = "Amazon"
	assert.Nil(t, engine.Suggest(parent, pool))
}

func TestSuggestGroupsByOrder(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "29.82", "")
	parent.Merchant = "AMAZON MKTPL*NM9QH43N0"

	pool := []*models.Transaction{
		tx("c1", baseDate, "19.16", "111-222"),
		tx("c2", baseDate, "10.66", "111-222"),
		tx("c3", baseDate, "500.00", "999-888"),
	}

	candidates := engine.Suggest(parent, pool)
	require.Len(t, candidates, 1)
	assert.Len(t, candidates[0].Children, 2)
	assert.Equal(t, 100.0, candidates[0].Score.Total)
	assert.Equal(t, models.RecommendAutoLink, candidates[0].Recommendation)
}

func TestSuggestExcludesLinkedAndSelf(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "29.82", "")
	parent.Merchant = "AMAZON MKTPL*NM9QH43N0"

	linked := tx("c1", baseDate, "29.82", "111-222")
	linked.ParentTransactionID = "other-parent"

	pool := []*models.Transaction{parent, linked}
	assert.Empty(t, engine.Suggest(parent, pool))
}

func TestSuggestSortsByScore(t *testing.T) {
	engine := newTestEngine()
	parent := tx("p", baseDate, "29.82", "")
	parent.Merchant = "AMAZON MKTPL*NM9QH43N0"

	pool := []*models.Transaction{
		// Exact amount, same day.
		tx("c1", baseDate, "29.82", "111-222"),
		// Exact amount, a week away.
		tx("c2", baseDate.AddDate(0, 0, 7), "29.82", "333-444"),
	}

	candidates := engine.Suggest(parent, pool)
	require.Len(t, candidates, 2)
	assert.Greater(t, candidates[0].Score.Total, candidates[1].Score.Total)
	assert.Equal(t, "c1", candidates[0].Children[0].ID)
}
