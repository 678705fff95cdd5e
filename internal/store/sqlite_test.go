package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbase/txlink/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "txlink-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})
	return st
}

func testTx(id string, day int, amount string) *models.Transaction {
	now := time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
	return &models.Transaction{
		ID:        id,
		Date:      now,
		Amount:    decimal.RequireFromString(amount),
		Merchant:  "Test Merchant",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndGetTransaction(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	confidence := 92.5
	original := testTx("tx-1", 15, "29.82")
	original.OwnerID = "owner-1"
	original.IsIncome = true
	original.Description = "Amazon Order: 111-222"
	original.OrderGroup = "111-222"
	original.LinkConfidence = &confidence
	original.LinkType = models.LinkTypeAuto
	original.LinkMetadata = &models.LinkMetadata{
		Notes:    "round trip",
		LinkedAt: time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{original}))

	loaded, err := st.GetTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "tx-1", loaded.ID)
	assert.Equal(t, "owner-1", loaded.OwnerID)
	assert.True(t, loaded.IsIncome)
	assert.True(t, loaded.Amount.Equal(original.Amount))
	assert.Equal(t, original.Date, loaded.Date)
	assert.Equal(t, "111-222", loaded.OrderGroup)
	require.NotNil(t, loaded.LinkConfidence)
	assert.Equal(t, 92.5, *loaded.LinkConfidence)
	assert.Equal(t, models.LinkTypeAuto, loaded.LinkType)
	require.NotNil(t, loaded.LinkMetadata)
	assert.Equal(t, "round trip", loaded.LinkMetadata.Notes)
}

func TestGetTransactionNotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetTransaction(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveTransactionsReplacesExisting(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := testTx("tx-1", 15, "10.00")
	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{first}))

	updated := testTx("tx-1", 15, "12.34")
	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{updated}))

	loaded, err := st.GetTransaction(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "12.34", loaded.Amount.StringFixed(2))
}

func TestListTransactionsFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	linked := testTx("linked", 10, "5.00")
	linked.ParentTransactionID = "parent"

	amazon := testTx("amazon", 12, "29.82")
	amazon.Merchant = "AMAZON MKTPL*NM9QH43N0"

	parent := testTx("parent", 14, "100.00")
	old := testTx("old", 1, "1.00")

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{parent, linked, amazon, old}))

	t.Run("newest first", func(t *testing.T) {
		txs, err := st.ListTransactions(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, txs, 4)
		assert.Equal(t, "parent", txs[0].ID)
		assert.Equal(t, "old", txs[3].ID)
	})

	t.Run("unlinked only", func(t *testing.T) {
		txs, err := st.ListTransactions(ctx, Filter{UnlinkedOnly: true})
		require.NoError(t, err)
		assert.Len(t, txs, 3)
		for _, tx := range txs {
			assert.False(t, tx.IsLinked())
		}
	})

	t.Run("merchant substring", func(t *testing.T) {
		txs, err := st.ListTransactions(ctx, Filter{MerchantContains: "amazon"})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "amazon", txs[0].ID)
	})

	t.Run("date range", func(t *testing.T) {
		txs, err := st.ListTransactions(ctx, Filter{
			From: time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, time.March, 13, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "amazon", txs[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		txs, err := st.ListTransactions(ctx, Filter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, txs, 2)
	})
}

func TestUpdateLinks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{
		testTx("p", 15, "29.82"),
		testTx("c1", 15, "19.16"),
		testTx("c2", 15, "10.66"),
	}))

	linked, err := st.UpdateLinks(ctx, "p", []string{"c1", "c2"}, LinkFields{
		LinkType:   models.LinkTypeAuto,
		Confidence: 95,
		Metadata:   &models.LinkMetadata{Notes: "auto pass"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, linked)

	c1, err := st.GetTransaction(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "p", c1.ParentTransactionID)
	assert.Equal(t, models.LinkTypeAuto, c1.LinkType)
	assert.Equal(t, 95.0, *c1.LinkConfidence)
	require.NotNil(t, c1.LinkMetadata)
	assert.Equal(t, "auto pass", c1.LinkMetadata.Notes)
}

func TestUpdateLinksAllOrNothing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	claimed := testTx("c2", 15, "10.66")
	claimed.ParentTransactionID = "someone-else"
	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{
		testTx("someone-else", 15, "10.66"),
		testTx("p", 15, "29.82"),
		testTx("c1", 15, "19.16"),
		claimed,
	}))

	_, err := st.UpdateLinks(ctx, "p", []string{"c1", "c2"}, LinkFields{Confidence: 90})
	assert.ErrorIs(t, err, ErrAlreadyLinked)

	// The first child was rolled back.
	c1, err := st.GetTransaction(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c1.IsLinked())
}

func TestUpdateLinksMissingChild(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{testTx("p", 15, "10.00")}))

	_, err := st.UpdateLinks(ctx, "p", []string{"ghost"}, LinkFields{Confidence: 90})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLinkAttrs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{
		testTx("p", 15, "10.00"),
		testTx("c1", 15, "10.00"),
	}))
	_, err := st.UpdateLinks(ctx, "p", []string{"c1"}, LinkFields{
		LinkType:   models.LinkTypeSuggested,
		Confidence: 72,
	})
	require.NoError(t, err)

	err = st.UpdateLinkAttrs(ctx, "c1", LinkFields{
		LinkType:   models.LinkTypeManual,
		Confidence: 100,
		Metadata:   &models.LinkMetadata{Notes: "confirmed"},
	})
	require.NoError(t, err)

	c1, err := st.GetTransaction(ctx, "c1")
	require.NoError(t, err)
	// Parent unchanged, attributes updated.
	assert.Equal(t, "p", c1.ParentTransactionID)
	assert.Equal(t, models.LinkTypeManual, c1.LinkType)
	assert.Equal(t, 100.0, *c1.LinkConfidence)
}

func TestUpdateLinkAttrsOnUnlinked(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{testTx("c1", 15, "10.00")}))

	err := st.UpdateLinkAttrs(ctx, "c1", LinkFields{Confidence: 50})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearLink(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{
		testTx("p", 15, "20.00"),
		testTx("c1", 15, "10.00"),
		testTx("c2", 15, "10.00"),
	}))
	_, err := st.UpdateLinks(ctx, "p", []string{"c1", "c2"}, LinkFields{Confidence: 90})
	require.NoError(t, err)

	require.NoError(t, st.ClearLink(ctx, "c1"))

	c1, err := st.GetTransaction(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, c1.IsLinked())
	assert.Nil(t, c1.LinkConfidence)

	// Sibling unaffected.
	c2, err := st.GetTransaction(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, c2.IsLinked())
}

func TestCountChildren(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveTransactions(ctx, []*models.Transaction{
		testTx("p", 15, "20.00"),
		testTx("c1", 15, "10.00"),
		testTx("c2", 15, "10.00"),
		testTx("other", 15, "5.00"),
	}))
	_, err := st.UpdateLinks(ctx, "p", []string{"c1", "c2"}, LinkFields{Confidence: 90})
	require.NoError(t, err)

	count, err := st.CountChildren(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = st.CountChildren(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
