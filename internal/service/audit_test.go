package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/rentledger/internal/database"
	"github.com/rentledger/rentledger/internal/database/repository"
	"github.com/rentledger/rentledger/internal/model"
)

func TestAuditFilterAndSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	ovSvc := NewOverrideService(txRepo, ovRepo, nil)
	audit := &AuditService{Overrides: ovRepo}

	seedTransaction(t, txRepo, "tx1")
	seedTransaction(t, txRepo, "tx2")

	_, err := ovSvc.Record(ctx, "tx1", model.FieldCategory, "repairs", "sarah")
	require.NoError(t, err)
	_, err = ovSvc.Record(ctx, "tx1", model.FieldProperty, "p1", "sarah")
	require.NoError(t, err)
	_, err = ovSvc.Record(ctx, "tx2", model.FieldCategory, "utilities", "mike")
	require.NoError(t, err)

	byActor, err := audit.Filter(ctx, repository.AuditFilter{Actor: "sarah"})
	require.NoError(t, err)
	require.Len(t, byActor, 2)
	for _, o := range byActor {
		assert.Equal(t, "sarah", o.Actor)
	}

	byTxn, err := audit.Filter(ctx, repository.AuditFilter{TransactionID: "tx2"})
	require.NoError(t, err)
	require.Len(t, byTxn, 1)
	assert.Equal(t, "utilities", byTxn[0].NewValue)

	// entries are all from now; a window starting tomorrow excludes them
	tomorrow := database.Now().AddDate(0, 0, 1)
	none, err := audit.Filter(ctx, repository.AuditFilter{From: tomorrow})
	require.NoError(t, err)
	assert.Empty(t, none)

	// a day-granular end bound must be passed as the following midnight for
	// same-day entries to land inside the half-open window
	now := database.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	sameDay, err := audit.Filter(ctx, repository.AuditFilter{To: startOfToday.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, sameDay, 3)

	sum, err := audit.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	require.Len(t, sum.ByActor, 2)
	assert.Equal(t, "sarah", sum.ByActor[0].Actor)
	assert.Equal(t, 2, sum.ByActor[0].Count)
	require.Len(t, sum.ByDay, 1)
	assert.Equal(t, 3, sum.ByDay[0].Count)
}

func TestAuditHistoryChronological(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	ovSvc := NewOverrideService(txRepo, ovRepo, nil)
	audit := &AuditService{Overrides: ovRepo}

	seedTransaction(t, txRepo, "tx1")
	for _, v := range []string{"repairs", "utilities", "repairs"} {
		_, err := ovSvc.Record(ctx, "tx1", model.FieldCategory, v, "sarah")
		require.NoError(t, err)
	}

	history, err := audit.History(ctx, "tx1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].Seq, history[i-1].Seq)
		assert.False(t, history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}
