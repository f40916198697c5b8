package service

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentledger/rentledger/internal/database"
	"github.com/rentledger/rentledger/internal/database/repository"
	"github.com/rentledger/rentledger/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	migrations, err := filepath.Abs("../database/migrations")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(dbPath, migrations))

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedTransaction(t *testing.T, repo *repository.TransactionRepo, id string) model.Transaction {
	t.Helper()
	tx := model.Transaction{
		ID:          id,
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AmountCents: 120000,
		Direction:   model.DirectionIncome,
		Description: "ZELLE DEPOSIT",
		Memo:        "RENT 123 MAIN ST",
	}
	require.NoError(t, repo.Upsert(context.Background(), tx))
	return tx
}

// staticAuto returns fixed automatic values, standing in for the rule engine
// and property matcher.
func staticAuto(values map[model.OverrideField]string) AutoFunc {
	return func(_ context.Context, _ model.Transaction, field model.OverrideField) (string, error) {
		return values[field], nil
	}
}

func TestRecordCapturesAutomaticOldValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	svc := NewOverrideService(txRepo, ovRepo, staticAuto(map[model.OverrideField]string{
		model.FieldCategory: "other",
	}))
	seedTransaction(t, txRepo, "tx1")

	entry, err := svc.Record(ctx, "tx1", model.FieldCategory, "rent_income", "sarah")
	require.NoError(t, err)
	assert.Equal(t, "other", entry.OldValue)
	assert.Equal(t, "rent_income", entry.NewValue)
	assert.Equal(t, "sarah", entry.Actor)
	assert.NotZero(t, entry.Seq)
	assert.False(t, entry.Timestamp.IsZero())

	// the second correction's old value is the first's new value
	entry2, err := svc.Record(ctx, "tx1", model.FieldCategory, "management_fees", "sarah")
	require.NoError(t, err)
	assert.Equal(t, "rent_income", entry2.OldValue)
	assert.Greater(t, entry2.Seq, entry.Seq)
}

func TestEffectivePrecedence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	svc := NewOverrideService(txRepo, ovRepo, staticAuto(map[model.OverrideField]string{
		model.FieldCategory: "utilities",
	}))
	tx := seedTransaction(t, txRepo, "tx1")

	val, overridden, err := svc.Effective(ctx, tx, model.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, "utilities", val)
	assert.False(t, overridden)

	_, err = svc.Record(ctx, "tx1", model.FieldCategory, "repairs", "sarah")
	require.NoError(t, err)

	val, overridden, err = svc.Effective(ctx, tx, model.FieldCategory)
	require.NoError(t, err)
	assert.Equal(t, "repairs", val)
	assert.True(t, overridden)
}

func TestRecordRedundantConfirmationStillLogs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	svc := NewOverrideService(txRepo, ovRepo, staticAuto(map[model.OverrideField]string{
		model.FieldCategory: "repairs",
	}))
	seedTransaction(t, txRepo, "tx1")

	entry, err := svc.Record(ctx, "tx1", model.FieldCategory, "repairs", "sarah")
	require.NoError(t, err)
	assert.Equal(t, "repairs", entry.OldValue)
	assert.Equal(t, "repairs", entry.NewValue)

	history, err := svc.History(ctx, "tx1")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestRecordRevertIsANewEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	svc := NewOverrideService(txRepo, ovRepo, staticAuto(map[model.OverrideField]string{
		model.FieldCategory: "other",
	}))
	seedTransaction(t, txRepo, "tx1")

	_, err := svc.Record(ctx, "tx1", model.FieldCategory, "repairs", "sarah")
	require.NoError(t, err)
	_, err = svc.Record(ctx, "tx1", model.FieldCategory, "other", "sarah")
	require.NoError(t, err)

	// a revert never deletes history
	history, err := svc.History(ctx, "tx1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "repairs", history[1].OldValue)
	assert.Equal(t, "other", history[1].NewValue)
}

func TestRecordValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	svc := NewOverrideService(txRepo, ovRepo, nil)
	seedTransaction(t, txRepo, "tx1")

	_, err := svc.Record(ctx, "tx1", "priority", "x", "sarah")
	assert.ErrorContains(t, err, "unknown override field")

	_, err = svc.Record(ctx, "tx1", model.FieldCategory, "x", "")
	assert.ErrorContains(t, err, "actor is required")

	_, err = svc.Record(ctx, "missing", model.FieldCategory, "x", "sarah")
	assert.ErrorContains(t, err, "not found")
}

func TestBulkApplyPartialSuccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	svc := NewOverrideService(txRepo, ovRepo, nil)

	var entries []BulkEntry
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("tx%02d", i)
		field := model.FieldCategory
		switch i {
		case 17:
			id = "no-such-transaction"
		case 31:
			field = "priority"
		}
		if id != "no-such-transaction" {
			seedTransaction(t, txRepo, id)
		}
		entries = append(entries, BulkEntry{TransactionID: id, Field: field, NewValue: "repairs"})
	}

	res := svc.BulkApply(ctx, entries, "sarah")
	assert.Equal(t, 48, res.SuccessCount)
	assert.Equal(t, 2, res.ErrorCount)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "no-such-transaction", res.Errors[0].TransactionID)
	assert.Equal(t, "tx31", res.Errors[1].TransactionID)
}

func TestConcurrentRecordsAreOrdered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	txRepo := repository.NewTransactionRepo(db)
	ovRepo := repository.NewOverrideRepo(db)
	svc := NewOverrideService(txRepo, ovRepo, nil)
	seedTransaction(t, txRepo, "tx1")

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(n int) {
			_, err := svc.Record(ctx, "tx1", model.FieldCategory, fmt.Sprintf("v%d", n), "sarah")
			done <- err
		}(i)
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	history, err := svc.History(ctx, "tx1")
	require.NoError(t, err)
	require.Len(t, history, 8)
	// each entry chains off the previous one's value
	for i := 1; i < len(history); i++ {
		assert.Equal(t, history[i-1].NewValue, history[i].OldValue)
		assert.Greater(t, history[i].Seq, history[i-1].Seq)
	}
}
