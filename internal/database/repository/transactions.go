// Package repository provides sqlite-backed access to transactions,
// properties, and the append-only override log.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rentledger/rentledger/internal/database"
	"github.com/rentledger/rentledger/internal/model"
)

// TransactionRepo handles normalized transactions.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const upsertTransactionSQL = `
	INSERT INTO transactions(
	 id, date, amount_cents, direction, description, memo, payee, source_ref, source_row,
	 created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at;
	`

// Upsert stores a transaction keyed by its stable id. Reprocessing the same
// source file hits the same ids and never creates duplicates.
func (r *TransactionRepo) Upsert(ctx context.Context, t model.Transaction) error {
	now := database.Now().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx, upsertTransactionSQL,
		t.ID, t.Date.Format(time.DateOnly), t.AmountCents, string(t.Direction),
		t.Description, t.Memo, t.Payee, t.SourceRef, t.SourceRow, now, now)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
	}
	return nil
}

// UpsertAll stores a batch in one transaction so a failed run never leaves a
// partially persisted batch behind.
func (r *TransactionRepo) UpsertAll(ctx context.Context, txs []model.Transaction) error {
	return database.WithTx(r.db, func(dbTx *sql.Tx) error {
		now := database.Now().Format(time.RFC3339)
		for _, t := range txs {
			if _, err := dbTx.ExecContext(ctx, upsertTransactionSQL,
				t.ID, t.Date.Format(time.DateOnly), t.AmountCents, string(t.Direction),
				t.Description, t.Memo, t.Payee, t.SourceRef, t.SourceRow, now, now); err != nil {
				return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// Get returns one transaction or nil when absent.
func (r *TransactionRepo) Get(ctx context.Context, id string) (*model.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, date, amount_cents, direction, description, memo, payee, source_ref, source_row
	FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns all transactions ordered by date then source row.
func (r *TransactionRepo) List(ctx context.Context) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, date, amount_cents, direction, description, memo, payee, source_ref, source_row
	FROM transactions ORDER BY date, source_row`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var t model.Transaction
	var date, direction string
	if err := row.Scan(&t.ID, &date, &t.AmountCents, &direction, &t.Description,
		&t.Memo, &t.Payee, &t.SourceRef, &t.SourceRow); err != nil {
		return model.Transaction{}, err
	}
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = d
	t.Direction = model.Direction(direction)
	return t, nil
}
