package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rentledger/rentledger/internal/model"
)

// OverrideRepo exposes the override log. The public contract is append and
// read only: nothing here issues UPDATE or DELETE, even though the storage
// would permit it.
type OverrideRepo struct {
	db *sql.DB
}

func NewOverrideRepo(db *sql.DB) *OverrideRepo { return &OverrideRepo{db: db} }

// FieldKey identifies one overridable field of one transaction.
type FieldKey struct {
	TransactionID string
	Field         model.OverrideField
}

// Append writes one immutable log entry and returns its insertion sequence.
// Timestamps are assigned by the caller from a single monotonic source, so
// seq order and timestamp order agree; seq breaks sub-second ties.
func (r *OverrideRepo) Append(ctx context.Context, o model.Override) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO overrides(id, transaction_id, field, old_value, new_value, actor, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.TransactionID, string(o.Field), o.OldValue, o.NewValue, o.Actor,
		o.Timestamp.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("append override for %s: %w", o.TransactionID, err)
	}
	return res.LastInsertId()
}

// Latest returns the most recent override for one field, or nil when the
// field is still automatic.
func (r *OverrideRepo) Latest(ctx context.Context, transactionID string, field model.OverrideField) (*model.Override, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT seq, id, transaction_id, field, old_value, new_value, actor, created_at
	FROM overrides WHERE transaction_id = ? AND field = ?
	ORDER BY seq DESC LIMIT 1`, transactionID, string(field))
	o, err := scanOverride(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// LatestPerField loads the effective override for every (transaction, field)
// pair in one query. Reconciliation merges against this snapshot so each
// effective-value lookup is a map hit, not a history scan.
func (r *OverrideRepo) LatestPerField(ctx context.Context) (map[FieldKey]model.Override, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT o.seq, o.id, o.transaction_id, o.field, o.old_value, o.new_value, o.actor, o.created_at
	FROM overrides o
	JOIN (
		SELECT transaction_id, field, MAX(seq) AS max_seq
		FROM overrides GROUP BY transaction_id, field
	) latest
	ON o.transaction_id = latest.transaction_id
	AND o.field = latest.field
	AND o.seq = latest.max_seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[FieldKey]model.Override{}
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out[FieldKey{TransactionID: o.TransactionID, Field: o.Field}] = o
	}
	return out, rows.Err()
}

// History returns the full chronological override list for one transaction.
func (r *OverrideRepo) History(ctx context.Context, transactionID string) ([]model.Override, error) {
	return r.query(ctx, `
	SELECT seq, id, transaction_id, field, old_value, new_value, actor, created_at
	FROM overrides WHERE transaction_id = ? ORDER BY seq`, transactionID)
}

// AuditFilter narrows audit-log reads. Zero values mean "no constraint".
// The time window is half-open: From inclusive, To exclusive. Callers with
// day-granular bounds pass midnight after the last wanted day as To.
type AuditFilter struct {
	TransactionID string
	Actor         string
	From          time.Time
	To            time.Time
}

// Filter returns log entries matching the filter, oldest first.
func (r *OverrideRepo) Filter(ctx context.Context, f AuditFilter) ([]model.Override, error) {
	var where []string
	var args []any
	if f.TransactionID != "" {
		where = append(where, "transaction_id = ?")
		args = append(args, f.TransactionID)
	}
	if f.Actor != "" {
		where = append(where, "actor = ?")
		args = append(args, f.Actor)
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}

	query := `SELECT seq, id, transaction_id, field, old_value, new_value, actor, created_at FROM overrides`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	return r.query(ctx, query, args...)
}

// ActorActivity is an aggregate count of overrides per actor.
type ActorActivity struct {
	Actor string
	Count int
}

// DayActivity is an aggregate count of overrides per UTC day.
type DayActivity struct {
	Day   string // YYYY-MM-DD
	Count int
}

// CountByActor summarizes correction activity per actor.
func (r *OverrideRepo) CountByActor(ctx context.Context) ([]ActorActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT actor, COUNT(*) FROM overrides GROUP BY actor ORDER BY COUNT(*) DESC, actor`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActorActivity
	for rows.Next() {
		var a ActorActivity
		if err := rows.Scan(&a.Actor, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByDay summarizes correction activity per day.
func (r *OverrideRepo) CountByDay(ctx context.Context) ([]DayActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT substr(created_at, 1, 10) AS day, COUNT(*)
	FROM overrides GROUP BY day ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayActivity
	for rows.Next() {
		var d DayActivity
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *OverrideRepo) query(ctx context.Context, q string, args ...any) ([]model.Override, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Override
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOverride(row rowScanner) (model.Override, error) {
	var o model.Override
	var field, createdAt string
	if err := row.Scan(&o.Seq, &o.ID, &o.TransactionID, &field, &o.OldValue,
		&o.NewValue, &o.Actor, &createdAt); err != nil {
		return model.Override{}, err
	}
	o.Field = model.OverrideField(field)
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return model.Override{}, fmt.Errorf("parse stored timestamp %q: %w", createdAt, err)
	}
	o.Timestamp = ts
	return o, nil
}
