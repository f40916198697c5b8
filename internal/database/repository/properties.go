package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rentledger/rentledger/internal/database"
	"github.com/rentledger/rentledger/internal/model"
)

// PropertyRepo handles the known property/entity set.
type PropertyRepo struct {
	db *sql.DB
}

func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

// Add inserts a property.
func (r *PropertyRepo) Add(ctx context.Context, p model.Property) error {
	active := 0
	if p.Active {
		active = 1
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO properties(id, display_name, kind, active, created_at)
	VALUES(?, ?, ?, ?, ?)`,
		p.ID, p.DisplayName, string(p.Kind), active, database.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert property %q: %w", p.DisplayName, err)
	}
	return nil
}

// Get returns one property (active or not) or nil when absent. Historical
// attributions to deactivated properties must keep resolving.
func (r *PropertyRepo) Get(ctx context.Context, id string) (*model.Property, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, display_name, kind, active FROM properties WHERE id = ?`, id)
	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every property, inactive ones included.
func (r *PropertyRepo) List(ctx context.Context) ([]model.Property, error) {
	return r.list(ctx, `SELECT id, display_name, kind, active FROM properties ORDER BY display_name`)
}

// ListActive returns the candidate set for property matching.
func (r *PropertyRepo) ListActive(ctx context.Context) ([]model.Property, error) {
	return r.list(ctx, `SELECT id, display_name, kind, active FROM properties WHERE active = 1 ORDER BY display_name`)
}

// Deactivate soft-deletes: the row stays so old assignments still resolve.
func (r *PropertyRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE properties SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate property %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("property %s not found", id)
	}
	return nil
}

func (r *PropertyRepo) list(ctx context.Context, query string) ([]model.Property, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProperty(row rowScanner) (model.Property, error) {
	var p model.Property
	var kind string
	var active int
	if err := row.Scan(&p.ID, &p.DisplayName, &kind, &active); err != nil {
		return model.Property{}, err
	}
	p.Kind = model.PropertyKind(kind)
	p.Active = active == 1
	return p, nil
}
