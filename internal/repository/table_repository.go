package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/reservation"
)

// ErrTableNotFound is returned when a table lookup fails.
var ErrTableNotFound = errors.New("table not found")

// TableRepo reads the restaurant_tables catalog.  Tables are managed with
// migrations; the service never writes them.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db *sql.DB) *TableRepo {
	return &TableRepo{db: db}
}

// ListByMinCapacity returns every table seating at least n guests ordered
// by ascending id.
func (r *TableRepo) ListByMinCapacity(ctx context.Context, n int) ([]model.Table, error) {
	const q = `SELECT id, number, seats FROM restaurant_tables WHERE seats >= ? ORDER BY id ASC`
	return r.query(ctx, q, n)
}

// List returns the whole catalog ordered by table number.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT id, number, seats FROM restaurant_tables ORDER BY number ASC`
	return r.query(ctx, q)
}

// GetByID returns ErrTableNotFound when no table has the given id.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (model.Table, error) {
	const q = `SELECT id, number, seats FROM restaurant_tables WHERE id = ?`
	var t model.Table
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Number, &t.Seats)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Table{}, ErrTableNotFound
	}
	if err != nil {
		return model.Table{}, fmt.Errorf("get table %d: %w", id, err)
	}
	return t, nil
}

func (r *TableRepo) query(ctx context.Context, q string, args ...any) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Seats); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ reservation.TableInventory = (*TableRepo)(nil)
