package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/reservation"
)

// reservationSelect reads a reservation together with its table number.
const reservationSelect = `SELECT r.id, r.guest_name, r.party_size, r.table_id, t.number,
       r.starts_at, r.ends_at, r.status, r.created_at, r.updated_at
FROM reservations r
JOIN restaurant_tables t ON t.id = r.table_id`

// ReservationRepo stores reservations in MySQL.  Ids are UUIDv4 strings
// generated here rather than by the database so the row can be read back
// inside the inserting transaction.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db    *sql.DB
	newID func() string
}

// NewReservationRepo returns a ReservationRepo bound to db.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db, newID: uuid.NewString}
}

var _ reservation.ReservationStore = (*ReservationRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (model.Reservation, error) {
	var (
		r      model.Reservation
		status string
	)
	err := s.Scan(&r.ID, &r.GuestName, &r.PartySize, &r.TableID, &r.TableNumber,
		&r.StartsAt, &r.EndsAt, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	r.Status = model.Status(status)
	r.StartsAt = r.StartsAt.UTC()
	r.EndsAt = r.EndsAt.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryReservations(ctx context.Context, q queryer, query string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WithTableLock opens a transaction, takes a row lock on the table with
// SELECT ... FOR UPDATE and hands fn a TableTx bound to it.  Concurrent
// callers for the same table queue on that row lock until the transaction
// ends.  Deadlocks and lock wait timeouts surface as
// reservation.ErrStorageConflict.
func (r *ReservationRepo) WithTableLock(ctx context.Context, tableID uint64, fn func(tx reservation.TableTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin table transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM restaurant_tables WHERE id = ? FOR UPDATE`, tableID).Scan(&locked)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrTableNotFound
	case isLockConflict(err):
		return reservation.ErrStorageConflict
	case err != nil:
		return fmt.Errorf("lock table %d: %w", tableID, err)
	}

	if err := fn(&tableTx{tx: tx, newID: r.newID}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		if isLockConflict(err) || isDuplicateKey(err) {
			return reservation.ErrStorageConflict
		}
		return fmt.Errorf("commit table transaction: %w", err)
	}
	committed = true
	return nil
}

type tableTx struct {
	tx    *sql.Tx
	newID func() string
}

func (t *tableTx) FindOverlapping(ctx context.Context, tableID uint64, start, end time.Time, exclude []model.Status) ([]model.Reservation, error) {
	var sb strings.Builder
	sb.WriteString(reservationSelect)
	sb.WriteString("\nWHERE r.table_id = ? AND r.starts_at < ? AND r.ends_at > ?")
	args := []any{tableID, end.UTC(), start.UTC()}
	if len(exclude) > 0 {
		sb.WriteString(" AND r.status NOT IN (")
		for i, st := range exclude {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, string(st))
		}
		sb.WriteString(")")
	}
	sb.WriteString("\nORDER BY r.starts_at ASC")

	out, err := queryReservations(ctx, t.tx, sb.String(), args...)
	if isLockConflict(err) {
		return nil, reservation.ErrStorageConflict
	}
	return out, err
}

// Create inserts a confirmed reservation and reads it back.  The unique
// (table_id, blocking_start) key only covers confirmed and checked-in rows;
// a duplicate becomes reservation.ErrStorageConflict.
func (t *tableTx) Create(ctx context.Context, nr reservation.NewReservation) (model.Reservation, error) {
	id := t.newID()
	const ins = `INSERT INTO reservations (id, guest_name, party_size, table_id, starts_at, ends_at, status)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := t.tx.ExecContext(ctx, ins, id, nr.GuestName, nr.PartySize, nr.TableID,
		nr.StartsAt.UTC(), nr.EndsAt.UTC(), string(model.StatusConfirmed))
	if err != nil {
		if isDuplicateKey(err) || isLockConflict(err) {
			return model.Reservation{}, reservation.ErrStorageConflict
		}
		return model.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}

	res, err := scanReservation(t.tx.QueryRowContext(ctx, reservationSelect+"\nWHERE r.id = ?", id))
	if err != nil {
		return model.Reservation{}, fmt.Errorf("read back reservation %s: %w", id, err)
	}
	return res, nil
}

// Get returns reservation.ErrNotFound when id does not exist.
func (r *ReservationRepo) Get(ctx context.Context, id string) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+"\nWHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, reservation.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, fmt.Errorf("get reservation %s: %w", id, err)
	}
	return res, nil
}

// UpdateStatus is a compare-and-set on the status column.  When no row
// changed it looks the reservation up again to tell a missing id from a
// stale expected status.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, from, to model.Status) (model.Reservation, error) {
	const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return model.Reservation{}, fmt.Errorf("update reservation %s status: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return model.Reservation{}, fmt.Errorf("update reservation %s status: %w", id, err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return model.Reservation{}, err
		}
		return model.Reservation{}, reservation.ErrStaleStatus
	}
	return r.Get(ctx, id)
}

// List returns reservations matching q ordered by start time.
func (r *ReservationRepo) List(ctx context.Context, q reservation.Query) ([]model.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	if q.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, string(q.Status))
	}
	if !q.StartsFrom.IsZero() {
		conds = append(conds, "r.starts_at >= ?")
		args = append(args, q.StartsFrom.UTC())
	}
	if !q.StartsUntil.IsZero() {
		conds = append(conds, "r.starts_at < ?")
		args = append(args, q.StartsUntil.UTC())
	}
	if !q.EndsAfter.IsZero() {
		conds = append(conds, "r.ends_at >= ?")
		args = append(args, q.EndsAfter.UTC())
	}

	query := reservationSelect
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY r.starts_at ASC, r.id ASC"

	out, err := queryReservations(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}
