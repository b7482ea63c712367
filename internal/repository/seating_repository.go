package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/anz-davar/event-management/internal/model"
)

// SeatingRepo reads and writes seating_assignments.
type SeatingRepo struct {
	db *sql.DB
}

func NewSeatingRepo(db *sql.DB) *SeatingRepo { return &SeatingRepo{db: db} }

// ListByEvent returns the event's seating joined with guest names, ordered
// by table then seat.
func (r *SeatingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.SeatingAssignment, error) {
	const q = `SELECT sa.id, sa.guest_id, sa.event_table_id, sa.seat_number, et.event_id, et.table_id, g.full_name
	           FROM seating_assignments sa
	           JOIN event_tables et ON et.id = sa.event_table_id
	           JOIN guests g ON g.id = sa.guest_id
	           WHERE et.event_id = ?
	           ORDER BY sa.event_table_id, sa.seat_number`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SeatingAssignment{}
	for rows.Next() {
		var s model.SeatingAssignment
		if err := rows.Scan(&s.ID, &s.GuestID, &s.EventTableID, &s.SeatNumber, &s.EventID, &s.TableID, &s.GuestName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns one assignment with the event it belongs to, or
// ErrSeatNotFound.
func (r *SeatingRepo) GetByID(ctx context.Context, id uint64) (model.SeatingAssignment, error) {
	const q = `SELECT sa.id, sa.guest_id, sa.event_table_id, sa.seat_number, et.event_id, et.table_id, g.full_name
	           FROM seating_assignments sa
	           JOIN event_tables et ON et.id = sa.event_table_id
	           JOIN guests g ON g.id = sa.guest_id
	           WHERE sa.id = ?`
	var s model.SeatingAssignment
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.GuestID, &s.EventTableID, &s.SeatNumber, &s.EventID, &s.TableID, &s.GuestName)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrSeatNotFound
	}
	return s, err
}

// Create seats one guest manually.  Inside one transaction it locks the
// event table row, then rejects the insert with ErrSeatUnavailable when the
// seat number is out of range, the table is already full or the seat is
// taken.
func (r *SeatingRepo) Create(ctx context.Context, s *model.SeatingAssignment) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var maxSeats uint32
	err = tx.QueryRowContext(ctx,
		`SELECT t.max_seats FROM event_tables et JOIN hall_tables t ON t.id = et.table_id WHERE et.id = ? FOR UPDATE`,
		s.EventTableID).Scan(&maxSeats)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrTableNotFound
		return err
	}
	if err != nil {
		return err
	}
	if s.SeatNumber < 1 || s.SeatNumber > maxSeats {
		err = ErrSeatUnavailable
		return err
	}

	var taken, sameSeat int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(seat_number = ?), 0) FROM seating_assignments WHERE event_table_id = ?`,
		s.SeatNumber, s.EventTableID).Scan(&taken, &sameSeat)
	if err != nil {
		return err
	}
	if uint32(taken) >= maxSeats || sameSeat > 0 {
		err = ErrSeatUnavailable
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO seating_assignments (guest_id, event_table_id, seat_number) VALUES (?, ?, ?)`,
		s.GuestID, s.EventTableID, s.SeatNumber)
	if err != nil {
		if isDuplicate(err) {
			err = ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return tx.Commit()
}

// Delete removes one assignment.
func (r *SeatingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seating_assignments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// ReplaceForEvent atomically swaps the event's seating for rows.  On any
// error the previous seating stays in place.
func (r *SeatingRepo) ReplaceForEvent(ctx context.Context, eventID uint64, rows []model.SeatingAssignment) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE sa FROM seating_assignments sa JOIN event_tables et ON et.id = sa.event_table_id WHERE et.event_id = ?`,
		eventID); err != nil {
		return err
	}
	if len(rows) > 0 {
		var b strings.Builder
		b.WriteString(`INSERT INTO seating_assignments (guest_id, event_table_id, seat_number) VALUES `)
		args := make([]any, 0, len(rows)*3)
		for i, s := range rows {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString("(?, ?, ?)")
			args = append(args, s.GuestID, s.EventTableID, s.SeatNumber)
		}
		if _, err = tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
