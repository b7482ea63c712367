package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/anz-davar/event-management/internal/model"
)

// EventTableRepo manages which catalog tables an event uses.  It also
// serves the seating engine's table reads.
type EventTableRepo struct {
	db *sql.DB
}

func NewEventTableRepo(db *sql.DB) *EventTableRepo { return &EventTableRepo{db: db} }

const eventTableSelect = `SELECT et.id, et.event_id, et.table_id, t.max_seats, COALESCE(t.location, ''), t.is_accessible
                          FROM event_tables et
                          JOIN hall_tables t ON t.id = et.table_id`

func scanEventTable(row rowScanner) (model.EventTable, error) {
	var et model.EventTable
	err := row.Scan(&et.ID, &et.EventID, &et.TableID, &et.MaxSeats, &et.Location, &et.IsAccessible)
	return et, err
}

// Attach adds a table to an event.  Attaching the same table twice yields
// ErrConflict.
func (r *EventTableRepo) Attach(ctx context.Context, eventID, tableID uint64) (uint64, error) {
	var existing uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM event_tables WHERE event_id = ? AND table_id = ?`, eventID, tableID).Scan(&existing)
	if err == nil {
		return 0, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO event_tables (event_id, table_id) VALUES (?, ?)`, eventID, tableID)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByEvent returns the event's tables with their catalog attributes,
// ordered by event table id.  This order is the "first table" order the
// seating engine relies on.
func (r *EventTableRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.EventTable, error) {
	rows, err := r.db.QueryContext(ctx, eventTableSelect+` WHERE et.event_id = ? ORDER BY et.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.EventTable
	for rows.Next() {
		et, err := scanEventTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, et)
	}
	return out, rows.Err()
}

// GetByID returns one event table or ErrTableNotFound.
func (r *EventTableRepo) GetByID(ctx context.Context, id uint64) (model.EventTable, error) {
	et, err := scanEventTable(r.db.QueryRowContext(ctx, eventTableSelect+` WHERE et.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return et, ErrTableNotFound
	}
	return et, err
}

// Detach removes a table from an event; seats on it cascade.
func (r *EventTableRepo) Detach(ctx context.Context, eventID, tableID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM event_tables WHERE event_id = ? AND table_id = ?`, eventID, tableID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}
