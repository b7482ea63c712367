package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/anz-davar/event-management/internal/model"
)

// EventRepo persists events.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, owner_id, hall_id, name, event_date, location, max_guests, created_at, updated_at`

func scanEvent(row rowScanner) (*model.Event, error) {
	var (
		e      model.Event
		hallID sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &hallID, &e.Name, &e.EventDate, &e.Location, &e.MaxGuests, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if hallID.Valid {
		v := uint64(hallID.Int64)
		e.HallID = &v
	}
	return &e, nil
}

// Create inserts an event and reloads it.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (owner_id, hall_id, name, event_date, location, max_guests) VALUES (?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.HallID, e.Name, e.EventDate.UTC(), e.Location, e.MaxGuests)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*e = *fresh
	return nil
}

// GetByID returns an event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	return e, err
}

// GetByIDAndOwner returns an event owned by ownerID.  ownerID 0 skips the
// ownership check (admin access).
func (r *EventRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Event, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != 0 && e.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return e, nil
}

// Exists reports whether the event row is present.
func (r *EventRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListByOwner returns the owner's events by date (every event when
// ownerID is 0).
func (r *EventRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	var args []any
	if ownerID != 0 {
		q += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	q += ` ORDER BY event_date, id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update writes the mutable columns of an event.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE events SET hall_id = ?, name = ?, event_date = ?, location = ?, max_guests = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		e.HallID, e.Name, e.EventDate.UTC(), e.Location, e.MaxGuests, e.ID)
	return err
}

// Delete removes an event with its guests, tables and seating.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// EventDetails is the event summary attached to registration notices.
type EventDetails struct {
	EventID       uint64    `json:"event_id"`
	EventName     string    `json:"event_name"`
	EventDate     time.Time `json:"event_date"`
	Location      string    `json:"location"`
	MaxGuests     uint32    `json:"max_guests"`
	OwnerID       uint64    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username"`
	OwnerEmail    string    `json:"owner_email"`
}

// Details loads an event together with its organizer's name and email.
func (r *EventRepo) Details(ctx context.Context, id uint64) (*EventDetails, error) {
	const q = `SELECT e.id, e.name, e.event_date, e.location, e.max_guests, u.id, u.username, u.email
	           FROM events e JOIN users u ON u.id = e.owner_id
	           WHERE e.id = ?`
	var d EventDetails
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.EventID, &d.EventName, &d.EventDate, &d.Location, &d.MaxGuests,
		&d.OwnerID, &d.OwnerUsername, &d.OwnerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
