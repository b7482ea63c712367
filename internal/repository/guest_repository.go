package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/anz-davar/event-management/internal/model"
)

// GuestRepo persists event guests.
type GuestRepo struct {
	db *sql.DB
}

func NewGuestRepo(db *sql.DB) *GuestRepo { return &GuestRepo{db: db} }

const guestColumns = `id, event_id, full_name, contact_info, preferences, restrictions, needs_accessible_seat, created_at`

func scanGuest(row rowScanner) (model.Guest, error) {
	var g model.Guest
	err := row.Scan(&g.ID, &g.EventID, &g.FullName, &g.ContactInfo, &g.Preferences, &g.Restrictions, &g.NeedsAccessibleSeat, &g.CreatedAt)
	return g, err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const qInsertGuest = `INSERT INTO guests (event_id, full_name, contact_info, preferences, restrictions, needs_accessible_seat)
                      VALUES (?, ?, ?, ?, ?, ?)`

func insertGuest(ctx context.Context, ex execer, g *model.Guest) error {
	res, err := ex.ExecContext(ctx, qInsertGuest,
		g.EventID, strings.TrimSpace(g.FullName), strings.TrimSpace(g.ContactInfo),
		g.Preferences, g.Restrictions, g.NeedsAccessibleSeat)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// Create inserts one guest and sets its ID.
func (r *GuestRepo) Create(ctx context.Context, g *model.Guest) error {
	return insertGuest(ctx, r.db, g)
}

// AddWithinLimit inserts members in one transaction while holding the
// event row lock, so concurrent registrations cannot push an event past
// limit.  A limit of zero means unlimited.  It returns ErrEventNotFound or
// ErrGuestLimit without inserting anything.
func (r *GuestRepo) AddWithinLimit(ctx context.Context, eventID uint64, limit int, members []*model.Guest) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ? FOR UPDATE`, eventID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrEventNotFound
		return err
	}
	if err != nil {
		return err
	}
	if limit > 0 {
		var n int
		if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM guests WHERE event_id = ?`, eventID).Scan(&n); err != nil {
			return err
		}
		if n+len(members) > limit {
			err = ErrGuestLimit
			return err
		}
	}
	for _, g := range members {
		g.EventID = eventID
		if err = insertGuest(ctx, tx, g); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID returns a guest or ErrGuestNotFound.
func (r *GuestRepo) GetByID(ctx context.Context, id uint64) (model.Guest, error) {
	g, err := scanGuest(r.db.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrGuestNotFound
	}
	return g, err
}

// ListByEvent returns the guests of an event in registration order.  The
// seating engine depends on this order being stable.
func (r *GuestRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Guest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Update overwrites a guest's editable fields.
func (r *GuestRepo) Update(ctx context.Context, g *model.Guest) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE guests SET full_name = ?, contact_info = ?, preferences = ?, restrictions = ?, needs_accessible_seat = ? WHERE id = ?`,
		strings.TrimSpace(g.FullName), strings.TrimSpace(g.ContactInfo), g.Preferences, g.Restrictions, g.NeedsAccessibleSeat, g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, g.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a guest and its seat.
func (r *GuestRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGuestNotFound
	}
	return nil
}
