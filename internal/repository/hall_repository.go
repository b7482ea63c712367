package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"

	"github.com/anz-davar/event-management/internal/model"
)

// HallRepo provides methods to create, read, update and delete halls.
// Every mutating call is scoped by owner so one organizer can never touch
// another's halls; admins pass ownerID = 0 to bypass the filter.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a new HallRepo bound to the provided database.
func NewHallRepo(db *sql.DB) *HallRepo { return &HallRepo{db: db} }

const hallColumns = `id, owner_id, name, max_capacity, location, event_type, created_at, updated_at`

func scanHall(row rowScanner) (*model.Hall, error) {
	h := new(model.Hall)
	if err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.MaxCapacity, &h.Location, &h.EventType, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return h, nil
}

// Create inserts a new hall and reloads it so timestamps are populated.
// A duplicate name for the same owner yields ErrConflict.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const qInsert = `INSERT INTO halls (owner_id, name, max_capacity, location, event_type) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, h.OwnerID, h.Name, h.MaxCapacity, h.Location, h.EventType)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
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
	*h = *fresh
	return nil
}

// GetByID retrieves a hall by its ID regardless of owner.  It returns
// ErrHallNotFound when no row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	h, err := scanHall(r.db.QueryRowContext(ctx, `SELECT `+hallColumns+` FROM halls WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHallNotFound
	}
	return h, err
}

// GetByIDAndOwner retrieves a hall only if it belongs to ownerID.
func (r *HallRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Hall, error) {
	h, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != 0 && h.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return h, nil
}

// ListByOwner returns the halls of an owner (all halls when ownerID is 0).
func (r *HallRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Hall, error) {
	q := `SELECT ` + hallColumns + ` FROM halls`
	var args []any
	if ownerID != 0 {
		q += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	q += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Hall
	for rows.Next() {
		h, err := scanHall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes name, capacity, location and event type.  Ownership must
// have been verified by the caller.
func (r *HallRepo) Update(ctx context.Context, h *model.Hall) error {
	const q = `UPDATE halls SET name = ?, max_capacity = ?, location = ?, event_type = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, h.Name, h.MaxCapacity, h.Location, h.EventType, h.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for a no-op update; tell it apart
		// from a missing row.
		if _, err := r.GetByID(ctx, h.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a hall; its tables cascade.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM halls WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrHallNotFound
	}
	return nil
}
