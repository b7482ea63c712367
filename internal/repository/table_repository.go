package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/anz-davar/event-management/internal/model"
)

// TableRepo manages the physical table catalog of halls (hall_tables).
type TableRepo struct {
	db *sql.DB
}

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, hall_id, max_seats, COALESCE(location, ''), is_accessible, created_at, updated_at`

func scanTable(row rowScanner) (*model.Table, error) {
	t := new(model.Table)
	if err := row.Scan(&t.ID, &t.HallID, &t.MaxSeats, &t.Location, &t.IsAccessible, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

// nullableLocation stores an empty location as NULL.
func nullableLocation(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a table and sets its ID.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO hall_tables (hall_id, max_seats, location, is_accessible) VALUES (?, ?, ?, ?)`,
		t.HallID, t.MaxSeats, nullableLocation(t.Location), t.IsAccessible)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID returns a table or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx, `SELECT `+tableColumns+` FROM hall_tables WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	return t, err
}

// ListByHall returns the tables of a hall ordered by id.
func (r *TableRepo) ListByHall(ctx context.Context, hallID uint64) ([]*model.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+tableColumns+` FROM hall_tables WHERE hall_id = ? ORDER BY id`, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update writes capacity, location and accessibility.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE hall_tables SET max_seats = ?, location = ?, is_accessible = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		t.MaxSeats, nullableLocation(t.Location), t.IsAccessible, t.ID)
	return err
}

// Delete removes a table; event attachments and seats on it cascade.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hall_tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}
