package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anz-davar/event-management/internal/model"
)

func TestGuestRepoListByEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM guests WHERE event_id = \? ORDER BY id`).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "full_name", "contact_info", "preferences", "restrictions", "needs_accessible_seat", "created_at"}).
			AddRow(1, 4, "Dana", "555", "bride", "front", true, now).
			AddRow(2, 4, "Noa", "555", "", "", false, now))

	guests, err := NewGuestRepo(db).ListByEvent(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, guests, 2)
	assert.Equal(t, "Dana", guests[0].FullName)
	assert.True(t, guests[0].NeedsAccessibleSeat)
	assert.Equal(t, "front", guests[0].Restrictions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestRepoAddWithinLimitRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \? FOR UPDATE`).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO guests`).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(`INSERT INTO guests`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	members := []*model.Guest{
		{FullName: "A", ContactInfo: "fam"},
		{FullName: "B", ContactInfo: "fam"},
	}
	err = NewGuestRepo(db).AddWithinLimit(context.Background(), 1, 0, members)
	assert.EqualError(t, err, "boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestRepoAddWithinLimitCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \? FOR UPDATE`).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guests WHERE event_id = \?`).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO guests`).WithArgs(uint64(1), "A", "fam", "", "", false).WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(`INSERT INTO guests`).WithArgs(uint64(1), "B", "fam", "", "", true).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	members := []*model.Guest{
		{FullName: " A ", ContactInfo: "fam"},
		{FullName: "B", ContactInfo: "fam", NeedsAccessibleSeat: true},
	}
	require.NoError(t, NewGuestRepo(db).AddWithinLimit(context.Background(), 1, 5, members))
	assert.Equal(t, uint64(10), members[0].ID)
	assert.Equal(t, uint64(11), members[1].ID)
	assert.Equal(t, uint64(1), members[1].EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The count is read under the event row lock, so a registration that sees
// the event full inserts nothing.
func TestGuestRepoAddWithinLimitRejectsOverLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \? FOR UPDATE`).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guests WHERE event_id = \?`).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	mock.ExpectRollback()

	members := []*model.Guest{{FullName: "A"}, {FullName: "B"}}
	err = NewGuestRepo(db).AddWithinLimit(context.Background(), 1, 5, members)
	assert.ErrorIs(t, err, ErrGuestLimit)
	assert.Zero(t, members[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestRepoAddWithinLimitUnknownEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM events WHERE id = \? FOR UPDATE`).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err = NewGuestRepo(db).AddWithinLimit(context.Background(), 8, 5, []*model.Guest{{FullName: "A"}})
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventTableRepoAttachDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM event_tables WHERE event_id = \? AND table_id = \?`).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	_, err = NewEventTableRepo(db).Attach(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventTableRepoListByEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM event_tables et\s+JOIN hall_tables t ON t.id = et.table_id WHERE et.event_id = \? ORDER BY et.id`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "table_id", "max_seats", "location", "is_accessible"}).
			AddRow(20, 3, 7, 8, "stage", true).
			AddRow(21, 3, 8, 4, "", false))

	tables, err := NewEventTableRepo(db).ListByEvent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, model.EventTable{ID: 20, EventID: 3, TableID: 7, MaxSeats: 8, Location: "stage", IsAccessible: true}, tables[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingRepoCreateRejectsTakenSeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT t.max_seats FROM event_tables et`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"max_seats"}).AddRow(4))
	mock.ExpectQuery(`SELECT COUNT\(\*\), COALESCE\(SUM\(seat_number = \?\), 0\) FROM seating_assignments`).
		WithArgs(uint32(2), uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"taken", "same"}).AddRow(2, 1))
	mock.ExpectRollback()

	err = NewSeatingRepo(db).Create(context.Background(), &model.SeatingAssignment{GuestID: 1, EventTableID: 5, SeatNumber: 2})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingRepoCreateRejectsOutOfRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT t.max_seats FROM event_tables et`).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"max_seats"}).AddRow(4))
	mock.ExpectRollback()

	err = NewSeatingRepo(db).Create(context.Background(), &model.SeatingAssignment{GuestID: 1, EventTableID: 5, SeatNumber: 5})
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT t.max_seats FROM event_tables et`).
		WillReturnRows(sqlmock.NewRows([]string{"max_seats"}).AddRow(4))
	mock.ExpectQuery(`FROM seating_assignments WHERE event_table_id = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"taken", "same"}).AddRow(1, 0))
	mock.ExpectExec(`INSERT INTO seating_assignments`).
		WithArgs(uint64(1), uint64(5), uint32(3)).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectCommit()

	s := &model.SeatingAssignment{GuestID: 1, EventTableID: 5, SeatNumber: 3}
	require.NoError(t, NewSeatingRepo(db).Create(context.Background(), s))
	assert.Equal(t, uint64(77), s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingRepoReplaceForEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE sa FROM seating_assignments sa`).WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`INSERT INTO seating_assignments \(guest_id, event_table_id, seat_number\) VALUES \(\?, \?, \?\),\(\?, \?, \?\)`).
		WithArgs(uint64(1), uint64(20), uint32(1), uint64(2), uint64(20), uint32(2)).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	err = NewSeatingRepo(db).ReplaceForEvent(context.Background(), 3, []model.SeatingAssignment{
		{GuestID: 1, EventTableID: 20, SeatNumber: 1},
		{GuestID: 2, EventTableID: 20, SeatNumber: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatingRepoReplaceKeepsOldRowsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE sa FROM seating_assignments sa`).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`INSERT INTO seating_assignments`).WillReturnError(errors.New("Error 1062: Duplicate entry"))
	mock.ExpectRollback()

	err = NewSeatingRepo(db).ReplaceForEvent(context.Background(), 3, []model.SeatingAssignment{{GuestID: 1, EventTableID: 20, SeatNumber: 1}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepoGetByIDAndOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "owner_id", "hall_id", "name", "event_date", "location", "max_guests", "created_at", "updated_at"}
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \?`).WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(8, 2, nil, "Wedding", now, "Haifa", 120, now, now))
	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \?`).WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(cols))

	repo := NewEventRepo(db)
	_, err = repo.GetByIDAndOwner(context.Background(), 8, 3)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = repo.GetByIDAndOwner(context.Background(), 9, 3)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHallRepoCreateDuplicateName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO halls`).WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	err = NewHallRepo(db).Create(context.Background(), &model.Hall{OwnerID: 1, Name: "Main"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
