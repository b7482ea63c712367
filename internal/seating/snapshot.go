// Package seating computes seat assignments for one event.  A run reads a
// snapshot of the event's guests and tables, builds a feasible assignment
// with a tiered greedy pass and then improves it with a tabu search over
// pairwise seat swaps.  Nothing here touches storage or the network other
// than the two reads done by LoadSnapshot.
package seating

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/anz-davar/event-management/internal/model"
)

// Guest is an attendee as the engine sees it.  The legacy free-text
// restriction field is split into RestrictionTags and LocationPreference
// once, by ParseGuest.
type Guest struct {
	ID                  uint64
	Name                string
	ContactInfo         string
	Preferences         []string
	RestrictionTags     []string
	LocationPreference  string
	NeedsAccessibleSeat bool
}

// Table is one table used by the event.
type Table struct {
	ID           uint64
	EventTableID uint64
	MaxSeats     int
	Location     string
	IsAccessible bool
}

// Seat is one slot of the flattened seat inventory.  Table indexes
// Snapshot.Tables; Number runs from 1 to the table's MaxSeats.
type Seat struct {
	Table  int
	Number int
}

// Snapshot is the immutable input of one run.
type Snapshot struct {
	EventID uint64
	Guests  []Guest
	Tables  []Table
	Seats   []Seat

	// firstSeat[t] is the index in Seats of table t's seat number 1.
	firstSeat []int
}

// GuestLister lists the guests registered for an event.
type GuestLister interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]model.Guest, error)
}

// TableLister lists the tables attached to an event together with their
// catalog attributes.
type TableLister interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]model.EventTable, error)
}

// LoadSnapshot reads the guests and tables of an event and assembles a
// Snapshot.  Both reads are issued concurrently.  It fails with ErrNotFound
// when either list is empty and with ErrCapacityExceeded when the tables
// cannot seat every guest.
func LoadSnapshot(ctx context.Context, guests GuestLister, tables TableLister, eventID uint64) (*Snapshot, error) {
	var (
		guestRows []model.Guest
		tableRows []model.EventTable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := guests.ListByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("list guests: %w", err)
		}
		guestRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := tables.ListByEvent(gctx, eventID)
		if err != nil {
			return fmt.Errorf("list event tables: %w", err)
		}
		tableRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	gs := make([]Guest, 0, len(guestRows))
	for _, row := range guestRows {
		gs = append(gs, ParseGuest(row))
	}
	ts := make([]Table, 0, len(tableRows))
	for _, row := range tableRows {
		ts = append(ts, Table{
			ID:           row.TableID,
			EventTableID: row.ID,
			MaxSeats:     int(row.MaxSeats),
			Location:     strings.TrimSpace(row.Location),
			IsAccessible: row.IsAccessible,
		})
	}
	return NewSnapshot(eventID, gs, ts)
}

// NewSnapshot validates the inputs and flattens the seat inventory.  The
// order of guests and tables is kept; it decides every "first" choice the
// constructive pass makes.
func NewSnapshot(eventID uint64, guests []Guest, tables []Table) (*Snapshot, error) {
	if len(guests) == 0 || len(tables) == 0 {
		return nil, ErrNotFound
	}
	s := &Snapshot{
		EventID:   eventID,
		Guests:    guests,
		Tables:    tables,
		firstSeat: make([]int, len(tables)),
	}
	for t, table := range tables {
		s.firstSeat[t] = len(s.Seats)
		for n := 1; n <= table.MaxSeats; n++ {
			s.Seats = append(s.Seats, Seat{Table: t, Number: n})
		}
	}
	if len(guests) > len(s.Seats) {
		return nil, ErrCapacityExceeded
	}
	return s, nil
}

// Capacity is the total number of seats across all tables.
func (s *Snapshot) Capacity() int { return len(s.Seats) }

// seatIndex returns the index in Seats of seat number n (1-based) of table t.
func (s *Snapshot) seatIndex(t, n int) int { return s.firstSeat[t] + n - 1 }

// ParseGuest converts a stored guest row into the engine's typed form.
// Preferences and restrictions are split on commas, trimmed and
// de-duplicated.  A restriction value without a comma is the guest's
// wished table location only; it takes no part in the pairwise
// restriction penalty.
func ParseGuest(row model.Guest) Guest {
	g := Guest{
		ID:                  row.ID,
		Name:                row.FullName,
		ContactInfo:         strings.TrimSpace(row.ContactInfo),
		Preferences:         splitLabels(row.Preferences),
		NeedsAccessibleSeat: row.NeedsAccessibleSeat,
	}
	if r := strings.TrimSpace(row.Restrictions); r != "" && !strings.Contains(r, ",") {
		g.LocationPreference = r
	} else {
		g.RestrictionTags = splitLabels(row.Restrictions)
	}
	return g
}

func splitLabels(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		p := strings.TrimSpace(part)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
