package seating

import "fmt"

// Assignment maps every guest of a snapshot to one seat.  It is kept as a
// bidirectional index so a move is simply "exchange the seats of guest A
// and guest B".
type Assignment struct {
	snap    *Snapshot
	seatOf  []int // guest index -> seat index, -1 while unseated
	guestAt []int // seat index -> guest index, -1 while free
}

func newAssignment(s *Snapshot) *Assignment {
	a := &Assignment{
		snap:    s,
		seatOf:  make([]int, len(s.Guests)),
		guestAt: make([]int, len(s.Seats)),
	}
	for i := range a.seatOf {
		a.seatOf[i] = -1
	}
	for i := range a.guestAt {
		a.guestAt[i] = -1
	}
	return a
}

func (a *Assignment) place(guest, seat int) {
	a.seatOf[guest] = seat
	a.guestAt[seat] = guest
}

// SeatOf returns the seat held by the guest at index g, or false when the
// guest has no seat yet.
func (a *Assignment) SeatOf(g int) (Seat, bool) {
	s := a.seatOf[g]
	if s < 0 {
		return Seat{}, false
	}
	return a.snap.Seats[s], true
}

// TableOf returns the table index of guest g, or -1 when unseated.
func (a *Assignment) TableOf(g int) int {
	s := a.seatOf[g]
	if s < 0 {
		return -1
	}
	return a.snap.Seats[s].Table
}

// Swap exchanges the seats of guests g1 and g2.
func (a *Assignment) Swap(g1, g2 int) {
	s1, s2 := a.seatOf[g1], a.seatOf[g2]
	a.seatOf[g1], a.seatOf[g2] = s2, s1
	if s1 >= 0 {
		a.guestAt[s1] = g2
	}
	if s2 >= 0 {
		a.guestAt[s2] = g1
	}
}

// Clone returns an independent copy.
func (a *Assignment) Clone() *Assignment {
	c := &Assignment{
		snap:    a.snap,
		seatOf:  make([]int, len(a.seatOf)),
		guestAt: make([]int, len(a.guestAt)),
	}
	copy(c.seatOf, a.seatOf)
	copy(c.guestAt, a.guestAt)
	return c
}

// guestsAt appends the guests seated at table t to dst.
func (a *Assignment) guestsAt(dst []int, t int) []int {
	first := a.snap.firstSeat[t]
	for s := first; s < first+a.snap.Tables[t].MaxSeats; s++ {
		if g := a.guestAt[s]; g >= 0 {
			dst = append(dst, g)
		}
	}
	return dst
}

// Verify checks that every guest holds exactly one seat and that no seat is
// shared.  Table capacity follows from the seat inventory: a table never
// has more seats than MaxSeats.
func (a *Assignment) Verify() error {
	held := make([]bool, len(a.guestAt))
	for g, s := range a.seatOf {
		if s < 0 || s >= len(a.guestAt) {
			return fmt.Errorf("%w: guest %d has no seat", ErrInternal, a.snap.Guests[g].ID)
		}
		if held[s] {
			return fmt.Errorf("%w: seat %d taken twice", ErrInternal, s)
		}
		held[s] = true
		if a.guestAt[s] != g {
			return fmt.Errorf("%w: seat index out of sync for guest %d", ErrInternal, a.snap.Guests[g].ID)
		}
	}
	return nil
}

// Placements renders the assignment as one row per guest, in snapshot
// guest order.
func (a *Assignment) Placements() []Placement {
	out := make([]Placement, 0, len(a.seatOf))
	for g, s := range a.seatOf {
		if s < 0 {
			continue
		}
		seat := a.snap.Seats[s]
		table := a.snap.Tables[seat.Table]
		out = append(out, Placement{
			GuestID:      a.snap.Guests[g].ID,
			EventTableID: table.EventTableID,
			TableID:      table.ID,
			SeatNumber:   seat.Number,
		})
	}
	return out
}

// Placement is one row of the computed seating.
type Placement struct {
	GuestID      uint64 `json:"guest_id"`
	EventTableID uint64 `json:"event_table_id"`
	TableID      uint64 `json:"table_id"`
	SeatNumber   int    `json:"seat_number"`
}
