package model

// SeatingAssignment places one guest on one seat of an event table.  The
// row is the unit the optimizer writes back; it is also what the manual
// seating endpoints create and delete.
type SeatingAssignment struct {
    ID           uint64 `json:"id"`             // seating_assignments.id
    GuestID      uint64 `json:"guest_id"`       // seating_assignments.guest_id
    EventTableID uint64 `json:"event_table_id"` // seating_assignments.event_table_id
    SeatNumber   uint32 `json:"seat_number"`    // seating_assignments.seat_number
    EventID      uint64 `json:"event_id"`       // event_tables.event_id
    TableID      uint64 `json:"table_id"`       // event_tables.table_id
    GuestName    string `json:"guest_name"`     // guests.full_name
}
