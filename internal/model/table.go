package model

import "time"

// Table is a physical table in a hall's catalog.  Seats are not stored;
// a table with MaxSeats = n exposes seats numbered 1..n.
//
// Fields:
//  ID           – primary key identifier.
//  HallID       – hall the table belongs to.
//  MaxSeats     – number of seats around the table.
//  Location     – optional free text label (e.g. "front", "near stage").
//  IsAccessible – whether the table is suitable for wheelchair users.
type Table struct {
    ID           uint64    `json:"id"`            // hall_tables.id
    HallID       uint64    `json:"hall_id"`       // hall_tables.hall_id
    MaxSeats     uint32    `json:"max_seats"`     // hall_tables.max_seats
    Location     string    `json:"location"`      // hall_tables.location ('' when NULL)
    IsAccessible bool      `json:"is_accessible"` // hall_tables.is_accessible
    CreatedAt    time.Time `json:"created_at"`    // hall_tables.created_at
    UpdatedAt    time.Time `json:"updated_at"`    // hall_tables.updated_at
}

// EventTable is a physical table as used by one event.  It joins an
// event_tables row with the table's catalog attributes so that callers
// never have to look the table up twice.
type EventTable struct {
    ID           uint64 `json:"event_table_id"` // event_tables.id
    EventID      uint64 `json:"event_id"`       // event_tables.event_id
    TableID      uint64 `json:"table_id"`       // event_tables.table_id
    MaxSeats     uint32 `json:"max_seats"`      // hall_tables.max_seats
    Location     string `json:"location"`       // hall_tables.location
    IsAccessible bool   `json:"is_accessible"`  // hall_tables.is_accessible
}
