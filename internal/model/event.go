package model

import "time"

// Event is the booking context that scopes guests, tables and seating.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – organizer who created the event.
//  HallID    – hall where the event takes place (nil when not chosen yet).
//  Name      – display name.
//  EventDate – when the event takes place.
//  Location  – free text location.
//  MaxGuests – soft cap on registrations (0 means unlimited).
type Event struct {
    ID        uint64    `json:"id"`         // events.id
    OwnerID   uint64    `json:"owner_id"`   // events.owner_id
    HallID    *uint64   `json:"hall_id"`    // events.hall_id (nullable)
    Name      string    `json:"name"`       // events.name
    EventDate time.Time `json:"event_date"` // events.event_date
    Location  string    `json:"location"`   // events.location
    MaxGuests uint32    `json:"max_guests"` // events.max_guests
    CreatedAt time.Time `json:"created_at"` // events.created_at
    UpdatedAt time.Time `json:"updated_at"` // events.updated_at
}
