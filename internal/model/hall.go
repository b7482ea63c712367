package model

import "time"

// Hall represents a venue room in which events are held.  Halls own a
// catalog of physical tables; an event borrows some of them through
// event_tables.  This struct corresponds to a row in the `halls` table.
//
// Fields:
//  ID          – primary key identifier.
//  OwnerID     – user ID of the hall owner.
//  Name        – hall name, unique per owner.
//  MaxCapacity – advertised maximum number of guests.
//  Location    – free text address or area of the hall.
//  EventType   – the kind of event the hall is meant for (wedding, conference...).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Hall struct {
    ID          uint64    `json:"id"`           // halls.id
    OwnerID     uint64    `json:"owner_id"`     // halls.owner_id
    Name        string    `json:"name"`         // halls.name
    MaxCapacity uint32    `json:"max_capacity"` // halls.max_capacity
    Location    string    `json:"location"`     // halls.location
    EventType   string    `json:"event_type"`   // halls.event_type
    CreatedAt   time.Time `json:"created_at"`   // halls.created_at
    UpdatedAt   time.Time `json:"updated_at"`   // halls.updated_at
}
