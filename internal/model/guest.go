package model

import "time"

// Guest is a person registered for an event.  Preferences and
// Restrictions are stored exactly as entered: comma separated free text.
// ContactInfo doubles as the family key; guests of one event sharing the
// same contact are seated as a family.
//
// Fields:
//  ID                  – primary key identifier.
//  EventID             – event the guest belongs to.
//  FullName            – display name.
//  ContactInfo         – phone or email, shared by family members.
//  Preferences         – comma separated group labels ("bride,kosher").
//  Restrictions        – comma separated tags; a single value is also a table location wish.
//  NeedsAccessibleSeat – guest needs a wheelchair accessible table.
type Guest struct {
    ID                  uint64    `json:"id"`                    // guests.id
    EventID             uint64    `json:"event_id"`              // guests.event_id
    FullName            string    `json:"full_name"`             // guests.full_name
    ContactInfo         string    `json:"contact_info"`          // guests.contact_info
    Preferences         string    `json:"preferences"`           // guests.preferences
    Restrictions        string    `json:"restrictions"`          // guests.restrictions
    NeedsAccessibleSeat bool      `json:"needs_accessible_seat"` // guests.needs_accessible_seat
    CreatedAt           time.Time `json:"created_at"`            // guests.created_at
}
