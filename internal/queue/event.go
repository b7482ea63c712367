// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into activity log lines and websocket
// broadcasts.
package queue

// RegisteredGuest is the broker view of one registered guest.
type RegisteredGuest struct {
    ID                  uint64 `json:"id"`
    Name                string `json:"name"`
    ContactInfo         string `json:"contact_info,omitempty"`
    NeedsAccessibleSeat bool   `json:"needs_accessible_seat"`
}

// GuestRegisteredEvent is published after a public registration.  Family
// registrations carry every member and Family is true.
type GuestRegisteredEvent struct {
    EventID      uint64            `json:"event_id"`
    EventName    string            `json:"event_name"`
    Organizer    string            `json:"organizer,omitempty"`
    Family       bool              `json:"family"`
    Guests       []RegisteredGuest `json:"guests"`
    RegisteredAt string            `json:"registered_at"`
}

// SeatingOptimizedEvent is published after an optimization run has been
// written back.
type SeatingOptimizedEvent struct {
    EventID      uint64  `json:"event_id"`
    RunID        string  `json:"run_id"`
    GuestCount   int     `json:"guest_count"`
    Score        float64 `json:"score"`
    InitialScore float64 `json:"initial_score"`
    Iterations   int     `json:"iterations"`
    Diagnostics  int     `json:"diagnostics"`
    FinishedAt   string  `json:"finished_at"`
}
