package seating

import "errors"

// ErrNotFound is returned when an event has no guests or no tables.  The
// caller should report it as a precondition failure; nothing was computed.
var ErrNotFound = errors.New("no guests or tables for this event")

// ErrCapacityExceeded is returned when the event's tables offer fewer seats
// than there are guests.
var ErrCapacityExceeded = errors.New("not enough seats for all guests")

// ErrInternal marks an invariant violation inside the engine, such as a
// guest left without a seat although capacity was sufficient.  It is never
// the caller's fault and must not be shown to end users verbatim.
var ErrInternal = errors.New("internal seating error")
