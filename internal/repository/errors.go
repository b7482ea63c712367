// Package repository holds the MySQL data access layer.  Sentinel errors
// declared here let handlers tell failure scenarios apart without
// inspecting driver errors: ErrForbidden means the caller does not own
// the resource, ErrConflict means the write clashes with existing state
// (a duplicate attachment, a unique name), and the *NotFound values mean
// the row does not exist.
package repository

import (
    "errors"
    "strings"
)

// ErrForbidden is returned when the caller attempts an operation on a
// resource owned by another organizer.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write would duplicate existing state.
// Handlers translate it into 409.
var ErrConflict = errors.New("conflict")

var (
    ErrHallNotFound  = errors.New("hall not found")
    ErrTableNotFound = errors.New("table not found")
    ErrEventNotFound = errors.New("event not found")
    ErrGuestNotFound = errors.New("guest not found")
    ErrSeatNotFound  = errors.New("seating assignment not found")
)

// ErrSeatUnavailable is returned by a manual seat insert when the table is
// full, the seat number is outside the table or the seat is already taken.
var ErrSeatUnavailable = errors.New("table is full or seat is already taken")

// ErrGuestLimit is returned when a registration would exceed the event's
// max_guests.
var ErrGuestLimit = errors.New("event guest limit reached")

// isDuplicate reports whether err is a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
