package service

import "errors"

var (
    ErrOptimizationInProgress = errors.New("seating optimization already running for this event")
    ErrEventFull              = errors.New("event has reached its guest limit")
    ErrEmptyFamily            = errors.New("family registration needs at least one member")
)
