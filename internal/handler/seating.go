package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/anz-davar/event-management/internal/model"
    "github.com/anz-davar/event-management/internal/repository"
    "github.com/anz-davar/event-management/internal/seating"
    "github.com/anz-davar/event-management/internal/service"
)

// Optimizer recomputes and stores an event's seating.
type Optimizer interface {
    Optimize(ctx context.Context, eventID uint64) (*service.OptimizeResult, error)
}

// SeatingStore is the seating persistence used by the manual endpoints.
type SeatingStore interface {
    ListByEvent(ctx context.Context, eventID uint64) ([]model.SeatingAssignment, error)
    GetByID(ctx context.Context, id uint64) (model.SeatingAssignment, error)
    Create(ctx context.Context, s *model.SeatingAssignment) error
    Delete(ctx context.Context, id uint64) error
}

// SeatingHandler serves seating lists, manual seats and the optimizer.
type SeatingHandler struct {
    Events      eventOwner
    Guests      *repository.GuestRepo
    EventTables *repository.EventTableRepo
    Seating     SeatingStore
    Optimizer   Optimizer
    Log         *zap.Logger
}

func NewSeatingHandler(events *repository.EventRepo, guests *repository.GuestRepo, eventTables *repository.EventTableRepo,
    seats *repository.SeatingRepo, opt Optimizer, logger *zap.Logger) *SeatingHandler {
    if logger == nil {
        logger = zap.NewNop()
    }
    return &SeatingHandler{Events: events, Guests: guests, EventTables: eventTables, Seating: seats, Optimizer: opt, Log: logger}
}

type seatReq struct {
    GuestID      uint64 `json:"guest_id" validate:"required"`
    EventTableID uint64 `json:"event_table_id" validate:"required"`
    SeatNumber   uint32 `json:"seat_number" validate:"required,min=1"`
}

// List handles GET /v1/events/:id/seating.
func (h *SeatingHandler) List(c echo.Context) error {
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    rows, err := h.Seating.ListByEvent(c.Request().Context(), e.ID)
    if err != nil {
        return repoError(c, err, "list seating failed")
    }
    return c.JSON(http.StatusOK, rows)
}

// Create handles POST /v1/seating: seat one guest by hand.  Rejected with
// 409 when the table is full, the seat is taken or the guest already sits.
func (h *SeatingHandler) Create(c echo.Context) error {
    var req seatReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    scope, ok := ownerScope(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    g, err := h.Guests.GetByID(ctx, req.GuestID)
    if err != nil {
        return repoError(c, err, "load guest failed")
    }
    et, err := h.EventTables.GetByID(ctx, req.EventTableID)
    if err != nil {
        return repoError(c, err, "load event table failed")
    }
    if et.EventID != g.EventID {
        return badRequest(c, "guest and table belong to different events")
    }
    if _, err := h.Events.GetByIDAndOwner(ctx, g.EventID, scope); err != nil {
        return repoError(c, err, "load event failed")
    }

    s := &model.SeatingAssignment{
        GuestID:      g.ID,
        EventTableID: et.ID,
        SeatNumber:   req.SeatNumber,
        EventID:      et.EventID,
        TableID:      et.TableID,
        GuestName:    g.FullName,
    }
    if err := h.Seating.Create(ctx, s); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "guest is already seated"})
        }
        return repoError(c, err, "create seat failed")
    }
    return c.JSON(http.StatusCreated, s)
}

// Delete handles DELETE /v1/seating/:id.
func (h *SeatingHandler) Delete(c echo.Context) error {
    scope, ok := ownerScope(c)
    if !ok {
        return unauthorized(c)
    }
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid seating id")
    }
    ctx := c.Request().Context()
    s, err := h.Seating.GetByID(ctx, id)
    if err != nil {
        return repoError(c, err, "load seat failed")
    }
    if _, err := h.Events.GetByIDAndOwner(ctx, s.EventID, scope); err != nil {
        return repoError(c, err, "load event failed")
    }
    if err := h.Seating.Delete(ctx, id); err != nil {
        return repoError(c, err, "delete seat failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// Optimize handles POST /v1/seating/optimize/:eventId.  It replaces the
// event's whole seating and returns the new one with its score and the
// soft constraints that could not be met.
func (h *SeatingHandler) Optimize(c echo.Context) error {
    e, err := ownedEvent(c, h.Events, "eventId")
    if e == nil {
        return err
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    res, err := h.Optimizer.Optimize(ctx, e.ID)
    switch {
    case err == nil:
        return c.JSON(http.StatusOK, res)
    case errors.Is(err, repository.ErrEventNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    case errors.Is(err, seating.ErrNotFound):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "No guests or tables for this event"})
    case errors.Is(err, seating.ErrCapacityExceeded):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Not enough seats for all guests"})
    case errors.Is(err, service.ErrOptimizationInProgress):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    }
    h.Log.Error("seating optimization failed", zap.Uint64("event_id", e.ID), zap.Error(err))
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal seating error"})
}
