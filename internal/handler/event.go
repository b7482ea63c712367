package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/anz-davar/event-management/internal/middleware"
    "github.com/anz-davar/event-management/internal/model"
    "github.com/anz-davar/event-management/internal/repository"
)

// EventHandler serves events and the tables attached to them.
type EventHandler struct {
    Events      *repository.EventRepo
    Halls       *repository.HallRepo
    Tables      *repository.TableRepo
    EventTables *repository.EventTableRepo
}

func NewEventHandler(events *repository.EventRepo, halls *repository.HallRepo, tables *repository.TableRepo, eventTables *repository.EventTableRepo) *EventHandler {
    return &EventHandler{Events: events, Halls: halls, Tables: tables, EventTables: eventTables}
}

type eventReq struct {
    Name      string    `json:"name" validate:"required,max=150"`
    EventDate time.Time `json:"event_date" validate:"required"`
    Location  string    `json:"location" validate:"max=255"`
    MaxGuests uint32    `json:"max_guests"`
    HallID    *uint64   `json:"hall_id" validate:"omitempty,gt=0"`
}

type attachReq struct {
    TableID uint64 `json:"table_id" validate:"required"`
}

// publicEvent is what the registration page sees; no organizer contact.
type publicEvent struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    EventDate time.Time `json:"event_date"`
    Location  string    `json:"location"`
    Organizer string    `json:"organizer"`
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return unauthorized(c)
    }
    var req eventReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if req.HallID != nil {
        scope, _ := ownerScope(c)
        if _, err := h.Halls.GetByIDAndOwner(ctx, *req.HallID, scope); err != nil {
            return repoError(c, err, "load hall failed")
        }
    }
    e := &model.Event{
        OwnerID:   uid,
        HallID:    req.HallID,
        Name:      strings.TrimSpace(req.Name),
        EventDate: req.EventDate,
        Location:  strings.TrimSpace(req.Location),
        MaxGuests: req.MaxGuests,
    }
    if err := h.Events.Create(ctx, e); err != nil {
        return repoError(c, err, "create event failed")
    }
    return c.JSON(http.StatusCreated, e)
}

// List handles GET /v1/events: the caller's events, or all for admins.
func (h *EventHandler) List(c echo.Context) error {
    scope, ok := ownerScope(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    events, err := h.Events.ListByOwner(ctx, scope)
    if err != nil {
        return repoError(c, err, "list events failed")
    }
    if events == nil {
        events = []*model.Event{}
    }
    return c.JSON(http.StatusOK, events)
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    return c.JSON(http.StatusOK, e)
}

// Update handles PUT /v1/events/:id.
func (h *EventHandler) Update(c echo.Context) error {
    var req eventReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    ctx := c.Request().Context()
    if req.HallID != nil && (e.HallID == nil || *e.HallID != *req.HallID) {
        scope, _ := ownerScope(c)
        if _, err := h.Halls.GetByIDAndOwner(ctx, *req.HallID, scope); err != nil {
            return repoError(c, err, "load hall failed")
        }
    }
    e.Name = strings.TrimSpace(req.Name)
    e.EventDate = req.EventDate
    e.Location = strings.TrimSpace(req.Location)
    e.MaxGuests = req.MaxGuests
    e.HallID = req.HallID
    if err := h.Events.Update(ctx, e); err != nil {
        return repoError(c, err, "update event failed")
    }
    return c.JSON(http.StatusOK, e)
}

// Delete handles DELETE /v1/events/:id.
func (h *EventHandler) Delete(c echo.Context) error {
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    if err := h.Events.Delete(c.Request().Context(), e.ID); err != nil {
        return repoError(c, err, "delete event failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// AttachTable handles POST /v1/events/:id/tables.  The table must come
// from one of the caller's halls, and from the event's hall when it has
// one.  Attaching a table twice is a 409.
func (h *EventHandler) AttachTable(c echo.Context) error {
    var req attachReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    t, err := h.Tables.GetByID(ctx, req.TableID)
    if err != nil {
        return repoError(c, err, "load table failed")
    }
    scope, _ := ownerScope(c)
    if _, err := h.Halls.GetByIDAndOwner(ctx, t.HallID, scope); err != nil {
        return repoError(c, err, "load hall failed")
    }
    if e.HallID != nil && *e.HallID != t.HallID {
        return badRequest(c, "table belongs to another hall")
    }
    id, err := h.EventTables.Attach(ctx, e.ID, t.ID)
    if err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "table already attached to this event"})
        }
        return repoError(c, err, "attach table failed")
    }
    return c.JSON(http.StatusCreated, model.EventTable{
        ID:           id,
        EventID:      e.ID,
        TableID:      t.ID,
        MaxSeats:     t.MaxSeats,
        Location:     t.Location,
        IsAccessible: t.IsAccessible,
    })
}

// ListTables handles GET /v1/events/:id/tables.
func (h *EventHandler) ListTables(c echo.Context) error {
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    tables, err := h.EventTables.ListByEvent(c.Request().Context(), e.ID)
    if err != nil {
        return repoError(c, err, "list event tables failed")
    }
    if tables == nil {
        tables = []model.EventTable{}
    }
    return c.JSON(http.StatusOK, tables)
}

// DetachTable handles DELETE /v1/events/:id/tables/:tableId.  Seats on the
// table are removed with it.
func (h *EventHandler) DetachTable(c echo.Context) error {
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    tableID, ok := pathID(c, "tableId")
    if !ok {
        return badRequest(c, "invalid table id")
    }
    if err := h.EventTables.Detach(c.Request().Context(), e.ID, tableID); err != nil {
        return repoError(c, err, "detach table failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// PublicGet handles GET /v1/public/events/:id for the registration page.
func (h *EventHandler) PublicGet(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid event id")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    d, err := h.Events.Details(ctx, id)
    if err != nil {
        return repoError(c, err, "load event failed")
    }
    return c.JSON(http.StatusOK, publicEvent{
        ID:        d.EventID,
        Name:      d.EventName,
        EventDate: d.EventDate,
        Location:  d.Location,
        Organizer: d.OwnerUsername,
    })
}

// eventOwner is the lookup ownedEvent needs.
type eventOwner interface {
    GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*model.Event, error)
}

// ownedEvent loads the event named by param and checks ownership.  A nil
// event means the response was written; return the error as is.
func ownedEvent(c echo.Context, events eventOwner, param string) (*model.Event, error) {
    scope, ok := ownerScope(c)
    if !ok {
        return nil, unauthorized(c)
    }
    id, ok := pathID(c, param)
    if !ok {
        return nil, badRequest(c, "invalid event id")
    }
    e, err := events.GetByIDAndOwner(c.Request().Context(), id, scope)
    if err != nil {
        return nil, repoError(c, err, "load event failed")
    }
    return e, nil
}
