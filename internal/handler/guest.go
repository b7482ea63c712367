package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/anz-davar/event-management/internal/model"
    "github.com/anz-davar/event-management/internal/repository"
    "github.com/anz-davar/event-management/internal/service"
)

// Registrar registers guests through the public endpoints.
type Registrar interface {
    Register(ctx context.Context, g *model.Guest) error
    RegisterFamily(ctx context.Context, eventID uint64, contact string, members []*model.Guest) error
}

// GuestHandler serves the organizer's guest list and public registration.
type GuestHandler struct {
    Events       *repository.EventRepo
    Guests       *repository.GuestRepo
    Registration Registrar
}

func NewGuestHandler(events *repository.EventRepo, guests *repository.GuestRepo, reg Registrar) *GuestHandler {
    return &GuestHandler{Events: events, Guests: guests, Registration: reg}
}

// guestFields are the editable guest attributes.  Preferences and
// restrictions are comma separated labels.
type guestFields struct {
    FullName            string `json:"full_name" validate:"required,max=150"`
    ContactInfo         string `json:"contact_info" validate:"max=150"`
    Preferences         string `json:"preferences" validate:"max=255"`
    Restrictions        string `json:"restrictions" validate:"max=255"`
    NeedsAccessibleSeat bool   `json:"needs_accessible_seat"`
}

func (f guestFields) guest(eventID uint64) *model.Guest {
    return &model.Guest{
        EventID:             eventID,
        FullName:            strings.TrimSpace(f.FullName),
        ContactInfo:         strings.TrimSpace(f.ContactInfo),
        Preferences:         strings.TrimSpace(f.Preferences),
        Restrictions:        strings.TrimSpace(f.Restrictions),
        NeedsAccessibleSeat: f.NeedsAccessibleSeat,
    }
}

type guestReq struct {
    EventID uint64 `json:"event_id" validate:"required"`
    guestFields
}

type familyMember struct {
    FullName            string `json:"full_name" validate:"required,max=150"`
    Preferences         string `json:"preferences" validate:"max=255"`
    Restrictions        string `json:"restrictions" validate:"max=255"`
    NeedsAccessibleSeat bool   `json:"needs_accessible_seat"`
}

type familyReq struct {
    EventID     uint64         `json:"event_id" validate:"required"`
    ContactInfo string         `json:"contact_info" validate:"required,max=150"`
    Members     []familyMember `json:"members" validate:"required,min=1,max=20,dive"`
}

// List handles GET /v1/events/:id/guests.
func (h *GuestHandler) List(c echo.Context) error {
    e, err := ownedEvent(c, h.Events, "id")
    if e == nil {
        return err
    }
    guests, err := h.Guests.ListByEvent(c.Request().Context(), e.ID)
    if err != nil {
        return repoError(c, err, "list guests failed")
    }
    if guests == nil {
        guests = []model.Guest{}
    }
    return c.JSON(http.StatusOK, guests)
}

// Create handles POST /v1/guests (organizer adds a guest directly).
func (h *GuestHandler) Create(c echo.Context) error {
    var req guestReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    scope, ok := ownerScope(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if _, err := h.Events.GetByIDAndOwner(ctx, req.EventID, scope); err != nil {
        return repoError(c, err, "load event failed")
    }
    g := req.guest(req.EventID)
    if err := h.Guests.Create(ctx, g); err != nil {
        return repoError(c, err, "create guest failed")
    }
    return c.JSON(http.StatusCreated, g)
}

// Update handles PUT /v1/guests/:id.
func (h *GuestHandler) Update(c echo.Context) error {
    var req guestFields
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    g, err := h.ownedGuest(c)
    if g == nil {
        return err
    }
    upd := req.guest(g.EventID)
    upd.ID, upd.CreatedAt = g.ID, g.CreatedAt
    if err := h.Guests.Update(c.Request().Context(), upd); err != nil {
        return repoError(c, err, "update guest failed")
    }
    return c.JSON(http.StatusOK, upd)
}

// Delete handles DELETE /v1/guests/:id.
func (h *GuestHandler) Delete(c echo.Context) error {
    g, err := h.ownedGuest(c)
    if g == nil {
        return err
    }
    if err := h.Guests.Delete(c.Request().Context(), g.ID); err != nil {
        return repoError(c, err, "delete guest failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// PublicRegister handles POST /v1/public/guests.
func (h *GuestHandler) PublicRegister(c echo.Context) error {
    var req guestReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    g := req.guest(req.EventID)
    if err := h.Registration.Register(ctx, g); err != nil {
        return registrationError(c, err)
    }
    return c.JSON(http.StatusCreated, g)
}

// PublicRegisterFamily handles POST /v1/public/families.  All members are
// stored in one transaction with the shared contact.
func (h *GuestHandler) PublicRegisterFamily(c echo.Context) error {
    var req familyReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    members := make([]*model.Guest, 0, len(req.Members))
    for _, m := range req.Members {
        members = append(members, &model.Guest{
            FullName:            strings.TrimSpace(m.FullName),
            Preferences:         strings.TrimSpace(m.Preferences),
            Restrictions:        strings.TrimSpace(m.Restrictions),
            NeedsAccessibleSeat: m.NeedsAccessibleSeat,
        })
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Registration.RegisterFamily(ctx, req.EventID, req.ContactInfo, members); err != nil {
        return registrationError(c, err)
    }
    return c.JSON(http.StatusCreated, members)
}

func registrationError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrEventFull):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrEmptyFamily):
        return badRequest(c, err.Error())
    }
    return repoError(c, err, "registration failed")
}

// ownedGuest loads /v1/guests/:id and checks the caller owns its event.
func (h *GuestHandler) ownedGuest(c echo.Context) (*model.Guest, error) {
    scope, ok := ownerScope(c)
    if !ok {
        return nil, unauthorized(c)
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil, badRequest(c, "invalid guest id")
    }
    ctx := c.Request().Context()
    g, err := h.Guests.GetByID(ctx, id)
    if err != nil {
        return nil, repoError(c, err, "load guest failed")
    }
    if _, err := h.Events.GetByIDAndOwner(ctx, g.EventID, scope); err != nil {
        return nil, repoError(c, err, "load event failed")
    }
    return &g, nil
}
