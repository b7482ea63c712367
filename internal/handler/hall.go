package handler // hall and table catalog handlers

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/anz-davar/event-management/internal/middleware"
    "github.com/anz-davar/event-management/internal/model"
    "github.com/anz-davar/event-management/internal/repository"
)

// HallHandler serves the organizer's halls and their table catalog.
type HallHandler struct {
    Halls  *repository.HallRepo
    Tables *repository.TableRepo
}

func NewHallHandler(halls *repository.HallRepo, tables *repository.TableRepo) *HallHandler {
    if halls == nil || tables == nil {
        panic("nil repository passed to NewHallHandler")
    }
    return &HallHandler{Halls: halls, Tables: tables}
}

type hallReq struct {
    Name        string `json:"name" validate:"required,max=120"`
    MaxCapacity uint32 `json:"max_capacity" validate:"gte=0"`
    Location    string `json:"location" validate:"max=255"`
    EventType   string `json:"event_type" validate:"max=64"`
}

type tableReq struct {
    HallID       uint64 `json:"hall_id" validate:"required"`
    MaxSeats     uint32 `json:"max_seats" validate:"required,min=1,max=100"`
    Location     string `json:"location" validate:"max=64"`
    IsAccessible bool   `json:"is_accessible"`
}

// CreateHall handles POST /v1/halls.
func (h *HallHandler) CreateHall(c echo.Context) error {
    ownerID, ok := middleware.UserID(c) // admins own the halls they create
    if !ok {
        return unauthorized(c)
    }
    var req hallReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    hall := &model.Hall{
        OwnerID:     ownerID,
        Name:        strings.TrimSpace(req.Name),
        MaxCapacity: req.MaxCapacity,
        Location:    strings.TrimSpace(req.Location),
        EventType:   strings.TrimSpace(req.EventType),
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Halls.Create(ctx, hall); err != nil {
        return repoError(c, err, "create hall failed") // duplicate name per owner is a 409
    }
    return c.JSON(http.StatusCreated, hall)
}

// ListHalls handles GET /v1/halls.
func (h *HallHandler) ListHalls(c echo.Context) error {
    ownerID, ok := ownerScope(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    halls, err := h.Halls.ListByOwner(ctx, ownerID)
    if err != nil {
        return repoError(c, err, "list halls failed")
    }
    if halls == nil {
        halls = []*model.Hall{} // render [] rather than null
    }
    return c.JSON(http.StatusOK, halls)
}

// GetHall handles GET /v1/halls/:id and embeds the hall's tables.
func (h *HallHandler) GetHall(c echo.Context) error {
    hall, err := h.ownedHall(c, "id")
    if hall == nil {
        return err
    }
    tables, err := h.Tables.ListByHall(c.Request().Context(), hall.ID)
    if err != nil {
        return repoError(c, err, "list tables failed")
    }
    if tables == nil {
        tables = []*model.Table{}
    }
    return c.JSON(http.StatusOK, echo.Map{"hall": hall, "tables": tables})
}

// UpdateHall handles PUT /v1/halls/:id.
func (h *HallHandler) UpdateHall(c echo.Context) error {
    var req hallReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    hall, err := h.ownedHall(c, "id")
    if hall == nil {
        return err
    }
    hall.Name = strings.TrimSpace(req.Name)
    hall.MaxCapacity = req.MaxCapacity
    hall.Location = strings.TrimSpace(req.Location)
    hall.EventType = strings.TrimSpace(req.EventType)
    if err := h.Halls.Update(c.Request().Context(), hall); err != nil {
        return repoError(c, err, "update hall failed")
    }
    return c.JSON(http.StatusOK, hall)
}

// DeleteHall handles DELETE /v1/halls/:id.
func (h *HallHandler) DeleteHall(c echo.Context) error {
    hall, err := h.ownedHall(c, "id")
    if hall == nil {
        return err
    }
    if err := h.Halls.Delete(c.Request().Context(), hall.ID); err != nil {
        return repoError(c, err, "delete hall failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// CreateTable handles POST /v1/tables.
func (h *HallHandler) CreateTable(c echo.Context) error {
    var req tableReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    ownerID, ok := ownerScope(c)
    if !ok {
        return unauthorized(c)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if _, err := h.Halls.GetByIDAndOwner(ctx, req.HallID, ownerID); err != nil {
        return repoError(c, err, "load hall failed")
    }
    t := &model.Table{
        HallID:       req.HallID,
        MaxSeats:     req.MaxSeats,
        Location:     strings.TrimSpace(req.Location),
        IsAccessible: req.IsAccessible,
    }
    if err := h.Tables.Create(ctx, t); err != nil {
        return repoError(c, err, "create table failed")
    }
    return c.JSON(http.StatusCreated, t)
}

// ListTables handles GET /v1/halls/:id/tables.
func (h *HallHandler) ListTables(c echo.Context) error {
    hall, err := h.ownedHall(c, "id")
    if hall == nil {
        return err
    }
    tables, err := h.Tables.ListByHall(c.Request().Context(), hall.ID)
    if err != nil {
        return repoError(c, err, "list tables failed")
    }
    if tables == nil {
        tables = []*model.Table{}
    }
    return c.JSON(http.StatusOK, tables)
}

// UpdateTable handles PUT /v1/tables/:id.  The hall_id in the body is
// ignored; tables do not move between halls.
func (h *HallHandler) UpdateTable(c echo.Context) error {
    var req tableReq
    if msg, ok := bindValid(c, &req); !ok {
        return badRequest(c, msg)
    }
    t, err := h.ownedTable(c)
    if t == nil {
        return err
    }
    t.MaxSeats = req.MaxSeats
    t.Location = strings.TrimSpace(req.Location)
    t.IsAccessible = req.IsAccessible
    if err := h.Tables.Update(c.Request().Context(), t); err != nil {
        return repoError(c, err, "update table failed")
    }
    return c.JSON(http.StatusOK, t)
}

// DeleteTable handles DELETE /v1/tables/:id.
func (h *HallHandler) DeleteTable(c echo.Context) error {
    t, err := h.ownedTable(c)
    if t == nil {
        return err
    }
    if err := h.Tables.Delete(c.Request().Context(), t.ID); err != nil {
        return repoError(c, err, "delete table failed")
    }
    return c.NoContent(http.StatusNoContent)
}

// ownedHall loads the hall named by the path parameter and checks the
// caller owns it.  When it returns a nil hall the response has already
// been written and the error is the handler's return value.
func (h *HallHandler) ownedHall(c echo.Context, param string) (*model.Hall, error) {
    ownerID, ok := ownerScope(c)
    if !ok {
        return nil, unauthorized(c)
    }
    id, ok := pathID(c, param)
    if !ok {
        return nil, badRequest(c, "invalid hall id")
    }
    hall, err := h.Halls.GetByIDAndOwner(c.Request().Context(), id, ownerID)
    if err != nil {
        return nil, repoError(c, err, "load hall failed")
    }
    return hall, nil
}

// ownedTable is ownedHall for /v1/tables/:id.
func (h *HallHandler) ownedTable(c echo.Context) (*model.Table, error) {
    ownerID, ok := ownerScope(c)
    if !ok {
        return nil, unauthorized(c)
    }
    id, ok := pathID(c, "id")
    if !ok {
        return nil, badRequest(c, "invalid table id")
    }
    t, err := h.Tables.GetByID(c.Request().Context(), id)
    if err != nil {
        return nil, repoError(c, err, "load table failed")
    }
    if _, err := h.Halls.GetByIDAndOwner(c.Request().Context(), t.HallID, ownerID); err != nil {
        return nil, repoError(c, err, "load hall failed")
    }
    return t, nil
}
