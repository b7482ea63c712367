package handler // handler contains the echo HTTP handlers

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/anz-davar/event-management/internal/middleware"
    "github.com/anz-davar/event-management/internal/model"
    "github.com/anz-davar/event-management/internal/repository"
)

// Validator adapts validator/v10 to echo.Validator so handlers can call
// c.Validate on request DTOs.
type Validator struct {
    v *validator.Validate
}

func NewValidator() *Validator {
    return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i interface{}) error {
    return cv.v.Struct(i)
}

// bindValid binds the JSON body into req and validates it.  The returned
// message is suitable for a 400 response.
func bindValid(c echo.Context, req interface{}) (string, bool) {
    if err := c.Bind(req); err != nil {
        return "invalid body", false
    }
    if err := c.Validate(req); err != nil {
        var ve validator.ValidationErrors
        if errors.As(err, &ve) && len(ve) > 0 {
            fields := make([]string, 0, len(ve))
            for _, fe := range ve {
                fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
            }
            return "invalid fields: " + strings.Join(fields, ", "), false
        }
        return "invalid body", false
    }
    return "", true
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// ownerScope is the owner filter for repository calls: the caller's id for
// organizers, 0 (no filter) for admins.
func ownerScope(c echo.Context) (uint64, bool) {
    uid, ok := middleware.UserID(c)
    if !ok {
        return 0, false
    }
    if middleware.Role(c) == model.RoleAdmin {
        return 0, true
    }
    return uid, true
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// repoError maps repository sentinels to responses; anything else is a 500
// with fallback as message.
func repoError(c echo.Context, err error, fallback string) error {
    switch {
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
    case errors.Is(err, repository.ErrSeatUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrHallNotFound),
        errors.Is(err, repository.ErrTableNotFound),
        errors.Is(err, repository.ErrEventNotFound),
        errors.Is(err, repository.ErrGuestNotFound),
        errors.Is(err, repository.ErrSeatNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
