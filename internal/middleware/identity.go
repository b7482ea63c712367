package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// UserID returns the authenticated caller's id, or false on public routes.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id != 0
}

// Role returns the authenticated caller's role ("" on public routes).
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// callerKey identifies the caller in rate limit keys: the user id when
// authenticated, "anon" otherwise.
func callerKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
