package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// Health is the liveness probe.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports 503 while MySQL is unreachable.  Redis is optional and only
// reported.
func Ready(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        status := echo.Map{"database": "ok", "redis": "disabled"}
        code := http.StatusOK
        if err := db.PingContext(ctx); err != nil {
            status["database"] = "down"
            code = http.StatusServiceUnavailable
        }
        if rdb != nil {
            status["redis"] = "ok"
            if err := rdb.Ping(ctx).Err(); err != nil {
                status["redis"] = "down"
            }
        }
        return c.JSON(code, status)
    }
}
