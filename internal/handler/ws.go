package handler

import (
    "github.com/labstack/echo/v4"

    "github.com/anz-davar/event-management/internal/notify"
)

// EventStream handles GET /v1/ws/events/:id.  The connection joins the
// event's room and receives registration and seating notices.
func EventStream(hub *notify.Hub) echo.HandlerFunc {
    return func(c echo.Context) error {
        id, ok := pathID(c, "id")
        if !ok {
            return badRequest(c, "invalid event id")
        }
        if err := hub.Serve(c.Response(), c.Request(), notify.RoomForEvent(id)); err != nil {
            // the upgrader has already answered the client
            c.Logger().Debugf("websocket upgrade failed: %v", err)
        }
        return nil
    }
}
