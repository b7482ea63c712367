package router // package router registers the HTTP routes of the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/anz-davar/event-management/internal/handler"
	"github.com/anz-davar/event-management/internal/middleware"
	"github.com/anz-davar/event-management/internal/model"
	"github.com/anz-davar/event-management/internal/notify"
)

// Handlers groups everything the routes dispatch to.
type Handlers struct {
	Auth    *handler.AuthHandler
	Halls   *handler.HallHandler
	Events  *handler.EventHandler
	Guests  *handler.GuestHandler
	Seating *handler.SeatingHandler
	Hub     *notify.Hub
}

// Middlewares are the optional Redis-backed layers.  Both are pass-through
// when Redis is not configured.
type Middlewares struct {
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

func (m Middlewares) orNoop() Middlewares {
	noop := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if m.RateLimit == nil {
		m.RateLimit = noop
	}
	if m.Cache == nil {
		m.Cache = noop
	}
	return m
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db, rdb))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers /v1/auth and the profile endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, mw Middlewares) {
	mw = mw.orNoop()
	// no session needed; rate limited against credential stuffing
	g := e.Group("/v1/auth", mw.RateLimit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin))
	e.GET("/v1/admin/users", a.ListUsers, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
}

// RegisterOrganizer registers the protected management API.  Every route
// needs a valid access token with the ORGANIZER or ADMIN role; ownership
// is checked by the handlers.
func RegisterOrganizer(e *echo.Echo, h Handlers, jwtSecret string, mw Middlewares) {
	mw = mw.orNoop()
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin))

	g.POST("/halls", h.Halls.CreateHall)
	g.GET("/halls", h.Halls.ListHalls)
	g.GET("/halls/:id", h.Halls.GetHall)
	g.PUT("/halls/:id", h.Halls.UpdateHall)
	g.DELETE("/halls/:id", h.Halls.DeleteHall)
	g.GET("/halls/:id/tables", h.Halls.ListTables)

	g.POST("/tables", h.Halls.CreateTable)
	g.PUT("/tables/:id", h.Halls.UpdateTable)
	g.DELETE("/tables/:id", h.Halls.DeleteTable)

	g.POST("/events", h.Events.Create)
	g.GET("/events", h.Events.List)
	g.GET("/events/:id", h.Events.Get)
	g.PUT("/events/:id", h.Events.Update)
	g.DELETE("/events/:id", h.Events.Delete)
	g.POST("/events/:id/tables", h.Events.AttachTable)
	g.GET("/events/:id/tables", h.Events.ListTables)
	g.DELETE("/events/:id/tables/:tableId", h.Events.DetachTable)

	g.GET("/events/:id/guests", h.Guests.List)
	g.POST("/guests", h.Guests.Create)
	g.PUT("/guests/:id", h.Guests.Update)
	g.DELETE("/guests/:id", h.Guests.Delete)

	g.GET("/events/:id/seating", h.Seating.List)
	g.POST("/seating", h.Seating.Create)
	g.DELETE("/seating/:id", h.Seating.Delete)
	// CPU bound; limited per caller and route
	g.POST("/seating/optimize/:eventId", h.Seating.Optimize, mw.RateLimit)
}

// RegisterPublic registers the guest facing routes: event preview,
// self registration and the live websocket feed.
func RegisterPublic(e *echo.Echo, h Handlers, mw Middlewares) {
	mw = mw.orNoop()
	e.GET("/v1/public/events/:id", h.Events.PublicGet, mw.Cache)
	e.POST("/v1/public/guests", h.Guests.PublicRegister, mw.RateLimit)
	e.POST("/v1/public/families", h.Guests.PublicRegisterFamily, mw.RateLimit)
	e.GET("/v1/ws/events/:id", handler.EventStream(h.Hub))
}
