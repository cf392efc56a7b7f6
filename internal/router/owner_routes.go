package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/handler"
	"github.com/vegnbio/reservation-engine/internal/middleware"
)

// RegisterOwner registers resource management endpoints under /v1.  All
// routes require a valid JWT carrying one of the administrative roles.
func RegisterOwner(e *echo.Echo, h *handler.Handler, opts Options) {
	g := e.Group(
		"/v1",
		opts.auth(),
		middleware.RequireAdmin(),
		opts.limiter(),
	)

	// ---- Rooms ----
	g.POST("/restaurants/:rid/rooms", h.CreateRoom)
	g.PATCH("/rooms/:id", h.UpdateRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom)

	// ---- Events ----
	g.POST("/restaurants/:rid/events", h.CreateEvent)
	g.PATCH("/events/:id", h.UpdateEvent)
	g.POST("/events/:id/cancel", h.CancelEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
}
