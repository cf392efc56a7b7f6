package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/handler"
	"github.com/vegnbio/reservation-engine/internal/middleware"
)

// RegisterOwnerReservations registers the staff views over claims: every
// reservation of a room or restaurant, every booking of an event, and the
// spreadsheet export.  Status changes such as CONFIRMED or NO_SHOW go
// through the shared PATCH .../status routes, where the services check the
// caller's capability.
func RegisterOwnerReservations(e *echo.Echo, h *handler.Handler, opts Options) {
	g := e.Group("/v1", opts.auth(), middleware.RequireAdmin())

	g.GET("/rooms/:id/reservations", h.RoomReservations)
	g.GET("/restaurants/:rid/reservations", h.RestaurantReservations)
	g.GET("/events/:id/bookings", h.EventBookings)
	g.GET("/restaurants/:rid/bookings", h.RestaurantBookings)
	g.GET("/restaurants/:rid/export.xlsx", h.ExportRestaurant)
}
