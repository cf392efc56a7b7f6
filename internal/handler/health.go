package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring to verify the service is
// running and its data store answers.  It returns 503 when the store does
// not respond within two seconds.
func (h *Handler) Health(c echo.Context) error {
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			h.Log.WithError(err).Warn("health check: store ping failed")
			return c.String(http.StatusServiceUnavailable, "store unavailable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
