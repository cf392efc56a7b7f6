package middleware // reusable HTTP middleware: auth, roles, rate limiting, caching

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/utils"
)

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxActor  = "actor"
)

// JWTAuth validates a Bearer access token and stores the caller's identity
// in the request context: "user_id" (uint64), "role" (string) and the
// booking.Actor returned by ActorFrom.  isAdmin decides which roles carry
// administrative capability.
func JWTAuth(secret string, isAdmin func(role string) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			role := strings.ToUpper(id.Role)
			actor := booking.Actor{ID: id.UserID, Capability: booking.Ordinary}
			if isAdmin != nil && isAdmin(role) {
				actor.Capability = booking.Administrative
			}
			c.Set(ctxUserID, id.UserID)
			c.Set(ctxRole, role)
			c.Set(ctxActor, actor)
			return next(c)
		}
	}
}

// ActorFrom returns the authenticated actor, or the zero Actor (anonymous,
// ordinary) when JWTAuth did not run.
func ActorFrom(c echo.Context) booking.Actor {
	if a, ok := c.Get(ctxActor).(booking.Actor); ok {
		return a
	}
	return booking.Actor{}
}
