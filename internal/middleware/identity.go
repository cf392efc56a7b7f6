package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// userKey identifies the caller for rate limiting.  It returns "anon" when
// no user is authenticated.
func userKey(c echo.Context) string {
	if a := ActorFrom(c); a.ID != 0 {
		return strconv.FormatUint(a.ID, 10)
	}
	return "anon"
}
