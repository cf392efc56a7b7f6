// Package handler exposes the reservation engine over HTTP with echo.
// Handlers translate requests into service calls and map the booking error
// taxonomy onto status codes; they hold no business rules of their own.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/database"
	"github.com/vegnbio/reservation-engine/internal/repository"
	"github.com/vegnbio/reservation-engine/internal/service"
)

// Pinger reports whether the data store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves every route.  Routes are grouped by audience in the
// router package.
type Handler struct {
	Svc   *service.Services
	Store Pinger
	Log   logrus.FieldLogger
}

// New returns a Handler.  log may be nil.
func New(svc *service.Services, store Pinger, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Svc: svc, Store: store, Log: log}
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator that also checks required struct fields.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return booking.InvalidInput("%s failed %q validation", strings.ToLower(fe.Field()), fe.Tag())
		}
		return booking.InvalidInput("%v", err)
	}
	return nil
}

// bind decodes the body into dst and validates it.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return booking.InvalidInput("invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		return err
	}
	return nil
}

// fail maps err onto the HTTP response.  Capacity conflicts carry their
// details so clients can show what blocked the claim.
func (h *Handler) fail(c echo.Context, err error) error {
	var ce *booking.ConflictError
	var te *booking.TransitionError
	switch {
	case errors.As(err, &ce):
		body := echo.Map{"error": "capacity_conflict", "message": ce.Error(), "resource_id": ce.ResourceID}
		if len(ce.Conflicts) > 0 {
			body["conflicting_claims"] = ce.Conflicts
		} else {
			body["requested"] = ce.Requested
			body["in_use"] = ce.InUse
			body["limit"] = ce.Limit
			body["excess"] = ce.Excess()
		}
		return c.JSON(http.StatusConflict, body)
	case errors.As(err, &te):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": te.Error(), "from": te.From, "to": te.To})
	case errors.Is(err, booking.ErrResourceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource_not_found"})
	case errors.Is(err, booking.ErrClaimNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "claim_not_found"})
	case errors.Is(err, booking.ErrResourceUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "resource_unavailable"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": err.Error()})
	case errors.Is(err, booking.ErrCapacityConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity_conflict", "message": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "has_active_claims", "message": err.Error()})
	case errors.Is(err, booking.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_input", "message": err.Error()})
	case errors.Is(err, database.ErrInfrastructure), errors.Is(err, context.DeadlineExceeded):
		h.Log.WithError(err).WithField("path", c.Path()).Error("data store unavailable")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service_unavailable"})
	}
	h.Log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, booking.InvalidInput("invalid %s", name)
	}
	return id, nil
}

// parseTime accepts RFC 3339 timestamps or plain dates (midnight UTC).
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

// queryTime reads an optional time query parameter.
func queryTime(c echo.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(raw)
	if err != nil {
		return nil, booking.InvalidInput("%s must be RFC 3339 or YYYY-MM-DD", name)
	}
	return &t, nil
}

func queryBool(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, booking.InvalidInput("invalid %s", name)
	}
	return n, nil
}

// claimFilter reads the listing query parameters shared by claim lists.
func claimFilter(c echo.Context) (repository.ClaimFilter, error) {
	var f repository.ClaimFilter
	var err error
	if f.From, err = queryTime(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return f, err
	}
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		f.Status = booking.Status(s)
		if !f.Status.Valid() {
			return f, booking.InvalidInput("unknown status %q", s)
		}
	}
	f.ActiveOnly = queryBool(c, "active")
	return f, nil
}
