// Package router defines how HTTP routes are registered for the API.
// Routes are split by audience: public browse endpoints, customer endpoints
// that need a valid token, and owner endpoints that also need an
// administrative role.
package router

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/handler"
	"github.com/vegnbio/reservation-engine/internal/middleware"
)

// Options carries everything route registration needs besides the handler.
// RateLimit and Cache may be nil, in which case the routes run without them.
type Options struct {
	JWTSecret   string
	IsAdminRole func(role string) bool
	RateLimit   echo.MiddlewareFunc
	Cache       echo.MiddlewareFunc
	Metrics     http.Handler
	Log         logrus.FieldLogger
}

func (o Options) auth() echo.MiddlewareFunc {
	return middleware.JWTAuth(o.JWTSecret, o.IsAdminRole)
}

func (o Options) limiter() echo.MiddlewareFunc {
	if o.RateLimit == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return o.RateLimit
}

func (o Options) cache() echo.MiddlewareFunc {
	if o.Cache == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return o.Cache
}

// New builds an echo instance with the global middleware stack and every
// route registered.
func New(h *handler.Handler, opts Options) *echo.Echo {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(requestLogger(opts.Log))

	RegisterRoutes(e, h, opts.Metrics)
	RegisterPublic(e, h, opts)
	RegisterCustomer(e, h, opts)
	RegisterOwner(e, h, opts)
	RegisterOwnerReservations(e, h, opts)
	return e
}

func requestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := log.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Round(time.Microsecond).Seconds() * 1000,
				"request_id": v.RequestID,
			})
			switch {
			case v.Status >= http.StatusInternalServerError:
				entry.WithError(v.Error).Error("request")
			case v.Error != nil:
				entry.WithError(v.Error).Info("request")
			default:
				entry.Debug("request")
			}
			return nil
		},
	})
}

// RegisterRoutes registers the operational endpoints: the health check and,
// when a handler is supplied, Prometheus metrics.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, metrics http.Handler) {
	e.GET("/healthz", h.Health)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterPublic registers unauthenticated browse endpoints.  Responses go
// through the response cache when one is configured, so availability read
// here can lag a write by at most the cache TTL.
func RegisterPublic(e *echo.Echo, h *handler.Handler, opts Options) {
	g := e.Group("/v1", opts.cache())

	g.GET("/restaurants/:rid/rooms", h.ListRooms)
	g.GET("/rooms/:id", h.GetRoom)
	g.GET("/rooms/:id/availability", h.RoomAvailability)

	g.GET("/restaurants/:rid/events", h.ListRestaurantEvents)
	g.GET("/events/upcoming", h.UpcomingEvents)
	g.GET("/events/:id", h.GetEvent)
	g.GET("/events/:id/spots", h.EventSpots)
}
