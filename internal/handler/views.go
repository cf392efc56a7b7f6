package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
)

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func roomView(r *model.Room) echo.Map {
	return echo.Map{
		"id":                r.ID,
		"restaurant_id":     r.RestaurantID,
		"name":              r.Name,
		"description":       r.Description,
		"capacity":          r.Capacity,
		"hourly_rate_cents": r.HourlyRateCents,
		"has_wifi":          r.HasWifi,
		"has_printer":       r.HasPrinter,
		"has_projector":     r.HasProjector,
		"has_whiteboard":    r.HasWhiteboard,
		"status":            r.Status,
		"created_at":        stamp(r.CreatedAt),
		"updated_at":        stamp(r.UpdatedAt),
	}
}

func reservationView(rr *model.RoomReservation) echo.Map {
	return echo.Map{
		"id":                   rr.ID,
		"room_id":              rr.ResourceID,
		"holder_id":            rr.HolderID,
		"status":               rr.Status,
		"start_time":           stamp(rr.Window.Start),
		"end_time":             stamp(rr.Window.End),
		"purpose":              rr.Purpose,
		"attendees_count":      rr.AttendeesCount,
		"special_requirements": rr.SpecialRequirements,
		"notes":                rr.Notes,
		"reserved_at":          stamp(rr.ReservedAt),
		"total_price_cents":    rr.TotalPriceCents,
		"created_at":           stamp(rr.CreatedAt),
		"updated_at":           stamp(rr.UpdatedAt),
	}
}

func eventView(a model.EventAvailability) echo.Map {
	e := a.Event
	m := echo.Map{
		"id":              e.ID,
		"restaurant_id":   e.RestaurantID,
		"title":           e.Title,
		"type":            e.Type,
		"starts_at":       stamp(e.StartsAt),
		"ends_at":         nil,
		"capacity":        e.Capacity,
		"description":     e.Description,
		"status":          e.Status,
		"booked_pax":      a.BookedPax,
		"available_spots": a.AvailableSpots,
		"created_at":      stamp(e.CreatedAt),
		"updated_at":      stamp(e.UpdatedAt),
	}
	if e.EndsAt != nil {
		m["ends_at"] = stamp(*e.EndsAt)
	}
	return m
}

func bookingView(b *model.EventBooking) echo.Map {
	return echo.Map{
		"id":             b.ID,
		"event_id":       b.ResourceID,
		"holder_id":      b.HolderID,
		"status":         b.Status,
		"pax":            b.Pax,
		"customer_name":  b.CustomerName,
		"customer_phone": b.CustomerPhone,
		"created_at":     stamp(b.CreatedAt),
		"updated_at":     stamp(b.UpdatedAt),
	}
}

func availabilityView(roomID uint64, w booking.Window, r booking.Result) echo.Map {
	m := echo.Map{
		"room_id":   roomID,
		"start":     stamp(w.Start),
		"end":       stamp(w.End),
		"available": r.OK,
	}
	if r.Unavailable {
		m["reason"] = "room_unavailable"
	} else if len(r.Conflicts) > 0 {
		m["reason"] = "overlap"
		m["conflicting_claims"] = r.Conflicts
	}
	return m
}

func listView[T any](items []T, view func(T) echo.Map) []echo.Map {
	out := make([]echo.Map, len(items))
	for i, it := range items {
		out[i] = view(it)
	}
	return out
}
