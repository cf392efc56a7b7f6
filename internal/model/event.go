package model

import (
	"time"

	"github.com/vegnbio/reservation-engine/internal/booking"
)

// Event statuses.
const (
	EventActive    = "ACTIVE"
	EventCancelled = "CANCELLED"
)

// Event is a scheduled restaurant event with an optional seat ceiling.
// Capacity == nil means the event takes any number of attendees.
type Event struct {
	ID           uint64     // events.id
	RestaurantID uint64     // events.restaurant_id
	Title        string     // events.title
	Type         *string    // events.type (nullable)
	StartsAt     time.Time  // events.starts_at
	EndsAt       *time.Time // events.ends_at (nullable)
	Capacity     *int       // events.capacity (nullable)
	Description  *string    // events.description (nullable)
	Status       string     // events.status
	CreatedAt    time.Time  // events.created_at
	UpdatedAt    time.Time  // events.updated_at
}

func (e *Event) GetID() uint64 { return e.ID }

// Bookable reports whether the event still takes bookings.
func (e *Event) Bookable() bool { return e.Status == EventActive }

// Policy returns the event's headcount ceiling.
func (e *Event) Policy() booking.Capacity[booking.Headcount] {
	return booking.Ceiling{Max: e.Capacity}
}

// EventBooking reserves Pax seats at an event.
type EventBooking struct {
	ClaimHeader

	Pax           int     // event_bookings.pax
	CustomerName  string  // event_bookings.customer_name
	CustomerPhone *string // event_bookings.customer_phone (nullable)
}

// Consumption is the number of seats the booking takes.
func (b *EventBooking) Consumption() booking.Headcount { return booking.Headcount(b.Pax) }

// EventAvailability is the read projection of an event's remaining seats.
// AvailableSpots is nil when the event is unconstrained.
type EventAvailability struct {
	Event          *Event
	BookedPax      int
	AvailableSpots *int
}
