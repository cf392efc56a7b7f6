package model

import (
	"time"

	"github.com/vegnbio/reservation-engine/internal/booking"
)

// Room statuses.  Only AVAILABLE rooms accept new reservations.
const (
	RoomAvailable   = "AVAILABLE"
	RoomMaintenance = "MAINTENANCE"
	RoomOutOfOrder  = "OUT_OF_ORDER"
)

// ValidRoomStatus reports whether s is a known room status.
func ValidRoomStatus(s string) bool {
	return s == RoomAvailable || s == RoomMaintenance || s == RoomOutOfOrder
}

// Room is a bookable meeting room inside a restaurant.  A room can be held
// by at most one active reservation at any instant.  This struct
// corresponds to a row in the `rooms` table.
//
// Fields:
//
//	ID              – primary key identifier.
//	RestaurantID    – restaurant the room belongs to.
//	Name            – display name.
//	Description     – optional free text.
//	Capacity        – number of seats in the room.
//	HourlyRateCents – price per whole hour in cents (nil = free).
//	HasWifi, HasPrinter, HasProjector, HasWhiteboard – amenities.
//	Status          – AVAILABLE, MAINTENANCE or OUT_OF_ORDER.
type Room struct {
	ID              uint64    // rooms.id
	RestaurantID    uint64    // rooms.restaurant_id
	Name            string    // rooms.name
	Description     *string   // rooms.description (nullable)
	Capacity        int       // rooms.capacity
	HourlyRateCents *int64    // rooms.hourly_rate_cents (nullable)
	HasWifi         bool      // rooms.has_wifi
	HasPrinter      bool      // rooms.has_printer
	HasProjector    bool      // rooms.has_projector
	HasWhiteboard   bool      // rooms.has_whiteboard
	Status          string    // rooms.status
	CreatedAt       time.Time // rooms.created_at
	UpdatedAt       time.Time // rooms.updated_at
}

func (r *Room) GetID() uint64 { return r.ID }

// Bookable reports whether the room currently accepts reservations.
func (r *Room) Bookable() bool { return r.Status == RoomAvailable }

// Policy returns the room's capacity policy: one reservation at a time.
func (r *Room) Policy() booking.Capacity[booking.Window] { return booking.Exclusive{} }

// RoomReservation holds a room for a half-open time window.
type RoomReservation struct {
	ClaimHeader

	Window              booking.Window // start_time, end_time
	Purpose             *string        // room_reservations.purpose
	AttendeesCount      *int           // room_reservations.attendees_count
	SpecialRequirements *string        // room_reservations.special_requirements
	Notes               *string        // room_reservations.notes
	ReservedAt          time.Time      // room_reservations.reserved_at
	TotalPriceCents     int64          // derived from the room rate and window
}

// Consumption is the window the reservation occupies.
func (r *RoomReservation) Consumption() booking.Window { return r.Window }
