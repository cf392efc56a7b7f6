package repository

import (
	"context"
	"time"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
)

// ResourceTx is the view of the store inside one resource's critical
// section.  Everything done through it commits or rolls back together,
// and no other writer can change the locked resource or its claims until
// the closure returns.
type ResourceTx[R, T any] interface {
	// SaveResource writes back the locked resource.
	SaveResource(ctx context.Context, r R) error
	// DeleteResource removes the locked resource.  Its claim history must
	// be empty of active claims; the caller checks that first.
	DeleteResource(ctx context.Context) error
	// ActiveClaims returns the claims on the resource that still consume
	// capacity (PENDING or CONFIRMED).
	ActiveClaims(ctx context.Context) ([]T, error)
	// Claim loads a claim on the locked resource.  booking.ErrClaimNotFound
	// is returned for unknown ids and for claims on other resources.
	Claim(ctx context.Context, id uint64) (T, error)
	// InsertClaim stores a new claim and assigns its ID.
	InsertClaim(ctx context.Context, c T) error
	// UpdateClaim overwrites a stored claim.
	UpdateClaim(ctx context.Context, c T) error
}

// Kind is the store for one resource/claim pair: rooms with their
// reservations, or events with their bookings.
type Kind[R, T any] interface {
	// Locked runs fn inside the critical section of resourceID, handing it
	// the freshly loaded resource.  booking.ErrResourceNotFound is returned
	// when the resource does not exist.  fn may be run more than once when
	// the data store asks for a retry.
	Locked(ctx context.Context, resourceID uint64, fn func(tx ResourceTx[R, T], res R) error) error
	// CreateResource inserts a new resource and assigns its ID.
	CreateResource(ctx context.Context, r R) error
	// Resource reads a resource without locking it.
	Resource(ctx context.Context, id uint64) (R, error)
	// Claim reads a claim without locking its resource.
	Claim(ctx context.Context, id uint64) (T, error)
}

// RoomFilter narrows room listings.
type RoomFilter struct {
	RestaurantID  uint64
	AvailableOnly bool
	MinCapacity   int
}

// EventFilter narrows event listings.  From/To select events starting in
// [From, To).
type EventFilter struct {
	RestaurantID uint64
	ActiveOnly   bool
	From         *time.Time
	To           *time.Time
}

// ClaimFilter narrows claim listings.  Zero values mean "any".  For room
// reservations From/To select windows overlapping [From, To); for event
// bookings they select bookings whose event starts in [From, To).
type ClaimFilter struct {
	ResourceID   uint64
	HolderID     uint64
	RestaurantID uint64
	Status       booking.Status
	ActiveOnly   bool
	From         *time.Time
	To           *time.Time
}

// Store is everything the services need from persistence.
type Store interface {
	Rooms() Kind[*model.Room, *model.RoomReservation]
	Events() Kind[*model.Event, *model.EventBooking]

	ListRooms(ctx context.Context, f RoomFilter) ([]*model.Room, error)
	ListRoomReservations(ctx context.Context, f ClaimFilter) ([]*model.RoomReservation, error)
	ListEvents(ctx context.Context, f EventFilter) ([]*model.Event, error)
	ListEventBookings(ctx context.Context, f ClaimFilter) ([]*model.EventBooking, error)
	// BookedPax sums active pax per event.  Events without active
	// bookings are absent from the map.
	BookedPax(ctx context.Context, eventIDs ...uint64) (map[uint64]int, error)

	Ping(ctx context.Context) error
}
