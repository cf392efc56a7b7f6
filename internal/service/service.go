// Package service implements the reservation engine's operations on top of
// a repository.Store: the claim lifecycle for room reservations and event
// bookings, the room and event catalogs, and the read projections.
//
// Every mutation takes the acting booking.Actor explicitly.  Capacity is
// only ever decided inside the resource's critical section.
package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/metrics"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/queue"
	"github.com/vegnbio/reservation-engine/internal/repository"
)

// Deps are the collaborators shared by all services.  Only Store is
// required.
type Deps struct {
	Store    repository.Store
	Notifier Notifier
	Metrics  *metrics.Recorder
	Log      logrus.FieldLogger
	// Now is the clock; timestamps are kept in UTC at second precision.
	Now func() time.Time
}

// Services bundles every service built over one store.
type Services struct {
	Rooms        *RoomService
	Reservations *RoomReservationService
	Events       *EventService
	Bookings     *EventBookingService
	Query        *QueryService
}

// New wires all services.
func New(d Deps) *Services {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	clock := d.Now
	if clock == nil {
		clock = time.Now
	}
	now := func() time.Time { return clock().UTC().Truncate(time.Second) }

	roomEngine := &engine[*model.Room, *model.RoomReservation, booking.Window]{
		kind:     d.Store.Rooms(),
		machine:  booking.RoomMachine,
		name:     queue.KindRoomReservation,
		same:     func(a, b booking.Window) bool { return a.Start.Equal(b.Start) && a.End.Equal(b.End) },
		derive:   priceReservation,
		describe: describeReservation,
		notify:   d.Notifier,
		metrics:  d.Metrics,
		log:      d.Log,
		now:      now,
	}
	eventEngine := &engine[*model.Event, *model.EventBooking, booking.Headcount]{
		kind:     d.Store.Events(),
		machine:  booking.EventMachine,
		name:     queue.KindEventBooking,
		same:     func(a, b booking.Headcount) bool { return a == b },
		derive:   func(*model.Event, *model.EventBooking) {},
		describe: func(b *model.EventBooking, ev *queue.ClaimEvent) { ev.Pax = b.Pax },
		notify:   d.Notifier,
		metrics:  d.Metrics,
		log:      d.Log,
		now:      now,
	}

	return &Services{
		Rooms:        &RoomService{store: d.Store, log: d.Log, now: now},
		Reservations: &RoomReservationService{eng: roomEngine, store: d.Store, now: now},
		Events:       &EventService{store: d.Store, log: d.Log, now: now},
		Bookings:     &EventBookingService{eng: eventEngine},
		Query:        &QueryService{store: d.Store},
	}
}

func requireAdmin(actor booking.Actor) error {
	if !actor.IsAdmin() {
		return booking.ErrUnauthorized
	}
	return nil
}

// canRead reports whether actor may see a claim held by holderID.
func canRead(actor booking.Actor, holderID *uint64) bool {
	return actor.IsAdmin() || actor.Holds(holderID)
}

func utc(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

// own copies *p so a stored value never aliases caller memory.
func own[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
