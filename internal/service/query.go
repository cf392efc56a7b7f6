package service

import (
	"context"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/repository"
)

// QueryService serves read projections over claims.  Reads do not take
// resource locks and may lag a concurrent write.  Ordinary actors only
// ever see the claims they hold.
type QueryService struct {
	store repository.Store
}

func scope(actor booking.Actor, f repository.ClaimFilter) (repository.ClaimFilter, error) {
	if actor.IsAdmin() {
		return f, nil
	}
	if actor.ID == 0 {
		return f, booking.ErrUnauthorized
	}
	f.HolderID = actor.ID
	return f, nil
}

// RoomReservations lists reservations matching f.
func (q *QueryService) RoomReservations(ctx context.Context, actor booking.Actor, f repository.ClaimFilter) ([]*model.RoomReservation, error) {
	f, err := scope(actor, f)
	if err != nil {
		return nil, err
	}
	return q.store.ListRoomReservations(ctx, f)
}

// EventBookings lists bookings matching f.
func (q *QueryService) EventBookings(ctx context.Context, actor booking.Actor, f repository.ClaimFilter) ([]*model.EventBooking, error) {
	f, err := scope(actor, f)
	if err != nil {
		return nil, err
	}
	return q.store.ListEventBookings(ctx, f)
}
