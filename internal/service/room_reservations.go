package service

import (
	"context"
	"time"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/queue"
	"github.com/vegnbio/reservation-engine/internal/repository"
)

// RoomReservationService runs the room reservation lifecycle.
type RoomReservationService struct {
	eng   *engine[*model.Room, *model.RoomReservation, booking.Window]
	store repository.Store
	now   func() time.Time
}

// RoomReservationInput describes a new reservation.
type RoomReservationInput struct {
	Start               time.Time
	End                 time.Time
	Purpose             *string
	AttendeesCount      *int
	SpecialRequirements *string
	Notes               *string
}

// RoomReservationChanges is a partial update; nil fields are left alone.
type RoomReservationChanges struct {
	Start               *time.Time
	End                 *time.Time
	Purpose             *string
	AttendeesCount      *int
	SpecialRequirements *string
	Notes               *string
}

func priceReservation(room *model.Room, rr *model.RoomReservation) {
	rr.TotalPriceCents = booking.ComputePrice(room.HourlyRateCents, rr.Window)
}

func describeReservation(rr *model.RoomReservation, ev *queue.ClaimEvent) {
	ev.StartsAt = rr.Window.Start.UTC().Format(time.RFC3339)
	ev.EndsAt = rr.Window.End.UTC().Format(time.RFC3339)
	ev.TotalPriceCents = rr.TotalPriceCents
}

func validAttendees(n *int) error {
	if n != nil && *n <= 0 {
		return booking.InvalidInput("attendees_count must be positive")
	}
	return nil
}

// Create books roomID for in's window on behalf of actor, who becomes the
// holder.  The reservation starts PENDING with its price computed from the
// room's hourly rate.
func (s *RoomReservationService) Create(ctx context.Context, actor booking.Actor, roomID uint64, in RoomReservationInput) (*model.RoomReservation, error) {
	if actor.ID == 0 {
		return nil, booking.ErrUnauthorized
	}
	w := booking.Window{Start: utc(in.Start), End: utc(in.End)}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := validAttendees(in.AttendeesCount); err != nil {
		return nil, err
	}
	holder := actor.ID
	rr := &model.RoomReservation{
		ClaimHeader:         model.ClaimHeader{HolderID: &holder},
		Window:              w,
		Purpose:             in.Purpose,
		AttendeesCount:      in.AttendeesCount,
		SpecialRequirements: in.SpecialRequirements,
		Notes:               in.Notes,
		ReservedAt:          s.now(),
	}
	return s.eng.create(ctx, actor, roomID, rr)
}

// Update changes a reservation's window or details.  A new window is
// re-checked against the room's other active reservations and repriced.
func (s *RoomReservationService) Update(ctx context.Context, actor booking.Actor, id uint64, ch RoomReservationChanges) (*model.RoomReservation, error) {
	return s.eng.update(ctx, actor, id, func(_ *model.Room, rr *model.RoomReservation) error {
		w := rr.Window
		if ch.Start != nil {
			w.Start = utc(*ch.Start)
		}
		if ch.End != nil {
			w.End = utc(*ch.End)
		}
		if err := w.Validate(); err != nil {
			return err
		}
		if err := validAttendees(ch.AttendeesCount); err != nil {
			return err
		}
		rr.Window = w
		if ch.Purpose != nil {
			rr.Purpose = ch.Purpose
		}
		if ch.AttendeesCount != nil {
			rr.AttendeesCount = ch.AttendeesCount
		}
		if ch.SpecialRequirements != nil {
			rr.SpecialRequirements = ch.SpecialRequirements
		}
		if ch.Notes != nil {
			rr.Notes = ch.Notes
		}
		return nil
	})
}

// TransitionStatus moves a reservation along the room state machine.
func (s *RoomReservationService) TransitionStatus(ctx context.Context, actor booking.Actor, id uint64, to booking.Status) (*model.RoomReservation, error) {
	return s.eng.transition(ctx, actor, id, to)
}

// Cancel releases the reservation's window.  It never re-checks capacity.
func (s *RoomReservationService) Cancel(ctx context.Context, actor booking.Actor, id uint64) (*model.RoomReservation, error) {
	return s.eng.transition(ctx, actor, id, booking.StatusCancelled)
}

// Get returns a reservation visible to actor.
func (s *RoomReservationService) Get(ctx context.Context, actor booking.Actor, id uint64) (*model.RoomReservation, error) {
	rr, err := s.eng.kind.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, rr.HolderID) {
		return nil, booking.ErrUnauthorized
	}
	return rr, nil
}

// CheckAvailability reports whether w is free on roomID right now.  The
// answer is advisory: only Create decides, under the room's lock.
func (s *RoomReservationService) CheckAvailability(ctx context.Context, roomID uint64, w booking.Window) (booking.Result, error) {
	w = booking.Window{Start: utc(w.Start), End: utc(w.End)}
	if err := w.Validate(); err != nil {
		return booking.Result{}, err
	}
	room, err := s.store.Rooms().Resource(ctx, roomID)
	if err != nil {
		return booking.Result{}, err
	}
	active, err := s.store.ListRoomReservations(ctx, repository.ClaimFilter{ResourceID: roomID, ActiveOnly: true})
	if err != nil {
		return booking.Result{}, err
	}
	return booking.Check[booking.Window](room.Policy(), room.Bookable(), holdings[*model.RoomReservation, booking.Window](active), w, 0), nil
}
