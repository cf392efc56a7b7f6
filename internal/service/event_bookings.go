package service

import (
	"context"
	"strings"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
)

// EventBookingService runs the event booking lifecycle.
type EventBookingService struct {
	eng *engine[*model.Event, *model.EventBooking, booking.Headcount]
}

// EventBookingInput describes a new booking.  WalkIn lets staff enter a
// booking nobody holds (phone or walk-in guests); it is ignored for
// ordinary actors.
type EventBookingInput struct {
	Pax           int
	CustomerName  string
	CustomerPhone *string
	WalkIn        bool
}

// EventBookingChanges is a partial update; nil fields are left alone.
type EventBookingChanges struct {
	Pax           *int
	CustomerName  *string
	CustomerPhone *string
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", booking.InvalidInput("customer_name is required")
	}
	return name, nil
}

// Create books in.Pax seats at eventID.
func (s *EventBookingService) Create(ctx context.Context, actor booking.Actor, eventID uint64, in EventBookingInput) (*model.EventBooking, error) {
	if actor.ID == 0 {
		return nil, booking.ErrUnauthorized
	}
	if err := booking.Headcount(in.Pax).Validate(); err != nil {
		return nil, err
	}
	name, err := validName(in.CustomerName)
	if err != nil {
		return nil, err
	}
	b := &model.EventBooking{
		Pax:           in.Pax,
		CustomerName:  name,
		CustomerPhone: in.CustomerPhone,
	}
	if !(in.WalkIn && actor.IsAdmin()) {
		holder := actor.ID
		b.HolderID = &holder
	}
	return s.eng.create(ctx, actor, eventID, b)
}

// Update resizes a booking or edits its contact details.  A new pax is
// re-checked against the event ceiling with the booking's own seats
// excluded.
func (s *EventBookingService) Update(ctx context.Context, actor booking.Actor, id uint64, ch EventBookingChanges) (*model.EventBooking, error) {
	return s.eng.update(ctx, actor, id, func(_ *model.Event, b *model.EventBooking) error {
		if ch.Pax != nil {
			if err := booking.Headcount(*ch.Pax).Validate(); err != nil {
				return err
			}
			b.Pax = *ch.Pax
		}
		if ch.CustomerName != nil {
			name, err := validName(*ch.CustomerName)
			if err != nil {
				return err
			}
			b.CustomerName = name
		}
		if ch.CustomerPhone != nil {
			b.CustomerPhone = ch.CustomerPhone
		}
		return nil
	})
}

// TransitionStatus moves a booking along the event state machine.
func (s *EventBookingService) TransitionStatus(ctx context.Context, actor booking.Actor, id uint64, to booking.Status) (*model.EventBooking, error) {
	return s.eng.transition(ctx, actor, id, to)
}

// Cancel frees the booking's seats.
func (s *EventBookingService) Cancel(ctx context.Context, actor booking.Actor, id uint64) (*model.EventBooking, error) {
	return s.eng.transition(ctx, actor, id, booking.StatusCancelled)
}

// Get returns a booking visible to actor.
func (s *EventBookingService) Get(ctx context.Context, actor booking.Actor, id uint64) (*model.EventBooking, error) {
	b, err := s.eng.kind.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, b.HolderID) {
		return nil, booking.ErrUnauthorized
	}
	return b, nil
}
