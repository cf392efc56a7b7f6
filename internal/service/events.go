package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/repository"
)

// EventService manages the event catalog and its availability projection.
type EventService struct {
	store repository.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// EventInput describes a new event.  A nil Capacity means unconstrained.
type EventInput struct {
	RestaurantID uint64
	Title        string
	Type         *string
	StartsAt     time.Time
	EndsAt       *time.Time
	Capacity     *int
	Description  *string
}

// EventChanges is a partial update.  ClearCapacity removes the ceiling.
type EventChanges struct {
	Title         *string
	Type          *string
	StartsAt      *time.Time
	EndsAt        *time.Time
	Capacity      *int
	ClearCapacity bool
	Description   *string
}

func validateEvent(e *model.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	switch {
	case e.RestaurantID == 0:
		return booking.InvalidInput("restaurant_id is required")
	case e.Title == "":
		return booking.InvalidInput("title is required")
	case e.StartsAt.IsZero():
		return booking.InvalidInput("starts_at is required")
	case e.EndsAt != nil && !e.EndsAt.After(e.StartsAt):
		return booking.InvalidInput("ends_at must be after starts_at")
	case e.Capacity != nil && *e.Capacity <= 0:
		return booking.InvalidInput("capacity must be positive")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := utc(*t)
	return &v
}

// Create schedules a new ACTIVE event.
func (s *EventService) Create(ctx context.Context, actor booking.Actor, in EventInput) (*model.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now()
	e := &model.Event{
		RestaurantID: in.RestaurantID,
		Title:        in.Title,
		Type:         in.Type,
		StartsAt:     utc(in.StartsAt),
		EndsAt:       utcPtr(in.EndsAt),
		Capacity:     own(in.Capacity),
		Description:  in.Description,
		Status:       model.EventActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	if err := s.store.Events().CreateResource(ctx, e); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"event_id": e.ID, "restaurant_id": e.RestaurantID}).Info("event created")
	return e, nil
}

// Update edits an event under its lock.  Lowering the ceiling below the
// seats already held by active bookings fails with a capacity conflict.
func (s *EventService) Update(ctx context.Context, actor booking.Actor, id uint64, ch EventChanges) (*model.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var out *model.Event
	err := s.store.Events().Locked(ctx, id, func(tx repository.ResourceTx[*model.Event, *model.EventBooking], e *model.Event) error {
		if ch.Title != nil {
			e.Title = *ch.Title
		}
		if ch.Type != nil {
			e.Type = ch.Type
		}
		if ch.StartsAt != nil {
			e.StartsAt = utc(*ch.StartsAt)
		}
		if ch.EndsAt != nil {
			e.EndsAt = utcPtr(ch.EndsAt)
		}
		if ch.Description != nil {
			e.Description = ch.Description
		}
		if ch.ClearCapacity {
			e.Capacity = nil
		} else if ch.Capacity != nil {
			e.Capacity = own(ch.Capacity)
		}
		if err := validateEvent(e); err != nil {
			return err
		}
		if e.Capacity != nil {
			active, err := tx.ActiveClaims(ctx)
			if err != nil {
				return err
			}
			inUse := 0
			for _, b := range active {
				inUse += b.Pax
			}
			if inUse > *e.Capacity {
				return &booking.ConflictError{ResourceID: id, InUse: inUse, Limit: *e.Capacity}
			}
		}
		e.UpdatedAt = s.now()
		out = e
		return tx.SaveResource(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel marks an event CANCELLED.  It stops taking bookings; existing
// bookings keep their status for staff to resolve.
func (s *EventService) Cancel(ctx context.Context, actor booking.Actor, id uint64) (*model.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var out *model.Event
	err := s.store.Events().Locked(ctx, id, func(tx repository.ResourceTx[*model.Event, *model.EventBooking], e *model.Event) error {
		e.Status = model.EventCancelled
		e.UpdatedAt = s.now()
		out = e
		return tx.SaveResource(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("event_id", id).Info("event cancelled")
	return out, nil
}

// Delete removes an event with no active bookings.
func (s *EventService) Delete(ctx context.Context, actor booking.Actor, id uint64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.store.Events().Locked(ctx, id, func(tx repository.ResourceTx[*model.Event, *model.EventBooking], _ *model.Event) error {
		active, err := tx.ActiveClaims(ctx)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return repository.ErrConflict
		}
		return tx.DeleteResource(ctx)
	})
}

// Get returns an event with its availability.
func (s *EventService) Get(ctx context.Context, id uint64) (*model.EventAvailability, error) {
	e, err := s.store.Events().Resource(ctx, id)
	if err != nil {
		return nil, err
	}
	out, err := s.project(ctx, []*model.Event{e})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListByRestaurant returns a restaurant's active events, optionally those
// starting in [from, to).
func (s *EventService) ListByRestaurant(ctx context.Context, restaurantID uint64, from, to *time.Time) ([]model.EventAvailability, error) {
	events, err := s.store.ListEvents(ctx, repository.EventFilter{
		RestaurantID: restaurantID,
		ActiveOnly:   true,
		From:         utcPtr(from),
		To:           utcPtr(to),
	})
	if err != nil {
		return nil, err
	}
	return s.project(ctx, events)
}

// Upcoming returns active events across all restaurants starting at or
// after from.
func (s *EventService) Upcoming(ctx context.Context, from time.Time) ([]model.EventAvailability, error) {
	f := utc(from)
	events, err := s.store.ListEvents(ctx, repository.EventFilter{ActiveOnly: true, From: &f})
	if err != nil {
		return nil, err
	}
	return s.project(ctx, events)
}

// AvailableSpots returns capacity minus active pax (PENDING included), or
// nil for an unconstrained event.
func (s *EventService) AvailableSpots(ctx context.Context, id uint64) (*int, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.AvailableSpots, nil
}

func (s *EventService) project(ctx context.Context, events []*model.Event) ([]model.EventAvailability, error) {
	ids := make([]uint64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	booked, err := s.store.BookedPax(ctx, ids...)
	if err != nil {
		return nil, err
	}
	out := make([]model.EventAvailability, len(events))
	for i, e := range events {
		n := booked[e.ID]
		out[i] = model.EventAvailability{
			Event:          e,
			BookedPax:      n,
			AvailableSpots: booking.Ceiling{Max: e.Capacity}.Remaining([]booking.Holding[booking.Headcount]{{Amount: booking.Headcount(n)}}),
		}
	}
	return out, nil
}
