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

// RoomService manages the room catalog.  Writes are staff-only.
type RoomService struct {
	store repository.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// RoomInput describes a new room.  An empty Status means AVAILABLE.
type RoomInput struct {
	RestaurantID    uint64
	Name            string
	Description     *string
	Capacity        int
	HourlyRateCents *int64
	HasWifi         bool
	HasPrinter      bool
	HasProjector    bool
	HasWhiteboard   bool
	Status          string
}

// RoomChanges is a partial update; nil fields are left alone.
type RoomChanges struct {
	Name            *string
	Description     *string
	Capacity        *int
	HourlyRateCents *int64
	HasWifi         *bool
	HasPrinter      *bool
	HasProjector    *bool
	HasWhiteboard   *bool
	Status          *string
}

func validateRoom(r *model.Room) error {
	r.Name = strings.TrimSpace(r.Name)
	switch {
	case r.RestaurantID == 0:
		return booking.InvalidInput("restaurant_id is required")
	case r.Name == "":
		return booking.InvalidInput("name is required")
	case r.Capacity < 0:
		return booking.InvalidInput("capacity must not be negative")
	case r.HourlyRateCents != nil && *r.HourlyRateCents < 0:
		return booking.InvalidInput("hourly_rate_cents must not be negative")
	case !model.ValidRoomStatus(r.Status):
		return booking.InvalidInput("unknown room status %q", r.Status)
	}
	return nil
}

// Create adds a room to a restaurant.
func (s *RoomService) Create(ctx context.Context, actor booking.Actor, in RoomInput) (*model.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now()
	r := &model.Room{
		RestaurantID:    in.RestaurantID,
		Name:            in.Name,
		Description:     in.Description,
		Capacity:        in.Capacity,
		HourlyRateCents: own(in.HourlyRateCents),
		HasWifi:         in.HasWifi,
		HasPrinter:      in.HasPrinter,
		HasProjector:    in.HasProjector,
		HasWhiteboard:   in.HasWhiteboard,
		Status:          strings.ToUpper(strings.TrimSpace(in.Status)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if r.Status == "" {
		r.Status = model.RoomAvailable
	}
	if err := validateRoom(r); err != nil {
		return nil, err
	}
	if err := s.store.Rooms().CreateResource(ctx, r); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"room_id": r.ID, "restaurant_id": r.RestaurantID}).Info("room created")
	return r, nil
}

// Update edits a room under its lock.  Rate changes apply to reservations
// created or updated afterwards; existing prices are not rewritten.
func (s *RoomService) Update(ctx context.Context, actor booking.Actor, id uint64, ch RoomChanges) (*model.Room, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	var out *model.Room
	err := s.store.Rooms().Locked(ctx, id, func(tx repository.ResourceTx[*model.Room, *model.RoomReservation], r *model.Room) error {
		if ch.Name != nil {
			r.Name = *ch.Name
		}
		if ch.Description != nil {
			r.Description = ch.Description
		}
		if ch.Capacity != nil {
			r.Capacity = *ch.Capacity
		}
		if ch.HourlyRateCents != nil {
			r.HourlyRateCents = own(ch.HourlyRateCents)
		}
		if ch.HasWifi != nil {
			r.HasWifi = *ch.HasWifi
		}
		if ch.HasPrinter != nil {
			r.HasPrinter = *ch.HasPrinter
		}
		if ch.HasProjector != nil {
			r.HasProjector = *ch.HasProjector
		}
		if ch.HasWhiteboard != nil {
			r.HasWhiteboard = *ch.HasWhiteboard
		}
		if ch.Status != nil {
			r.Status = strings.ToUpper(strings.TrimSpace(*ch.Status))
		}
		if err := validateRoom(r); err != nil {
			return err
		}
		r.UpdatedAt = s.now()
		out = r
		return tx.SaveResource(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a room.
func (s *RoomService) Get(ctx context.Context, id uint64) (*model.Room, error) {
	return s.store.Rooms().Resource(ctx, id)
}

// List returns the rooms matching f.
func (s *RoomService) List(ctx context.Context, f repository.RoomFilter) ([]*model.Room, error) {
	return s.store.ListRooms(ctx, f)
}

// Delete removes a room with no active reservations.  Its inactive
// history goes with it.
func (s *RoomService) Delete(ctx context.Context, actor booking.Actor, id uint64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	err := s.store.Rooms().Locked(ctx, id, func(tx repository.ResourceTx[*model.Room, *model.RoomReservation], _ *model.Room) error {
		active, err := tx.ActiveClaims(ctx)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return repository.ErrConflict
		}
		return tx.DeleteResource(ctx)
	})
	if err == nil {
		s.log.WithField("room_id", id).Info("room deleted")
	}
	return err
}
