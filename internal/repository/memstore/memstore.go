// Package memstore is an in-process implementation of repository.Store.
// Each resource has its own mutex, so critical sections on different rooms
// or events run in parallel while claims on the same resource serialise.
// Values are copied on the way in and out; callers never share memory
// with the store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/repository"
)

// keyedLocks hands out one mutex per resource id.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func (k *keyedLocks) get(id uint64) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[uint64]*sync.Mutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	return l
}

// Store keeps rooms, events and claims in maps guarded by one RWMutex for
// data access, plus a per-resource mutex for critical sections.
type Store struct {
	mu sync.RWMutex

	rooms        map[uint64]*model.Room
	reservations map[uint64]*model.RoomReservation
	events       map[uint64]*model.Event
	bookings     map[uint64]*model.EventBooking

	nextRoom, nextReservation, nextEvent, nextBooking uint64

	roomLocks  keyedLocks
	eventLocks keyedLocks
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		rooms:        make(map[uint64]*model.Room),
		reservations: make(map[uint64]*model.RoomReservation),
		events:       make(map[uint64]*model.Event),
		bookings:     make(map[uint64]*model.EventBooking),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Rooms() repository.Kind[*model.Room, *model.RoomReservation] { return roomKind{s} }

func (s *Store) Events() repository.Kind[*model.Event, *model.EventBooking] { return eventKind{s} }

func ptr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRoom(r *model.Room) *model.Room {
	c := *r
	c.Description = ptr(r.Description)
	c.HourlyRateCents = ptr(r.HourlyRateCents)
	return &c
}

func cloneHeader(h *model.ClaimHeader) {
	h.HolderID = ptr(h.HolderID)
}

func cloneReservation(r *model.RoomReservation) *model.RoomReservation {
	c := *r
	cloneHeader(&c.ClaimHeader)
	c.Purpose = ptr(r.Purpose)
	c.AttendeesCount = ptr(r.AttendeesCount)
	c.SpecialRequirements = ptr(r.SpecialRequirements)
	c.Notes = ptr(r.Notes)
	return &c
}

func cloneEvent(e *model.Event) *model.Event {
	c := *e
	c.Type = ptr(e.Type)
	c.EndsAt = ptr(e.EndsAt)
	c.Capacity = ptr(e.Capacity)
	c.Description = ptr(e.Description)
	return &c
}

func cloneBooking(b *model.EventBooking) *model.EventBooking {
	c := *b
	cloneHeader(&c.ClaimHeader)
	c.CustomerPhone = ptr(b.CustomerPhone)
	return &c
}

func (s *Store) ListRooms(_ context.Context, f repository.RoomFilter) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Room
	for _, r := range s.rooms {
		if f.RestaurantID != 0 && r.RestaurantID != f.RestaurantID {
			continue
		}
		if f.AvailableOnly && r.Status != model.RoomAvailable {
			continue
		}
		if f.MinCapacity > 0 && r.Capacity < f.MinCapacity {
			continue
		}
		out = append(out, cloneRoom(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchClaim(h *model.ClaimHeader, f repository.ClaimFilter) bool {
	if f.ResourceID != 0 && h.ResourceID != f.ResourceID {
		return false
	}
	if f.HolderID != 0 && (h.HolderID == nil || *h.HolderID != f.HolderID) {
		return false
	}
	if f.Status != "" && h.Status != f.Status {
		return false
	}
	if f.ActiveOnly && !h.Status.Active() {
		return false
	}
	return true
}

func (s *Store) ListRoomReservations(_ context.Context, f repository.ClaimFilter) ([]*model.RoomReservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.RoomReservation
	for _, rr := range s.reservations {
		if !matchClaim(&rr.ClaimHeader, f) {
			continue
		}
		if f.RestaurantID != 0 {
			room, ok := s.rooms[rr.ResourceID]
			if !ok || room.RestaurantID != f.RestaurantID {
				continue
			}
		}
		if f.To != nil && !rr.Window.Start.Before(*f.To) {
			continue
		}
		if f.From != nil && !rr.Window.End.After(*f.From) {
			continue
		}
		out = append(out, cloneReservation(rr))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Window.Start.Equal(out[j].Window.Start) {
			return out[i].Window.Start.Before(out[j].Window.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListEvents(_ context.Context, f repository.EventFilter) ([]*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Event
	for _, e := range s.events {
		if f.RestaurantID != 0 && e.RestaurantID != f.RestaurantID {
			continue
		}
		if f.ActiveOnly && e.Status != model.EventActive {
			continue
		}
		if f.From != nil && e.StartsAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.StartsAt.Before(*f.To) {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListEventBookings(_ context.Context, f repository.ClaimFilter) ([]*model.EventBooking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.EventBooking
	for _, b := range s.bookings {
		if !matchClaim(&b.ClaimHeader, f) {
			continue
		}
		if f.RestaurantID != 0 || f.From != nil || f.To != nil {
			ev, ok := s.events[b.ResourceID]
			if !ok {
				continue
			}
			if f.RestaurantID != 0 && ev.RestaurantID != f.RestaurantID {
				continue
			}
			if f.From != nil && ev.StartsAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !ev.StartsAt.Before(*f.To) {
				continue
			}
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) BookedPax(_ context.Context, eventIDs ...uint64) (map[uint64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[uint64]bool, len(eventIDs))
	for _, id := range eventIDs {
		want[id] = true
	}
	out := make(map[uint64]int)
	for _, b := range s.bookings {
		if want[b.ResourceID] && b.Status.Active() {
			out[b.ResourceID] += b.Pax
		}
	}
	return out, nil
}

// ---- rooms ----

type roomKind struct{ s *Store }

func (k roomKind) Locked(ctx context.Context, roomID uint64, fn func(repository.ResourceTx[*model.Room, *model.RoomReservation], *model.Room) error) error {
	l := k.s.roomLocks.get(roomID)
	l.Lock()
	defer l.Unlock()
	room, err := k.Resource(ctx, roomID)
	if err != nil {
		return err
	}
	return fn(&roomTx{s: k.s, roomID: roomID}, room)
}

func (k roomKind) CreateResource(_ context.Context, r *model.Room) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	k.s.nextRoom++
	r.ID = k.s.nextRoom
	k.s.rooms[r.ID] = cloneRoom(r)
	return nil
}

func (k roomKind) Resource(_ context.Context, id uint64) (*model.Room, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()
	r, ok := k.s.rooms[id]
	if !ok {
		return nil, booking.ErrResourceNotFound
	}
	return cloneRoom(r), nil
}

func (k roomKind) Claim(_ context.Context, id uint64) (*model.RoomReservation, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()
	rr, ok := k.s.reservations[id]
	if !ok {
		return nil, booking.ErrClaimNotFound
	}
	return cloneReservation(rr), nil
}

type roomTx struct {
	s      *Store
	roomID uint64
}

func (t *roomTx) SaveResource(_ context.Context, r *model.Room) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c := cloneRoom(r)
	c.ID = t.roomID
	t.s.rooms[t.roomID] = c
	return nil
}

func (t *roomTx) DeleteResource(context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, rr := range t.s.reservations {
		if rr.ResourceID == t.roomID {
			delete(t.s.reservations, id)
		}
	}
	delete(t.s.rooms, t.roomID)
	return nil
}

func (t *roomTx) ActiveClaims(ctx context.Context) ([]*model.RoomReservation, error) {
	return t.s.ListRoomReservations(ctx, repository.ClaimFilter{ResourceID: t.roomID, ActiveOnly: true})
}

func (t *roomTx) Claim(ctx context.Context, id uint64) (*model.RoomReservation, error) {
	rr, err := roomKind{t.s}.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if rr.ResourceID != t.roomID {
		return nil, booking.ErrClaimNotFound
	}
	return rr, nil
}

func (t *roomTx) InsertClaim(_ context.Context, rr *model.RoomReservation) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.nextReservation++
	rr.ID = t.s.nextReservation
	rr.ResourceID = t.roomID
	t.s.reservations[rr.ID] = cloneReservation(rr)
	return nil
}

func (t *roomTx) UpdateClaim(_ context.Context, rr *model.RoomReservation) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.reservations[rr.ID]
	if !ok || cur.ResourceID != t.roomID {
		return booking.ErrClaimNotFound
	}
	t.s.reservations[rr.ID] = cloneReservation(rr)
	return nil
}

// ---- events ----

type eventKind struct{ s *Store }

func (k eventKind) Locked(ctx context.Context, eventID uint64, fn func(repository.ResourceTx[*model.Event, *model.EventBooking], *model.Event) error) error {
	l := k.s.eventLocks.get(eventID)
	l.Lock()
	defer l.Unlock()
	ev, err := k.Resource(ctx, eventID)
	if err != nil {
		return err
	}
	return fn(&eventTx{s: k.s, eventID: eventID}, ev)
}

func (k eventKind) CreateResource(_ context.Context, e *model.Event) error {
	k.s.mu.Lock()
	defer k.s.mu.Unlock()
	k.s.nextEvent++
	e.ID = k.s.nextEvent
	k.s.events[e.ID] = cloneEvent(e)
	return nil
}

func (k eventKind) Resource(_ context.Context, id uint64) (*model.Event, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()
	e, ok := k.s.events[id]
	if !ok {
		return nil, booking.ErrResourceNotFound
	}
	return cloneEvent(e), nil
}

func (k eventKind) Claim(_ context.Context, id uint64) (*model.EventBooking, error) {
	k.s.mu.RLock()
	defer k.s.mu.RUnlock()
	b, ok := k.s.bookings[id]
	if !ok {
		return nil, booking.ErrClaimNotFound
	}
	return cloneBooking(b), nil
}

type eventTx struct {
	s       *Store
	eventID uint64
}

func (t *eventTx) SaveResource(_ context.Context, e *model.Event) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	c := cloneEvent(e)
	c.ID = t.eventID
	t.s.events[t.eventID] = c
	return nil
}

func (t *eventTx) DeleteResource(context.Context) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, b := range t.s.bookings {
		if b.ResourceID == t.eventID {
			delete(t.s.bookings, id)
		}
	}
	delete(t.s.events, t.eventID)
	return nil
}

func (t *eventTx) ActiveClaims(ctx context.Context) ([]*model.EventBooking, error) {
	return t.s.ListEventBookings(ctx, repository.ClaimFilter{ResourceID: t.eventID, ActiveOnly: true})
}

func (t *eventTx) Claim(ctx context.Context, id uint64) (*model.EventBooking, error) {
	b, err := eventKind{t.s}.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ResourceID != t.eventID {
		return nil, booking.ErrClaimNotFound
	}
	return b, nil
}

func (t *eventTx) InsertClaim(_ context.Context, b *model.EventBooking) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.nextBooking++
	b.ID = t.s.nextBooking
	b.ResourceID = t.eventID
	t.s.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (t *eventTx) UpdateClaim(_ context.Context, b *model.EventBooking) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.bookings[b.ID]
	if !ok || cur.ResourceID != t.eventID {
		return booking.ErrClaimNotFound
	}
	t.s.bookings[b.ID] = cloneBooking(b)
	return nil
}
