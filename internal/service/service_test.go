package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/database"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/queue"
	"github.com/vegnbio/reservation-engine/internal/repository"
	"github.com/vegnbio/reservation-engine/internal/repository/memstore"
)

var (
	admin = booking.Actor{ID: 1, Capability: booking.Administrative}
	alice = booking.Actor{ID: 10}
	bob   = booking.Actor{ID: 11}
)

func day(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []queue.ClaimEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev queue.ClaimEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) all() []queue.ClaimEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]queue.ClaimEvent(nil), n.events...)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func sqliteStore(t *testing.T) repository.Store {
	t.Helper()
	db, d, err := database.Open(database.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewSQLStore(&database.TxRunner{DB: db, Dialect: d, MaxRetries: 3, Backoff: time.Millisecond})
}

// serverStores holds stores backed by a database server.  It is filled
// only in integration builds.
var serverStores = map[string]func(*testing.T) repository.Store{}

// eachStore runs fn once per store implementation.
func eachStore(t *testing.T, fn func(t *testing.T, svc *Services, n *recordingNotifier)) {
	stores := map[string]func(*testing.T) repository.Store{
		"memory": func(*testing.T) repository.Store { return memstore.New() },
		"sqlite": sqliteStore,
	}
	for name, mk := range serverStores {
		stores[name] = mk
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			n := &recordingNotifier{}
			svc := New(Deps{
				Store:    mk(t),
				Notifier: n,
				Log:      quietLogger(),
				Now:      func() time.Time { return day(8, 0) },
			})
			fn(t, svc, n)
		})
	}
}

func seedRoom(t *testing.T, svc *Services, rate *int64) *model.Room {
	t.Helper()
	r, err := svc.Rooms.Create(context.Background(), admin, RoomInput{
		RestaurantID: 7, Name: "Garden Room", Capacity: 12, HourlyRateCents: rate, HasProjector: true,
	})
	if err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return r
}

func seedEvent(t *testing.T, svc *Services, capacity *int) *model.Event {
	t.Helper()
	e, err := svc.Events.Create(context.Background(), admin, EventInput{
		RestaurantID: 7, Title: "Tasting Night", StartsAt: day(19, 0), Capacity: capacity,
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

func reserve(ctx context.Context, svc *Services, who booking.Actor, roomID uint64, start, end time.Time) (*model.RoomReservation, error) {
	return svc.Reservations.Create(ctx, who, roomID, RoomReservationInput{Start: start, End: end})
}

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func TestRoomOverlapRejected(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		first, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(12, 0))
		if err != nil {
			t.Fatal(err)
		}
		if first.Status != booking.StatusPending {
			t.Fatalf("status = %s, want PENDING", first.Status)
		}
		_, err = reserve(ctx, svc, bob, room.ID, day(11, 0), day(13, 0))
		var ce *booking.ConflictError
		if !errors.As(err, &ce) {
			t.Fatalf("err = %v, want conflict", err)
		}
		if len(ce.Conflicts) != 1 || ce.Conflicts[0] != first.ID {
			t.Fatalf("conflicts = %v, want [%d]", ce.Conflicts, first.ID)
		}
	})
}

func TestRoomHalfOpenBoundary(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		if _, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(12, 0)); err != nil {
			t.Fatal(err)
		}
		if _, err := reserve(ctx, svc, bob, room.ID, day(12, 0), day(14, 0)); err != nil {
			t.Fatalf("touching windows must not conflict: %v", err)
		}
		if _, err := reserve(ctx, svc, bob, room.ID, day(8, 0), day(10, 0)); err != nil {
			t.Fatalf("touching windows must not conflict: %v", err)
		}
	})
}

func TestRoomCreateRejections(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		if _, err := reserve(ctx, svc, alice, 9999, day(10, 0), day(11, 0)); !errors.Is(err, booking.ErrResourceNotFound) {
			t.Fatalf("unknown room err = %v", err)
		}
		if _, err := reserve(ctx, svc, alice, room.ID, day(11, 0), day(10, 0)); !errors.Is(err, booking.ErrInvalidInput) {
			t.Fatalf("reversed window err = %v", err)
		}
		if _, err := reserve(ctx, svc, booking.Actor{}, room.ID, day(10, 0), day(11, 0)); !errors.Is(err, booking.ErrUnauthorized) {
			t.Fatalf("anonymous err = %v", err)
		}
		maint := model.RoomMaintenance
		if _, err := svc.Rooms.Update(ctx, admin, room.ID, RoomChanges{Status: &maint}); err != nil {
			t.Fatal(err)
		}
		if _, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(11, 0)); !errors.Is(err, booking.ErrResourceUnavailable) {
			t.Fatalf("maintenance room err = %v", err)
		}
	})
}

func TestUpdateExcludesOwnClaimAndReprices(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, int64p(2500))
		rr, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(12, 0))
		if err != nil {
			t.Fatal(err)
		}
		if rr.TotalPriceCents != 5000 {
			t.Fatalf("price = %d, want 5000", rr.TotalPriceCents)
		}
		end := day(13, 30)
		moved, err := svc.Reservations.Update(ctx, alice, rr.ID, RoomReservationChanges{End: &end})
		if err != nil {
			t.Fatalf("extending own reservation must not conflict with itself: %v", err)
		}
		if moved.TotalPriceCents != 7500 {
			t.Fatalf("price after extend = %d, want 7500 (partial hour floored)", moved.TotalPriceCents)
		}
		back := day(12, 0)
		reverted, err := svc.Reservations.Update(ctx, alice, rr.ID, RoomReservationChanges{End: &back})
		if err != nil {
			t.Fatal(err)
		}
		if reverted.TotalPriceCents != 5000 {
			t.Fatalf("price after revert = %d, want 5000", reverted.TotalPriceCents)
		}
		got, err := svc.Reservations.Get(ctx, alice, rr.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.CreatedAt.Equal(rr.CreatedAt) || got.TotalPriceCents != 5000 {
			t.Fatalf("stored reservation = %+v", got)
		}
	})
}

func TestUpdateIntoOtherWindowConflicts(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		if _, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(12, 0)); err != nil {
			t.Fatal(err)
		}
		mine, err := reserve(ctx, svc, bob, room.ID, day(13, 0), day(14, 0))
		if err != nil {
			t.Fatal(err)
		}
		start := day(11, 0)
		if _, err := svc.Reservations.Update(ctx, bob, mine.ID, RoomReservationChanges{Start: &start}); !errors.Is(err, booking.ErrCapacityConflict) {
			t.Fatalf("err = %v, want conflict", err)
		}
		notes := "window seat"
		if _, err := svc.Reservations.Update(ctx, alice, mine.ID, RoomReservationChanges{Notes: &notes}); !errors.Is(err, booking.ErrUnauthorized) {
			t.Fatalf("non-holder update err = %v", err)
		}
	})
}

func TestEventCapacityExhaustion(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		ev := seedEvent(t, svc, intp(20))
		for _, pax := range []int{10, 8} {
			if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: pax, CustomerName: "Alice"}); err != nil {
				t.Fatal(err)
			}
		}
		_, err := svc.Bookings.Create(ctx, bob, ev.ID, EventBookingInput{Pax: 3, CustomerName: "Bob"})
		var ce *booking.ConflictError
		if !errors.As(err, &ce) || ce.Excess() != 1 {
			t.Fatalf("err = %v, want conflict exceeding by 1", err)
		}
		if _, err := svc.Bookings.Create(ctx, bob, ev.ID, EventBookingInput{Pax: 2, CustomerName: "Bob"}); err != nil {
			t.Fatalf("18+2 must fit: %v", err)
		}
		spots, err := svc.Events.AvailableSpots(ctx, ev.ID)
		if err != nil || spots == nil || *spots != 0 {
			t.Fatalf("spots = %v err = %v", spots, err)
		}
	})
}

func TestReturnedEventCannotRaiseCeiling(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		capacity := 2
		ev := seedEvent(t, svc, &capacity)
		capacity = 500
		*ev.Capacity = 700
		got, err := svc.Events.Get(ctx, ev.ID)
		if err != nil {
			t.Fatal(err)
		}
		*got.Event.Capacity = 1000

		accepted := 0
		for i := 0; i < 5; i++ {
			if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 1, CustomerName: "Alice"}); err == nil {
				accepted++
			} else if !errors.Is(err, booking.ErrCapacityConflict) {
				t.Fatalf("booking %d: %v", i, err)
			}
		}
		if accepted != 2 {
			t.Fatalf("accepted %d bookings, want 2", accepted)
		}
		spots, err := svc.Events.AvailableSpots(ctx, ev.ID)
		if err != nil || spots == nil || *spots != 0 {
			t.Fatalf("spots = %v err = %v", spots, err)
		}
	})
}

func TestEventBookingValidation(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		ev := seedEvent(t, svc, nil)
		if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 0, CustomerName: "A"}); !errors.Is(err, booking.ErrInvalidInput) {
			t.Fatalf("zero pax err = %v", err)
		}
		if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 2, CustomerName: "  "}); !errors.Is(err, booking.ErrInvalidInput) {
			t.Fatalf("blank name err = %v", err)
		}
		if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 500, CustomerName: "A"}); err != nil {
			t.Fatalf("unconstrained event must accept any pax: %v", err)
		}
		if _, err := svc.Events.Cancel(ctx, admin, ev.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 1, CustomerName: "A"}); !errors.Is(err, booking.ErrResourceUnavailable) {
			t.Fatalf("cancelled event err = %v", err)
		}
	})
}

func TestCancellationFreesCapacity(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		rr, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(12, 0))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Reservations.Cancel(ctx, bob, rr.ID); !errors.Is(err, booking.ErrUnauthorized) {
			t.Fatalf("non-holder cancel err = %v", err)
		}
		if _, err := svc.Reservations.Cancel(ctx, alice, rr.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := reserve(ctx, svc, bob, room.ID, day(10, 0), day(12, 0)); err != nil {
			t.Fatalf("window should be free after cancel: %v", err)
		}

		ev := seedEvent(t, svc, intp(5))
		b, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 5, CustomerName: "Alice"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Bookings.Create(ctx, bob, ev.ID, EventBookingInput{Pax: 1, CustomerName: "Bob"}); !errors.Is(err, booking.ErrCapacityConflict) {
			t.Fatalf("full event err = %v", err)
		}
		if _, err := svc.Bookings.Cancel(ctx, alice, b.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Bookings.Create(ctx, bob, ev.ID, EventBookingInput{Pax: 5, CustomerName: "Bob"}); err != nil {
			t.Fatalf("seats should be free after cancel: %v", err)
		}
	})
}

func TestRoomTransitions(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, n *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		rr, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(12, 0))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Reservations.TransitionStatus(ctx, admin, rr.ID, booking.StatusCompleted); !errors.Is(err, booking.ErrInvalidTransition) {
			t.Fatalf("PENDING->COMPLETED err = %v", err)
		}
		if _, err := svc.Reservations.TransitionStatus(ctx, alice, rr.ID, booking.StatusConfirmed); !errors.Is(err, booking.ErrUnauthorized) {
			t.Fatalf("holder confirm err = %v", err)
		}
		if _, err := svc.Reservations.TransitionStatus(ctx, admin, rr.ID, booking.StatusConfirmed); err != nil {
			t.Fatal(err)
		}
		done, err := svc.Reservations.TransitionStatus(ctx, admin, rr.ID, booking.StatusCompleted)
		if err != nil {
			t.Fatal(err)
		}
		if done.Status != booking.StatusCompleted {
			t.Fatalf("status = %s", done.Status)
		}
		if _, err := svc.Reservations.Cancel(ctx, alice, rr.ID); !errors.Is(err, booking.ErrInvalidTransition) {
			t.Fatalf("cancel after completion err = %v", err)
		}
		notes := "late"
		if _, err := svc.Reservations.Update(ctx, alice, rr.ID, RoomReservationChanges{Notes: &notes}); !errors.Is(err, booking.ErrInvalidTransition) {
			t.Fatalf("terminal claims are immutable, err = %v", err)
		}
		if _, err := svc.Reservations.TransitionStatus(ctx, admin, 4242, booking.StatusConfirmed); !errors.Is(err, booking.ErrClaimNotFound) {
			t.Fatalf("unknown claim err = %v", err)
		}

		evs := n.all()
		if len(evs) != 3 {
			t.Fatalf("published %d events, want 3", len(evs))
		}
		last := evs[2]
		if last.Action != queue.ActionStatus || last.FromStatus != "CONFIRMED" || last.Status != "COMPLETED" {
			t.Fatalf("last event = %+v", last)
		}
	})
}

func TestEventTransitions(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		ev := seedEvent(t, svc, intp(4))
		b, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 4, CustomerName: "Alice"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Bookings.TransitionStatus(ctx, admin, b.ID, booking.StatusNoShow); !errors.Is(err, booking.ErrInvalidTransition) {
			t.Fatalf("event NO_SHOW err = %v", err)
		}
		if _, err := svc.Bookings.TransitionStatus(ctx, admin, b.ID, booking.StatusRejected); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Bookings.Create(ctx, bob, ev.ID, EventBookingInput{Pax: 4, CustomerName: "Bob"}); err != nil {
			t.Fatalf("rejected booking must free its seats: %v", err)
		}
	})
}

func TestWalkInBooking(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		ev := seedEvent(t, svc, nil)
		b, err := svc.Bookings.Create(ctx, admin, ev.ID, EventBookingInput{Pax: 3, CustomerName: "Walk-in", WalkIn: true})
		if err != nil {
			t.Fatal(err)
		}
		if b.HolderID != nil {
			t.Fatalf("walk-in holder = %d, want nil", *b.HolderID)
		}
		if _, err := svc.Bookings.Cancel(ctx, alice, b.ID); !errors.Is(err, booking.ErrUnauthorized) {
			t.Fatalf("nobody but staff may cancel a walk-in, err = %v", err)
		}
		own, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 1, CustomerName: "Alice", WalkIn: true})
		if err != nil {
			t.Fatal(err)
		}
		if own.HolderID == nil || *own.HolderID != alice.ID {
			t.Fatal("ordinary actors always hold their bookings")
		}
	})
}

func TestEventCapacityReduction(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		ev := seedEvent(t, svc, intp(20))
		if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 12, CustomerName: "Alice"}); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Events.Update(ctx, admin, ev.ID, EventChanges{Capacity: intp(10)}); !errors.Is(err, booking.ErrCapacityConflict) {
			t.Fatalf("shrinking below active pax err = %v", err)
		}
		up, err := svc.Events.Update(ctx, admin, ev.ID, EventChanges{Capacity: intp(12)})
		if err != nil {
			t.Fatal(err)
		}
		if *up.Capacity != 12 {
			t.Fatalf("capacity = %d", *up.Capacity)
		}
		if _, err := svc.Events.Update(ctx, alice, ev.ID, EventChanges{ClearCapacity: true}); !errors.Is(err, booking.ErrUnauthorized) {
			t.Fatalf("ordinary actor edit err = %v", err)
		}
	})
}

func TestDeleteGuardedByActiveClaims(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		rr, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(11, 0))
		if err != nil {
			t.Fatal(err)
		}
		if err := svc.Rooms.Delete(ctx, admin, room.ID); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("delete with active reservation err = %v", err)
		}
		if _, err := svc.Reservations.Cancel(ctx, alice, rr.ID); err != nil {
			t.Fatal(err)
		}
		if err := svc.Rooms.Delete(ctx, admin, room.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Rooms.Get(ctx, room.ID); !errors.Is(err, booking.ErrResourceNotFound) {
			t.Fatalf("deleted room err = %v", err)
		}

		ev := seedEvent(t, svc, nil)
		if _, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 1, CustomerName: "A"}); err != nil {
			t.Fatal(err)
		}
		if err := svc.Events.Delete(ctx, admin, ev.ID); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("delete event with bookings err = %v", err)
		}
	})
}

func TestAvailableSpotsCountsPending(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		ev := seedEvent(t, svc, intp(30))
		open := seedEvent(t, svc, nil)
		b, err := svc.Bookings.Create(ctx, alice, ev.ID, EventBookingInput{Pax: 6, CustomerName: "Alice"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Bookings.TransitionStatus(ctx, admin, b.ID, booking.StatusConfirmed); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Bookings.Create(ctx, bob, ev.ID, EventBookingInput{Pax: 4, CustomerName: "Bob"}); err != nil {
			t.Fatal(err)
		}
		list, err := svc.Events.ListByRestaurant(ctx, 7, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 {
			t.Fatalf("events = %d", len(list))
		}
		for _, a := range list {
			switch a.Event.ID {
			case ev.ID:
				if a.BookedPax != 10 || a.AvailableSpots == nil || *a.AvailableSpots != 20 {
					t.Fatalf("projection = %+v", a)
				}
			case open.ID:
				if a.AvailableSpots != nil {
					t.Fatal("unconstrained event has no spot count")
				}
			}
		}
		from := day(20, 0)
		later, err := svc.Events.Upcoming(ctx, from)
		if err != nil || len(later) != 0 {
			t.Fatalf("upcoming after start = %d, %v", len(later), err)
		}
	})
}

func TestQueryScopesOrdinaryActors(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		if _, err := reserve(ctx, svc, alice, room.ID, day(9, 0), day(10, 0)); err != nil {
			t.Fatal(err)
		}
		if _, err := reserve(ctx, svc, bob, room.ID, day(10, 0), day(11, 0)); err != nil {
			t.Fatal(err)
		}
		mine, err := svc.Query.RoomReservations(ctx, alice, repository.ClaimFilter{ResourceID: room.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(mine) != 1 || *mine[0].HolderID != alice.ID {
			t.Fatalf("alice sees %d reservations", len(mine))
		}
		all, err := svc.Query.RoomReservations(ctx, admin, repository.ClaimFilter{RestaurantID: 7})
		if err != nil || len(all) != 2 {
			t.Fatalf("admin sees %d, err %v", len(all), err)
		}
		from, to := day(10, 30), day(12, 0)
		ranged, err := svc.Query.RoomReservations(ctx, admin, repository.ClaimFilter{From: &from, To: &to})
		if err != nil || len(ranged) != 1 {
			t.Fatalf("range overlap returned %d, err %v", len(ranged), err)
		}
		if _, err := svc.Reservations.Get(ctx, bob, mine[0].ID); !errors.Is(err, booking.ErrUnauthorized) {
			t.Fatalf("bob reading alice's reservation err = %v", err)
		}
	})
}

func TestCheckAvailability(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		rr, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(12, 0))
		if err != nil {
			t.Fatal(err)
		}
		res, err := svc.Reservations.CheckAvailability(ctx, room.ID, booking.Window{Start: day(11, 0), End: day(11, 30)})
		if err != nil {
			t.Fatal(err)
		}
		if res.OK || len(res.Conflicts) != 1 || res.Conflicts[0] != rr.ID {
			t.Fatalf("result = %+v", res)
		}
		res, err = svc.Reservations.CheckAvailability(ctx, room.ID, booking.Window{Start: day(12, 0), End: day(13, 0)})
		if err != nil || !res.OK {
			t.Fatalf("free window result = %+v err = %v", res, err)
		}
	})
}

func TestConcurrentRoomCreatesAdmitExactlyOne(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, nil)
		const n = 16
		var wg sync.WaitGroup
		var mu sync.Mutex
		ok, conflicts := 0, 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				who := booking.Actor{ID: uint64(100 + i)}
				// every window overlaps 10:00-10:30
				_, err := reserve(ctx, svc, who, room.ID, day(9, 30+i%30), day(10, 30+i%30))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case errors.Is(err, booking.ErrCapacityConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		if ok != 1 || conflicts != n-1 {
			t.Fatalf("ok = %d conflicts = %d, want exactly one success", ok, conflicts)
		}
	})
}

func TestConcurrentEventBookingsNeverOversell(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, _ *recordingNotifier) {
		ctx := context.Background()
		ev := seedEvent(t, svc, intp(10))
		const n = 25
		var wg sync.WaitGroup
		var mu sync.Mutex
		ok := 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := svc.Bookings.Create(ctx, booking.Actor{ID: uint64(200 + i)}, ev.ID, EventBookingInput{Pax: 1, CustomerName: "Guest"})
				if err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				} else if !errors.Is(err, booking.ErrCapacityConflict) {
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()
		if ok != 10 {
			t.Fatalf("accepted %d bookings, want exactly 10", ok)
		}
		spots, err := svc.Events.AvailableSpots(ctx, ev.ID)
		if err != nil || *spots != 0 {
			t.Fatalf("spots = %v err = %v", spots, err)
		}
	})
}
