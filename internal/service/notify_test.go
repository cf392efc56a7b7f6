package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vegnbio/reservation-engine/internal/queue"
)

type fakePublisher struct {
	mu   sync.Mutex
	got  []queue.ClaimEvent
	fail bool
}

func (p *fakePublisher) Publish(_ context.Context, ev queue.ClaimEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.got = append(p.got, ev)
	return nil
}

func TestPublishNotifierDeliversInOrder(t *testing.T) {
	pub := &fakePublisher{}
	n := NewPublishNotifier(pub, 8, quietLogger())
	for i := uint64(1); i <= 5; i++ {
		n.Notify(context.Background(), queue.ClaimEvent{Kind: queue.KindEventBooking, ClaimID: i})
	}
	n.Close()

	if len(pub.got) != 5 {
		t.Fatalf("published %d, want 5", len(pub.got))
	}
	for i, ev := range pub.got {
		if ev.ClaimID != uint64(i+1) {
			t.Fatalf("event %d has claim %d", i, ev.ClaimID)
		}
	}
	// after Close events are ignored rather than panicking on a closed channel
	n.Notify(context.Background(), queue.ClaimEvent{ClaimID: 99})
	n.Close()
}

func TestPublishNotifierSurvivesBrokerErrors(t *testing.T) {
	pub := &fakePublisher{fail: true}
	n := NewPublishNotifier(pub, 2, quietLogger())
	for i := 0; i < 10; i++ {
		n.Notify(context.Background(), queue.ClaimEvent{ClaimID: uint64(i)})
	}
	n.Close()
	if len(pub.got) != 0 {
		t.Fatalf("got %d events from a failing broker", len(pub.got))
	}
}

func TestServicesPublishThroughNotifier(t *testing.T) {
	eachStore(t, func(t *testing.T, svc *Services, n *recordingNotifier) {
		ctx := context.Background()
		room := seedRoom(t, svc, int64p(1000))
		rr, err := reserve(ctx, svc, alice, room.ID, day(10, 0), day(13, 0))
		if err != nil {
			t.Fatal(err)
		}
		evs := n.all()
		if len(evs) != 1 {
			t.Fatalf("events = %d", len(evs))
		}
		ev := evs[0]
		if ev.Kind != queue.KindRoomReservation || ev.Action != queue.ActionCreated || ev.ClaimID != rr.ID {
			t.Fatalf("event = %+v", ev)
		}
		if ev.TotalPriceCents != 3000 || ev.StartsAt != "2025-06-02T10:00:00Z" {
			t.Fatalf("event payload = %+v", ev)
		}
		if ev.RoutingKey() != "room_reservation.pending" {
			t.Fatalf("routing key = %s", ev.RoutingKey())
		}
	})
}
