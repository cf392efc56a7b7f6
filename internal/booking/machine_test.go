package booking

import (
	"errors"
	"testing"
)

func TestRoomMachine(t *testing.T) {
	admin := Actor{ID: 1, Capability: Administrative}
	user := Actor{ID: 2}

	cases := []struct {
		from, to Status
		actor    Actor
		holder   bool
		want     error
	}{
		{StatusPending, StatusConfirmed, admin, false, nil},
		{StatusPending, StatusConfirmed, user, true, ErrUnauthorized},
		{StatusConfirmed, StatusCompleted, admin, false, nil},
		{StatusConfirmed, StatusNoShow, admin, false, nil},
		{StatusPending, StatusCompleted, admin, false, ErrInvalidTransition},
		{StatusPending, StatusNoShow, admin, false, ErrInvalidTransition},
		{StatusPending, StatusCancelled, user, true, nil},
		{StatusConfirmed, StatusCancelled, user, true, nil},
		{StatusConfirmed, StatusCancelled, user, false, ErrUnauthorized},
		{StatusCancelled, StatusPending, admin, false, ErrInvalidTransition},
		{StatusCompleted, StatusConfirmed, admin, false, ErrInvalidTransition},
		{StatusPending, StatusRejected, admin, false, ErrInvalidTransition},
	}
	for _, tc := range cases {
		err := RoomMachine.Validate(tc.from, tc.to, tc.actor, tc.holder)
		if tc.want == nil && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Errorf("%s -> %s: err = %v, want %v", tc.from, tc.to, err, tc.want)
		}
	}
}

func TestEventMachine(t *testing.T) {
	admin := Actor{ID: 1, Capability: Administrative}
	user := Actor{ID: 2}

	if err := EventMachine.Validate(StatusPending, StatusRejected, admin, false); err != nil {
		t.Fatal(err)
	}
	if err := EventMachine.Validate(StatusConfirmed, StatusRejected, admin, false); err != nil {
		t.Fatal(err)
	}
	if err := EventMachine.Validate(StatusConfirmed, StatusCompleted, admin, false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("events have no COMPLETED edge, got %v", err)
	}
	if err := EventMachine.Validate(StatusPending, StatusCancelled, user, true); err != nil {
		t.Fatal(err)
	}
	if err := EventMachine.Validate(StatusPending, StatusRejected, user, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("holder cannot reject, got %v", err)
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []Status{StatusCancelled, StatusCompleted, StatusNoShow} {
		if !RoomMachine.Terminal(s) {
			t.Errorf("%s should be terminal for rooms", s)
		}
	}
	for _, s := range []Status{StatusCancelled, StatusRejected} {
		if !EventMachine.Terminal(s) {
			t.Errorf("%s should be terminal for events", s)
		}
	}
	if RoomMachine.Terminal(StatusPending) || RoomMachine.Terminal(StatusConfirmed) {
		t.Error("active statuses must not be terminal")
	}
	if EventMachine.Knows(StatusNoShow) {
		t.Error("event machine must not know NO_SHOW")
	}
}

func TestHolds(t *testing.T) {
	id := uint64(4)
	if !(Actor{ID: 4}).Holds(&id) {
		t.Fatal("holder not recognised")
	}
	if (Actor{ID: 4}).Holds(nil) {
		t.Fatal("nil holder is held by nobody")
	}
	if (Actor{}).Holds(&id) {
		t.Fatal("anonymous actor holds nothing")
	}
}
