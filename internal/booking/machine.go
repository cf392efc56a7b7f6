package booking

// Permission names who may fire a transition.
type Permission int

const (
	// AdminOnly edges are staff decisions (confirm, reject, complete, no-show).
	AdminOnly Permission = iota
	// HolderOrAdmin edges may also be fired by the claim's holder.
	HolderOrAdmin
)

type edge struct {
	from, to Status
}

// Machine is a claim kind's status transition table.  Every edge carries
// the permission required to fire it; edges not in the table are invalid.
type Machine struct {
	name  string
	edges map[edge]Permission
}

func newMachine(name string) *Machine {
	return &Machine{name: name, edges: make(map[edge]Permission)}
}

func (m *Machine) allow(p Permission, to Status, from ...Status) *Machine {
	for _, f := range from {
		m.edges[edge{f, to}] = p
	}
	return m
}

// RoomMachine governs room reservations.
var RoomMachine = newMachine("room_reservation").
	allow(AdminOnly, StatusConfirmed, StatusPending).
	allow(AdminOnly, StatusCompleted, StatusConfirmed).
	allow(AdminOnly, StatusNoShow, StatusConfirmed).
	allow(HolderOrAdmin, StatusCancelled, StatusPending, StatusConfirmed)

// EventMachine governs event bookings.
var EventMachine = newMachine("event_booking").
	allow(AdminOnly, StatusConfirmed, StatusPending).
	allow(AdminOnly, StatusRejected, StatusPending, StatusConfirmed).
	allow(HolderOrAdmin, StatusCancelled, StatusPending, StatusConfirmed)

// Name identifies the claim kind the machine belongs to.
func (m *Machine) Name() string { return m.name }

// Initial is the status every new claim starts in.
func (m *Machine) Initial() Status { return StatusPending }

// Terminal reports whether no edge leaves s.
func (m *Machine) Terminal(s Status) bool {
	for e := range m.edges {
		if e.from == s {
			return false
		}
	}
	return true
}

// Knows reports whether s appears anywhere in the machine.
func (m *Machine) Knows(s Status) bool {
	if s == m.Initial() {
		return true
	}
	for e := range m.edges {
		if e.from == s || e.to == s {
			return true
		}
	}
	return false
}

// Validate checks that from -> to is an edge of the machine and that the
// actor may fire it.  An unknown edge is reported before authorization so
// that callers learn the transition is impossible for anyone.
func (m *Machine) Validate(from, to Status, actor Actor, isHolder bool) error {
	p, ok := m.edges[edge{from, to}]
	if !ok {
		return &TransitionError{From: from, To: to}
	}
	if actor.IsAdmin() {
		return nil
	}
	if p == HolderOrAdmin && isHolder {
		return nil
	}
	return ErrUnauthorized
}
