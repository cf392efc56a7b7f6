// Package booking holds the bounded-resource scheduling core: claim
// statuses and their state machines, capacity policies for time windows
// and headcounts, the availability checker and the price calculator.
// Nothing in this package touches storage or transport; the service
// layer drives it from inside a per-resource critical section.
package booking

// Status is the lifecycle state of a claim (room reservation or event
// booking).  Both claim kinds share one status vocabulary; each kind's
// Machine decides which of these values it actually uses.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
	StatusNoShow    Status = "NO_SHOW"
	StatusRejected  Status = "REJECTED"
)

// ActiveStatuses lists the statuses that still consume capacity.  The
// order is stable so it can be bound into SQL IN (...) clauses.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// Active reports whether a claim in status s consumes capacity.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow, StatusRejected:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }
