package booking

// Capability is what an actor may do to claims it does not hold.
type Capability int

const (
	// Ordinary actors may create claims and update or cancel their own.
	Ordinary Capability = iota
	// Administrative actors (restaurant staff) may additionally confirm,
	// reject, complete and mark no-shows on any claim.
	Administrative
)

func (c Capability) String() string {
	if c == Administrative {
		return "administrative"
	}
	return "ordinary"
}

// Actor identifies who is performing a mutation.  It is supplied by the
// identity layer on every call; the core never authenticates.
type Actor struct {
	ID         uint64
	Capability Capability
}

// IsAdmin reports whether the actor carries administrative capability.
func (a Actor) IsAdmin() bool { return a.Capability == Administrative }

// Holds reports whether the actor is the holder recorded on a claim.
// Claims without a holder (walk-in event bookings) are held by nobody.
func (a Actor) Holds(holderID *uint64) bool {
	return holderID != nil && a.ID != 0 && *holderID == a.ID
}
