package booking

import (
	"time"
)

// Window is a half-open time interval [Start, End).  A window that ends
// exactly when another starts does not overlap it.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects zero and non-positive windows.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return InvalidInput("start and end time are required")
	}
	if !w.End.After(w.Start) {
		return InvalidInput("end time must be after start time")
	}
	return nil
}

// Overlaps reports whether the two half-open windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

// Duration of the window.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Headcount is the number of seats a booking takes.
type Headcount int

// Validate rejects non-positive headcounts.
func (h Headcount) Validate() error {
	if h <= 0 {
		return InvalidInput("number of people must be positive")
	}
	return nil
}

// Holding is one active claim's consumption of a resource.
type Holding[C any] struct {
	ClaimID uint64
	Amount  C
}

// Capacity is a resource's capacity policy over consumption type C.
// Fits reports whether proposed can be added to active without breaking
// the invariant; on failure it fills the conflict details of res.
type Capacity[C any] interface {
	Fits(active []Holding[C], proposed C, res *Result) bool
}

// Exclusive admits at most one claim per instant: rooms.
type Exclusive struct{}

func (Exclusive) Fits(active []Holding[Window], proposed Window, res *Result) bool {
	for _, h := range active {
		if h.Amount.Overlaps(proposed) {
			res.Conflicts = append(res.Conflicts, h.ClaimID)
		}
	}
	return len(res.Conflicts) == 0
}

// Ceiling admits claims while the summed headcount stays within Max.
// A nil Max means the resource is unconstrained.
type Ceiling struct {
	Max *int
}

func (c Ceiling) Fits(active []Holding[Headcount], proposed Headcount, res *Result) bool {
	inUse := 0
	for _, h := range active {
		inUse += int(h.Amount)
	}
	res.InUse = inUse
	res.Requested = int(proposed)
	if c.Max == nil {
		return true
	}
	res.Limit = *c.Max
	return inUse+int(proposed) <= *c.Max
}

// Remaining returns the seats left under the ceiling, or nil when the
// resource is unconstrained.  It never returns a negative number.
func (c Ceiling) Remaining(active []Holding[Headcount]) *int {
	if c.Max == nil {
		return nil
	}
	left := *c.Max
	for _, h := range active {
		left -= int(h.Amount)
	}
	if left < 0 {
		left = 0
	}
	return &left
}
