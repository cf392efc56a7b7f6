package booking

// Result is the outcome of an availability check.
type Result struct {
	OK          bool     `json:"available"`
	Unavailable bool     `json:"unavailable,omitempty"`
	Conflicts   []uint64 `json:"conflicts,omitempty"`
	Requested   int      `json:"requested,omitempty"`
	InUse       int      `json:"in_use,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

// Check decides whether proposed fits on a resource given its active
// holdings.  The holding with ClaimID == exclude (the claim being
// modified) is ignored; pass 0 for new claims.  Check is pure: callers
// must hold the resource's critical section for the result to stay true.
func Check[C any](policy Capacity[C], bookable bool, active []Holding[C], proposed C, exclude uint64) Result {
	if !bookable {
		return Result{Unavailable: true}
	}
	if exclude != 0 {
		kept := make([]Holding[C], 0, len(active))
		for _, h := range active {
			if h.ClaimID != exclude {
				kept = append(kept, h)
			}
		}
		active = kept
	}
	var res Result
	res.OK = policy.Fits(active, proposed, &res)
	return res
}

// Err converts a failed result into the domain error taxonomy.
func (r Result) Err(resourceID uint64) error {
	switch {
	case r.OK:
		return nil
	case r.Unavailable:
		return ErrResourceUnavailable
	default:
		return &ConflictError{
			ResourceID: resourceID,
			Conflicts:  r.Conflicts,
			Requested:  r.Requested,
			InUse:      r.InUse,
			Limit:      r.Limit,
		}
	}
}
