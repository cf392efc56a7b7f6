package booking

import "time"

// ComputePrice returns the price of a window at an hourly rate in minor
// currency units.  Only whole hours are charged; a nil rate is free.
func ComputePrice(rateCents *int64, w Window) int64 {
	if rateCents == nil {
		return 0
	}
	hours := int64(w.Duration() / time.Hour)
	if hours < 0 {
		return 0
	}
	return hours * *rateCents
}
