package model

import (
	"time"

	"github.com/vegnbio/reservation-engine/internal/booking"
)

// ClaimHeader carries the fields every claim shares regardless of the
// resource it is held against.  Room reservations and event bookings
// embed it so the lifecycle engine can handle both through one code path.
//
// Fields:
//
//	ID         – primary key identifier, assigned by the store.
//	ResourceID – room or event the claim is held against.
//	HolderID   – user who placed the claim (nil for staff-entered walk-ins).
//	Status     – lifecycle state, see booking.Status.
//	CreatedAt  – set once on insert and never changed.
//	UpdatedAt  – refreshed on every mutation.
type ClaimHeader struct {
	ID         uint64
	ResourceID uint64
	HolderID   *uint64
	Status     booking.Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Header returns the embedded header so generic code can mutate it.
func (h *ClaimHeader) Header() *ClaimHeader { return h }
