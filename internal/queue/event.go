// Package queue carries claim lifecycle events over RabbitMQ: the payload,
// a publisher used by the services after every committed change, and a
// background consumer that appends them to logs/booking.log.
package queue

import "strings"

// Claim kinds, also used as the first segment of routing keys.
const (
	KindRoomReservation = "room_reservation"
	KindEventBooking    = "event_booking"
)

// Actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionStatus  = "status_changed"
)

// ClaimEvent is published after a claim is created, updated or moved to a
// new status.  It contains enough information for downstream consumers to
// log, notify or trigger analytics without querying the primary database.
type ClaimEvent struct {
	Kind            string  `json:"kind"`
	Action          string  `json:"action"`
	ClaimID         uint64  `json:"claim_id"`
	ResourceID      uint64  `json:"resource_id"`
	HolderID        *uint64 `json:"holder_id,omitempty"`
	ActorID         uint64  `json:"actor_id"`
	FromStatus      string  `json:"from_status,omitempty"`
	Status          string  `json:"status"`
	StartsAt        string  `json:"starts_at,omitempty"`
	EndsAt          string  `json:"ends_at,omitempty"`
	Pax             int     `json:"pax,omitempty"`
	TotalPriceCents int64   `json:"total_price_cents,omitempty"`
	OccurredAt      string  `json:"occurred_at"`
}

// RoutingKey is "<kind>.<status>", e.g. "room_reservation.confirmed".
func (e ClaimEvent) RoutingKey() string {
	return e.Kind + "." + strings.ToLower(e.Status)
}
