package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/metrics"
	"github.com/vegnbio/reservation-engine/internal/model"
	"github.com/vegnbio/reservation-engine/internal/queue"
	"github.com/vegnbio/reservation-engine/internal/repository"
)

// resource is what the engine needs from a room or an event.
type resource[C any] interface {
	GetID() uint64
	Bookable() bool
	Policy() booking.Capacity[C]
}

// claim is what the engine needs from a room reservation or event booking.
type claim[C any] interface {
	Header() *model.ClaimHeader
	Consumption() C
}

// engine is the single lifecycle code path shared by every claim kind.
// All capacity decisions happen inside kind.Locked, so the check and the
// write that depends on it see the same active set.
type engine[R resource[C], T claim[C], C any] struct {
	kind    repository.Kind[R, T]
	machine *booking.Machine
	name    string

	// same reports whether two consumptions are identical; an update that
	// leaves consumption untouched is not re-checked.
	same func(a, b C) bool
	// derive recomputes derived fields of c from its resource.  It runs
	// after every accepted create or update, never lazily.
	derive func(res R, c T)
	// describe fills kind-specific fields of a lifecycle event.
	describe func(c T, ev *queue.ClaimEvent)

	notify  Notifier
	metrics *metrics.Recorder
	log     logrus.FieldLogger
	now     func() time.Time
}

func holdings[T claim[C], C any](claims []T) []booking.Holding[C] {
	out := make([]booking.Holding[C], len(claims))
	for i, c := range claims {
		out[i] = booking.Holding[C]{ClaimID: c.Header().ID, Amount: c.Consumption()}
	}
	return out
}

// admit runs the availability checker for c on the locked resource.
func (e *engine[R, T, C]) admit(ctx context.Context, tx repository.ResourceTx[R, T], res R, c T, exclude uint64) error {
	active, err := tx.ActiveClaims(ctx)
	if err != nil {
		return err
	}
	result := booking.Check[C](res.Policy(), res.Bookable(), holdings[T, C](active), c.Consumption(), exclude)
	if err := result.Err(res.GetID()); err != nil {
		reason := "conflict"
		if result.Unavailable {
			reason = "unavailable"
		}
		e.metrics.Rejected(e.name, reason)
		return err
	}
	return nil
}

// create admits c as a new PENDING claim on resourceID.  c must already be
// validated; its header is overwritten.
func (e *engine[R, T, C]) create(ctx context.Context, actor booking.Actor, resourceID uint64, c T) (T, error) {
	err := e.kind.Locked(ctx, resourceID, func(tx repository.ResourceTx[R, T], res R) error {
		now := e.now()
		h := c.Header()
		h.ID = 0
		h.ResourceID = resourceID
		h.Status = e.machine.Initial()
		h.CreatedAt = now
		h.UpdatedAt = now
		if err := e.admit(ctx, tx, res, c, 0); err != nil {
			return err
		}
		e.derive(res, c)
		return tx.InsertClaim(ctx, c)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	e.metrics.ClaimCreated(e.name)
	e.log.WithFields(logrus.Fields{
		"kind":        e.name,
		"claim_id":    c.Header().ID,
		"resource_id": resourceID,
		"actor_id":    actor.ID,
	}).Info("claim created")
	e.publish(ctx, actor, queue.ActionCreated, "", c)
	return c, nil
}

// lockedClaim finds which resource claimID belongs to and runs fn inside
// that resource's critical section with a fresh copy of the claim.
func (e *engine[R, T, C]) lockedClaim(ctx context.Context, claimID uint64, fn func(tx repository.ResourceTx[R, T], res R, c T) error) error {
	outside, err := e.kind.Claim(ctx, claimID)
	if err != nil {
		return err
	}
	resourceID := outside.Header().ResourceID
	err = e.kind.Locked(ctx, resourceID, func(tx repository.ResourceTx[R, T], res R) error {
		c, err := tx.Claim(ctx, claimID)
		if err != nil {
			return err
		}
		return fn(tx, res, c)
	})
	if errors.Is(err, booking.ErrResourceNotFound) {
		// the resource vanished between the two reads; so did its claims
		return booking.ErrClaimNotFound
	}
	return err
}

// update applies mutate to a claim the actor holds (or any claim, for
// administrators).  Terminal claims are immutable.  When the consumption
// changes the claim is re-checked with itself excluded from the active
// set.
func (e *engine[R, T, C]) update(ctx context.Context, actor booking.Actor, claimID uint64, mutate func(res R, c T) error) (T, error) {
	var out T
	err := e.lockedClaim(ctx, claimID, func(tx repository.ResourceTx[R, T], res R, c T) error {
		h := c.Header()
		if !actor.IsAdmin() && !actor.Holds(h.HolderID) {
			return booking.ErrUnauthorized
		}
		if e.machine.Terminal(h.Status) {
			return &booking.TransitionError{From: h.Status, To: h.Status}
		}
		before := c.Consumption()
		if err := mutate(res, c); err != nil {
			return err
		}
		if !e.same(before, c.Consumption()) {
			if err := e.admit(ctx, tx, res, c, h.ID); err != nil {
				return err
			}
		}
		e.derive(res, c)
		h.UpdatedAt = e.now()
		if err := tx.UpdateClaim(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	e.log.WithFields(logrus.Fields{
		"kind":     e.name,
		"claim_id": claimID,
		"actor_id": actor.ID,
	}).Info("claim updated")
	e.publish(ctx, actor, queue.ActionUpdated, "", out)
	return out, nil
}

// transition moves a claim to status to.  Moving into an active status
// from an inactive one re-checks capacity; cancellations never do.
func (e *engine[R, T, C]) transition(ctx context.Context, actor booking.Actor, claimID uint64, to booking.Status) (T, error) {
	var out T
	var from booking.Status
	err := e.lockedClaim(ctx, claimID, func(tx repository.ResourceTx[R, T], res R, c T) error {
		h := c.Header()
		from = h.Status
		if err := e.machine.Validate(from, to, actor, actor.Holds(h.HolderID)); err != nil {
			return err
		}
		if to.Active() && !from.Active() {
			if err := e.admit(ctx, tx, res, c, h.ID); err != nil {
				return err
			}
		}
		h.Status = to
		h.UpdatedAt = e.now()
		if err := tx.UpdateClaim(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	e.metrics.Transition(e.name, string(to))
	e.log.WithFields(logrus.Fields{
		"kind":     e.name,
		"claim_id": claimID,
		"actor_id": actor.ID,
		"from":     from,
		"to":       to,
	}).Info("claim status changed")
	e.publish(ctx, actor, queue.ActionStatus, from, out)
	return out, nil
}

func (e *engine[R, T, C]) publish(ctx context.Context, actor booking.Actor, action string, from booking.Status, c T) {
	if e.notify == nil {
		return
	}
	h := c.Header()
	ev := queue.ClaimEvent{
		Kind:       e.name,
		Action:     action,
		ClaimID:    h.ID,
		ResourceID: h.ResourceID,
		HolderID:   h.HolderID,
		ActorID:    actor.ID,
		FromStatus: string(from),
		Status:     string(h.Status),
		OccurredAt: h.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if e.describe != nil {
		e.describe(c, &ev)
	}
	e.notify.Notify(ctx, ev)
}
