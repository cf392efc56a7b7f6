package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error taxonomy.  Every value here is an expected outcome that the
// caller can act on; none of them is retried inside the engine.
var (
	ErrResourceNotFound    = errors.New("resource not found")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrCapacityConflict    = errors.New("capacity conflict")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrClaimNotFound       = errors.New("claim not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// ConflictError describes why a claim would break a resource's capacity.
// For exclusive (time window) resources Conflicts lists the overlapping
// claims.  For headcount resources InUse, Requested and Limit describe the
// overflow; Excess is how many units too many were asked for.
type ConflictError struct {
	ResourceID uint64
	Conflicts  []uint64
	Requested  int
	InUse      int
	Limit      int
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) > 0 {
		ids := make([]string, len(e.Conflicts))
		for i, id := range e.Conflicts {
			ids[i] = fmt.Sprint(id)
		}
		return fmt.Sprintf("capacity conflict on resource %d: overlaps claims [%s]", e.ResourceID, strings.Join(ids, ","))
	}
	return fmt.Sprintf("capacity conflict on resource %d: requested %d with %d of %d in use", e.ResourceID, e.Requested, e.InUse, e.Limit)
}

// Excess returns how many units the request overflows the limit by.
func (e *ConflictError) Excess() int {
	if n := e.InUse + e.Requested - e.Limit; n > 0 {
		return n
	}
	return 0
}

func (e *ConflictError) Is(target error) bool { return target == ErrCapacityConflict }

// TransitionError reports a status change the claim's machine forbids.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// InvalidInput wraps ErrInvalidInput with a field-level reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
