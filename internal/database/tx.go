package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrInfrastructure is returned when the data store keeps failing after the
// retry budget is spent, or cannot be reached at all.  It is not part of
// the booking error taxonomy; handlers answer 503.
var ErrInfrastructure = errors.New("data store unavailable")

// TxRunner runs closures inside a transaction and replays them when the
// failure is transient for the dialect.  Closures must therefore be safe
// to run more than once: they should derive all state from what they
// read inside the transaction.
type TxRunner struct {
	DB         *sql.DB
	Dialect    Dialect
	MaxRetries int
	Backoff    time.Duration
	// OnRetry, when set, is told about every replayed attempt.
	OnRetry func(attempt int, err error)
}

// storeError marks failures of the transaction itself (begin, commit)
// as opposed to errors returned by the closure.
type storeError struct{ err error }

func (e storeError) Error() string { return e.err.Error() }
func (e storeError) Unwrap() error { return e.err }

// WithTx executes fn in a transaction.  Errors returned by fn that are not
// transient (including every domain error) roll back and surface as is.
func (r *TxRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for attempt := 0; ; attempt++ {
		err := r.once(ctx, fn)
		if err == nil {
			return nil
		}
		var be storeError
		transient := r.Dialect.Transient(err)
		if !transient {
			if errors.As(err, &be) {
				return fmt.Errorf("%w: %v", ErrInfrastructure, be.err)
			}
			return err
		}
		if attempt >= r.MaxRetries {
			return fmt.Errorf("%w: %v", ErrInfrastructure, err)
		}
		if r.OnRetry != nil {
			r.OnRetry(attempt+1, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrInfrastructure, ctx.Err())
		case <-time.After(r.Backoff * time.Duration(attempt+1)):
		}
	}
}

func (r *TxRunner) once(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return storeError{err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeError{err}
	}
	committed = true
	return nil
}
