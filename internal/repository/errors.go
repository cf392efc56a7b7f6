// Package repository persists rooms, events and their claims.  The SQL
// store serves MySQL, Postgres and SQLite through one code path; the
// memstore subpackage keeps everything in process.  Not-found conditions
// are reported with the booking package's sentinels so the services can
// pass them straight through to the handlers.
package repository

import "errors"

// ErrConflict is returned when a delete cannot be performed because of
// dependent state, such as removing a room that still has active
// reservations.  Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
