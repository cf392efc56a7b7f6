package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/database"
	"github.com/vegnbio/reservation-engine/internal/model"
)

// SQLStore implements Store over database/sql.  Resource critical sections
// are transactions holding a row lock on the resource (SELECT ... FOR
// UPDATE), so claims on different resources never wait for each other.
// All timestamp fields are stored in UTC.
type SQLStore struct {
	db *sql.DB
	d  database.Dialect
	tx *database.TxRunner
}

// NewSQLStore returns a store that runs its critical sections through r.
func NewSQLStore(r *database.TxRunner) *SQLStore {
	return &SQLStore{db: r.DB, d: r.Dialect, tx: r}
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLStore) Rooms() Kind[*model.Room, *model.RoomReservation] { return roomKind{s} }

func (s *SQLStore) Events() Kind[*model.Event, *model.EventBooking] { return eventKind{s} }

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore) q(query string) string { return s.d.Rebind(query) }

// ts formats t for binding.  Sub-second precision is dropped everywhere so
// every dialect compares the same instants.
func ts(t time.Time) string { return t.UTC().Format(database.TimeLayout) }

func nullTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return ts(*t)
}

var timeLayouts = []string{
	database.TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// timeCol scans DATETIME/TIMESTAMP columns whatever the driver hands back:
// time.Time (mysql parseTime, pgx, sqlite DATETIME) or text.
type timeCol struct {
	t     *time.Time
	valid bool
}

func (c *timeCol) Scan(v any) error {
	c.valid = false
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		*c.t = x.UTC()
	case string:
		return c.parse(x)
	case []byte:
		return c.parse(string(x))
	default:
		return fmt.Errorf("unsupported time column type %T", v)
	}
	c.valid = true
	return nil
}

func (c *timeCol) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*c.t = t.UTC()
			c.valid = true
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", s)
}

func scanTime(dst *time.Time) *timeCol { return &timeCol{t: dst} }

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func uint64Ptr(ni sql.NullInt64) *uint64 {
	if !ni.Valid {
		return nil
	}
	v := uint64(ni.Int64)
	return &v
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func activeArgs() []any {
	args := make([]any, len(booking.ActiveStatuses))
	for i, st := range booking.ActiveStatuses {
		args[i] = string(st)
	}
	return args
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) claimFilter(alias string, f ClaimFilter) {
	if f.HolderID != 0 {
		w.add(alias+".holder_id = ?", f.HolderID)
	}
	if f.Status != "" {
		w.add(alias+".status = ?", string(f.Status))
	}
	if f.ActiveOnly {
		w.add(alias+".status IN ("+placeholders(len(booking.ActiveStatuses))+")", activeArgs()...)
	}
}
