package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
)

const eventCols = `e.id, e.restaurant_id, e.title, e.type, e.starts_at, e.ends_at, e.capacity,
	e.description, e.status, e.created_at, e.updated_at`

const bookingCols = `eb.id, eb.event_id, eb.holder_id, eb.status, eb.pax, eb.customer_name,
	eb.customer_phone, eb.created_at, eb.updated_at`

func scanEvent(sc rowScanner) (*model.Event, error) {
	var e model.Event
	var typ, desc sql.NullString
	var capacity sql.NullInt64
	var endsAt time.Time
	ends := timeCol{t: &endsAt}
	err := sc.Scan(&e.ID, &e.RestaurantID, &e.Title, &typ, scanTime(&e.StartsAt), &ends,
		&capacity, &desc, &e.Status, scanTime(&e.CreatedAt), scanTime(&e.UpdatedAt))
	if err != nil {
		return nil, err
	}
	e.Type = strPtr(typ)
	e.Description = strPtr(desc)
	e.Capacity = intPtr(capacity)
	if ends.valid {
		e.EndsAt = &endsAt
	}
	return &e, nil
}

func scanBooking(sc rowScanner) (*model.EventBooking, error) {
	var b model.EventBooking
	var holder sql.NullInt64
	var phone sql.NullString
	var status string
	err := sc.Scan(&b.ID, &b.ResourceID, &holder, &status, &b.Pax, &b.CustomerName,
		&phone, scanTime(&b.CreatedAt), scanTime(&b.UpdatedAt))
	if err != nil {
		return nil, err
	}
	b.HolderID = uint64Ptr(holder)
	b.Status = booking.Status(status)
	b.CustomerPhone = strPtr(phone)
	return &b, nil
}

func (s *SQLStore) eventByID(ctx context.Context, q queryer, id uint64, lock bool) (*model.Event, error) {
	query := `SELECT ` + eventCols + ` FROM events e WHERE e.id = ?`
	if lock {
		query += s.d.ForUpdate()
	}
	ev, err := scanEvent(q.QueryRowContext(ctx, s.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrResourceNotFound
	}
	return ev, err
}

func (s *SQLStore) bookingByID(ctx context.Context, q queryer, id uint64) (*model.EventBooking, error) {
	query := `SELECT ` + bookingCols + ` FROM event_bookings eb WHERE eb.id = ?`
	b, err := scanBooking(q.QueryRowContext(ctx, s.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrClaimNotFound
	}
	return b, err
}

func (s *SQLStore) listBookings(ctx context.Context, q queryer, w *where) ([]*model.EventBooking, error) {
	query := `SELECT ` + bookingCols + ` FROM event_bookings eb JOIN events e ON e.id = eb.event_id` +
		w.String() + ` ORDER BY eb.created_at, eb.id`
	rows, err := q.QueryContext(ctx, s.q(query), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.EventBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type eventKind struct{ s *SQLStore }

func (k eventKind) Locked(ctx context.Context, eventID uint64, fn func(ResourceTx[*model.Event, *model.EventBooking], *model.Event) error) error {
	s := k.s
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		ev, err := s.eventByID(ctx, tx, eventID, true)
		if err != nil {
			return err
		}
		return fn(&eventTx{s: s, tx: tx, eventID: eventID}, ev)
	})
}

func (k eventKind) CreateResource(ctx context.Context, e *model.Event) error {
	s := k.s
	const q = `INSERT INTO events (restaurant_id, title, type, starts_at, ends_at, capacity,
		description, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := s.d.Insert(ctx, tx, s.q(q), e.RestaurantID, e.Title, nullable(e.Type), ts(e.StartsAt),
			nullTS(e.EndsAt), nullable(e.Capacity), nullable(e.Description), e.Status,
			ts(e.CreatedAt), ts(e.UpdatedAt))
		if err != nil {
			return err
		}
		e.ID = id
		return nil
	})
}

func (k eventKind) Resource(ctx context.Context, id uint64) (*model.Event, error) {
	return k.s.eventByID(ctx, k.s.db, id, false)
}

func (k eventKind) Claim(ctx context.Context, id uint64) (*model.EventBooking, error) {
	return k.s.bookingByID(ctx, k.s.db, id)
}

type eventTx struct {
	s       *SQLStore
	tx      *sql.Tx
	eventID uint64
}

func (t *eventTx) SaveResource(ctx context.Context, e *model.Event) error {
	const q = `UPDATE events SET title = ?, type = ?, starts_at = ?, ends_at = ?, capacity = ?,
		description = ?, status = ?, updated_at = ? WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, t.s.q(q), e.Title, nullable(e.Type), ts(e.StartsAt), nullTS(e.EndsAt),
		nullable(e.Capacity), nullable(e.Description), e.Status, ts(e.UpdatedAt), t.eventID)
	return err
}

func (t *eventTx) DeleteResource(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, t.s.q(`DELETE FROM event_bookings WHERE event_id = ?`), t.eventID); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, t.s.q(`DELETE FROM events WHERE id = ?`), t.eventID)
	return err
}

func (t *eventTx) ActiveClaims(ctx context.Context) ([]*model.EventBooking, error) {
	w := &where{}
	w.add("eb.event_id = ?", t.eventID)
	w.claimFilter("eb", ClaimFilter{ActiveOnly: true})
	return t.s.listBookings(ctx, t.tx, w)
}

func (t *eventTx) Claim(ctx context.Context, id uint64) (*model.EventBooking, error) {
	b, err := t.s.bookingByID(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	if b.ResourceID != t.eventID {
		return nil, booking.ErrClaimNotFound
	}
	return b, nil
}

func (t *eventTx) InsertClaim(ctx context.Context, b *model.EventBooking) error {
	const q = `INSERT INTO event_bookings (event_id, holder_id, status, pax, customer_name,
		customer_phone, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := t.s.d.Insert(ctx, t.tx, t.s.q(q), t.eventID, nullable(b.HolderID), string(b.Status),
		b.Pax, b.CustomerName, nullable(b.CustomerPhone), ts(b.CreatedAt), ts(b.UpdatedAt))
	if err != nil {
		return err
	}
	b.ID = id
	b.ResourceID = t.eventID
	return nil
}

func (t *eventTx) UpdateClaim(ctx context.Context, b *model.EventBooking) error {
	const q = `UPDATE event_bookings SET status = ?, pax = ?, customer_name = ?, customer_phone = ?,
		updated_at = ? WHERE id = ? AND event_id = ?`
	_, err := t.tx.ExecContext(ctx, t.s.q(q), string(b.Status), b.Pax, b.CustomerName,
		nullable(b.CustomerPhone), ts(b.UpdatedAt), b.ID, t.eventID)
	return err
}

// ListEvents returns events ordered by start time.
func (s *SQLStore) ListEvents(ctx context.Context, f EventFilter) ([]*model.Event, error) {
	w := &where{}
	if f.RestaurantID != 0 {
		w.add("e.restaurant_id = ?", f.RestaurantID)
	}
	if f.ActiveOnly {
		w.add("e.status = ?", model.EventActive)
	}
	if f.From != nil {
		w.add("e.starts_at >= ?", ts(*f.From))
	}
	if f.To != nil {
		w.add("e.starts_at < ?", ts(*f.To))
	}
	query := `SELECT ` + eventCols + ` FROM events e` + w.String() + ` ORDER BY e.starts_at, e.id`
	rows, err := s.db.QueryContext(ctx, s.q(query), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListEventBookings returns bookings ordered by creation.
func (s *SQLStore) ListEventBookings(ctx context.Context, f ClaimFilter) ([]*model.EventBooking, error) {
	w := &where{}
	if f.ResourceID != 0 {
		w.add("eb.event_id = ?", f.ResourceID)
	}
	if f.RestaurantID != 0 {
		w.add("e.restaurant_id = ?", f.RestaurantID)
	}
	w.claimFilter("eb", f)
	if f.From != nil {
		w.add("e.starts_at >= ?", ts(*f.From))
	}
	if f.To != nil {
		w.add("e.starts_at < ?", ts(*f.To))
	}
	return s.listBookings(ctx, s.db, w)
}

func (s *SQLStore) BookedPax(ctx context.Context, eventIDs ...uint64) (map[uint64]int, error) {
	out := make(map[uint64]int, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	args := activeArgs()
	for _, id := range eventIDs {
		args = append(args, id)
	}
	query := `SELECT event_id, SUM(pax) FROM event_bookings
		WHERE status IN (` + placeholders(len(booking.ActiveStatuses)) + `)
		AND event_id IN (` + placeholders(len(eventIDs)) + `)
		GROUP BY event_id`
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var sum int64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		out[id] = int(sum)
	}
	return out, rows.Err()
}
