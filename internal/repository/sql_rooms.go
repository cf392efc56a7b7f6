package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vegnbio/reservation-engine/internal/booking"
	"github.com/vegnbio/reservation-engine/internal/model"
)

const roomCols = `r.id, r.restaurant_id, r.name, r.description, r.capacity, r.hourly_rate_cents,
	r.has_wifi, r.has_printer, r.has_projector, r.has_whiteboard, r.status, r.created_at, r.updated_at`

const reservationCols = `rr.id, rr.room_id, rr.holder_id, rr.status, rr.start_time, rr.end_time,
	rr.purpose, rr.attendees_count, rr.special_requirements, rr.notes, rr.reserved_at,
	rr.total_price_cents, rr.created_at, rr.updated_at`

func scanRoom(sc rowScanner) (*model.Room, error) {
	var r model.Room
	var desc sql.NullString
	var rate sql.NullInt64
	err := sc.Scan(&r.ID, &r.RestaurantID, &r.Name, &desc, &r.Capacity, &rate,
		&r.HasWifi, &r.HasPrinter, &r.HasProjector, &r.HasWhiteboard, &r.Status,
		scanTime(&r.CreatedAt), scanTime(&r.UpdatedAt))
	if err != nil {
		return nil, err
	}
	r.Description = strPtr(desc)
	r.HourlyRateCents = int64Ptr(rate)
	return &r, nil
}

func scanReservation(sc rowScanner) (*model.RoomReservation, error) {
	var rr model.RoomReservation
	var holder, attendees sql.NullInt64
	var purpose, special, notes sql.NullString
	var status string
	err := sc.Scan(&rr.ID, &rr.ResourceID, &holder, &status,
		scanTime(&rr.Window.Start), scanTime(&rr.Window.End),
		&purpose, &attendees, &special, &notes, scanTime(&rr.ReservedAt),
		&rr.TotalPriceCents, scanTime(&rr.CreatedAt), scanTime(&rr.UpdatedAt))
	if err != nil {
		return nil, err
	}
	rr.HolderID = uint64Ptr(holder)
	rr.Status = booking.Status(status)
	rr.Purpose = strPtr(purpose)
	rr.AttendeesCount = intPtr(attendees)
	rr.SpecialRequirements = strPtr(special)
	rr.Notes = strPtr(notes)
	return &rr, nil
}

func (s *SQLStore) roomByID(ctx context.Context, q queryer, id uint64, lock bool) (*model.Room, error) {
	query := `SELECT ` + roomCols + ` FROM rooms r WHERE r.id = ?`
	if lock {
		query += s.d.ForUpdate()
	}
	room, err := scanRoom(q.QueryRowContext(ctx, s.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrResourceNotFound
	}
	return room, err
}

func (s *SQLStore) reservationByID(ctx context.Context, q queryer, id uint64) (*model.RoomReservation, error) {
	query := `SELECT ` + reservationCols + ` FROM room_reservations rr WHERE rr.id = ?`
	rr, err := scanReservation(q.QueryRowContext(ctx, s.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrClaimNotFound
	}
	return rr, err
}

func (s *SQLStore) listReservations(ctx context.Context, q queryer, w *where) ([]*model.RoomReservation, error) {
	query := `SELECT ` + reservationCols + ` FROM room_reservations rr JOIN rooms r ON r.id = rr.room_id` +
		w.String() + ` ORDER BY rr.start_time, rr.id`
	rows, err := q.QueryContext(ctx, s.q(query), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.RoomReservation
	for rows.Next() {
		rr, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

type roomKind struct{ s *SQLStore }

func (k roomKind) Locked(ctx context.Context, roomID uint64, fn func(ResourceTx[*model.Room, *model.RoomReservation], *model.Room) error) error {
	s := k.s
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		room, err := s.roomByID(ctx, tx, roomID, true)
		if err != nil {
			return err
		}
		return fn(&roomTx{s: s, tx: tx, roomID: roomID}, room)
	})
}

func (k roomKind) CreateResource(ctx context.Context, r *model.Room) error {
	s := k.s
	const q = `INSERT INTO rooms (restaurant_id, name, description, capacity, hourly_rate_cents,
		has_wifi, has_printer, has_projector, has_whiteboard, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := s.d.Insert(ctx, tx, s.q(q), r.RestaurantID, r.Name, nullable(r.Description), r.Capacity,
			nullable(r.HourlyRateCents), r.HasWifi, r.HasPrinter, r.HasProjector, r.HasWhiteboard,
			r.Status, ts(r.CreatedAt), ts(r.UpdatedAt))
		if err != nil {
			return err
		}
		r.ID = id
		return nil
	})
}

func (k roomKind) Resource(ctx context.Context, id uint64) (*model.Room, error) {
	return k.s.roomByID(ctx, k.s.db, id, false)
}

func (k roomKind) Claim(ctx context.Context, id uint64) (*model.RoomReservation, error) {
	return k.s.reservationByID(ctx, k.s.db, id)
}

// roomTx is a room's critical section.  Every statement goes through tx so
// the single-connection SQLite pool never deadlocks against itself.
type roomTx struct {
	s      *SQLStore
	tx     *sql.Tx
	roomID uint64
}

func (t *roomTx) SaveResource(ctx context.Context, r *model.Room) error {
	const q = `UPDATE rooms SET name = ?, description = ?, capacity = ?, hourly_rate_cents = ?,
		has_wifi = ?, has_printer = ?, has_projector = ?, has_whiteboard = ?, status = ?, updated_at = ?
		WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, t.s.q(q), r.Name, nullable(r.Description), r.Capacity,
		nullable(r.HourlyRateCents), r.HasWifi, r.HasPrinter, r.HasProjector, r.HasWhiteboard,
		r.Status, ts(r.UpdatedAt), t.roomID)
	return err
}

func (t *roomTx) DeleteResource(ctx context.Context) error {
	// inactive history goes with the room
	if _, err := t.tx.ExecContext(ctx, t.s.q(`DELETE FROM room_reservations WHERE room_id = ?`), t.roomID); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, t.s.q(`DELETE FROM rooms WHERE id = ?`), t.roomID)
	return err
}

func (t *roomTx) ActiveClaims(ctx context.Context) ([]*model.RoomReservation, error) {
	w := &where{}
	w.add("rr.room_id = ?", t.roomID)
	w.claimFilter("rr", ClaimFilter{ActiveOnly: true})
	return t.s.listReservations(ctx, t.tx, w)
}

func (t *roomTx) Claim(ctx context.Context, id uint64) (*model.RoomReservation, error) {
	rr, err := t.s.reservationByID(ctx, t.tx, id)
	if err != nil {
		return nil, err
	}
	if rr.ResourceID != t.roomID {
		return nil, booking.ErrClaimNotFound
	}
	return rr, nil
}

func (t *roomTx) InsertClaim(ctx context.Context, rr *model.RoomReservation) error {
	const q = `INSERT INTO room_reservations (room_id, holder_id, status, start_time, end_time,
		purpose, attendees_count, special_requirements, notes, reserved_at, total_price_cents,
		created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := t.s.d.Insert(ctx, t.tx, t.s.q(q), t.roomID, nullable(rr.HolderID), string(rr.Status),
		ts(rr.Window.Start), ts(rr.Window.End), nullable(rr.Purpose), nullable(rr.AttendeesCount),
		nullable(rr.SpecialRequirements), nullable(rr.Notes), ts(rr.ReservedAt), rr.TotalPriceCents,
		ts(rr.CreatedAt), ts(rr.UpdatedAt))
	if err != nil {
		return err
	}
	rr.ID = id
	rr.ResourceID = t.roomID
	return nil
}

func (t *roomTx) UpdateClaim(ctx context.Context, rr *model.RoomReservation) error {
	const q = `UPDATE room_reservations SET status = ?, start_time = ?, end_time = ?, purpose = ?,
		attendees_count = ?, special_requirements = ?, notes = ?, total_price_cents = ?, updated_at = ?
		WHERE id = ? AND room_id = ?`
	_, err := t.tx.ExecContext(ctx, t.s.q(q), string(rr.Status), ts(rr.Window.Start), ts(rr.Window.End),
		nullable(rr.Purpose), nullable(rr.AttendeesCount), nullable(rr.SpecialRequirements),
		nullable(rr.Notes), rr.TotalPriceCents, ts(rr.UpdatedAt), rr.ID, t.roomID)
	return err
}

// ListRooms returns rooms ordered by name.
func (s *SQLStore) ListRooms(ctx context.Context, f RoomFilter) ([]*model.Room, error) {
	w := &where{}
	if f.RestaurantID != 0 {
		w.add("r.restaurant_id = ?", f.RestaurantID)
	}
	if f.AvailableOnly {
		w.add("r.status = ?", model.RoomAvailable)
	}
	if f.MinCapacity > 0 {
		w.add("r.capacity >= ?", f.MinCapacity)
	}
	query := `SELECT ` + roomCols + ` FROM rooms r` + w.String() + ` ORDER BY r.name, r.id`
	rows, err := s.db.QueryContext(ctx, s.q(query), w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListRoomReservations returns reservations ordered by start time.
func (s *SQLStore) ListRoomReservations(ctx context.Context, f ClaimFilter) ([]*model.RoomReservation, error) {
	w := &where{}
	if f.ResourceID != 0 {
		w.add("rr.room_id = ?", f.ResourceID)
	}
	if f.RestaurantID != 0 {
		w.add("r.restaurant_id = ?", f.RestaurantID)
	}
	w.claimFilter("rr", f)
	if f.To != nil {
		w.add("rr.start_time < ?", ts(*f.To))
	}
	if f.From != nil {
		w.add("rr.end_time > ?", ts(*f.From))
	}
	return s.listReservations(ctx, s.db, w)
}
