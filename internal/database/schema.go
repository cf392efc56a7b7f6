package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TimeLayout is how timestamps are bound into queries.  Every store keeps
// UTC at second precision, which also keeps SQLite's text timestamps
// lexically ordered.
const TimeLayout = "2006-01-02 15:04:05"

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NULL,
		capacity INT NOT NULL DEFAULT 0,
		hourly_rate_cents BIGINT NULL,
		has_wifi BOOLEAN NOT NULL DEFAULT FALSE,
		has_printer BOOLEAN NOT NULL DEFAULT FALSE,
		has_projector BOOLEAN NOT NULL DEFAULT FALSE,
		has_whiteboard BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(32) NOT NULL DEFAULT 'AVAILABLE',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_rooms_restaurant (restaurant_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS room_reservations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		room_id BIGINT UNSIGNED NOT NULL,
		holder_id BIGINT UNSIGNED NULL,
		status VARCHAR(32) NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		purpose VARCHAR(500) NULL,
		attendees_count INT NULL,
		special_requirements TEXT NULL,
		notes TEXT NULL,
		reserved_at DATETIME NOT NULL,
		total_price_cents BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_rr_room_status (room_id, status),
		INDEX idx_rr_holder (holder_id),
		CONSTRAINT fk_rr_room FOREIGN KEY (room_id) REFERENCES rooms(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		title VARCHAR(255) NOT NULL,
		type VARCHAR(100) NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NULL,
		capacity INT NULL,
		description TEXT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_events_restaurant_start (restaurant_id, starts_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS event_bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		event_id BIGINT UNSIGNED NOT NULL,
		holder_id BIGINT UNSIGNED NULL,
		status VARCHAR(32) NOT NULL,
		pax INT NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		customer_phone VARCHAR(50) NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_eb_event_status (event_id, status),
		INDEX idx_eb_holder (holder_id),
		CONSTRAINT fk_eb_event FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// portableSchema serves postgres and sqlite; {{ID}} and {{TS}} are
// substituted per dialect.
var portableSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id {{ID}},
		restaurant_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		hourly_rate_cents BIGINT NULL,
		has_wifi BOOLEAN NOT NULL DEFAULT FALSE,
		has_printer BOOLEAN NOT NULL DEFAULT FALSE,
		has_projector BOOLEAN NOT NULL DEFAULT FALSE,
		has_whiteboard BOOLEAN NOT NULL DEFAULT FALSE,
		status VARCHAR(32) NOT NULL DEFAULT 'AVAILABLE',
		created_at {{TS}} NOT NULL,
		updated_at {{TS}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_restaurant ON rooms (restaurant_id)`,
	`CREATE TABLE IF NOT EXISTS room_reservations (
		id {{ID}},
		room_id BIGINT NOT NULL REFERENCES rooms(id),
		holder_id BIGINT NULL,
		status VARCHAR(32) NOT NULL,
		start_time {{TS}} NOT NULL,
		end_time {{TS}} NOT NULL,
		purpose VARCHAR(500) NULL,
		attendees_count INTEGER NULL,
		special_requirements TEXT NULL,
		notes TEXT NULL,
		reserved_at {{TS}} NOT NULL,
		total_price_cents BIGINT NOT NULL DEFAULT 0,
		created_at {{TS}} NOT NULL,
		updated_at {{TS}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rr_room_status ON room_reservations (room_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_rr_holder ON room_reservations (holder_id)`,
	`CREATE TABLE IF NOT EXISTS events (
		id {{ID}},
		restaurant_id BIGINT NOT NULL,
		title VARCHAR(255) NOT NULL,
		type VARCHAR(100) NULL,
		starts_at {{TS}} NOT NULL,
		ends_at {{TS}} NULL,
		capacity INTEGER NULL,
		description TEXT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'ACTIVE',
		created_at {{TS}} NOT NULL,
		updated_at {{TS}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_restaurant_start ON events (restaurant_id, starts_at)`,
	`CREATE TABLE IF NOT EXISTS event_bookings (
		id {{ID}},
		event_id BIGINT NOT NULL REFERENCES events(id),
		holder_id BIGINT NULL,
		status VARCHAR(32) NOT NULL,
		pax INTEGER NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		customer_phone VARCHAR(50) NULL,
		created_at {{TS}} NOT NULL,
		updated_at {{TS}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_eb_event_status ON event_bookings (event_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_eb_holder ON event_bookings (holder_id)`,
}

// Statements returns the DDL for the dialect in execution order.
func (d Dialect) Statements() []string {
	if d.Name == DriverMySQL {
		return mysqlSchema
	}
	id, ts := "INTEGER PRIMARY KEY AUTOINCREMENT", "DATETIME"
	if d.Name == DriverPostgres {
		id, ts = "BIGSERIAL PRIMARY KEY", "TIMESTAMP"
	}
	out := make([]string, len(portableSchema))
	for i, s := range portableSchema {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(s, "{{ID}}", id), "{{TS}}", ts)
	}
	return out
}

// Migrate creates missing tables and indexes.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for i, stmt := range d.Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
