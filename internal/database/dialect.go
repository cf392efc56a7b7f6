package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// Supported store drivers.  "memory" has no dialect; it is handled by the
// memstore package and never reaches Open.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Dialect papers over the few places where the SQL stores differ:
// placeholder syntax, row locking, generated keys and which errors are
// worth retrying.
type Dialect struct {
	Name string
}

// Rebind rewrites '?' placeholders into the dialect's native form.
// Queries in this module never contain literal question marks.
func (d Dialect) Rebind(q string) string {
	if d.Name != DriverPostgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// ForUpdate is appended to a SELECT to take a row lock.  SQLite locks the
// whole database for the writer, so it needs no suffix.
func (d Dialect) ForUpdate() string {
	if d.Name == DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// Insert executes an INSERT and returns the generated id.
func (d Dialect) Insert(ctx context.Context, tx *sql.Tx, q string, args ...any) (uint64, error) {
	if d.Name == DriverPostgres {
		var id int64
		if err := tx.QueryRowContext(ctx, d.Rebind(q+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return uint64(id), nil
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// sqlite result codes (primary code is the low byte of an extended code)
const (
	sqliteBusy   = 5
	sqliteLocked = 6
)

// Transient reports whether err is a data-store failure that may succeed
// when the whole transaction is replayed: deadlocks, lock timeouts,
// serialization failures and dropped connections.
func (d Dialect) Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		// 1213 deadlock, 1205 lock wait timeout
		return my.Number == 1213 || my.Number == 1205
	}
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		// serialization_failure, deadlock_detected
		return pg.Code == "40001" || pg.Code == "40P01"
	}
	var coded interface{ Code() int }
	if d.Name == DriverSQLite && errors.As(err, &coded) {
		c := coded.Code() & 0xff
		return c == sqliteBusy || c == sqliteLocked
	}
	return false
}
