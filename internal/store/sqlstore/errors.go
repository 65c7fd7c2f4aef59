package sqlstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

// translate classifies a driver error into a DatabaseError tagged with op.
// sql.ErrNoRows is handled by callers, which know the resource and id.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var tagged *domainerrors.Error
	if errors.As(err, &tagged) {
		return err
	}
	code, msg := classify(err)
	return domainerrors.Database(op, msg, code, err)
}

func classify(err error) (code, msg string) {
	switch {
	case errors.Is(err, context.Canceled):
		return domainerrors.DBCodeCanceled, "operation canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return domainerrors.DBCodeTimeout, "operation timed out"
	case errors.Is(err, driver.ErrBadConn):
		return domainerrors.DBCodeConnection, "database connection lost"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(pqErr)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return classifySQLite(liteErr.Code())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domainerrors.DBCodeTimeout, "database network timeout"
		}
		return domainerrors.DBCodeConnection, "database unreachable"
	}

	return domainerrors.DBCodeUnknown, "database operation failed"
}

func classifyPostgres(err *pq.Error) (code, msg string) {
	switch err.Code {
	case "23505":
		return domainerrors.DBCodeUnique, "unique constraint violated"
	case "23503":
		return domainerrors.DBCodeForeignKey, "foreign key constraint violated"
	case "40001", "40P01", "55P03":
		return domainerrors.DBCodeLocked, "transaction conflict"
	case "57014":
		return domainerrors.DBCodeTimeout, "statement timed out"
	}
	switch {
	case strings.HasPrefix(string(err.Code), "23"):
		return domainerrors.DBCodeConstraint, "constraint violated"
	case strings.HasPrefix(string(err.Code), "08"), err.Code == "57P01", err.Code == "57P03":
		return domainerrors.DBCodeConnection, "database connection failed"
	case err.Code == "53300":
		return domainerrors.DBCodeBusy, "too many connections"
	}
	return domainerrors.DBCodeUnknown, "database operation failed"
}

func classifySQLite(code int) (string, string) {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return domainerrors.DBCodeUnique, "unique constraint violated"
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return domainerrors.DBCodeForeignKey, "foreign key constraint violated"
	}
	// Extended codes carry the primary code in the low byte.
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY:
		return domainerrors.DBCodeBusy, "database is busy"
	case sqlite3.SQLITE_LOCKED:
		return domainerrors.DBCodeLocked, "database table is locked"
	case sqlite3.SQLITE_CONSTRAINT:
		return domainerrors.DBCodeConstraint, "constraint violated"
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR:
		return domainerrors.DBCodeConnection, "database file unavailable"
	}
	return domainerrors.DBCodeUnknown, "database operation failed"
}

func isDBCode(err error, code string) bool {
	var tagged *domainerrors.Error
	return errors.As(err, &tagged) && tagged.Kind == domainerrors.KindDatabase && tagged.DBCode == code
}

// isReferenceError reports a failure that may be a dangling foreign key.
// Builds without extended result codes report plain constraint errors.
func isReferenceError(err error) bool {
	return isDBCode(err, domainerrors.DBCodeForeignKey) || isDBCode(err, domainerrors.DBCodeConstraint)
}
