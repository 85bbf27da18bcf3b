package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a subject (or a record scoped to one)
	// does not exist. Callers should not retry.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks transient store failures: busy or locked
	// database, closed connections, expired deadlines. Reads may fall back
	// to defaults; writes may be retried.
	ErrUnavailable = errors.New("store unavailable")

	// ErrExists is returned when creating a subject whose id is taken.
	ErrExists = errors.New("already exists")
)

// unavailableError keeps the driver error visible while matching
// ErrUnavailable.
type unavailableError struct {
	err error
}

func (e *unavailableError) Error() string { return "store unavailable: " + e.err.Error() }
func (e *unavailableError) Unwrap() []error { return []error{ErrUnavailable, e.err} }

// classify tags transient driver errors with ErrUnavailable. Everything
// else passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return &unavailableError{err: err}
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return &unavailableError{err: err}
		}
	}
	return err
}

func isConstraint(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}

// toMillis and fromMillis keep timestamps at millisecond precision in UTC
// so a value read back compares equal to the one written.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func normalize(t time.Time) time.Time {
	return fromMillis(toMillis(t))
}
