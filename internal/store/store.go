package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicate is returned when an insert hits a uniqueness constraint.
// For plan completions and attendance check-ins this is the load-bearing
// at-most-once guard: a double-tapped submit races past any in-process
// check, and only the database can refuse the second row.
var ErrDuplicate = errors.New("duplicate record")

// ErrPlanPublished is returned when a write would modify the steps of a
// plan that has already been published.
var ErrPlanPublished = errors.New("plan is published and immutable")

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
