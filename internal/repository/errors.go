// Package repository holds the MySQL data access layer.  Sentinel errors
// declared here let services and handlers map failures to HTTP statuses
// without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller does not own the event it is
// touching.  Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict signals state that blocks the write, such as replacing the
// allow-list with one that excludes already scheduled dates.  Maps to 409.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound is returned when no event row matches.
var ErrEventNotFound = errors.New("event not found")

// ErrEmailExists is returned by UserRepo.Create on a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrDateNotAllowed is returned when a schedule names a date outside the
// event's allow-list.  Its message is shown to organizers verbatim.
var ErrDateNotAllowed = errors.New("must be one of event dates")

// DateNotAllowedError wraps ErrDateNotAllowed with the offending date.
func DateNotAllowedError(date string) error {
	return fmt.Errorf("event_dates %s %w", date, ErrDateNotAllowed)
}

// isDuplicate reports a MySQL 1062 duplicate key error.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}
