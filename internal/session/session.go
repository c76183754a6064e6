// Package session carries the authenticated caller explicitly through the
// request path. Handlers build a Session from the verified JWT and pass it to
// the service layer; clients build one from a stored token.
package session

import "errors"

// Roles understood by the API.
const (
	RoleOrganizer = "ORGANIZER"
	RoleCustomer  = "CUSTOMER"
)

// ErrAnonymous is returned when an operation needs a signed-in caller.
var ErrAnonymous = errors.New("no authenticated user")

// Session identifies the caller of one operation.
type Session struct {
	UserID uint64
	Role   string
	Token  string // raw bearer token, empty on the server side
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s Session) Authenticated() bool { return s.UserID != 0 }

// IsOrganizer reports whether the caller may manage events.
func (s Session) IsOrganizer() bool { return s.Role == RoleOrganizer }

// Require returns ErrAnonymous for guests.
func (s Session) Require() error {
	if !s.Authenticated() {
		return ErrAnonymous
	}
	return nil
}
