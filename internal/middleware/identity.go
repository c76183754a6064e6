package middleware

// identity.go moves the authenticated caller between middleware and
// handlers.  JWTAuth stores a session.Session under sessionKey; handlers read
// it back with SessionFrom and hand it to the service layer.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

const sessionKey = "session"

// WithSession stores s on the context together with the legacy user_id and
// role keys.
func WithSession(c echo.Context, s session.Session) {
	c.Set(sessionKey, s)
	c.Set("user_id", s.UserID)
	c.Set("role", s.Role)
}

// SessionFrom returns the caller's session, or an anonymous one.
func SessionFrom(c echo.Context) session.Session {
	if s, ok := c.Get(sessionKey).(session.Session); ok {
		return s
	}
	return session.Session{}
}

// userID is the rate-limit identity: the user id or "anon".
func userID(c echo.Context) string {
	if s := SessionFrom(c); s.Authenticated() {
		return strconv.FormatUint(s.UserID, 10)
	}
	return "anon"
}
