package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

var errBadClaims = errors.New("invalid claims")

// ParseAccessToken verifies an HS256 access token and returns the session it
// describes.
func ParseAccessToken(secret, raw string) (session.Session, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return session.Session{}, errors.Join(errBadClaims, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return session.Session{}, errBadClaims
	}
	var uid uint64
	switch v := claims["sub"].(type) {
	case float64:
		uid = uint64(v)
	case string:
		uid, _ = strconv.ParseUint(v, 10, 64)
	}
	role, _ := claims["role"].(string)
	if uid == 0 || role == "" {
		return session.Session{}, errBadClaims
	}
	return session.Session{UserID: uid, Role: role}, nil
}

// JWTAuth rejects requests without a valid Bearer access token and stores
// the caller's session on the context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			s, err := ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			WithSession(c, s)
			return next(c)
		}
	}
}
