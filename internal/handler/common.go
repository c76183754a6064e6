package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/draft"
	"github.com/iliyamo/event-ticketing-admin/internal/logger"
	"github.com/iliyamo/event-ticketing-admin/internal/middleware"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// parseIndex reads a zero-based slot index path parameter.
func parseIndex(c echo.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// writeError maps domain errors to status codes and JSON bodies.
func writeError(c echo.Context, err error) error {
	var verr *schedule.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":  verr.Error(),
			"reason": verr.Reason,
			"dates":  verr.Dates,
		})
	case errors.Is(err, session.ErrAnonymous):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, draft.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no open draft for this event"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "scheduled dates must stay in the allow-list"})
	case errors.Is(err, schedule.ErrNoActiveDate):
		return badRequest(c, "select a date to copy from")
	case errors.Is(err, repository.ErrDateNotAllowed),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrDateNotSelected),
		errors.Is(err, schedule.ErrUnknownField),
		errors.Is(err, schedule.ErrInvalidValue),
		errors.Is(err, schedule.ErrMalformedPayload),
		errors.Is(err, service.ErrInvalidMonth),
		errors.Is(err, service.ErrEventMismatch):
		return badRequest(c, err.Error())
	}
	logger.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

func sessionOf(c echo.Context) session.Session { return middleware.SessionFrom(c) }
