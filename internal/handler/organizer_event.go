package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
)

// EventRepository is what the event endpoints need from repository.EventRepo.
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	GetOwned(ctx context.Context, id, organizerID uint64) (*model.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uint64) ([]*model.Event, error)
	AllowedDates(ctx context.Context, eventID uint64) ([]string, error)
	ReplaceAllowedDates(ctx context.Context, eventID uint64, dates []string) error
}

// EventHandler serves organizer event CRUD and the date allow-list.
type EventHandler struct {
	Events EventRepository
}

func NewEventHandler(events EventRepository) *EventHandler {
	if events == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{Events: events}
}

type createEventReq struct {
	Title string `json:"title"`
	Venue string `json:"venue"`
}

type allowedDatesReq struct {
	Dates []string `json:"event_dates"`
}

// CreateEvent handles POST /v1/organizer/events.
func (h *EventHandler) CreateEvent(c echo.Context) error {
	s := sessionOf(c)
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return badRequest(c, "title is required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := &model.Event{OrganizerID: s.UserID, Title: req.Title, Venue: strings.TrimSpace(req.Venue)}
	if err := h.Events.Create(ctx, e); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, e)
}

// ListEvents handles GET /v1/organizer/events.
func (h *EventHandler) ListEvents(c echo.Context) error {
	events, err := h.Events.ListByOrganizer(c.Request().Context(), sessionOf(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": events})
}

// GetEvent handles GET /v1/organizer/events/:id.
func (h *EventHandler) GetEvent(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	e, err := h.Events.GetOwned(c.Request().Context(), id, sessionOf(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, e)
}

// GetAllowedDates handles GET /v1/organizer/events/:id/allowed-dates.
func (h *EventHandler) GetAllowedDates(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx := c.Request().Context()
	if _, err := h.Events.GetOwned(ctx, id, sessionOf(c).UserID); err != nil {
		return writeError(c, err)
	}
	dates, err := h.Events.AllowedDates(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"event_dates": dates}})
}

// PutAllowedDates handles PUT /v1/organizer/events/:id/allowed-dates.  An
// empty list removes the allow-list.
func (h *EventHandler) PutAllowedDates(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req allowedDatesReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	for _, d := range req.Dates {
		if _, err := time.Parse(schedule.DateLayout, d); err != nil {
			return badRequest(c, "event_dates must be YYYY-MM-DD: "+d)
		}
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if _, err := h.Events.GetOwned(ctx, id, sessionOf(c).UserID); err != nil {
		return writeError(c, err)
	}
	if err := h.Events.ReplaceAllowedDates(ctx, id, req.Dates); err != nil {
		return writeError(c, err)
	}
	dates, err := h.Events.AllowedDates(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"event_dates": dates}})
}
