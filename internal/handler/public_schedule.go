package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
)

// PublicHandler serves unauthenticated reads.  Responses are cached by the
// Redis middleware in front of it.
type PublicHandler struct {
	Svc *service.ScheduleService
}

func NewPublicHandler(svc *service.ScheduleService) *PublicHandler {
	return &PublicHandler{Svc: svc}
}

// GetSchedule handles GET /v1/events/:id/schedule.
func (h *PublicHandler) GetSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	data, err := h.Svc.Schedule(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, schedule.ScheduleResponse{Data: &data})
}
