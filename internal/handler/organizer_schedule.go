package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/logger"
	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
	"github.com/iliyamo/event-ticketing-admin/internal/service"
)

// CachePurger drops cached public responses for a path.
type CachePurger interface {
	Purge(ctx context.Context, path string) error
}

// ScheduleHandler exposes the schedule editor: the saved schedule, the
// draft lifecycle and every editing operation on the draft.
type ScheduleHandler struct {
	Svc    *service.ScheduleService
	Purger CachePurger // optional
}

func NewScheduleHandler(svc *service.ScheduleService, purger CachePurger) *ScheduleHandler {
	return &ScheduleHandler{Svc: svc, Purger: purger}
}

type monthReq struct {
	Month string `json:"month"`
}

type dateReq struct {
	Date string `json:"date"`
}

type fieldReq struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type applySlotsReq struct {
	SourceDate string `json:"source_date"`
}

type applyCategoriesReq struct {
	SourceDate string                  `json:"source_date"`
	Categories []schedule.SeatCategory `json:"categories"`
}

// mutate runs one composition operation against the caller's draft and
// answers with the updated draft.
func (h *ScheduleHandler) mutate(c echo.Context, fn func(*schedule.Composition) error) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	d, err := h.Svc.Mutate(c.Request().Context(), sessionOf(c), id, fn)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// slotTarget reads :date and :index.
func slotTarget(c echo.Context) (string, int, bool) {
	index, ok := parseIndex(c, "index")
	return c.Param("date"), index, ok
}

func (h *ScheduleHandler) purge(ctx context.Context, eventID uint64) {
	if h.Purger == nil {
		return
	}
	path := "/v1/events/" + strconv.FormatUint(eventID, 10) + "/schedule"
	if err := h.Purger.Purge(ctx, path); err != nil {
		logger.Warn("schedule cache not purged", "path", path, "error", err)
	}
}

// GetSchedule handles GET /v1/organizer/events/:id/schedule.
func (h *ScheduleHandler) GetSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx := c.Request().Context()
	if _, err := h.Svc.AllowedDates(ctx, sessionOf(c), id); err != nil {
		return writeError(c, err)
	}
	data, err := h.Svc.Schedule(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, schedule.ScheduleResponse{Data: &data})
}

// PutSchedule handles PUT /v1/organizer/events/:id/schedule with a wire
// payload built by the client.
func (h *ScheduleHandler) PutSchedule(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var p schedule.Payload
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	res, err := h.Svc.SaveSchedule(ctx, sessionOf(c), id, p)
	if err != nil {
		return writeError(c, err)
	}
	h.purge(ctx, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "event dates updated", "data": res})
}

// OpenDraft handles POST .../draft.  The month comes from the body or the
// ?month= query and defaults to the current month.
func (h *ScheduleHandler) OpenDraft(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var req monthReq
	_ = c.Bind(&req)
	if req.Month == "" {
		req.Month = c.QueryParam("month")
	}
	d, err := h.Svc.OpenDraft(c.Request().Context(), sessionOf(c), id, req.Month)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// GetDraft handles GET .../draft.
func (h *ScheduleHandler) GetDraft(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	d, err := h.Svc.Draft(c.Request().Context(), sessionOf(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

// DiscardDraft handles DELETE .../draft.
func (h *ScheduleHandler) DiscardDraft(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	if err := h.Svc.DiscardDraft(c.Request().Context(), sessionOf(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleDate handles POST .../draft/dates/:date/toggle.
func (h *ScheduleHandler) ToggleDate(c echo.Context) error {
	date := c.Param("date")
	return h.mutate(c, func(comp *schedule.Composition) error { return comp.ToggleDate(date) })
}

// SetActiveDate handles PUT .../draft/active-date.
func (h *ScheduleHandler) SetActiveDate(c echo.Context) error {
	var req dateReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	return h.mutate(c, func(comp *schedule.Composition) error { return comp.SetActiveDate(req.Date) })
}

// SetMonth handles PUT .../draft/month.
func (h *ScheduleHandler) SetMonth(c echo.Context) error {
	var req monthReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := time.Parse("2006-01", req.Month)
	if err != nil {
		return writeError(c, service.ErrInvalidMonth)
	}
	return h.mutate(c, func(comp *schedule.Composition) error {
		comp.SetVisibleMonth(t.Year(), t.Month())
		return nil
	})
}

// AddSlot handles POST .../draft/dates/:date/slots.
func (h *ScheduleHandler) AddSlot(c echo.Context) error {
	date := c.Param("date")
	return h.mutate(c, func(comp *schedule.Composition) error { return comp.AddSlot(date) })
}

// UpdateSlot handles PATCH .../draft/dates/:date/slots/:index.
func (h *ScheduleHandler) UpdateSlot(c echo.Context) error {
	date, index, ok := slotTarget(c)
	if !ok {
		return badRequest(c, "invalid slot index")
	}
	var req fieldReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	return h.mutate(c, func(comp *schedule.Composition) error {
		return comp.UpdateSlot(date, index, schedule.SlotField(req.Field), req.Value)
	})
}

// RemoveSlot handles DELETE .../draft/dates/:date/slots/:index.
func (h *ScheduleHandler) RemoveSlot(c echo.Context) error {
	date, index, ok := slotTarget(c)
	if !ok {
		return badRequest(c, "invalid slot index")
	}
	return h.mutate(c, func(comp *schedule.Composition) error {
		comp.RemoveSlot(date, index)
		return nil
	})
}

// AddCategory handles POST .../slots/:index/categories and answers with the
// new category id next to the draft.
func (h *ScheduleHandler) AddCategory(c echo.Context) error {
	date, index, ok := slotTarget(c)
	if !ok {
		return badRequest(c, "invalid slot index")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	var categoryID string
	d, err := h.Svc.Mutate(c.Request().Context(), sessionOf(c), id, func(comp *schedule.Composition) error {
		categoryID = comp.AddCategory(date, index)
		return nil
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"category_id": categoryID, "draft": d})
}

// UpdateCategory handles PATCH .../slots/:index/categories/:categoryId.
func (h *ScheduleHandler) UpdateCategory(c echo.Context) error {
	date, index, ok := slotTarget(c)
	if !ok {
		return badRequest(c, "invalid slot index")
	}
	var req fieldReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	categoryID := c.Param("categoryId")
	return h.mutate(c, func(comp *schedule.Composition) error {
		return comp.UpdateCategory(date, index, categoryID, schedule.CategoryField(req.Field), req.Value)
	})
}

// RemoveCategory handles DELETE .../slots/:index/categories/:categoryId.
func (h *ScheduleHandler) RemoveCategory(c echo.Context) error {
	date, index, ok := slotTarget(c)
	if !ok {
		return badRequest(c, "invalid slot index")
	}
	categoryID := c.Param("categoryId")
	return h.mutate(c, func(comp *schedule.Composition) error {
		comp.RemoveCategory(date, index, categoryID)
		return nil
	})
}

// ApplySlots handles POST .../draft/apply-slots.  An empty source_date
// means the active date.
func (h *ScheduleHandler) ApplySlots(c echo.Context) error {
	var req applySlotsReq
	_ = c.Bind(&req)
	return h.mutate(c, func(comp *schedule.Composition) error { return comp.ApplySlotsToAllDates(req.SourceDate) })
}

// ApplyCategories handles POST .../draft/apply-categories.  Without a
// categories list each matching slot receives the categories of its
// counterpart on the source date.
func (h *ScheduleHandler) ApplyCategories(c echo.Context) error {
	var req applyCategoriesReq
	_ = c.Bind(&req)
	return h.mutate(c, func(comp *schedule.Composition) error {
		return comp.ApplyCategoriesToAllDates(req.SourceDate, req.Categories)
	})
}

// Payload handles GET .../draft/payload.
func (h *ScheduleHandler) Payload(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	p, err := h.Svc.Payload(c.Request().Context(), sessionOf(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Submit handles POST .../draft/submit.
func (h *ScheduleHandler) Submit(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid event id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	res, err := h.Svc.Submit(ctx, sessionOf(c), id)
	if err != nil {
		return writeError(c, err)
	}
	h.purge(ctx, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "event dates updated", "data": res})
}
