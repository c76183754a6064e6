package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing-admin/internal/handler"
	"github.com/iliyamo/event-ticketing-admin/internal/middleware"
	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

// RegisterOrganizer registers ORGANIZER endpoints under /v1/organizer.  The
// limiter runs after JWTAuth so buckets are keyed by user.
func RegisterOrganizer(e *echo.Echo, ev *handler.EventHandler, s *handler.ScheduleHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/organizer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(session.RoleOrganizer),
		limiter,
	)

	// ---- Events ----
	g.POST("/events", ev.CreateEvent)
	g.GET("/events", ev.ListEvents)
	g.GET("/events/:id", ev.GetEvent)
	g.GET("/events/:id/allowed-dates", ev.GetAllowedDates)
	g.PUT("/events/:id/allowed-dates", ev.PutAllowedDates)

	// ---- Saved schedule ----
	g.GET("/events/:id/schedule", s.GetSchedule)
	g.PUT("/events/:id/schedule", s.PutSchedule)

	// ---- Draft ----
	d := g.Group("/events/:id/draft")
	d.POST("", s.OpenDraft)
	d.GET("", s.GetDraft)
	d.DELETE("", s.DiscardDraft)
	d.PUT("/active-date", s.SetActiveDate)
	d.PUT("/month", s.SetMonth)
	d.POST("/dates/:date/toggle", s.ToggleDate)
	d.POST("/dates/:date/slots", s.AddSlot)
	d.PATCH("/dates/:date/slots/:index", s.UpdateSlot)
	d.DELETE("/dates/:date/slots/:index", s.RemoveSlot)
	d.POST("/dates/:date/slots/:index/categories", s.AddCategory)
	d.PATCH("/dates/:date/slots/:index/categories/:categoryId", s.UpdateCategory)
	d.DELETE("/dates/:date/slots/:index/categories/:categoryId", s.RemoveCategory)
	d.POST("/apply-slots", s.ApplySlots)
	d.POST("/apply-categories", s.ApplyCategories)
	d.GET("/payload", s.Payload)
	d.POST("/submit", s.Submit)
}
