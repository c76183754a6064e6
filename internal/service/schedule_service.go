// Package service holds the page-level controller of the schedule editor.
// Every call takes the caller's session explicitly; nothing here reads
// global auth state.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iliyamo/event-ticketing-admin/internal/draft"
	"github.com/iliyamo/event-ticketing-admin/internal/logger"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/queue"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

// ErrInvalidMonth is returned for a visible month that is not YYYY-MM.
var ErrInvalidMonth = errors.New("month must be YYYY-MM")

// ErrEventMismatch is returned when a payload's event_ref_id names another event.
var ErrEventMismatch = errors.New("event_ref_id does not match event")

// EventStore is the subset of repository.EventRepo the service needs.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	GetOwned(ctx context.Context, id, organizerID uint64) (*model.Event, error)
	AllowedDates(ctx context.Context, eventID uint64) ([]string, error)
}

// ScheduleStore is the subset of repository.ScheduleRepo the service needs.
type ScheduleStore interface {
	SaveSchedule(ctx context.Context, eventID uint64, p schedule.Payload) (repository.SaveSummary, error)
	Load(ctx context.Context, eventID uint64) (schedule.ScheduleData, error)
}

// Publisher announces committed schedules.
type Publisher interface {
	PublishScheduleSaved(ctx context.Context, ev queue.ScheduleSavedEvent) error
}

// ScheduleService drives the draft lifecycle and the three network-facing
// operations of the editor: allow-list fetch, saved schedule fetch, submit.
type ScheduleService struct {
	events    EventStore
	schedules ScheduleStore
	drafts    draft.Store
	pub       Publisher
	now       func() time.Time
}

// NewScheduleService wires the service.  pub may be nil, in which case saves
// are not announced.
func NewScheduleService(events EventStore, schedules ScheduleStore, drafts draft.Store, pub Publisher) *ScheduleService {
	return &ScheduleService{events: events, schedules: schedules, drafts: drafts, pub: pub, now: time.Now}
}

// SubmitResult reports what a save wrote.
type SubmitResult struct {
	Payload    schedule.Payload `json:"payload"`
	Dates      []string         `json:"event_dates"`
	Slots      int              `json:"slot_count"`
	Categories int              `json:"category_count"`
}

func draftKey(s session.Session, eventID uint64) draft.Key {
	return draft.Key{UserID: s.UserID, EventID: eventID}
}

// authorize checks that s is an organizer who owns eventID.
func (svc *ScheduleService) authorize(ctx context.Context, s session.Session, eventID uint64) (*model.Event, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	if !s.IsOrganizer() {
		return nil, repository.ErrForbidden
	}
	return svc.events.GetOwned(ctx, eventID, s.UserID)
}

// parseMonth turns "YYYY-MM" into its first day; empty means the current month.
func (svc *ScheduleService) parseMonth(month string) (time.Time, error) {
	if month == "" {
		return svc.now().UTC(), nil
	}
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return t, nil
}

// OpenDraft starts a fresh editing session for the event, replacing any
// existing draft.  Previously saved dates are loaded as read-only; failures
// loading them leave the read-only list empty.
func (svc *ScheduleService) OpenDraft(ctx context.Context, s session.Session, eventID uint64, month string) (*draft.Draft, error) {
	if _, err := svc.authorize(ctx, s, eventID); err != nil {
		return nil, err
	}
	ref, err := svc.parseMonth(month)
	if err != nil {
		return nil, err
	}
	allowed, err := svc.events.AllowedDates(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load allowed dates: %w", err)
	}

	c := schedule.NewComposition(ref)
	if existing, err := svc.existing(ctx, eventID); err != nil {
		logger.Debug("existing schedule ignored", "event_id", eventID, "error", err)
	} else {
		c.Hydrate(existing)
	}

	d := draft.New(eventID, c, allowed)
	if err := svc.drafts.Save(ctx, draftKey(s, eventID), d); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}
	return d, nil
}

func (svc *ScheduleService) existing(ctx context.Context, eventID uint64) (map[string][]schedule.TimeSlot, error) {
	data, err := svc.schedules.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return schedule.FromWirePayload(data)
}

// Draft returns the caller's live draft for the event.
func (svc *ScheduleService) Draft(ctx context.Context, s session.Session, eventID uint64) (*draft.Draft, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	return svc.drafts.Load(ctx, draftKey(s, eventID))
}

// DiscardDraft drops the caller's draft.  Discarding a missing draft is fine.
func (svc *ScheduleService) DiscardDraft(ctx context.Context, s session.Session, eventID uint64) error {
	if err := s.Require(); err != nil {
		return err
	}
	return svc.drafts.Delete(ctx, draftKey(s, eventID))
}

// Mutate applies one editor operation to the draft and stores the result.
// When fn fails the stored draft is left unchanged.
func (svc *ScheduleService) Mutate(ctx context.Context, s session.Session, eventID uint64, fn func(*schedule.Composition) error) (*draft.Draft, error) {
	d, err := svc.Draft(ctx, s, eventID)
	if err != nil {
		return nil, err
	}
	if err := fn(d.Composition); err != nil {
		return nil, err
	}
	if err := svc.drafts.Save(ctx, draftKey(s, eventID), d); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}
	return d, nil
}

// Payload previews the wire payload the draft would submit.
func (svc *ScheduleService) Payload(ctx context.Context, s session.Session, eventID uint64) (schedule.Payload, error) {
	d, err := svc.Draft(ctx, s, eventID)
	if err != nil {
		return schedule.Payload{}, err
	}
	return d.Composition.ToWirePayload(strconv.FormatUint(eventID, 10))
}

// Submit validates the draft against the current allow-list, saves it and
// discards the draft.  Nothing is written when validation fails.
func (svc *ScheduleService) Submit(ctx context.Context, s session.Session, eventID uint64) (SubmitResult, error) {
	if _, err := svc.authorize(ctx, s, eventID); err != nil {
		return SubmitResult{}, err
	}
	d, err := svc.drafts.Load(ctx, draftKey(s, eventID))
	if err != nil {
		return SubmitResult{}, err
	}
	allowed, err := svc.events.AllowedDates(ctx, eventID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load allowed dates: %w", err)
	}
	if err := d.Composition.Validate(allowed); err != nil {
		return SubmitResult{}, err
	}
	p, err := d.Composition.ToWirePayload(strconv.FormatUint(eventID, 10))
	if err != nil {
		return SubmitResult{}, err
	}
	if err := schedule.ValidatePayload(p, allowed); err != nil {
		return SubmitResult{}, err
	}
	res, err := svc.persist(ctx, s, eventID, p)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := svc.drafts.Delete(ctx, draftKey(s, eventID)); err != nil {
		logger.Warn("draft not discarded after submit", "event_id", eventID, "error", err)
	}
	return res, nil
}

// SaveSchedule stores a payload built by the client itself.  It is checked
// with the same rules as a draft before anything is written.
func (svc *ScheduleService) SaveSchedule(ctx context.Context, s session.Session, eventID uint64, p schedule.Payload) (SubmitResult, error) {
	if _, err := svc.authorize(ctx, s, eventID); err != nil {
		return SubmitResult{}, err
	}
	id := strconv.FormatUint(eventID, 10)
	if p.EventRefID == "" {
		p.EventRefID = id
	} else if p.EventRefID != id {
		return SubmitResult{}, ErrEventMismatch
	}
	allowed, err := svc.events.AllowedDates(ctx, eventID)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("load allowed dates: %w", err)
	}
	if err := schedule.ValidatePayload(p, allowed); err != nil {
		return SubmitResult{}, err
	}
	return svc.persist(ctx, s, eventID, p)
}

func (svc *ScheduleService) persist(ctx context.Context, s session.Session, eventID uint64, p schedule.Payload) (SubmitResult, error) {
	sum, err := svc.schedules.SaveSchedule(ctx, eventID, p)
	if err != nil {
		return SubmitResult{}, err
	}
	logger.Info("schedule saved", "event_id", eventID, "dates", len(sum.Dates), "slots", sum.Slots)

	if svc.pub != nil {
		ev := queue.ScheduleSavedEvent{
			EventID:       eventID,
			OrganizerID:   s.UserID,
			EventDates:    sum.Dates,
			SlotCount:     sum.Slots,
			CategoryCount: sum.Categories,
			SavedAt:       svc.now().UTC().Format(time.RFC3339),
		}
		if err := svc.pub.PublishScheduleSaved(ctx, ev); err != nil {
			logger.Warn("schedule.saved not published", "event_id", eventID, "error", err)
		}
	}
	return SubmitResult{Payload: p, Dates: sum.Dates, Slots: sum.Slots, Categories: sum.Categories}, nil
}

// Schedule returns the saved schedule of any existing event.
func (svc *ScheduleService) Schedule(ctx context.Context, eventID uint64) (schedule.ScheduleData, error) {
	if _, err := svc.events.GetByID(ctx, eventID); err != nil {
		return schedule.ScheduleData{}, err
	}
	return svc.schedules.Load(ctx, eventID)
}

// AllowedDates returns the allow-list of an event the caller owns.
func (svc *ScheduleService) AllowedDates(ctx context.Context, s session.Session, eventID uint64) ([]string, error) {
	if _, err := svc.authorize(ctx, s, eventID); err != nil {
		return nil, err
	}
	return svc.events.AllowedDates(ctx, eventID)
}
