package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing-admin/internal/draft"
	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/queue"
	"github.com/iliyamo/event-ticketing-admin/internal/repository"
	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

type fakeEvents struct {
	events  map[uint64]*model.Event
	allowed map[uint64][]string
}

func (f *fakeEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	return e, nil
}

func (f *fakeEvents) GetOwned(ctx context.Context, id, organizerID uint64) (*model.Event, error) {
	e, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, repository.ErrForbidden
	}
	return e, nil
}

func (f *fakeEvents) AllowedDates(_ context.Context, id uint64) ([]string, error) {
	return f.allowed[id], nil
}

type fakeSchedules struct {
	saved   []schedule.Payload
	data    schedule.ScheduleData
	loadErr error
	saveErr error
}

func (f *fakeSchedules) SaveSchedule(_ context.Context, _ uint64, p schedule.Payload) (repository.SaveSummary, error) {
	if f.saveErr != nil {
		return repository.SaveSummary{}, f.saveErr
	}
	f.saved = append(f.saved, p)
	sum := repository.SaveSummary{Dates: append([]string{}, p.EventDates...)}
	sort.Strings(sum.Dates)
	for _, slots := range p.SlotData {
		sum.Slots += len(slots)
		for _, s := range slots {
			sum.Categories += len(s.SeatCategories)
		}
	}
	return sum, nil
}

func (f *fakeSchedules) Load(context.Context, uint64) (schedule.ScheduleData, error) {
	return f.data, f.loadErr
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishScheduleSaved(ctx context.Context, ev queue.ScheduleSavedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

var organizer = session.Session{UserID: 3, Role: session.RoleOrganizer}

type fixture struct {
	svc       *ScheduleService
	events    *fakeEvents
	schedules *fakeSchedules
	drafts    *draft.MemoryStore
	pub       *mockPublisher
}

func newFixture() *fixture {
	f := &fixture{
		events: &fakeEvents{
			events:  map[uint64]*model.Event{7: {ID: 7, OrganizerID: 3, Title: "Jazz Night"}},
			allowed: map[uint64][]string{},
		},
		schedules: &fakeSchedules{},
		drafts:    draft.NewMemoryStore(time.Hour),
		pub:       &mockPublisher{},
	}
	f.svc = NewScheduleService(f.events, f.schedules, f.drafts, f.pub)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestOpenDraftAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		s       session.Session
		eventID uint64
		wantErr error
	}{
		{"anonymous", session.Session{}, 7, session.ErrAnonymous},
		{"customer", session.Session{UserID: 3, Role: session.RoleCustomer}, 7, repository.ErrForbidden},
		{"other organizer", session.Session{UserID: 4, Role: session.RoleOrganizer}, 7, repository.ErrForbidden},
		{"missing event", organizer, 99, repository.ErrEventNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.OpenDraft(context.Background(), tt.s, tt.eventID, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenDraftHydratesSavedDatesReadOnly(t *testing.T) {
	f := newFixture()
	f.events.allowed[7] = []string{"2024-03-01", "2024-03-02"}
	f.schedules.data = schedule.ScheduleData{
		EventDates: []string{"2024-03-05"},
		SlotData: map[string][]schedule.WireSlot{
			"2024-03-05": {{Time: "6:30 PM", Duration: "1 hour 30 minutes", SeatCategories: []schedule.WireCategory{
				{ID: "a", SeatCategoryID: "41", Label: "Floor", Price: 25, TotalTickets: 100},
			}}},
		},
	}

	d, err := f.svc.OpenDraft(context.Background(), organizer, 7, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, d.AllowedDates)
	assert.Equal(t, "2024-03-01", d.Composition.StartDate)
	assert.Equal(t, "2024-03-31", d.Composition.EndDate)
	assert.Equal(t, []string{"2024-03-05"}, d.Composition.ReadOnlyDates)
	assert.Empty(t, d.Composition.SelectedDates)

	existing := d.Composition.Existing["2024-03-05"]
	require.Len(t, existing, 1)
	assert.Equal(t, "18:30", existing[0].StartTime)
	assert.Equal(t, "20:00", existing[0].EndTime)
	assert.Equal(t, "41", existing[0].SeatCategories[0].ID)

	stored, err := f.svc.Draft(context.Background(), organizer, 7)
	require.NoError(t, err)
	assert.Equal(t, d.ID, stored.ID)
}

func TestOpenDraftSwallowsBrokenSavedSchedule(t *testing.T) {
	for name, sched := range map[string]*fakeSchedules{
		"fetch error": {loadErr: errors.New("db down")},
		"malformed":   {data: schedule.ScheduleData{EventDates: []string{"2024-03-05"}, SlotData: map[string][]schedule.WireSlot{"2024-03-05": {{Time: "25:99"}}}}},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.svc.schedules = sched
			d, err := f.svc.OpenDraft(context.Background(), organizer, 7, "")
			require.NoError(t, err)
			assert.Empty(t, d.Composition.ReadOnlyDates)
			assert.Equal(t, "2024-03-01", d.Composition.StartDate)
		})
	}
}

func TestOpenDraftRejectsBadMonth(t *testing.T) {
	f := newFixture()
	_, err := f.svc.OpenDraft(context.Background(), organizer, 7, "March")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}

func TestMutateFailureKeepsStoredDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.OpenDraft(ctx, organizer, 7, "2024-03")
	require.NoError(t, err)

	_, err = f.svc.Mutate(ctx, organizer, 7, func(c *schedule.Composition) error {
		require.NoError(t, c.ToggleDate("2024-03-01"))
		return c.AddSlot("2024-03-09")
	})
	assert.ErrorIs(t, err, schedule.ErrDateNotSelected)

	d, err := f.svc.Draft(ctx, organizer, 7)
	require.NoError(t, err)
	assert.Empty(t, d.Composition.SelectedDates)
}

func TestMutateWithoutDraft(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Mutate(context.Background(), organizer, 7, func(*schedule.Composition) error { return nil })
	assert.ErrorIs(t, err, draft.ErrNotFound)
}

func buildVIPDraft(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.OpenDraft(ctx, organizer, 7, "2024-03")
	require.NoError(t, err)
	_, err = f.svc.Mutate(ctx, organizer, 7, func(c *schedule.Composition) error {
		for _, d := range []string{"2024-03-01", "2024-03-02"} {
			if err := c.ToggleDate(d); err != nil {
				return err
			}
		}
		if err := c.AddSlot("2024-03-01"); err != nil {
			return err
		}
		if err := c.UpdateSlot("2024-03-01", 0, schedule.FieldStartTime, "09:00"); err != nil {
			return err
		}
		if err := c.UpdateSlot("2024-03-01", 0, schedule.FieldEndTime, "11:00"); err != nil {
			return err
		}
		id := c.AddCategory("2024-03-01", 0)
		for field, v := range map[schedule.CategoryField]string{
			schedule.FieldName: "VIP", schedule.FieldPrice: "100", schedule.FieldQuantity: "20",
		} {
			if err := c.UpdateCategory("2024-03-01", 0, id, field, v); err != nil {
				return err
			}
		}
		return c.ApplySlotsToAllDates("2024-03-01")
	})
	require.NoError(t, err)
}

func TestSubmitSavesPublishesAndDiscards(t *testing.T) {
	f := newFixture()
	buildVIPDraft(t, f)
	f.pub.On("PublishScheduleSaved", mock.Anything, mock.MatchedBy(func(ev queue.ScheduleSavedEvent) bool {
		return ev.EventID == 7 && ev.OrganizerID == 3 && ev.SlotCount == 2 && ev.CategoryCount == 2 &&
			ev.SavedAt == "2024-03-10T09:00:00Z"
	})).Return(nil).Once()

	res, err := f.svc.Submit(context.Background(), organizer, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, res.Dates)

	require.Len(t, f.schedules.saved, 1)
	p := f.schedules.saved[0]
	assert.Equal(t, "7", p.EventRefID)
	for _, d := range []string{"2024-03-01", "2024-03-02"} {
		require.Len(t, p.SlotData[d], 1, d)
		assert.Equal(t, "9:00 AM", p.SlotData[d][0].Time)
		assert.Equal(t, "2 hours", p.SlotData[d][0].Duration)
		assert.Equal(t, "VIP", p.SlotData[d][0].SeatCategories[0].Label)
		assert.Equal(t, 100.0, p.SlotData[d][0].SeatCategories[0].Price)
		assert.Equal(t, 20, p.SlotData[d][0].SeatCategories[0].TotalTickets)
	}
	f.pub.AssertExpectations(t)

	_, err = f.svc.Draft(context.Background(), organizer, 7)
	assert.ErrorIs(t, err, draft.ErrNotFound)
}

func TestSubmitRejectsDatesOutsideAllowList(t *testing.T) {
	f := newFixture()
	buildVIPDraft(t, f)
	f.events.allowed[7] = []string{"2024-03-01"}

	_, err := f.svc.Submit(context.Background(), organizer, 7)
	var verr *schedule.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schedule.ReasonNotEventDate, verr.Reason)
	assert.Equal(t, []string{"2024-03-02"}, verr.Dates)
	assert.Empty(t, f.schedules.saved)

	_, err = f.svc.Draft(context.Background(), organizer, 7)
	assert.NoError(t, err)
}

func TestSubmitEmptySelection(t *testing.T) {
	f := newFixture()
	_, err := f.svc.OpenDraft(context.Background(), organizer, 7, "")
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), organizer, 7)
	var verr *schedule.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, schedule.ReasonNoDates, verr.Reason)
}

func TestSubmitIgnoresPublishFailure(t *testing.T) {
	f := newFixture()
	buildVIPDraft(t, f)
	f.pub.On("PublishScheduleSaved", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	_, err := f.svc.Submit(context.Background(), organizer, 7)
	require.NoError(t, err)
	assert.Len(t, f.schedules.saved, 1)
	f.pub.AssertExpectations(t)
}

func TestSubmitSurfacesStoreError(t *testing.T) {
	f := newFixture()
	buildVIPDraft(t, f)
	f.schedules.saveErr = repository.DateNotAllowedError("2024-03-02")

	_, err := f.svc.Submit(context.Background(), organizer, 7)
	assert.ErrorIs(t, err, repository.ErrDateNotAllowed)
	f.pub.AssertNotCalled(t, "PublishScheduleSaved", mock.Anything, mock.Anything)
}

func TestSaveScheduleValidatesPayload(t *testing.T) {
	valid := schedule.Payload{
		EventDates: []string{"2024-03-01"},
		SlotData: map[string][]schedule.WireSlot{
			"2024-03-01": {{Time: "7:00 PM", Duration: "2 hours"}},
		},
	}
	t.Run("fills event_ref_id", func(t *testing.T) {
		f := newFixture()
		f.pub.On("PublishScheduleSaved", mock.Anything, mock.Anything).Return(nil)
		_, err := f.svc.SaveSchedule(context.Background(), organizer, 7, valid)
		require.NoError(t, err)
		assert.Equal(t, "7", f.schedules.saved[0].EventRefID)
	})
	t.Run("mismatched event", func(t *testing.T) {
		f := newFixture()
		p := valid
		p.EventRefID = "8"
		_, err := f.svc.SaveSchedule(context.Background(), organizer, 7, p)
		assert.ErrorIs(t, err, ErrEventMismatch)
	})
	t.Run("zero duration", func(t *testing.T) {
		f := newFixture()
		p := schedule.Payload{
			EventDates: []string{"2024-03-01"},
			SlotData:   map[string][]schedule.WireSlot{"2024-03-01": {{Time: "7:00 PM", Duration: ""}}},
		}
		_, err := f.svc.SaveSchedule(context.Background(), organizer, 7, p)
		var verr *schedule.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, schedule.ReasonInvalidDuration, verr.Reason)
		assert.Empty(t, f.schedules.saved)
	})
}

func TestScheduleRequiresEvent(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Schedule(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)

	f.schedules.data = schedule.ScheduleData{EventDates: []string{"2024-03-01"}}
	data, err := f.svc.Schedule(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01"}, data.EventDates)
}
