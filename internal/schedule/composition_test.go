package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComposition(t *testing.T, dates ...string) *Composition {
	t.Helper()
	c := NewComposition(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))
	for _, d := range dates {
		require.NoError(t, c.ToggleDate(d))
	}
	return c
}

// addCategory adds a category to the slot and fills it in.
func addCategory(t *testing.T, c *Composition, date string, slot int, name, price, qty string) string {
	t.Helper()
	id := c.AddCategory(date, slot)
	require.NotEmpty(t, id)
	require.NoError(t, c.UpdateCategory(date, slot, id, FieldName, name))
	require.NoError(t, c.UpdateCategory(date, slot, id, FieldPrice, price))
	require.NoError(t, c.UpdateCategory(date, slot, id, FieldQuantity, qty))
	return id
}

func TestNewCompositionMonthBounds(t *testing.T) {
	c := NewComposition(time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-02-01", c.StartDate)
	assert.Equal(t, "2024-02-29", c.EndDate)

	c.SetVisibleMonth(2024, time.December)
	assert.Equal(t, "2024-12-01", c.StartDate)
	assert.Equal(t, "2024-12-31", c.EndDate)
}

func TestToggleDateKeepsSelectionSorted(t *testing.T) {
	c := newTestComposition(t, "2024-03-05", "2024-03-01", "2024-03-03")
	assert.Equal(t, []string{"2024-03-01", "2024-03-03", "2024-03-05"}, c.SelectedDates)
	assert.Equal(t, "2024-03-01", c.ActiveDate)

	assert.ErrorIs(t, c.ToggleDate("2024-3-1"), ErrInvalidDate)
}

func TestToggleDateTwiceRestoresState(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	before := append([]string{}, c.SelectedDates...)

	require.NoError(t, c.ToggleDate("2024-03-02"))
	require.NoError(t, c.AddSlot("2024-03-02"))
	require.Len(t, c.Slots("2024-03-02"), 1)

	require.NoError(t, c.ToggleDate("2024-03-02"))
	assert.Equal(t, before, c.SelectedDates)
	_, ok := c.TimeSlots["2024-03-02"]
	assert.False(t, ok, "slots of a deselected date are dropped")
}

func TestToggleDateResetsActiveDate(t *testing.T) {
	c := newTestComposition(t, "2024-03-01", "2024-03-02", "2024-03-03")
	require.NoError(t, c.SetActiveDate("2024-03-02"))

	require.NoError(t, c.ToggleDate("2024-03-02"))
	assert.Equal(t, "2024-03-01", c.ActiveDate)

	require.NoError(t, c.ToggleDate("2024-03-01"))
	require.NoError(t, c.ToggleDate("2024-03-03"))
	assert.Empty(t, c.ActiveDate)
	assert.Empty(t, c.SelectedDates)
}

func TestToggleDateIgnoresReadOnlyDates(t *testing.T) {
	c := newTestComposition(t)
	c.Hydrate(map[string][]TimeSlot{"2024-03-09": {}})

	require.NoError(t, c.ToggleDate("2024-03-09"))
	assert.Empty(t, c.SelectedDates)
	assert.Equal(t, []string{"2024-03-09"}, c.ReadOnlyDates)
}

func TestSetActiveDateRequiresSelection(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	assert.ErrorIs(t, c.SetActiveDate("2024-03-02"), ErrDateNotSelected)
}

func TestAddSlotDefaults(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	require.NoError(t, c.AddSlot("2024-03-01"))

	slots := c.Slots("2024-03-01")
	require.Len(t, slots, 1)
	assert.Equal(t, TimeSlot{
		StartTime:      "10:00",
		EndTime:        "12:00",
		Duration:       "2h 0m",
		Capacity:       0,
		SeatCategories: []SeatCategory{},
	}, slots[0])

	assert.ErrorIs(t, c.AddSlot("2024-03-02"), ErrDateNotSelected)
}

func TestUpdateSlotRecomputesDuration(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	require.NoError(t, c.AddSlot("2024-03-01"))

	require.NoError(t, c.UpdateSlot("2024-03-01", 0, FieldStartTime, "09:00"))
	assert.Equal(t, "3h 0m", c.Slots("2024-03-01")[0].Duration)

	require.NoError(t, c.UpdateSlot("2024-03-01", 0, FieldEndTime, "08:30"))
	assert.Equal(t, "", c.Slots("2024-03-01")[0].Duration, "inverted windows are kept but have no duration")

	require.NoError(t, c.UpdateSlot("2024-03-01", 0, FieldCapacity, "150"))
	assert.Equal(t, 150, c.Slots("2024-03-01")[0].Capacity)
}

func TestUpdateSlotRejectsBadInput(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	require.NoError(t, c.AddSlot("2024-03-01"))

	assert.ErrorIs(t, c.UpdateSlot("2024-03-01", 0, FieldStartTime, "9"), ErrInvalidValue)
	assert.ErrorIs(t, c.UpdateSlot("2024-03-01", 0, FieldCapacity, "-1"), ErrInvalidValue)
	assert.ErrorIs(t, c.UpdateSlot("2024-03-01", 0, SlotField("venue"), "x"), ErrUnknownField)

	assert.NoError(t, c.UpdateSlot("2024-03-01", 4, FieldStartTime, "09:00"), "out of range is ignored")
	assert.Equal(t, "10:00", c.Slots("2024-03-01")[0].StartTime)
}

func TestRemoveSlotShiftsDown(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	for i := 0; i < 3; i++ {
		require.NoError(t, c.AddSlot("2024-03-01"))
	}
	require.NoError(t, c.UpdateSlot("2024-03-01", 1, FieldStartTime, "11:00"))
	require.NoError(t, c.UpdateSlot("2024-03-01", 2, FieldStartTime, "11:30"))

	c.RemoveSlot("2024-03-01", 1)
	slots := c.Slots("2024-03-01")
	require.Len(t, slots, 2)
	assert.Equal(t, "10:00", slots[0].StartTime)
	assert.Equal(t, "11:30", slots[1].StartTime)

	c.RemoveSlot("2024-03-01", 9)
	assert.Len(t, c.Slots("2024-03-01"), 2)
}

func TestCategoryCRUDByID(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	require.NoError(t, c.AddSlot("2024-03-01"))

	gold := addCategory(t, c, "2024-03-01", 0, "Gold", "50", "10")
	silver := addCategory(t, c, "2024-03-01", 0, "Silver", "25.5", "30")
	assert.NotEqual(t, gold, silver)

	slot := c.Slots("2024-03-01")[0]
	require.Len(t, slot.SeatCategories, 2)
	assert.Equal(t, 40, slot.Capacity)
	assert.Equal(t, 25.5, slot.SeatCategories[1].Price)

	c.RemoveCategory("2024-03-01", 0, gold)
	slot = c.Slots("2024-03-01")[0]
	require.Len(t, slot.SeatCategories, 1)
	assert.Equal(t, "Silver", slot.SeatCategories[0].Name)
	assert.Equal(t, 30, slot.Capacity)

	assert.ErrorIs(t, c.UpdateCategory("2024-03-01", 0, silver, FieldPrice, "-3"), ErrInvalidValue)
	assert.ErrorIs(t, c.UpdateCategory("2024-03-01", 0, silver, CategoryField("color"), "red"), ErrUnknownField)
	assert.NoError(t, c.UpdateCategory("2024-03-01", 0, "missing", FieldName, "x"))
	assert.Empty(t, c.AddCategory("2024-03-01", 3))
}

func TestApplySlotsToAllDatesDeepCopies(t *testing.T) {
	c := newTestComposition(t, "2024-01-01", "2024-01-02")
	require.Equal(t, "2024-01-01", c.ActiveDate)
	require.NoError(t, c.AddSlot("2024-01-01"))
	addCategory(t, c, "2024-01-01", 0, "Gold", "50", "10")

	require.NoError(t, c.ApplySlotsToAllDates(""))

	src := c.Slots("2024-01-01")
	dst := c.Slots("2024-01-02")
	require.Len(t, dst, 1)
	assert.Equal(t, src, dst)

	require.NoError(t, c.UpdateCategory("2024-01-02", 0, dst[0].SeatCategories[0].ID, FieldPrice, "99"))
	require.NoError(t, c.UpdateSlot("2024-01-02", 0, FieldStartTime, "11:00"))
	assert.Equal(t, 50.0, c.Slots("2024-01-01")[0].SeatCategories[0].Price)
	assert.Equal(t, "10:00", c.Slots("2024-01-01")[0].StartTime)
}

func TestApplySlotsToAllDatesNeedsSource(t *testing.T) {
	c := newTestComposition(t)
	assert.ErrorIs(t, c.ApplySlotsToAllDates(""), ErrNoActiveDate)

	c = newTestComposition(t, "2024-01-01")
	assert.ErrorIs(t, c.ApplySlotsToAllDates("2024-01-05"), ErrDateNotSelected)
}

func TestApplySlotsFromEmptySourceKeepsTargets(t *testing.T) {
	c := newTestComposition(t, "2024-01-01", "2024-01-02")
	require.NoError(t, c.AddSlot("2024-01-02"))

	require.NoError(t, c.ApplySlotsToAllDates("2024-01-01"))
	assert.Len(t, c.Slots("2024-01-02"), 1)
}

func TestApplyCategoriesMatchesByTimeRange(t *testing.T) {
	c := newTestComposition(t, "2024-01-01", "2024-01-02", "2024-01-03")
	require.NoError(t, c.AddSlot("2024-01-01"))
	addCategory(t, c, "2024-01-01", 0, "VIP", "100", "20")

	// matching window, different position
	require.NoError(t, c.AddSlot("2024-01-02"))
	require.NoError(t, c.UpdateSlot("2024-01-02", 0, FieldStartTime, "08:00"))
	require.NoError(t, c.UpdateSlot("2024-01-02", 0, FieldEndTime, "09:00"))
	require.NoError(t, c.AddSlot("2024-01-02"))

	// no matching window
	require.NoError(t, c.AddSlot("2024-01-03"))
	require.NoError(t, c.UpdateSlot("2024-01-03", 0, FieldEndTime, "13:00"))
	addCategory(t, c, "2024-01-03", 0, "Standard", "10", "5")

	require.NoError(t, c.ApplyCategoriesToAllDates("2024-01-01", nil))

	second := c.Slots("2024-01-02")
	assert.Empty(t, second[0].SeatCategories)
	require.Len(t, second[1].SeatCategories, 1)
	assert.Equal(t, "VIP", second[1].SeatCategories[0].Name)
	assert.Equal(t, 20, second[1].Capacity)

	third := c.Slots("2024-01-03")
	require.Len(t, third[0].SeatCategories, 1)
	assert.Equal(t, "Standard", third[0].SeatCategories[0].Name)

	second[1].SeatCategories[0].Name = "changed"
	assert.Equal(t, "VIP", c.Slots("2024-01-01")[0].SeatCategories[0].Name)
}

func TestApplyCategoriesWithExplicitList(t *testing.T) {
	c := newTestComposition(t, "2024-01-01", "2024-01-02")
	require.NoError(t, c.AddSlot("2024-01-01"))
	require.NoError(t, c.AddSlot("2024-01-02"))

	cats := []SeatCategory{{ID: "a", Name: "Balcony", Price: 30, Quantity: 12}}
	require.NoError(t, c.ApplyCategoriesToAllDates("", cats))

	got := c.Slots("2024-01-02")[0]
	assert.Equal(t, cats, got.SeatCategories)
	assert.Equal(t, 12, got.Capacity)
	cats[0].Name = "mutated"
	assert.Equal(t, "Balcony", c.Slots("2024-01-02")[0].SeatCategories[0].Name)
}

func TestHydrateExcludesSavedDates(t *testing.T) {
	c := newTestComposition(t, "2024-03-01", "2024-03-02")
	require.NoError(t, c.AddSlot("2024-03-01"))

	c.Hydrate(map[string][]TimeSlot{
		"2024-03-01": {{StartTime: "09:00", EndTime: "10:00", Duration: "1h 0m"}},
	})

	assert.Equal(t, []string{"2024-03-02"}, c.SelectedDates)
	assert.Equal(t, "2024-03-02", c.ActiveDate)
	assert.NotContains(t, c.TimeSlots, "2024-03-01")
	assert.Len(t, c.Existing["2024-03-01"], 1)
}

func TestCloneIsIndependent(t *testing.T) {
	c := newTestComposition(t, "2024-03-01")
	require.NoError(t, c.AddSlot("2024-03-01"))
	addCategory(t, c, "2024-03-01", 0, "Gold", "50", "10")

	cp := c.Clone()
	cp.TimeSlots["2024-03-01"][0].SeatCategories[0].Name = "Other"
	cp.SelectedDates[0] = "2024-03-09"

	assert.Equal(t, "Gold", c.Slots("2024-03-01")[0].SeatCategories[0].Name)
	assert.Equal(t, "2024-03-01", c.SelectedDates[0])
}

func TestEndToEndApplyAndSerialize(t *testing.T) {
	c := newTestComposition(t, "2024-03-01", "2024-03-02")
	require.NoError(t, c.AddSlot("2024-03-01"))
	require.NoError(t, c.UpdateSlot("2024-03-01", 0, FieldStartTime, "09:00"))
	require.NoError(t, c.UpdateSlot("2024-03-01", 0, FieldEndTime, "11:00"))
	addCategory(t, c, "2024-03-01", 0, "VIP", "100", "20")

	require.NoError(t, c.ApplySlotsToAllDates("2024-03-01"))

	slots := c.Slots("2024-03-02")
	require.Len(t, slots, 1)
	assert.Equal(t, "2h 0m", slots[0].Duration)
	require.Len(t, slots[0].SeatCategories, 1)
	assert.Equal(t, "VIP", slots[0].SeatCategories[0].Name)
	assert.Equal(t, 100.0, slots[0].SeatCategories[0].Price)
	assert.Equal(t, 20, slots[0].SeatCategories[0].Quantity)

	p, err := c.ToWirePayload("evt-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, p.EventDates)
	for _, d := range p.EventDates {
		require.Len(t, p.SlotData[d], 1, d)
		assert.Equal(t, "9:00 AM", p.SlotData[d][0].Time)
		assert.Equal(t, "2 hours", p.SlotData[d][0].Duration)
	}
}
