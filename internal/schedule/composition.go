// Package schedule holds the date/slot/pricing composition model used when an
// organizer lays out the calendar of an event. Everything here is in-memory
// and synchronous; persistence and transport live in other packages.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used as the key of every slot list.
const DateLayout = "2006-01-02"

// Default window of a freshly added slot.
const (
	DefaultStartTime = "10:00"
	DefaultEndTime   = "12:00"
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrDateNotSelected = errors.New("date is not selected")
	ErrNoActiveDate    = errors.New("no active date selected")
	ErrUnknownField    = errors.New("unknown field")
	ErrInvalidValue    = errors.New("invalid value")
)

// SeatCategory is a priced block of tickets inside one slot. IDs are unique
// within their slot only.
type SeatCategory struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// TimeSlot is one sitting on a date. Slots have no identity of their own and
// are addressed by their position in the date's list.
type TimeSlot struct {
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	Duration       string         `json:"duration"`
	Capacity       int            `json:"capacity"`
	SeatCategories []SeatCategory `json:"seat_categories"`
}

// SlotField names an editable TimeSlot attribute.
type SlotField string

const (
	FieldStartTime SlotField = "startTime"
	FieldEndTime   SlotField = "endTime"
	FieldCapacity  SlotField = "capacity"
)

// CategoryField names an editable SeatCategory attribute.
type CategoryField string

const (
	FieldName     CategoryField = "name"
	FieldPrice    CategoryField = "price"
	FieldQuantity CategoryField = "quantity"
)

// Composition is the working state of the date/slot editor for one event.
//
// SelectedDates is kept sorted and duplicate free, and TimeSlots only ever
// carries entries for selected dates. Dates already saved on the server are
// listed in ReadOnlyDates (with their slots in Existing) and can never be
// selected or edited here.
type Composition struct {
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	SelectedDates []string              `json:"selected_dates"`
	TimeSlots     map[string][]TimeSlot `json:"time_slots"`
	ActiveDate    string                `json:"active_date,omitempty"`
	ReadOnlyDates []string              `json:"read_only_dates"`
	Existing      map[string][]TimeSlot `json:"existing,omitempty"`
}

// NewComposition returns an empty composition showing the month of ref.
func NewComposition(ref time.Time) *Composition {
	c := &Composition{
		SelectedDates: []string{},
		TimeSlots:     map[string][]TimeSlot{},
		ReadOnlyDates: []string{},
	}
	c.SetVisibleMonth(ref.Year(), ref.Month())
	return c
}

// SetVisibleMonth moves StartDate/EndDate to the bounds of the given month.
// Selections outside the month are kept.
func (c *Composition) SetVisibleMonth(year int, month time.Month) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	c.StartDate = first.Format(DateLayout)
	c.EndDate = first.AddDate(0, 1, -1).Format(DateLayout)
}

func validDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// IsSelected reports whether date is part of the current selection.
func (c *Composition) IsSelected(date string) bool { return contains(c.SelectedDates, date) }

// IsReadOnly reports whether date already has a saved schedule.
func (c *Composition) IsReadOnly(date string) bool { return contains(c.ReadOnlyDates, date) }

// Slots returns the slot list of date. The returned slice is shared.
func (c *Composition) Slots(date string) []TimeSlot { return c.TimeSlots[date] }

// ToggleDate flips the selection of date. Read-only dates are ignored.
// Deselecting drops the date's slots and, when the active date is no longer
// selected, the first remaining date becomes active.
func (c *Composition) ToggleDate(date string) error {
	if !validDate(date) {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if c.IsReadOnly(date) {
		return nil
	}
	if c.TimeSlots == nil {
		c.TimeSlots = map[string][]TimeSlot{}
	}
	if c.IsSelected(date) {
		next := make([]string, 0, len(c.SelectedDates))
		for _, d := range c.SelectedDates {
			if d != date {
				next = append(next, d)
			}
		}
		c.SelectedDates = next
		delete(c.TimeSlots, date)
	} else {
		c.SelectedDates = append(append([]string{}, c.SelectedDates...), date)
		sort.Strings(c.SelectedDates)
	}
	if !c.IsSelected(c.ActiveDate) {
		c.ActiveDate = ""
		if len(c.SelectedDates) > 0 {
			c.ActiveDate = c.SelectedDates[0]
		}
	}
	return nil
}

// SetActiveDate picks the source date used by the apply-to-all operations.
func (c *Composition) SetActiveDate(date string) error {
	if !c.IsSelected(date) {
		return fmt.Errorf("%w: %s", ErrDateNotSelected, date)
	}
	c.ActiveDate = date
	return nil
}

// AddSlot appends a 10:00-12:00 slot with no categories to date.
func (c *Composition) AddSlot(date string) error {
	if !c.IsSelected(date) {
		return fmt.Errorf("%w: %s", ErrDateNotSelected, date)
	}
	slot := TimeSlot{
		StartTime:      DefaultStartTime,
		EndTime:        DefaultEndTime,
		Duration:       DurationDisplay(DefaultStartTime, DefaultEndTime),
		SeatCategories: []SeatCategory{},
	}
	if c.TimeSlots == nil {
		c.TimeSlots = map[string][]TimeSlot{}
	}
	c.TimeSlots[date] = append(cloneSlots(c.TimeSlots[date]), slot)
	return nil
}

// slotAt returns a copy-on-write slot list for date and whether index is addressable.
func (c *Composition) slotAt(date string, index int) ([]TimeSlot, bool) {
	slots := c.TimeSlots[date]
	if index < 0 || index >= len(slots) {
		return nil, false
	}
	return cloneSlots(slots), true
}

// UpdateSlot sets one field of the slot at index. Changing either bound
// recomputes Duration. An index outside the list is ignored.
func (c *Composition) UpdateSlot(date string, index int, field SlotField, value string) error {
	slots, ok := c.slotAt(date, index)
	if !ok {
		return nil
	}
	s := &slots[index]
	switch field {
	case FieldStartTime, FieldEndTime:
		value = strings.TrimSpace(value)
		if !ValidClock(value) {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, field, value)
		}
		if field == FieldStartTime {
			s.StartTime = value
		} else {
			s.EndTime = value
		}
		s.Duration = DurationDisplay(s.StartTime, s.EndTime)
	case FieldCapacity:
		n, err := parseCount(value)
		if err != nil {
			return fmt.Errorf("%w: capacity=%q", ErrInvalidValue, value)
		}
		s.Capacity = n
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	c.TimeSlots[date] = slots
	return nil
}

// RemoveSlot drops the slot at index; later slots shift down.
func (c *Composition) RemoveSlot(date string, index int) {
	slots, ok := c.slotAt(date, index)
	if !ok {
		return
	}
	c.TimeSlots[date] = append(slots[:index], slots[index+1:]...)
}

// AddCategory appends an empty category to the slot and returns its id.
// An index outside the list is ignored and yields an empty id.
func (c *Composition) AddCategory(date string, slotIndex int) string {
	slots, ok := c.slotAt(date, slotIndex)
	if !ok {
		return ""
	}
	id := uuid.NewString()
	s := &slots[slotIndex]
	s.SeatCategories = append(s.SeatCategories, SeatCategory{ID: id})
	s.Capacity = sumQuantities(s.SeatCategories)
	c.TimeSlots[date] = slots
	return id
}

// UpdateCategory sets one field of the category identified by categoryID.
func (c *Composition) UpdateCategory(date string, slotIndex int, categoryID string, field CategoryField, value string) error {
	slots, ok := c.slotAt(date, slotIndex)
	if !ok {
		return nil
	}
	s := &slots[slotIndex]
	i := categoryIndex(s.SeatCategories, categoryID)
	if i < 0 {
		return nil
	}
	cat := &s.SeatCategories[i]
	switch field {
	case FieldName:
		cat.Name = value
	case FieldPrice:
		p, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || p < 0 {
			return fmt.Errorf("%w: price=%q", ErrInvalidValue, value)
		}
		cat.Price = p
	case FieldQuantity:
		n, err := parseCount(value)
		if err != nil {
			return fmt.Errorf("%w: quantity=%q", ErrInvalidValue, value)
		}
		cat.Quantity = n
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	s.Capacity = sumQuantities(s.SeatCategories)
	c.TimeSlots[date] = slots
	return nil
}

// RemoveCategory deletes the category identified by categoryID from the slot.
func (c *Composition) RemoveCategory(date string, slotIndex int, categoryID string) {
	slots, ok := c.slotAt(date, slotIndex)
	if !ok {
		return
	}
	s := &slots[slotIndex]
	i := categoryIndex(s.SeatCategories, categoryID)
	if i < 0 {
		return
	}
	s.SeatCategories = append(s.SeatCategories[:i], s.SeatCategories[i+1:]...)
	s.Capacity = sumQuantities(s.SeatCategories)
	c.TimeSlots[date] = slots
}

// resolveSource falls back to the active date when source is empty.
func (c *Composition) resolveSource(source string) (string, error) {
	if source == "" {
		source = c.ActiveDate
	}
	if source == "" {
		return "", ErrNoActiveDate
	}
	if !c.IsSelected(source) {
		return "", fmt.Errorf("%w: %s", ErrDateNotSelected, source)
	}
	return source, nil
}

// ApplySlotsToAllDates replaces the slot list of every other selected date
// with an independent copy of the source date's slots. A source without slots
// leaves the other dates untouched.
func (c *Composition) ApplySlotsToAllDates(source string) error {
	source, err := c.resolveSource(source)
	if err != nil {
		return err
	}
	src := c.TimeSlots[source]
	if len(src) == 0 {
		return nil
	}
	for _, d := range c.SelectedDates {
		if d == source {
			continue
		}
		c.TimeSlots[d] = cloneSlots(src)
	}
	return nil
}

// ApplyCategoriesToAllDates copies seat categories onto every slot of the
// other selected dates whose (start, end) pair matches a slot on the source
// date. When categories is nil each target gets the categories of its matching
// source slot; otherwise it gets the given list. Unmatched slots keep theirs.
func (c *Composition) ApplyCategoriesToAllDates(source string, categories []SeatCategory) error {
	source, err := c.resolveSource(source)
	if err != nil {
		return err
	}
	byRange := make(map[[2]string][]SeatCategory, len(c.TimeSlots[source]))
	for _, s := range c.TimeSlots[source] {
		key := [2]string{s.StartTime, s.EndTime}
		if _, seen := byRange[key]; seen {
			continue
		}
		if categories != nil {
			byRange[key] = categories
		} else {
			byRange[key] = s.SeatCategories
		}
	}
	if len(byRange) == 0 {
		return nil
	}
	for _, d := range c.SelectedDates {
		if d == source {
			continue
		}
		slots := cloneSlots(c.TimeSlots[d])
		changed := false
		for i := range slots {
			cats, ok := byRange[[2]string{slots[i].StartTime, slots[i].EndTime}]
			if !ok {
				continue
			}
			slots[i].SeatCategories = cloneCategories(cats)
			slots[i].Capacity = sumQuantities(slots[i].SeatCategories)
			changed = true
		}
		if changed {
			c.TimeSlots[d] = slots
		}
	}
	return nil
}

// Hydrate records previously saved dates as read-only. They are shown next
// to the editable calendar but never enter SelectedDates or TimeSlots.
func (c *Composition) Hydrate(existing map[string][]TimeSlot) {
	dates := make([]string, 0, len(existing))
	c.Existing = make(map[string][]TimeSlot, len(existing))
	for d, slots := range existing {
		dates = append(dates, d)
		c.Existing[d] = cloneSlots(slots)
	}
	sort.Strings(dates)
	c.ReadOnlyDates = dates

	kept := make([]string, 0, len(c.SelectedDates))
	for _, d := range c.SelectedDates {
		if c.IsReadOnly(d) {
			delete(c.TimeSlots, d)
			continue
		}
		kept = append(kept, d)
	}
	c.SelectedDates = kept
	if !c.IsSelected(c.ActiveDate) {
		c.ActiveDate = ""
		if len(kept) > 0 {
			c.ActiveDate = kept[0]
		}
	}
}

// Clone returns a deep copy of c.
func (c *Composition) Clone() *Composition {
	out := *c
	out.SelectedDates = append([]string{}, c.SelectedDates...)
	out.ReadOnlyDates = append([]string{}, c.ReadOnlyDates...)
	out.TimeSlots = make(map[string][]TimeSlot, len(c.TimeSlots))
	for d, s := range c.TimeSlots {
		out.TimeSlots[d] = cloneSlots(s)
	}
	if c.Existing != nil {
		out.Existing = make(map[string][]TimeSlot, len(c.Existing))
		for d, s := range c.Existing {
			out.Existing[d] = cloneSlots(s)
		}
	}
	return &out
}

func cloneSlots(in []TimeSlot) []TimeSlot {
	out := make([]TimeSlot, len(in))
	for i, s := range in {
		out[i] = s
		out[i].SeatCategories = cloneCategories(s.SeatCategories)
	}
	return out
}

func cloneCategories(in []SeatCategory) []SeatCategory {
	out := make([]SeatCategory, len(in))
	copy(out, in)
	return out
}

func categoryIndex(cats []SeatCategory, id string) int {
	for i, c := range cats {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func sumQuantities(cats []SeatCategory) int {
	n := 0
	for _, c := range cats {
		n += c.Quantity
	}
	return n
}

func parseCount(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0, ErrInvalidValue
	}
	return n, nil
}
