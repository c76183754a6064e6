package schedule

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Validation reasons reported to the organizer.
const (
	ReasonNoDates         = "select at least one date"
	ReasonNotEventDate    = "dates are not valid event dates"
	ReasonInvalidDuration = "slots must end after they start and before midnight"
	ReasonInvalidSlot     = "slots are malformed"
	ReasonInvalidCategory = "seat categories need a short id and label, a price and a ticket count within range"
)

// Bounds of a seat category as stored.
const (
	MaxCategoryIDLength    = 64
	MaxCategoryLabelLength = 128
	MaxCategoryPrice       = 100_000_000
	MaxCategoryTickets     = 10_000_000
)

// lastMinute is 23:59; slots never cross midnight.
const lastMinute = 24*60 - 1

// fitsInDay reports whether a slot starting at start ("HH:MM") and lasting
// minutes ends after it starts and no later than 23:59 the same day.
func fitsInDay(start string, minutes int) bool {
	if minutes <= 0 || minutes > lastMinute {
		return false
	}
	m, err := parseClock(start)
	if err != nil {
		return false
	}
	return m+minutes <= lastMinute
}

func validWireCategory(c WireCategory) bool {
	ref := c.ID
	if ref == "" {
		ref = c.SeatCategoryID
	}
	switch {
	case utf8.RuneCountInString(ref) > MaxCategoryIDLength,
		utf8.RuneCountInString(c.Label) > MaxCategoryLabelLength:
		return false
	case math.IsNaN(c.Price), c.Price < 0, c.Price > MaxCategoryPrice:
		return false
	case c.TotalTickets < 0, c.TotalTickets > MaxCategoryTickets:
		return false
	}
	return true
}

// ValidationError rejects a submission before anything is sent. Dates lists
// the offending dates when the rule is date specific.
type ValidationError struct {
	Reason string
	Dates  []string
}

func (e *ValidationError) Error() string {
	if len(e.Dates) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Dates, ", "))
}

func allowSet(allowed []string) map[string]bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, d := range allowed {
		set[d] = true
	}
	return set
}

// Validate applies the pre-submission rules: at least one date, every date
// inside the allow-list when one exists, and a positive duration on every slot.
func (c *Composition) Validate(allowed []string) error {
	if len(c.SelectedDates) == 0 {
		return &ValidationError{Reason: ReasonNoDates}
	}
	if set := allowSet(allowed); set != nil {
		var bad []string
		for _, d := range c.SelectedDates {
			if !set[d] {
				bad = append(bad, d)
			}
		}
		if len(bad) > 0 {
			return &ValidationError{Reason: ReasonNotEventDate, Dates: bad}
		}
	}
	var bad []string
	for _, d := range c.SelectedDates {
		for _, s := range c.TimeSlots[d] {
			if diffMinutes(s.StartTime, s.EndTime) <= 0 {
				bad = append(bad, d)
				break
			}
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Reason: ReasonInvalidDuration, Dates: bad}
	}
	return nil
}

// ValidatePayload checks a wire payload received from a client against the
// same rules, plus the shape checks a hand-built payload can violate.
func ValidatePayload(p Payload, allowed []string) error {
	if len(p.EventDates) == 0 {
		return &ValidationError{Reason: ReasonNoDates}
	}
	var malformed []string
	listed := make(map[string]bool, len(p.EventDates))
	for _, d := range p.EventDates {
		if !validDate(d) {
			malformed = append(malformed, d)
		}
		listed[d] = true
	}
	for d := range p.SlotData {
		if !listed[d] {
			malformed = append(malformed, d)
		}
	}
	if len(malformed) > 0 {
		sort.Strings(malformed)
		return &ValidationError{Reason: ReasonInvalidSlot, Dates: malformed}
	}
	if set := allowSet(allowed); set != nil {
		var bad []string
		for _, d := range p.EventDates {
			if !set[d] {
				bad = append(bad, d)
			}
		}
		if len(bad) > 0 {
			return &ValidationError{Reason: ReasonNotEventDate, Dates: bad}
		}
	}
	var badTime, badDuration, badCategory []string
	for _, d := range p.EventDates {
		timeOK, durOK, catOK := true, true, true
		for _, s := range p.SlotData[d] {
			start, err := Parse12Hour(s.Time)
			if err != nil {
				timeOK = false
			} else if !fitsInDay(start, ParseVerboseDuration(s.Duration)) {
				durOK = false
			}
			for _, c := range s.SeatCategories {
				if !validWireCategory(c) {
					catOK = false
				}
			}
		}
		if !timeOK {
			badTime = append(badTime, d)
		}
		if !durOK {
			badDuration = append(badDuration, d)
		}
		if !catOK {
			badCategory = append(badCategory, d)
		}
	}
	switch {
	case len(badTime) > 0:
		return &ValidationError{Reason: ReasonInvalidSlot, Dates: badTime}
	case len(badDuration) > 0:
		return &ValidationError{Reason: ReasonInvalidDuration, Dates: badDuration}
	case len(badCategory) > 0:
		return &ValidationError{Reason: ReasonInvalidCategory, Dates: badCategory}
	}
	return nil
}
