package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrMalformedPayload wraps every decoding failure of a saved schedule.
var ErrMalformedPayload = errors.New("malformed schedule payload")

// WireCategory is a seat category as exchanged with the backend. Reads may
// carry SeatCategoryID, which takes precedence over ID.
type WireCategory struct {
	ID             string  `json:"id,omitempty"`
	SeatCategoryID string  `json:"seat_category_id,omitempty"`
	Label          string  `json:"label"`
	Price          float64 `json:"price"`
	TotalTickets   int     `json:"totalTickets"`
}

// WireSlot carries a 12-hour start time and a verbose duration.
type WireSlot struct {
	Time           string         `json:"time"`
	Duration       string         `json:"duration"`
	SeatCategories []WireCategory `json:"seatCategories"`
}

// Payload is the body of the schedule PUT.
type Payload struct {
	EventRefID string                `json:"event_ref_id"`
	EventDates []string              `json:"event_dates"`
	SlotData   map[string][]WireSlot `json:"slot_data"`
}

// ScheduleData is the saved schedule returned under "data" by the GET.
type ScheduleData struct {
	EventDates []string              `json:"event_dates"`
	SlotData   map[string][]WireSlot `json:"slot_data"`
}

// ScheduleResponse is the envelope of the schedule GET.
type ScheduleResponse struct {
	Data *ScheduleData `json:"data"`
}

// ToWirePayload serializes the selected dates and their slots for submission.
// Categories without an id get "<date>-<slot>-<category>" so the backend
// always sees a stable key.
func (c *Composition) ToWirePayload(eventID string) (Payload, error) {
	p := Payload{
		EventRefID: eventID,
		EventDates: append([]string{}, c.SelectedDates...),
		SlotData:   make(map[string][]WireSlot, len(c.SelectedDates)),
	}
	for _, date := range c.SelectedDates {
		slots := c.TimeSlots[date]
		out := make([]WireSlot, 0, len(slots))
		for i, s := range slots {
			t, err := To12Hour(s.StartTime)
			if err != nil {
				return Payload{}, fmt.Errorf("%s slot %d: %w", date, i, err)
			}
			ws := WireSlot{
				Time:           t,
				Duration:       DurationVerbose(s.StartTime, s.EndTime),
				SeatCategories: make([]WireCategory, 0, len(s.SeatCategories)),
			}
			for j, cat := range s.SeatCategories {
				id := cat.ID
				if id == "" {
					id = date + "-" + strconv.Itoa(i) + "-" + strconv.Itoa(j)
				}
				ws.SeatCategories = append(ws.SeatCategories, WireCategory{
					ID:           id,
					Label:        cat.Name,
					Price:        cat.Price,
					TotalTickets: cat.Quantity,
				})
			}
			out = append(out, ws)
		}
		p.SlotData[date] = out
	}
	return p, nil
}

// FromWirePayload rebuilds TimeSlots from a saved schedule. Dates listed in
// EventDates without slot data map to an empty list.
func FromWirePayload(data ScheduleData) (map[string][]TimeSlot, error) {
	out := make(map[string][]TimeSlot, len(data.SlotData))
	for _, d := range data.EventDates {
		if !validDate(d) {
			return nil, fmt.Errorf("%w: date %q", ErrMalformedPayload, d)
		}
		out[d] = []TimeSlot{}
	}
	for date, wire := range data.SlotData {
		if !validDate(date) {
			return nil, fmt.Errorf("%w: date %q", ErrMalformedPayload, date)
		}
		slots := make([]TimeSlot, 0, len(wire))
		for i, ws := range wire {
			s, err := slotFromWire(ws)
			if err != nil {
				return nil, fmt.Errorf("%w: %s slot %d: %v", ErrMalformedPayload, date, i, err)
			}
			slots = append(slots, s)
		}
		out[date] = slots
	}
	return out, nil
}

func slotFromWire(ws WireSlot) (TimeSlot, error) {
	start, err := Parse12Hour(ws.Time)
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := AddMinutes(start, ParseVerboseDuration(ws.Duration))
	if err != nil {
		return TimeSlot{}, err
	}
	s := TimeSlot{
		StartTime:      start,
		EndTime:        end,
		Duration:       DurationDisplay(start, end),
		SeatCategories: make([]SeatCategory, 0, len(ws.SeatCategories)),
	}
	for _, wc := range ws.SeatCategories {
		id := wc.SeatCategoryID
		if id == "" {
			id = wc.ID
		}
		s.SeatCategories = append(s.SeatCategories, SeatCategory{
			ID:       id,
			Name:     wc.Label,
			Price:    wc.Price,
			Quantity: wc.TotalTickets,
		})
	}
	s.Capacity = sumQuantities(s.SeatCategories)
	return s, nil
}

// DecodeScheduleResponse parses a raw GET body. A missing "data" object is
// an empty schedule.
func DecodeScheduleResponse(body []byte) (map[string][]TimeSlot, error) {
	var resp ScheduleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if resp.Data == nil {
		return map[string][]TimeSlot{}, nil
	}
	return FromWirePayload(*resp.Data)
}

// SortedDates returns the keys of a slot map in ascending order.
func SortedDates(m map[string][]TimeSlot) []string {
	out := make([]string, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
