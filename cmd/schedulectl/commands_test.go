package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
)

func TestDecodeScheduleFile(t *testing.T) {
	write := []byte(`{"event_ref_id":"7","event_dates":["2024-03-01"],"slot_data":{"2024-03-01":[{"time":"9:00 AM","duration":"2 hours","seatCategories":[]}]}}`)
	read := []byte(`{"data":{"event_dates":["2024-03-01"],"slot_data":{"2024-03-01":[{"time":"9:00 AM","duration":"2 hours","seatCategories":[]}]}}}`)

	for name, raw := range map[string][]byte{"write": write, "read": read} {
		t.Run(name, func(t *testing.T) {
			data, err := decodeScheduleFile(raw)
			require.NoError(t, err)
			assert.Equal(t, []string{"2024-03-01"}, data.EventDates)
			require.Len(t, data.SlotData["2024-03-01"], 1)
		})
	}

	_, err := decodeScheduleFile([]byte(`[`))
	assert.ErrorIs(t, err, schedule.ErrMalformedPayload)
}

func TestDurationCmd(t *testing.T) {
	var out bytes.Buffer
	ctx := &Context{Out: &out}

	require.NoError(t, (&DurationCmd{Start: "09:00", End: "10:20"}).Run(ctx))
	assert.Equal(t, "1h 20m (1 hour 20 minutes)\n", out.String())

	assert.Error(t, (&DurationCmd{Start: "23:30", End: "00:15"}).Run(ctx))
}

func TestRenderSlots(t *testing.T) {
	var out bytes.Buffer
	renderSlots(&out, map[string][]schedule.TimeSlot{
		"2024-03-01": {{
			StartTime: "09:00", EndTime: "11:00", Duration: "2h 0m", Capacity: 20,
			SeatCategories: []schedule.SeatCategory{{ID: "a", Name: "VIP", Price: 100, Quantity: 20}},
		}},
		"2024-03-02": {},
	})
	s := out.String()
	assert.Contains(t, s, "2024-03-01")
	assert.Contains(t, s, "09:00-11:00")
	assert.Contains(t, s, "VIP")
	assert.Contains(t, s, "100.00")
	assert.Contains(t, s, "2024-03-02")
}
