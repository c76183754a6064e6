// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"fmt"
	"strings"
)

// ScheduleSavedQueue is the durable queue schedule saves are published to.
const ScheduleSavedQueue = "schedule.saved"

// ScheduleSavedEvent is published after an organizer's schedule has been
// committed.  It carries counts only; consumers that need slot details read
// the schedule through the API.
type ScheduleSavedEvent struct {
	EventID       uint64   `json:"event_id"`
	OrganizerID   uint64   `json:"organizer_id"`
	EventDates    []string `json:"event_dates"`
	SlotCount     int      `json:"slot_count"`
	CategoryCount int      `json:"category_count"`
	SavedAt       string   `json:"saved_at"`
}

// LogLine renders the event as one line of logs/schedule.log.
func (ev ScheduleSavedEvent) LogLine() string {
	return fmt.Sprintf("[%s] Schedule saved | event_id=%d | organizer_id=%d | dates=[%s] | slots=%d | categories=%d\n",
		ev.SavedAt, ev.EventID, ev.OrganizerID, strings.Join(ev.EventDates, ","), ev.SlotCount, ev.CategoryCount)
}
