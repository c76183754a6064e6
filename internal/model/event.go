package model

import "time"

// Event statuses.
const (
	EventDraft     = "DRAFT"
	EventPublished = "PUBLISHED"
)

// Event is a row of the `events` table.  Its schedule lives in event_slots
// and event_slot_categories; the allow-list of bookable dates lives in
// event_allowed_dates.
type Event struct {
	ID          uint64    `json:"id"`
	OrganizerID uint64    `json:"-"`
	Title       string    `json:"title"`
	Venue       string    `json:"venue"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
