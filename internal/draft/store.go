// Package draft keeps unsaved schedule compositions between requests.  A
// draft belongs to one organizer and one event and expires after a period
// of inactivity.
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
)

// ErrNotFound is returned when no live draft exists for the key.
var ErrNotFound = errors.New("draft not found")

// Key addresses a draft.
type Key struct {
	UserID  uint64
	EventID uint64
}

func (k Key) String() string { return fmt.Sprintf("%d:%d", k.UserID, k.EventID) }

// Draft is one editing session of an event schedule.  AllowedDates is the
// allow-list captured when the draft was opened.
type Draft struct {
	ID           string                `json:"id"`
	EventID      uint64                `json:"event_id"`
	Composition  *schedule.Composition `json:"composition"`
	AllowedDates []string              `json:"allowed_dates"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// New starts a draft with a fresh id.
func New(eventID uint64, c *schedule.Composition, allowed []string) *Draft {
	if allowed == nil {
		allowed = []string{}
	}
	return &Draft{
		ID:           uuid.NewString(),
		EventID:      eventID,
		Composition:  c,
		AllowedDates: allowed,
		UpdatedAt:    time.Now().UTC(),
	}
}

// Store persists drafts.  Save refreshes the expiry.
type Store interface {
	Load(ctx context.Context, key Key) (*Draft, error)
	Save(ctx context.Context, key Key, d *Draft) error
	Delete(ctx context.Context, key Key) error
}
