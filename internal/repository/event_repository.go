package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
)

const dateLayout = "2006-01-02"

// EventRepo manages events and their date allow-lists.
type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = "id, organizer_id, title, venue, status, created_at, updated_at"

func scanEvent(row interface{ Scan(...any) error }, e *model.Event) error {
	return row.Scan(&e.ID, &e.OrganizerID, &e.Title, &e.Venue, &e.Status, &e.CreatedAt, &e.UpdatedAt)
}

// Create inserts the event and reloads it so defaults (status, timestamps)
// are populated.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO events (organizer_id, title, venue) VALUES (?, ?, ?)",
		e.OrganizerID, e.Title, e.Venue)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*e = *got
	return nil
}

// GetByID returns ErrEventNotFound when the row is missing.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	var e model.Event
	err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id), &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetOwned loads the event and checks that organizerID owns it.
func (r *EventRepo) GetOwned(ctx context.Context, id, organizerID uint64) (*model.Event, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != organizerID {
		return nil, ErrForbidden
	}
	return e, nil
}

// ListByOrganizer returns the organizer's events, newest first.
func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID uint64) ([]*model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE organizer_id = ? ORDER BY id DESC", organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Event{}
	for rows.Next() {
		e := new(model.Event)
		if err := scanEvent(rows, e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllowedDates returns the event's allow-list in ascending order.  An empty
// result means every date is accepted.
func (r *EventRepo) AllowedDates(ctx context.Context, eventID uint64) ([]string, error) {
	return queryDates(ctx, r.db,
		"SELECT event_date FROM event_allowed_dates WHERE event_id = ? ORDER BY event_date", eventID)
}

// ReplaceAllowedDates swaps the allow-list.  A non-empty list that drops a
// date which already has a saved schedule is rejected with ErrConflict.
func (r *EventRepo) ReplaceAllowedDates(ctx context.Context, eventID uint64, dates []string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if len(dates) > 0 {
		scheduled, qerr := queryDates(ctx, tx,
			"SELECT event_date FROM event_schedule_dates WHERE event_id = ? ORDER BY event_date", eventID)
		if qerr != nil {
			return qerr
		}
		keep := make(map[string]bool, len(dates))
		for _, d := range dates {
			keep[d] = true
		}
		for _, d := range scheduled {
			if !keep[d] {
				return ErrConflict
			}
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM event_allowed_dates WHERE event_id = ?", eventID); err != nil {
		return err
	}
	for _, d := range uniqueSorted(dates) {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO event_allowed_dates (event_id, event_date) VALUES (?, ?)", eventID, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryDates reads a single DATE column and formats it as YYYY-MM-DD.
func queryDates(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t.Format(dateLayout))
	}
	return out, rows.Err()
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
