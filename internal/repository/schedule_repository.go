package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
)

// SaveSummary counts what a SaveSchedule call wrote.
type SaveSummary struct {
	Dates      []string
	Slots      int
	Categories int
}

// ScheduleRepo persists dated slots and their seat categories.
type ScheduleRepo struct {
	db *sql.DB
}

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// SaveSchedule replaces the slots of every date named by the payload in a
// single transaction.  Dates the payload does not mention keep their saved
// slots.  A date outside a non-empty allow-list aborts the whole save.
func (r *ScheduleRepo) SaveSchedule(ctx context.Context, eventID uint64, p schedule.Payload) (sum SaveSummary, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return sum, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	allowed, err := queryDates(ctx, tx,
		"SELECT event_date FROM event_allowed_dates WHERE event_id = ? ORDER BY event_date", eventID)
	if err != nil {
		return sum, err
	}
	allow := make(map[string]bool, len(allowed))
	for _, d := range allowed {
		allow[d] = true
	}

	dates := payloadDates(p)
	for _, date := range dates {
		if len(allow) > 0 && !allow[date] {
			return SaveSummary{}, DateNotAllowedError(date)
		}
	}

	for _, date := range dates {
		if _, err = tx.ExecContext(ctx,
			"DELETE FROM event_slots WHERE event_id = ? AND event_date = ?", eventID, date); err != nil {
			return SaveSummary{}, err
		}
		for pos, ws := range p.SlotData[date] {
			var n int
			n, err = insertSlot(ctx, tx, eventID, date, pos, ws)
			if err != nil {
				return SaveSummary{}, fmt.Errorf("%s slot %d: %w", date, pos, err)
			}
			sum.Slots++
			sum.Categories += n
		}
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO event_schedule_dates (event_id, event_date) VALUES (?, ?) ON DUPLICATE KEY UPDATE saved_at = CURRENT_TIMESTAMP",
			eventID, date); err != nil {
			return SaveSummary{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return SaveSummary{}, err
	}
	sum.Dates = dates
	return sum, nil
}

// insertSlot writes one slot and its categories, returning the category count.
func insertSlot(ctx context.Context, tx *sql.Tx, eventID uint64, date string, pos int, ws schedule.WireSlot) (int, error) {
	start, err := schedule.Parse12Hour(ws.Time)
	if err != nil {
		return 0, err
	}
	end, err := schedule.EndTime(start, schedule.ParseVerboseDuration(ws.Duration))
	if err != nil {
		return 0, err
	}
	capacity := 0
	for _, wc := range ws.SeatCategories {
		capacity += wc.TotalTickets
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO event_slots (event_id, event_date, position, start_time, end_time, capacity) VALUES (?, ?, ?, ?, ?, ?)",
		eventID, date, pos, start, end, capacity)
	if err != nil {
		return 0, err
	}
	slotID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for j, wc := range ws.SeatCategories {
		ref := wc.ID
		if ref == "" {
			ref = wc.SeatCategoryID
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO event_slot_categories (slot_id, category_ref, label, price_cents, total_tickets, position) VALUES (?, ?, ?, ?, ?, ?)",
			slotID, ref, wc.Label, int64(math.Round(wc.Price*100)), wc.TotalTickets, j); err != nil {
			return 0, err
		}
	}
	return len(ws.SeatCategories), nil
}

// payloadDates is the sorted union of event_dates and slot_data keys.
func payloadDates(p schedule.Payload) []string {
	all := append([]string{}, p.EventDates...)
	for d := range p.SlotData {
		all = append(all, d)
	}
	return uniqueSorted(all)
}

// Rows loads the persisted slots of an event ordered by date and position.
func (r *ScheduleRepo) Rows(ctx context.Context, eventID uint64) ([]model.SlotRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_date, position, start_time, end_time, capacity
		   FROM event_slots WHERE event_id = ? ORDER BY event_date, position`, eventID)
	if err != nil {
		return nil, err
	}
	var slots []model.SlotRow
	index := map[uint64]int{}
	for rows.Next() {
		var (
			s model.SlotRow
			d time.Time
		)
		if err := rows.Scan(&s.ID, &d, &s.Position, &s.StartTime, &s.EndTime, &s.Capacity); err != nil {
			rows.Close()
			return nil, err
		}
		s.EventID = eventID
		s.EventDate = d.Format(dateLayout)
		index[s.ID] = len(slots)
		slots = append(slots, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return slots, nil
	}

	crows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.slot_id, c.category_ref, c.label, c.price_cents, c.total_tickets, c.position
		   FROM event_slot_categories c JOIN event_slots s ON s.id = c.slot_id
		  WHERE s.event_id = ? ORDER BY c.slot_id, c.position`, eventID)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var c model.CategoryRow
		if err := crows.Scan(&c.ID, &c.SlotID, &c.CategoryRef, &c.Label, &c.PriceCents, &c.TotalTickets, &c.Position); err != nil {
			return nil, err
		}
		if i, ok := index[c.SlotID]; ok {
			slots[i].Categories = append(slots[i].Categories, c)
		}
	}
	return slots, crows.Err()
}

// Load returns the saved schedule in the read shape served by GET.  Each
// category carries its row id as seat_category_id.
func (r *ScheduleRepo) Load(ctx context.Context, eventID uint64) (schedule.ScheduleData, error) {
	data := schedule.ScheduleData{EventDates: []string{}, SlotData: map[string][]schedule.WireSlot{}}
	dates, err := queryDates(ctx, r.db,
		"SELECT event_date FROM event_schedule_dates WHERE event_id = ? ORDER BY event_date", eventID)
	if err != nil {
		return data, err
	}
	data.EventDates = dates
	for _, d := range dates {
		data.SlotData[d] = []schedule.WireSlot{}
	}

	slots, err := r.Rows(ctx, eventID)
	if err != nil {
		return data, err
	}
	for _, s := range slots {
		t, err := schedule.To12Hour(s.StartTime)
		if err != nil {
			return data, fmt.Errorf("slot %d: %w", s.ID, err)
		}
		ws := schedule.WireSlot{
			Time:           t,
			Duration:       schedule.DurationVerbose(s.StartTime, s.EndTime),
			SeatCategories: make([]schedule.WireCategory, 0, len(s.Categories)),
		}
		for _, c := range s.Categories {
			ws.SeatCategories = append(ws.SeatCategories, schedule.WireCategory{
				ID:             c.CategoryRef,
				SeatCategoryID: strconv.FormatUint(c.ID, 10),
				Label:          c.Label,
				Price:          c.Price(),
				TotalTickets:   c.TotalTickets,
			})
		}
		data.SlotData[s.EventDate] = append(data.SlotData[s.EventDate], ws)
	}
	return data, nil
}
