package model

// SlotRow is a persisted time slot.  StartTime and EndTime are 24-hour
// "HH:MM" strings; Position keeps the slot order within its date.
type SlotRow struct {
	ID         uint64
	EventID    uint64
	EventDate  string
	Position   int
	StartTime  string
	EndTime    string
	Capacity   int
	Categories []CategoryRow
}

// CategoryRow is a persisted seat category.  CategoryRef is the id the
// client sent; ID is the row id returned as seat_category_id on reads.
type CategoryRow struct {
	ID           uint64
	SlotID       uint64
	CategoryRef  string
	Label        string
	PriceCents   int64
	TotalTickets int
	Position     int
}

// Price converts PriceCents back to currency units.
func (c CategoryRow) Price() float64 { return float64(c.PriceCents) / 100 }
