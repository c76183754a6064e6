package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/iliyamo/event-ticketing-admin/internal/client"
	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

const requestTimeout = 15 * time.Second

// Context is handed to every command's Run.
type Context struct {
	Client  *client.Client
	Session session.Session
	Out     io.Writer
}

type DurationCmd struct {
	Start string `arg:"" help:"Start time (HH:MM)."`
	End   string `arg:"" help:"End time (HH:MM)."`
}

func (c *DurationCmd) Run(ctx *Context) error {
	display := schedule.DurationDisplay(c.Start, c.End)
	if display == "" {
		return fmt.Errorf("%s-%s: end must be after start on the same day", c.Start, c.End)
	}
	fmt.Fprintf(ctx.Out, "%s (%s)\n", display, schedule.DurationVerbose(c.Start, c.End))
	return nil
}

type InspectCmd struct {
	File string `arg:"" type:"existingfile" help:"Payload JSON in the write or read shape."`
}

func (c *InspectCmd) Run(ctx *Context) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	data, err := decodeScheduleFile(raw)
	if err != nil {
		return err
	}
	slots, err := schedule.FromWirePayload(data)
	if err != nil {
		return err
	}
	renderSlots(ctx.Out, slots)
	return nil
}

type PullCmd struct {
	Event uint64 `required:"" help:"Event id."`
}

func (c *PullCmd) Run(ctx *Context) error {
	rctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	data, err := ctx.Client.Schedule(rctx, ctx.Session, c.Event)
	if err != nil {
		return err
	}
	slots, err := schedule.FromWirePayload(data)
	if err != nil {
		return err
	}
	renderSlots(ctx.Out, slots)
	return nil
}

type PushCmd struct {
	Event uint64 `required:"" help:"Event id."`
	File  string `required:"" type:"existingfile" help:"Payload JSON in the write shape."`
}

func (c *PushCmd) Run(ctx *Context) error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	var p schedule.Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", schedule.ErrMalformedPayload, err)
	}
	if p.EventRefID == "" {
		p.EventRefID = strconv.FormatUint(c.Event, 10)
	}

	rctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := ctx.Client.SaveSchedule(rctx, ctx.Session, c.Event, p); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "event dates updated (%d dates)\n", len(p.EventDates))
	return nil
}

// decodeScheduleFile accepts either a PUT body or a GET response.
func decodeScheduleFile(raw []byte) (schedule.ScheduleData, error) {
	var f struct {
		Data       *schedule.ScheduleData         `json:"data"`
		EventDates []string                       `json:"event_dates"`
		SlotData   map[string][]schedule.WireSlot `json:"slot_data"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return schedule.ScheduleData{}, fmt.Errorf("%w: %v", schedule.ErrMalformedPayload, err)
	}
	if f.Data != nil {
		return *f.Data, nil
	}
	return schedule.ScheduleData{EventDates: f.EventDates, SlotData: f.SlotData}, nil
}

func renderSlots(w io.Writer, slots map[string][]schedule.TimeSlot) {
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Date", "Slot", "Time", "Duration", "Category", "Price", "Tickets"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
		{Number: 2, AutoMerge: true},
		{Number: 3, AutoMerge: true},
	})

	for _, date := range schedule.SortedDates(slots) {
		if len(slots[date]) == 0 {
			t.AppendRow(table.Row{date, "-", "", "", "", "", ""})
			continue
		}
		for i, s := range slots[date] {
			window := s.StartTime + "-" + s.EndTime
			if len(s.SeatCategories) == 0 {
				t.AppendRow(table.Row{date, i + 1, window, s.Duration, "", "", s.Capacity}, rowConfigAutoMerge)
				continue
			}
			for _, cat := range s.SeatCategories {
				t.AppendRow(table.Row{date, i + 1, window, s.Duration, cat.Name, fmt.Sprintf("%.2f", cat.Price), cat.Quantity}, rowConfigAutoMerge)
			}
		}
		t.AppendSeparator()
	}
	t.Render()
}
