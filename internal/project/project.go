// Package project turns recurring items into calendar events.
package project

import (
	"time"

	"chorecal/internal/dates"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
	"chorecal/internal/status"
)

// LabelLayout is how DueLabel renders a due date.
const LabelLayout = "Mon, Jan 2"

const untitled = "Untitled chore"

// Project emits one event per instance, or one fallback event for an item
// with no instances. Events stay grouped by item in input order. Inputs are
// not modified, and for a fixed now the output is always the same.
func Project(items []model.RecurringItem, now time.Time) []model.Event {
	out := make([]model.Event, 0, len(items))
	for _, it := range items {
		if len(it.Instances) == 0 {
			out = append(out, fallbackEvent(it))
			continue
		}
		for _, inst := range it.Instances {
			out = append(out, instanceEvent(it, inst, now))
		}
	}
	return out
}

// ProjectRaw decodes a raw collection payload and projects it. Malformed
// input yields no events rather than an error.
func ProjectRaw(raw []byte, now time.Time) []model.Event {
	return Project(Decode(raw), now)
}

func instanceEvent(it model.RecurringItem, inst model.Instance, now time.Time) model.Event {
	st := status.Classify(inst, now)

	ev := baseEvent(it)
	ev.Key = model.EventKey(it.ID, inst.ID)
	ev.InstanceID = inst.ID
	ev.Start, ev.AllDay = startOf(inst.DueDate, it.DueTime)
	ev.DueLabel = dueLabel(inst.DueDate)
	ev.Status = st
	ev.Style = status.Style(st)
	ev.CompletedAt = completedAt(inst.CompletedAt)
	ev.CompletedBy = inst.CompletedBy
	return ev
}

func fallbackEvent(it model.RecurringItem) model.Event {
	st := status.ClassifyItem(it)
	day, _ := it.ScheduledDay()

	ev := baseEvent(it)
	ev.Key = model.EventKey(it.ID, "")
	ev.Start, ev.AllDay = startOf(day, it.DueTime)
	ev.DueLabel = dueLabel(day)
	ev.Status = st
	ev.Style = status.Style(st)
	ev.CompletedAt = completedAt(it.CompletedAt)
	ev.CompletedBy = it.CompletedBy
	ev.Fallback = true
	ev.RRule = recurrence.RRule(it)
	return ev
}

func baseEvent(it model.RecurringItem) model.Event {
	title := it.Name
	if title == "" {
		title = untitled
	}
	return model.Event{
		Title:       title,
		ItemID:      it.ID,
		LocationID:  it.LocationID,
		AssigneeID:  it.AssigneeID,
		FrequencyID: it.FrequencyID,
		Frequency:   it.Frequency,
	}
}

// startOf places an event on its day, at dueTime when the item has one.
// Without a usable time of day the event is all-day.
func startOf(day model.Date, dueTime string) (time.Time, bool) {
	if !day.Valid() {
		return time.Time{}, true
	}
	if at, ok := dates.WithClock(day.Time, dueTime); ok {
		return at, false
	}
	return day.Time, true
}

func dueLabel(day model.Date) string {
	raw := day.Raw
	if raw == "" {
		raw = day.String()
	}
	return dates.Format(raw, LabelLayout)
}

func completedAt(ts *model.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}
