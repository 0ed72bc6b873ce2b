// Package status classifies instances and maps each status to its style.
package status

import (
	"time"

	"chorecal/internal/dates"
	"chorecal/internal/model"
)

// Classify returns the status of an instance at now. First match wins:
// completed, skipped, then the due date against today by calendar day.
//
// An instance with an unparseable due date cannot be placed on a day; it is
// reported active so it still shows up rather than silently going overdue.
func Classify(inst model.Instance, now time.Time) model.Status {
	switch {
	case inst.IsComplete:
		return model.StatusCompleted
	case inst.Skipped:
		return model.StatusSkipped
	case !inst.DueDate.Valid():
		return model.StatusActive
	}

	switch dates.CompareDay(inst.DueDate.Time, now) {
	case -1:
		return model.StatusOverdue
	case 1:
		return model.StatusPending
	default:
		return model.StatusActive
	}
}

// ClassifyItem is the two-state status of an item that has no generated
// instance: completed or active. No date comparison is possible here.
func ClassifyItem(it model.RecurringItem) model.Status {
	if it.IsComplete {
		return model.StatusCompleted
	}
	return model.StatusActive
}

// Counts tallies events by status. Every status is present in the result.
func Counts(events []model.Event) map[model.Status]int {
	out := make(map[model.Status]int, model.NumStatuses)
	for _, s := range model.Statuses() {
		out[s] = 0
	}
	for _, ev := range events {
		out[ev.Status]++
	}
	return out
}
