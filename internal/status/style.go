package status

import (
	"chorecal/internal/model"
)

var styles = [...]model.Style{
	model.StatusActive: {
		Color:      "#3B82F6",
		ColorName:  "blue",
		Background: "#DBEAFE",
		Border:     "#2563EB",
		Text:       "#1E3A8A",
		ClassName:  "event-active",
	},
	model.StatusCompleted: {
		Color:       "#10B981",
		ColorName:   "green",
		Background:  "#D1FAE5",
		Border:      "#059669",
		Text:        "#065F46",
		ClassName:   "event-completed",
		Strikeout:   true,
		Translucent: true,
	},
	model.StatusSkipped: {
		Color:       "#6B7280",
		ColorName:   "gray",
		Background:  "#F3F4F6",
		Border:      "#4B5563",
		Text:        "#374151",
		ClassName:   "event-skipped",
		Translucent: true,
	},
	model.StatusOverdue: {
		Color:      "#EF4444",
		ColorName:  "red",
		Background: "#FEE2E2",
		Border:     "#DC2626",
		Text:       "#7F1D1D",
		ClassName:  "event-overdue",
	},
	model.StatusPending: {
		Color:      "#F59E0B",
		ColorName:  "gold",
		Background: "#FEF3C7",
		Border:     "#D97706",
		Text:       "#78350F",
		ClassName:  "event-pending",
	},
}

// Fails to compile when a Status is added without a style.
var _ [len(styles) - int(model.NumStatuses)]struct{}

var labels = [...]string{
	model.StatusActive:    "Due today",
	model.StatusCompleted: "Completed",
	model.StatusSkipped:   "Skipped",
	model.StatusOverdue:   "Overdue",
	model.StatusPending:   "Upcoming",
}

var _ [len(labels) - int(model.NumStatuses)]struct{}

// Style maps a status to its visual treatment: completed green, overdue red,
// pending yellow, active blue, skipped gray.
func Style(s model.Status) model.Style {
	if s >= model.NumStatuses {
		return styles[model.StatusActive]
	}
	return styles[s]
}

// StyleFor resolves an untyped status key, e.g. one sent by the backend.
// Unknown keys get the active style.
func StyleFor(name string) model.Style {
	s, _ := model.ParseStatus(name)
	return Style(s)
}

// Label is the human-readable text for a status.
func Label(s model.Status) string {
	if s >= model.NumStatuses {
		return labels[model.StatusActive]
	}
	return labels[s]
}
