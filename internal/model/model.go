package model

import (
	"strings"
	"time"
)

// Frequency is how often a RecurringItem repeats. The zero value is
// FrequencyUnknown, which never produces an occurrence.
type Frequency int

const (
	FrequencyUnknown Frequency = iota
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
	FrequencyQuarterly
	FrequencyYearly
)

var frequencyNames = map[Frequency]string{
	FrequencyDaily:     "Daily",
	FrequencyWeekly:    "Weekly",
	FrequencyMonthly:   "Monthly",
	FrequencyQuarterly: "Quarterly",
	FrequencyYearly:    "Yearly",
}

func (f Frequency) String() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return "Unknown"
}

// ParseFrequency is case-insensitive and never fails: anything it does not
// recognize is FrequencyUnknown.
func ParseFrequency(s string) Frequency {
	s = strings.TrimSpace(s)
	for f, name := range frequencyNames {
		if strings.EqualFold(s, name) {
			return f
		}
	}
	return FrequencyUnknown
}

// YearlyDate pins a yearly item to a fixed day. Month is 0-based (0 = January).
type YearlyDate struct {
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Valid reports whether the date names a plausible calendar day.
func (y YearlyDate) Valid() bool {
	return y.Month >= 0 && y.Month <= 11 && y.Day >= 1 && y.Day <= 31
}

// RecurringItem is a chore or task definition. The REST backend uses both
// words for the same entity; both decode into this type.
type RecurringItem struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Frequency   Frequency `json:"frequency"`
	FrequencyID ID        `json:"frequency_id,omitempty"`

	// CreatedAt is the anchor date for yearly recurrence.
	CreatedAt          Timestamp   `json:"created_at"`
	SpecificYearlyDate *YearlyDate `json:"specificYearlyDate,omitempty"`

	// Item-level schedule, used when no instances were generated.
	DueDate   Date   `json:"due_date"`
	StartDate Date   `json:"start_date"`
	DueTime   string `json:"due_time,omitempty"`

	LocationID ID `json:"location_id,omitempty"`
	AssigneeID ID `json:"assigned_to,omitempty"`

	IsComplete  bool       `json:"is_complete"`
	CompletedAt *Timestamp `json:"completed_at,omitempty"`
	CompletedBy ID         `json:"completed_by,omitempty"`

	Instances []Instance `json:"instances,omitempty"`
}

// Instance is one generated occurrence of a RecurringItem. Instances are
// produced by the backend and only read here.
type Instance struct {
	ID          ID             `json:"id"`
	DueDate     Date           `json:"due_date"`
	IsComplete  bool           `json:"is_complete"`
	CompletedAt *Timestamp     `json:"completed_at,omitempty"`
	CompletedBy ID             `json:"completed_by,omitempty"`
	Skipped     bool           `json:"skipped"`
	History     []HistoryEntry `json:"history,omitempty"`
}

// HistoryEntry records one modification of an instance.
type HistoryEntry struct {
	Timestamp Timestamp `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     ID        `json:"actor,omitempty"`
}

// Anchor is the date yearly recurrence falls back to.
func (it RecurringItem) Anchor() time.Time {
	return it.CreatedAt.Time
}

// ScheduledDay is the item's own calendar day for the no-instance path:
// due date, then start date, then the anchor.
func (it RecurringItem) ScheduledDay() (Date, bool) {
	switch {
	case it.DueDate.Valid():
		return it.DueDate, true
	case it.StartDate.Valid():
		return it.StartDate, true
	case !it.CreatedAt.IsZero():
		return DateOf(it.CreatedAt.Time), true
	default:
		return Date{}, false
	}
}

// Instance looks up one of the item's instances by id.
func (it RecurringItem) Instance(id ID) (Instance, bool) {
	for _, inst := range it.Instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return Instance{}, false
}

// LastModified returns the most recent history entry, if any.
func (inst Instance) LastModified() (HistoryEntry, bool) {
	if len(inst.History) == 0 {
		return HistoryEntry{}, false
	}
	last := inst.History[0]
	for _, h := range inst.History[1:] {
		if h.Timestamp.After(last.Timestamp.Time) {
			last = h
		}
	}
	return last, true
}
