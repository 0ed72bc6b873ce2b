package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
)

// The backend is loose about types: ids come as numbers or strings (or as
// an embedded {"id": ...} object), dates as plain days or full timestamps.
// The decoders below accept all of it and never fail on a bad value, so a
// single odd record cannot reject the whole collection.

// ID is an opaque identifier.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
	case '{':
		var obj struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*id = obj.ID
	case '[', 't', 'f':
		*id = ""
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*id = ID(n.String())
	}
	return nil
}

// Date is a calendar day held as local midnight. Raw keeps the original
// text so an unparseable value can still be shown.
type Date struct {
	time.Time
	Raw string
}

// DateOf returns the calendar day of t.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	return Date{Time: day, Raw: day.Format(dates.DayLayout)}
}

// ParseDate never fails; an unparseable value is an invalid Date with Raw set.
func ParseDate(raw string) Date {
	day, ok := dates.ParseDay(raw)
	if !ok {
		return Date{Raw: raw}
	}
	return Date{Time: day, Raw: raw}
}

func (d Date) Valid() bool { return !d.Time.IsZero() }

func (d Date) String() string {
	if d.Valid() {
		return d.Time.Format(dates.DayLayout)
	}
	return d.Raw
}

func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*d = Date{Raw: string(b)}
		return nil
	}
	*d = ParseDate(s)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() && d.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Timestamp is an instant. JSON numbers are read as unix seconds.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t, ok := dates.Parse(s)
		if !ok && s != "" {
			appLog.Warn("model: unparseable timestamp, treating as unset", "raw", s)
		}
		*ts = Timestamp{Time: t}
		return nil
	}
	if sec, err := strconv.ParseInt(string(b), 10, 64); err == nil && sec > 0 {
		*ts = Timestamp{Time: time.Unix(sec, 0)}
		return nil
	}
	*ts = Timestamp{}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}

func (f Frequency) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Frequency) UnmarshalJSON(b []byte) error {
	*f, _ = decodeFrequency(b)
	return nil
}

// decodeFrequency accepts "Weekly" or {"id": 2, "name": "Weekly"}. The id is
// returned when the object form carries one.
func decodeFrequency(b []byte) (Frequency, ID) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return FrequencyUnknown, ""
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return FrequencyUnknown, ""
		}
		return ParseFrequency(s), ""
	case '{':
		var obj struct {
			ID   ID     `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return FrequencyUnknown, ""
		}
		return ParseFrequency(obj.Name), obj.ID
	default:
		return FrequencyUnknown, ""
	}
}

type itemWire struct {
	ID      ID `json:"id"`
	ChoreID ID `json:"chore_id"`
	TaskID  ID `json:"task_id"`

	Name        string `json:"name"`
	Title       string `json:"title"`
	ChoreName   string `json:"chore_name"`
	TaskName    string `json:"task_name"`
	Description string `json:"description"`

	Frequency     json.RawMessage `json:"frequency"`
	FrequencyName string          `json:"frequency_name"`
	FrequencyID   ID              `json:"frequency_id"`

	CreatedAt          Timestamp   `json:"created_at"`
	SpecificYearlyDate *YearlyDate `json:"specificYearlyDate"`
	YearlyDateSnake    *YearlyDate `json:"specific_yearly_date"`

	DueDate   Date   `json:"due_date"`
	StartDate Date   `json:"start_date"`
	DueTime   string `json:"due_time"`

	LocationID ID `json:"location_id"`
	AssignedTo ID `json:"assigned_to"`
	AssigneeID ID `json:"assignee_id"`

	IsComplete  bool       `json:"is_complete"`
	Completed   bool       `json:"completed"`
	CompletedAt *Timestamp `json:"completed_at"`
	CompletedBy ID         `json:"completed_by"`

	Instances      []Instance `json:"instances"`
	ChoreInstances []Instance `json:"chore_instances"`
	TaskInstances  []Instance `json:"task_instances"`
}

func (it *RecurringItem) UnmarshalJSON(b []byte) error {
	var w itemWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	freq, freqID := decodeFrequency(w.Frequency)
	if freq == FrequencyUnknown && w.FrequencyName != "" {
		freq = ParseFrequency(w.FrequencyName)
	}

	yearly := w.SpecificYearlyDate
	if yearly == nil {
		yearly = w.YearlyDateSnake
	}

	*it = RecurringItem{
		ID:                 firstID(w.ID, w.ChoreID, w.TaskID),
		Name:               firstString(w.Name, w.Title, w.ChoreName, w.TaskName),
		Description:        w.Description,
		Frequency:          freq,
		FrequencyID:        firstID(w.FrequencyID, freqID),
		CreatedAt:          w.CreatedAt,
		SpecificYearlyDate: yearly,
		DueDate:            w.DueDate,
		StartDate:          w.StartDate,
		DueTime:            w.DueTime,
		LocationID:         w.LocationID,
		AssigneeID:         firstID(w.AssignedTo, w.AssigneeID),
		IsComplete:         w.IsComplete || w.Completed,
		CompletedAt:        w.CompletedAt,
		CompletedBy:        w.CompletedBy,
		Instances:          firstInstances(w.Instances, w.ChoreInstances, w.TaskInstances),
	}
	return nil
}

type instanceWire struct {
	ID         ID `json:"id"`
	InstanceID ID `json:"instance_id"`

	DueDate Date `json:"due_date"`
	Date    Date `json:"date"`

	IsComplete  bool       `json:"is_complete"`
	Completed   bool       `json:"completed"`
	CompletedAt *Timestamp `json:"completed_at"`
	CompletedBy ID         `json:"completed_by"`

	Skipped   bool `json:"skipped"`
	IsSkipped bool `json:"is_skipped"`

	History             []HistoryEntry `json:"history"`
	ModificationHistory []HistoryEntry `json:"modification_history"`
}

func (inst *Instance) UnmarshalJSON(b []byte) error {
	var w instanceWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	due := w.DueDate
	if !due.Valid() && due.Raw == "" {
		due = w.Date
	}
	history := w.History
	if len(history) == 0 {
		history = w.ModificationHistory
	}

	*inst = Instance{
		ID:          firstID(w.ID, w.InstanceID),
		DueDate:     due,
		IsComplete:  w.IsComplete || w.Completed,
		CompletedAt: w.CompletedAt,
		CompletedBy: w.CompletedBy,
		Skipped:     w.Skipped || w.IsSkipped,
		History:     history,
	}
	return nil
}

type historyWire struct {
	Timestamp  Timestamp `json:"timestamp"`
	ModifiedAt Timestamp `json:"modified_at"`
	Action     string    `json:"action"`
	Actor      ID        `json:"actor"`
	ModifiedBy ID        `json:"modified_by"`
}

func (h *HistoryEntry) UnmarshalJSON(b []byte) error {
	var w historyWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	ts := w.Timestamp
	if ts.IsZero() {
		ts = w.ModifiedAt
	}
	*h = HistoryEntry{
		Timestamp: ts,
		Action:    w.Action,
		Actor:     firstID(w.Actor, w.ModifiedBy),
	}
	return nil
}

func firstID(ids ...ID) ID {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

func firstString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

func firstInstances(lists ...[]Instance) []Instance {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}
