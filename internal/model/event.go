package model

import (
	"net/url"
	"strings"
	"time"

	"chorecal/internal/dates"
)

// Event is a projected, display-ready occurrence: one per instance, or one
// synthetic event for an item that has no instances. It carries enough back
// references that a calendar view never needs to re-fetch the item.
type Event struct {
	// Key is "{itemId}-{instanceId}", or "{itemId}" for the fallback event.
	Key      string    `json:"key"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	AllDay   bool      `json:"all_day"`
	DueLabel string    `json:"due_label"`

	Status Status `json:"status"`
	Style  Style  `json:"style"`

	ItemID      ID        `json:"item_id"`
	InstanceID  ID        `json:"instance_id,omitempty"`
	LocationID  ID        `json:"location_id,omitempty"`
	AssigneeID  ID        `json:"assignee_id,omitempty"`
	FrequencyID ID        `json:"frequency_id,omitempty"`
	Frequency   Frequency `json:"frequency"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy ID         `json:"completed_by,omitempty"`

	// Fallback marks events synthesized from an item without instances.
	Fallback bool `json:"fallback,omitempty"`
	// RRule is the item's schedule, set on fallback events only.
	RRule string `json:"rrule,omitempty"`
}

// EventKey builds the event key for an item and an optional instance.
func EventKey(itemID, instanceID ID) string {
	if instanceID == "" {
		return string(itemID)
	}
	return string(itemID) + "-" + string(instanceID)
}

// Filter narrows a collection fetch. Zero fields do not filter.
type Filter struct {
	Start       time.Time
	End         time.Time
	AssigneeID  ID
	FrequencyID ID
	LocationID  ID
	Status      string
}

// Values encodes the filter as query parameters for the REST backend.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if !f.Start.IsZero() {
		v.Set("start_date", f.Start.Format(dates.DayLayout))
	}
	if !f.End.IsZero() {
		v.Set("end_date", f.End.Format(dates.DayLayout))
	}
	if f.AssigneeID != "" {
		v.Set("assigned_to", string(f.AssigneeID))
	}
	if f.FrequencyID != "" {
		v.Set("frequency_id", string(f.FrequencyID))
	}
	if f.LocationID != "" {
		v.Set("location_id", string(f.LocationID))
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		v.Set("status", s)
	}
	return v
}

// Key is a stable string form of the filter, usable as part of a cache key.
func (f Filter) Key() string {
	return f.Values().Encode()
}
