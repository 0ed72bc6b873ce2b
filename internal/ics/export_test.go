package ics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chorecal/internal/model"
	"chorecal/internal/project"
	"chorecal/internal/status"
)

var now = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

func sampleEvents() []model.Event {
	day := time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local)
	return []model.Event{
		{
			Key: "1-10", Title: "Dishes", Start: day, AllDay: true, DueLabel: "Sat, Oct 17",
			Status: model.StatusActive, Style: status.Style(model.StatusActive),
			ItemID: "1", InstanceID: "10", Frequency: model.FrequencyDaily,
		},
		{
			Key: "2-20", Title: "Mow lawn", Start: day.Add(18 * time.Hour),
			Status: model.StatusSkipped, Style: status.Style(model.StatusSkipped),
			ItemID: "2", InstanceID: "20", Frequency: model.FrequencyWeekly,
		},
		{
			Key: "3", Title: "Clean gutters", Start: day, AllDay: true,
			Status: model.StatusActive, Style: status.Style(model.StatusActive),
			ItemID: "3", Frequency: model.FrequencyQuarterly, Fallback: true,
			RRule: "FREQ=YEARLY;BYMONTH=3,6,9,12;BYMONTHDAY=-1",
		},
		{Key: "4", Title: "Broken", AllDay: true, ItemID: "4", Fallback: true},
	}
}

func parse(t *testing.T, cal *ical.Calendar) map[string]*ical.VEvent {
	t.Helper()
	parsed, err := ical.ParseCalendar(strings.NewReader(cal.Serialize()))
	require.NoError(t, err)

	byUID := make(map[string]*ical.VEvent)
	for _, ve := range parsed.Events() {
		byUID[ve.Id()] = ve
	}
	return byUID
}

func prop(ve *ical.VEvent, p ical.ComponentProperty) string {
	if v := ve.GetProperty(p); v != nil {
		return v.Value
	}
	return ""
}

func TestBuildEmitsOneEventPerPlaceableEvent(t *testing.T) {
	events := parse(t, Build(sampleEvents(), now))
	require.Len(t, events, 3)

	dishes := events[UID("1-10")]
	require.NotNil(t, dishes)
	assert.Equal(t, "Dishes", prop(dishes, ical.ComponentPropertySummary))
	assert.Equal(t, "20261017", prop(dishes, ical.ComponentPropertyDtStart))
	assert.Equal(t, "ACTIVE", prop(dishes, ical.ComponentPropertyCategories))
	assert.Equal(t, "CONFIRMED", prop(dishes, ical.ComponentPropertyStatus))
	assert.Equal(t, "blue", prop(dishes, ical.ComponentProperty("COLOR")))
	assert.Equal(t, "#3B82F6", prop(dishes, ical.ComponentProperty(colorHexProperty)))
	assert.Contains(t, prop(dishes, ical.ComponentPropertyDescription), "Oct 17")
	assert.Empty(t, prop(dishes, ical.ComponentPropertyRrule))

	mow := events[UID("2-20")]
	require.NotNil(t, mow)
	assert.Equal(t, "CANCELLED", prop(mow, ical.ComponentPropertyStatus))
	assert.Contains(t, prop(mow, ical.ComponentPropertyDtStart), "T")

	gutters := events[UID("3")]
	require.NotNil(t, gutters)
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=3,6,9,12;BYMONTHDAY=-1", prop(gutters, ical.ComponentPropertyRrule))
	assert.Equal(t, "20261231", prop(gutters, ical.ComponentPropertyDtStart))
}

func TestFallbackSeriesFollowsItemSchedule(t *testing.T) {
	created := model.Timestamp{Time: time.Date(2024, 5, 3, 9, 0, 0, 0, time.Local)}
	items := []model.RecurringItem{
		{
			ID:                 "5",
			Name:               "Christmas lights",
			Frequency:          model.FrequencyYearly,
			CreatedAt:          created,
			SpecificYearlyDate: &model.YearlyDate{Month: 11, Day: 25},
		},
		{
			ID:        "6",
			Name:      "Vacuum",
			Frequency: model.FrequencyWeekly,
			DueDate:   model.ParseDate("2026-10-14"), // Wednesday
		},
	}

	events := parse(t, Build(project.Project(items, now), now))

	lights := events[UID("5")]
	require.NotNil(t, lights)
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25", prop(lights, ical.ComponentPropertyRrule))
	assert.Equal(t, "20241225", prop(lights, ical.ComponentPropertyDtStart))

	vacuum := events[UID("6")]
	require.NotNil(t, vacuum)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=SA", prop(vacuum, ical.ComponentPropertyRrule))
	assert.Equal(t, "20261017", prop(vacuum, ical.ComponentPropertyDtStart))
}

func TestUIDIsStable(t *testing.T) {
	assert.Equal(t, UID("1-10"), UID("1-10"))
	assert.NotEqual(t, UID("1-10"), UID("1-11"))
	assert.True(t, strings.HasSuffix(UID("x"), uidDomain))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed", "chores.ics")
	require.NoError(t, WriteFile(path, sampleEvents(), now))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.Contains(t, string(data), "SUMMARY:Clean gutters")

	assert.Error(t, WriteFile("", nil, now))
}
