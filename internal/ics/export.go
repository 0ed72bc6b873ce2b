// Package ics publishes projected chore events as an iCalendar feed.
package ics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"chorecal/internal/dates"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
	"chorecal/internal/recurrence"
	"chorecal/internal/status"
)

const (
	productID = "-//chorecal//chore calendar//EN"
	calName   = "Chores"
	uidDomain = "@chorecal"

	// colorHexProperty carries the exact style color; COLOR only takes
	// CSS3 color names.
	colorHexProperty = "X-CHORECAL-COLOR"
)

// uidSpace seeds name-based UIDs so re-exporting the same event key yields
// the same UID.
var uidSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:chorecal:events"))

// UID returns the stable iCalendar UID for an event key.
func UID(key string) string {
	return uuid.NewSHA1(uidSpace, []byte(key)).String() + uidDomain
}

// Build renders events as a VCALENDAR. Events that cannot be placed on a day
// are left out and logged.
func Build(events []model.Event, now time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(calName)

	stamp := now.UTC()
	skipped := 0
	for _, ev := range events {
		if ev.Start.IsZero() {
			skipped++
			appLog.Warn("ics export: event has no usable date; skipping", "key", ev.Key, "due", ev.DueLabel)
			continue
		}

		ve := cal.AddEvent(UID(ev.Key))
		ve.SetDtStampTime(stamp)
		ve.SetSummary(ev.Title)
		ve.SetDescription(description(ev))

		start, rule := seriesStart(ev)
		if ev.AllDay {
			day := dates.StartOfDay(start)
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(time.Hour))
		}
		if rule != "" {
			ve.SetProperty(ical.ComponentPropertyRrule, rule)
		}

		ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(ev.Status.String()))
		ve.SetProperty(ical.ComponentProperty("COLOR"), ev.Style.ColorName)
		ve.SetProperty(ical.ComponentProperty(colorHexProperty), ev.Style.Color)
		if ev.Status == model.StatusSkipped {
			ve.SetProperty(ical.ComponentPropertyStatus, "CANCELLED")
		} else {
			ve.SetProperty(ical.ComponentPropertyStatus, "CONFIRMED")
		}
	}

	appLog.Debug("ics export built", "events", len(events)-skipped, "skipped", skipped)
	return cal
}

// seriesStart returns where an event begins and the RRULE it repeats on.
// A fallback event repeats on its item's schedule from the first
// occurrence on or after its day, so DTSTART is itself an occurrence.
func seriesStart(ev model.Event) (time.Time, string) {
	if !ev.Fallback || ev.RRule == "" {
		return ev.Start, ""
	}
	first, ok := recurrence.FirstOnOrAfter(ev.RRule, ev.Start)
	if !ok {
		appLog.Warn("ics export: rule has no occurrence; exporting single event", "key", ev.Key, "rrule", ev.RRule)
		return ev.Start, ""
	}
	return first, ev.RRule
}

func description(ev model.Event) string {
	var b strings.Builder
	b.WriteString(status.Label(ev.Status))
	if ev.DueLabel != "" {
		b.WriteString(" · due ")
		b.WriteString(ev.DueLabel)
	}
	if ev.Frequency != model.FrequencyUnknown {
		b.WriteString(" · ")
		b.WriteString(ev.Frequency.String())
	}
	return b.String()
}

// WriteFile builds the feed and writes it to path atomically with 0600
// permissions.
func WriteFile(path string, events []model.Event, now time.Time) error {
	if path == "" {
		return errors.New("ics export path is empty")
	}

	data := []byte(Build(events, now).Serialize())

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".chorecal-*.ics.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	appLog.Info("ics export written", "path", path, "bytes", len(data))
	return nil
}
