package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calmail/internal/log"
	"calmail/internal/model"
)

// Defaults applied to feed entries with missing text fields.
const (
	DefaultTitle    = "Sans titre"
	DefaultLocation = "Lieu à confirmer"
)

// Parse decodes an ICS payload into events normalized to loc and filtered to
// the [now, windowEnd] window (inclusive at both ends).
//
// Only VEVENT components are considered; journals, to-dos and timezone
// definitions are skipped. A malformed entry is logged and dropped without
// aborting the batch; only a payload that fails to decode at all is an error.
// Output order is feed order — sorting is SortByStart's job.
func Parse(body []byte, now, windowEnd time.Time, loc *time.Location) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]model.Event, 0)
	skipped := 0

	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve, loc)
		if perr != nil {
			skipped++
			appLog.Error("vevent parse failed, entry dropped", perr)
			continue
		}

		// Closed interval at both bounds: an event starting exactly at
		// now or exactly at windowEnd is kept.
		if ev.Start.Before(now) || ev.Start.After(windowEnd) {
			continue
		}

		events = append(events, ev)
	}

	appLog.Info("feed parsed", "events", len(events), "dropped", skipped)
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.Event, error) {
	var out model.Event

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || startProp.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	start, allDay, err := normalizeStamp(startProp, loc)
	if err != nil {
		return out, fmt.Errorf("DTSTART %q: %w", startProp.Value, err)
	}
	out.Start = start
	out.AllDay = allDay

	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil && endProp.Value != "" {
		end, _, err := normalizeStamp(endProp, loc)
		if err != nil {
			return out, fmt.Errorf("DTEND %q: %w", endProp.Value, err)
		}
		out.End = end
	}

	out.Title = DefaultTitle
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	out.Location = DefaultLocation
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil && p.Value != "" {
		out.Location = p.Value
	}

	return out, nil
}

// normalizeStamp turns a DTSTART/DTEND property into an instant in loc.
//
//   - VALUE=DATE or a value without a time part: midnight of that date in
//     loc; reported as all-day.
//   - Trailing Z: UTC instant, converted to loc.
//   - TZID parameter: interpreted in that zone, converted to loc.
//   - Floating date-time: interpreted directly in loc.
func normalizeStamp(prop *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	val := strings.TrimSpace(prop.Value)
	if val == "" {
		return time.Time{}, false, errors.New("empty value")
	}

	dateOnly := !strings.Contains(val, "T")
	if params := prop.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			dateOnly = true
		}
	}

	if dateOnly {
		t, err := time.ParseInLocation("20060102", val, loc)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}

	if strings.HasSuffix(val, "Z") {
		t, err := time.Parse("20060102T150405Z", val)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), false, nil
	}

	if params := prop.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 && tzs[0] != "" {
			zone, err := time.LoadLocation(tzs[0])
			if err != nil {
				return time.Time{}, false, fmt.Errorf("TZID %q: %w", tzs[0], err)
			}
			t, err := time.ParseInLocation("20060102T150405", val, zone)
			if err != nil {
				return time.Time{}, false, err
			}
			return t.In(loc), false, nil
		}
	}

	// Floating time: no offset, no TZID. Interpret in the display zone.
	t, err := time.ParseInLocation("20060102T150405", val, loc)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, false, nil
}
