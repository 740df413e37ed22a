// Package model holds the value types flowing through the digest pipeline.
package model

import "time"

// Event is a single calendar entry as extracted from the feed, normalized
// into the configured display timezone. Immutable after parsing.
type Event struct {
	Title       string
	Description string
	Location    string

	// Start is never zero; an entry without a parsable start is dropped
	// during parsing.
	Start time.Time

	// End is zero when the feed carries no DTEND.
	End time.Time

	// AllDay marks entries whose DTSTART is a bare date. For those, Start
	// is midnight of that date in the display timezone.
	AllDay bool
}

// HasEnd reports whether the feed supplied an explicit end instant.
func (e Event) HasEnd() bool { return !e.End.IsZero() }

// DisplayEvent is the presentation-ready form of an Event, consumed once by
// the template merge and then discarded.
type DisplayEvent struct {
	Day        string // day of month, zero-padded
	Month      string // French month name
	MonthShort string // abbreviated French month name
	Time       string // "Toute la journée", "HH:MM - HH:MM" or "HH:MM"

	Title       string
	Location    string
	Description string // styled <p> fragment, or "" when the event has none

	Color string // palette hex token, deterministic per title
	Icon  string // emoji chosen by title keywords

	AddToGoogle  string
	AddToOutlook string
	AddToYahoo   string
	AddToICal    string
}

// Fields maps template placeholder names to their values.
func (d DisplayEvent) Fields() map[string]string {
	return map[string]string{
		"day":            d.Day,
		"month":          d.Month,
		"month_short":    d.MonthShort,
		"time":           d.Time,
		"title":          d.Title,
		"location":       d.Location,
		"description":    d.Description,
		"event_color":    d.Color,
		"icon":           d.Icon,
		"add_to_google":  d.AddToGoogle,
		"add_to_outlook": d.AddToOutlook,
		"add_to_yahoo":   d.AddToYahoo,
		"add_to_ical":    d.AddToICal,
	}
}
