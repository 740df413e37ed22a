// Package digest turns parsed calendar events into the final HTML document.
package digest

import (
	"fmt"
	"hash/fnv"
	"html"
	"net/url"
	"strings"
	"time"

	"calmail/internal/model"
)

// AllDayLabel is the time label used for whole-day events.
const AllDayLabel = "Toute la journée"

// eventColors is the fixed rotation palette for event accents.
var eventColors = [...]string{"#ff6b6b", "#feca57", "#48dbfb", "#ff9ff3", "#54a0ff"}

var frenchMonths = [...]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

var frenchMonthsShort = [...]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Juin",
	"Juil", "Août", "Sep", "Oct", "Nov", "Déc",
}

// iconRules maps title keywords to an icon, first group wins.
var iconRules = []struct {
	keywords []string
	icon     string
}{
	{[]string{"repas", "déjeuner", "dîner"}, "🍽️"},
	{[]string{"randonn", "marche", "balade"}, "🥾"},
	{[]string{"jardin", "potager"}, "🌱"},
	{[]string{"sortie", "visite"}, "🚌"},
	{[]string{"réunion", "assemblée"}, "📋"},
}

const defaultIcon = "🎉"

// Present maps an event to its display record. Deterministic and
// side-effect free; the same event always yields the same record.
func Present(ev model.Event) model.DisplayEvent {
	d := model.DisplayEvent{
		Day:        ev.Start.Format("02"),
		Month:      frenchMonths[ev.Start.Month()-1],
		MonthShort: frenchMonthsShort[ev.Start.Month()-1],
		Time:       timeLabel(ev),
		Title:      ev.Title,
		Location:   ev.Location,
		Color:      colorFor(ev.Title),
		Icon:       iconFor(ev.Title),
	}

	if strings.TrimSpace(ev.Description) != "" {
		// Feed descriptions are untrusted free text; escape before
		// embedding in the mail body.
		d.Description = fmt.Sprintf(
			`<p style="color: #777; font-size: 14px; margin: 8px 0 0 0; line-height: 1.5;">%s</p>`,
			html.EscapeString(ev.Description),
		)
	}

	links := calendarLinks(ev)
	d.AddToGoogle = links.google
	d.AddToOutlook = links.outlook
	d.AddToYahoo = links.yahoo
	d.AddToICal = links.ical

	return d
}

func timeLabel(ev model.Event) string {
	switch {
	case ev.AllDay:
		return AllDayLabel
	case ev.HasEnd():
		return ev.Start.Format("15:04") + " - " + ev.End.Format("15:04")
	default:
		return ev.Start.Format("15:04")
	}
}

// colorFor picks a palette entry from an FNV-1a hash of the title. The hash
// is fixed so the same title maps to the same color on every run and host.
func colorFor(title string) string {
	h := fnv.New32a()
	h.Write([]byte(title))
	return eventColors[h.Sum32()%uint32(len(eventColors))]
}

func iconFor(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range iconRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.icon
			}
		}
	}
	return defaultIcon
}

type links struct {
	google, outlook, yahoo, ical string
}

// calendarLinks builds add-to-calendar deep links for the major services.
// When the feed carries no end, all-day events get one day and timed events
// two hours.
func calendarLinks(ev model.Event) links {
	end := ev.End
	if end.IsZero() {
		if ev.AllDay {
			// Next calendar day, not +24h: a DST fall-back day lasts 25
			// hours and would otherwise end on the same date.
			end = ev.Start.AddDate(0, 0, 1)
		} else {
			end = ev.Start.Add(2 * time.Hour)
		}
	}

	var startStr, endStr string
	if ev.AllDay {
		startStr = ev.Start.Format("20060102")
		endStr = end.Format("20060102")
	} else {
		startStr = ev.Start.UTC().Format("20060102T150405Z")
		endStr = end.UTC().Format("20060102T150405Z")
	}

	title := url.QueryEscape(ev.Title)
	description := url.QueryEscape(ev.Description)
	location := url.QueryEscape(ev.Location)

	google := fmt.Sprintf(
		"https://calendar.google.com/calendar/render?action=TEMPLATE&text=%s&dates=%s/%s&details=%s&location=%s",
		title, startStr, endStr, description, location,
	)
	outlook := fmt.Sprintf(
		"https://outlook.live.com/calendar/0/deeplink/compose?subject=%s&startdt=%s&enddt=%s&body=%s&location=%s&path=/calendar/action/compose&rru=addevent",
		title, startStr, endStr, description, location,
	)
	yahoo := fmt.Sprintf(
		"https://calendar.yahoo.com/?v=60&title=%s&st=%s&et=%s&desc=%s&in_loc=%s",
		title, startStr, endStr, description, location,
	)

	// The universal entry reuses the Google link; every client can open it.
	return links{google: google, outlook: outlook, yahoo: yahoo, ical: google}
}
