package digest

import (
	"context"
	"fmt"
	"time"

	"calmail/internal/config"
	"calmail/internal/ics"
	appLog "calmail/internal/log"
	"calmail/internal/model"
)

// Builder runs the sequential digest pipeline: fetch, parse, sort, present,
// compile. Each stage consumes the previous stage's value; nothing is shared
// or retained between runs.
type Builder struct {
	fetcher *ics.Fetcher
}

func NewBuilder() *Builder {
	return &Builder{fetcher: ics.NewFetcher()}
}

// Build produces the digest HTML for events in [now, now+days_ahead]. The
// returned count is the number of events merged; when it is zero the HTML is
// empty and the caller should skip the send.
func (b *Builder) Build(ctx context.Context, cfg *config.Config, now time.Time) (string, int, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return "", 0, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	now = now.In(loc)
	windowEnd := now.AddDate(0, 0, cfg.DaysAhead)

	body, err := b.fetcher.Fetch(ctx, cfg.ResolvedFeedURL())
	if err != nil {
		return "", 0, err
	}

	events, err := ics.Parse(body, now, windowEnd, loc)
	if err != nil {
		return "", 0, err
	}
	if len(events) == 0 {
		appLog.Info("no events in window, nothing to send", "days_ahead", cfg.DaysAhead)
		return "", 0, nil
	}

	ics.SortByStart(events)

	display := make([]model.DisplayEvent, 0, len(events))
	for _, ev := range events {
		display = append(display, Present(ev))
	}

	tmpl, err := LoadTemplate(cfg.Template, cfg.TemplateDir)
	if err != nil {
		return "", 0, err
	}

	html, err := Compile(tmpl, display)
	if err != nil {
		return "", 0, fmt.Errorf("template %q: %w", cfg.Template, err)
	}

	appLog.Info("digest built", "events", len(display), "template", cfg.Template, "bytes", len(html))
	return html, len(display), nil
}
