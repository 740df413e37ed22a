package ics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"calmail/internal/ics"
	"calmail/internal/model"
)

func TestSortByStart_Ascending(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	events := []model.Event{
		{Title: "third", Start: base.Add(48 * time.Hour)},
		{Title: "first", Start: base},
		{Title: "second", Start: base.Add(24 * time.Hour)},
	}

	ics.SortByStart(events)

	assert.Equal(t, "first", events[0].Title)
	assert.Equal(t, "second", events[1].Title)
	assert.Equal(t, "third", events[2].Title)
}

func TestSortByStart_StableOnTies(t *testing.T) {
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	events := []model.Event{
		{Title: "tie-a", Start: base},
		{Title: "tie-b", Start: base},
		{Title: "earlier", Start: base.Add(-time.Hour)},
		{Title: "tie-c", Start: base},
	}

	ics.SortByStart(events)

	assert.Equal(t, "earlier", events[0].Title)
	assert.Equal(t, "tie-a", events[1].Title)
	assert.Equal(t, "tie-b", events[2].Title)
	assert.Equal(t, "tie-c", events[3].Title)
}

func TestSortByStart_EmptyAndSingle(t *testing.T) {
	ics.SortByStart(nil)

	one := []model.Event{{Title: "only", Start: time.Now()}}
	ics.SortByStart(one)
	assert.Equal(t, "only", one[0].Title)
}
