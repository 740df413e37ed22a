package ics

import (
	"sort"

	"calmail/internal/model"
)

// SortByStart orders events ascending by start instant, in place. The sort
// is stable: events sharing a start keep their feed order.
func SortByStart(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}
