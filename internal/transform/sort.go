package transform

import (
	"sort"

	"github.com/awgo/awserver/internal/models"
)

// SortByTimestamp returns events ordered ascending by timestamp.
func SortByTimestamp(events []models.Event) []models.Event {
	out := append([]models.Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SortByDuration returns events ordered descending by duration (longest
// first).
func SortByDuration(events []models.Event) []models.Event {
	out := append([]models.Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	return out
}
