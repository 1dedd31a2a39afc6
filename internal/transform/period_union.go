package transform

import "github.com/awgo/awserver/internal/models"

// PeriodUnion merges the time coverage of two event lists into a
// data-stripped list of occupied periods: adjacent or overlapping
// intervals coalesce into one event.
func PeriodUnion(a, b []models.Event) []models.Event {
	all := make([]models.Event, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	all = SortByTimestamp(all)
	if len(all) == 0 {
		return []models.Event{}
	}

	out := make([]models.Event, 0, len(all))
	acc := models.TimeInterval{}
	accSet := false
	flush := func() {
		if accSet {
			out = append(out, models.Event{Timestamp: acc.Start(), Duration: acc.Duration(), Data: map[string]any{}})
		}
	}
	for _, e := range all {
		interval := models.NewTimeInterval(e.Timestamp, e.EndTime())
		if !accSet {
			acc = interval
			accSet = true
			continue
		}
		if union, ok := acc.Union(interval); ok {
			acc = union
		} else {
			flush()
			acc = interval
		}
	}
	flush()
	return out
}
