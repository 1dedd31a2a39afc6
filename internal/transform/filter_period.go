package transform

import "github.com/awgo/awserver/internal/models"

// FilterPeriodIntersect clips events to the periods covered by
// maskEvents: for each (event, mask) pair whose intervals intersect, it
// emits a copy of event restricted to the intersection. An event
// straddling two mask events is emitted once per overlapping mask.
func FilterPeriodIntersect(events, maskEvents []models.Event) []models.Event {
	var out []models.Event
	for _, mask := range maskEvents {
		maskEnd := mask.EndTime()
		for _, event := range events {
			eventEnd := event.EndTime()
			if event.Timestamp.After(maskEnd) {
				continue
			}
			if eventEnd.Before(mask.Timestamp) {
				continue
			}
			clipped := event.Clone()
			start := clipped.Timestamp
			if mask.Timestamp.After(start) {
				start = mask.Timestamp
			}
			end := eventEnd
			if maskEnd.Before(end) {
				end = maskEnd
			}
			clipped.Timestamp = start
			clipped.Duration = end.Sub(start)
			out = append(out, clipped)
		}
	}
	if out == nil {
		out = []models.Event{}
	}
	return out
}
