package transform

import "github.com/awgo/awserver/internal/models"

// ChunkEventsByKey folds adjacent runs of events sharing the same value
// at key into a single event with summed duration. Events missing key
// break a run without being included in the output.
func ChunkEventsByKey(events []models.Event, key string) []models.Event {
	var out []models.Event
	for _, event := range events {
		if len(out) == 0 {
			if _, ok := event.Data[key]; ok {
				out = append(out, event.Clone())
			}
			continue
		}
		val, ok := event.Data[key]
		if !ok {
			continue
		}
		last := out[len(out)-1]
		lastVal := last.Data[key]
		if valuesEqual(lastVal, val) {
			last.Duration += event.Duration
			out[len(out)-1] = last
		} else {
			out = append(out, event.Clone())
		}
	}
	return out
}

func valuesEqual(a, b any) bool {
	return models.Event{Data: map[string]any{"v": a}}.Equal(models.Event{Data: map[string]any{"v": b}})
}
