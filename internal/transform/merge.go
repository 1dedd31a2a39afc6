package transform

import (
	"fmt"
	"strings"

	"github.com/awgo/awserver/internal/models"
)

// MergeEventsByKeys groups events by the tuple of values at keys (events
// missing any key are dropped) and folds each group into a single event:
// duration summed, timestamp and data taken from the first event seen in
// the group. An empty keys list yields no events — there is no sensible
// "group by nothing".
func MergeEventsByKeys(events []models.Event, keys []string) []models.Event {
	if len(keys) == 0 {
		return []models.Event{}
	}
	merged := make(map[string]models.Event)
	order := make([]string, 0)
	for _, event := range events {
		parts := make([]string, 0, len(keys))
		skip := false
		for _, key := range keys {
			v, ok := event.Data[key]
			if !ok {
				skip = true
				break
			}
			parts = append(parts, fmt.Sprint(v))
		}
		if skip {
			continue
		}
		groupKey := strings.Join(parts, ".")
		if existing, ok := merged[groupKey]; ok {
			existing.Duration += event.Duration
			merged[groupKey] = existing
		} else {
			merged[groupKey] = event.Clone()
			order = append(order, groupKey)
		}
	}
	out := make([]models.Event, 0, len(order))
	for _, k := range order {
		out = append(out, merged[k])
	}
	return out
}
