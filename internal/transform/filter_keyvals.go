package transform

import (
	"regexp"

	"github.com/awgo/awserver/internal/models"
)

// FilterKeyvals keeps events whose data[key] equals one of vals.
func FilterKeyvals(events []models.Event, key string, vals []any) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, event := range events {
		v, ok := event.Data[key]
		if !ok {
			continue
		}
		for _, want := range vals {
			if valuesEqual(v, want) {
				out = append(out, event)
				break
			}
		}
	}
	return out
}

// ExcludeKeyvals drops events whose data[key] equals one of vals;
// events missing key are kept, the mirror image of FilterKeyvals.
func ExcludeKeyvals(events []models.Event, key string, vals []any) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, event := range events {
		v, ok := event.Data[key]
		if !ok {
			out = append(out, event)
			continue
		}
		excluded := false
		for _, want := range vals {
			if valuesEqual(v, want) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, event)
		}
	}
	return out
}

// FilterKeyvalsRegex keeps events whose data[key] is a string matching
// pattern.
func FilterKeyvalsRegex(events []models.Event, key, pattern string) ([]models.Event, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(events))
	for _, event := range events {
		v, ok := event.Data[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if re.MatchString(s) {
			out = append(out, event)
		}
	}
	return out, nil
}
