package transform

import (
	"sort"

	"github.com/awgo/awserver/internal/models"
)

// CategoryRule pairs a category path (e.g. ["Work", "Coding"]) with the
// matcher that selects it.
type CategoryRule struct {
	Category []string
	Matcher  Matcher
}

// TagRule pairs a tag name with the matcher that applies it.
type TagRule struct {
	Tag     string
	Matcher Matcher
}

// Categorize assigns each event's data["$category"] to the path of the
// deepest matching rule (rules earlier in the slice lose ties to later
// ones of equal or greater depth), or ["Uncategorized"] if none match.
func Categorize(events []models.Event, rules []CategoryRule) []models.Event {
	out := make([]models.Event, len(events))
	for i, event := range events {
		out[i] = categorizeOne(event, rules)
	}
	return out
}

func categorizeOne(event models.Event, rules []CategoryRule) models.Event {
	event = event.Clone()
	category := []string{"Uncategorized"}
	for _, rule := range rules {
		if rule.Matcher.Matches(event.Data) && len(rule.Category) >= len(category) {
			category = rule.Category
		}
	}
	event.Data["$category"] = category
	return event
}

// Tag sets each event's data["$tags"] to the sorted, deduplicated list of
// tags whose matcher matches the event.
func Tag(events []models.Event, rules []TagRule) []models.Event {
	out := make([]models.Event, len(events))
	for i, event := range events {
		out[i] = tagOne(event, rules)
	}
	return out
}

func tagOne(event models.Event, rules []TagRule) models.Event {
	event = event.Clone()
	var tags []string
	for _, rule := range rules {
		if rule.Matcher.Matches(event.Data) {
			tags = append(tags, rule.Tag)
		}
	}
	sort.Strings(tags)
	tags = dedupSorted(tags)
	if tags == nil {
		tags = []string{}
	}
	event.Data["$tags"] = tags
	return event
}

func dedupSorted(s []string) []string {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
