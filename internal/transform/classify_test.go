package transform

import (
	"testing"

	"github.com/awgo/awserver/internal/models"
)

func TestCategorizePicksDeepestMatch(t *testing.T) {
	e := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Data: map[string]any{"test": "just a test"}}
	testMatcher, err := NewRegexMatcher("test", false)
	if err != nil {
		t.Fatalf("compile matcher: %v", err)
	}
	nonMatcher, err := NewRegexMatcher("nonmatching", false)
	if err != nil {
		t.Fatalf("compile matcher: %v", err)
	}

	rules := []CategoryRule{
		{Category: []string{"Test"}, Matcher: testMatcher},
		{Category: []string{"Test", "Subtest"}, Matcher: testMatcher},
		{Category: []string{"Other"}, Matcher: nonMatcher},
	}
	res := Categorize([]models.Event{e}, rules)
	cat, ok := res[0].Data["$category"].([]string)
	if !ok || len(cat) != 2 || cat[0] != "Test" || cat[1] != "Subtest" {
		t.Fatalf("expected [Test Subtest], got %v", res[0].Data["$category"])
	}
}

func TestCategorizeUncategorized(t *testing.T) {
	e := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Data: map[string]any{"test": "just a test"}}
	nonMatcher, _ := NewRegexMatcher("not going to match", false)
	res := Categorize([]models.Event{e}, []CategoryRule{{Category: []string{"Non-matching", "test"}, Matcher: nonMatcher}})
	cat := res[0].Data["$category"].([]string)
	if len(cat) != 1 || cat[0] != "Uncategorized" {
		t.Fatalf("expected [Uncategorized], got %v", cat)
	}
}

func TestTagSortsAndDedups(t *testing.T) {
	e := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Data: map[string]any{"test": "just a test"}}
	m, _ := NewRegexMatcher("test", false)
	noMatch, _ := NewRegexMatcher("nomatch", false)

	rules := []TagRule{
		{Tag: "test", Matcher: m},
		{Tag: "test-2", Matcher: m},
		{Tag: "nomatch", Matcher: noMatch},
	}
	res := Tag([]models.Event{e}, rules)
	tags := res[0].Data["$tags"].([]string)
	if len(tags) != 2 || tags[0] != "test" || tags[1] != "test-2" {
		t.Fatalf("expected [test test-2], got %v", tags)
	}
}
