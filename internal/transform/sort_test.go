package transform

import (
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return tm
}

func TestSortByTimestamp(t *testing.T) {
	e1 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Duration: time.Second, Data: map[string]any{}}
	e2 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:03Z"), Duration: time.Second, Data: map[string]any{}}

	res := SortByTimestamp([]models.Event{e2, e1})
	if len(res) != 2 || !res[0].Timestamp.Equal(e1.Timestamp) || !res[1].Timestamp.Equal(e2.Timestamp) {
		t.Fatalf("unexpected order: %+v", res)
	}
}

func TestSortByDuration(t *testing.T) {
	e1 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Duration: 2 * time.Second, Data: map[string]any{}}
	e2 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:03Z"), Duration: time.Second, Data: map[string]any{}}

	res := SortByDuration([]models.Event{e2, e1})
	if res[0].Duration != e1.Duration || res[1].Duration != e2.Duration {
		t.Fatalf("expected descending duration order, got %+v", res)
	}
}
