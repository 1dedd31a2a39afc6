package transform

import (
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
)

func TestFilterPeriodIntersect(t *testing.T) {
	mk := func(ts string) models.Event {
		return models.Event{Timestamp: mustTime(t, ts), Duration: time.Second, Data: map[string]any{"test": float64(1)}}
	}
	events := []models.Event{
		mk("2000-01-01T00:00:01Z"),
		mk("2000-01-01T00:00:02Z"),
		mk("2000-01-01T00:00:03Z"),
		mk("2000-01-01T00:00:04Z"),
		mk("2000-01-01T00:00:05Z"),
	}
	filter := models.Event{
		Timestamp: mustTime(t, "2000-01-01T00:00:02Z").Add(500 * time.Millisecond),
		Duration:  2 * time.Second,
		Data:      map[string]any{"test": float64(1)},
	}

	res := FilterPeriodIntersect(events, []models.Event{filter})
	if len(res) != 3 {
		t.Fatalf("expected 3 clipped events, got %d: %+v", len(res), res)
	}
	if res[0].Duration != 500*time.Millisecond {
		t.Fatalf("expected first clipped duration 500ms, got %v", res[0].Duration)
	}
	if res[1].Duration != time.Second {
		t.Fatalf("expected second clipped duration 1s, got %v", res[1].Duration)
	}
	if res[2].Duration != 500*time.Millisecond {
		t.Fatalf("expected third clipped duration 500ms, got %v", res[2].Duration)
	}
}
