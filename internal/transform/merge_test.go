package transform

import (
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
)

func TestMergeEventsByKeys(t *testing.T) {
	e1 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Duration: time.Second, Data: map[string]any{"test": float64(1)}}
	e2 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:01Z"), Duration: 3 * time.Second, Data: map[string]any{"test2": float64(3)}}
	e3 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:02Z"), Duration: 7 * time.Second, Data: map[string]any{"test": float64(6)}}
	e4 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:03Z"), Duration: 9 * time.Second, Data: map[string]any{"test": float64(1)}}

	res := SortByTimestamp(MergeEventsByKeys([]models.Event{e1, e2, e3, e4}, []string{"test"}))
	if len(res) != 2 {
		t.Fatalf("expected 2 merged events, got %d: %+v", len(res), res)
	}
	if res[0].Duration != 10*time.Second {
		t.Fatalf("expected first group duration 10s, got %v", res[0].Duration)
	}
	if res[1].Duration != 7*time.Second {
		t.Fatalf("expected second group duration 7s, got %v", res[1].Duration)
	}
}

func TestMergeEventsByKeysEmptyKeys(t *testing.T) {
	e1 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Duration: time.Second, Data: map[string]any{"test": float64(1)}}
	res := MergeEventsByKeys([]models.Event{e1}, nil)
	if len(res) != 0 {
		t.Fatalf("expected no events for empty key list, got %+v", res)
	}
}
