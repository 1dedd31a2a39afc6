package transform

import (
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
)

func TestFloodMergesEqualData(t *testing.T) {
	e1 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Duration: time.Second, Data: map[string]any{"test": float64(1)}}
	e2 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:03Z"), Duration: time.Second, Data: map[string]any{"test": float64(1)}}

	res := Flood([]models.Event{e1, e2}, 5*time.Second)
	if len(res) != 1 {
		t.Fatalf("expected 1 merged event, got %d: %+v", len(res), res)
	}
	if !res[0].Timestamp.Equal(e1.Timestamp) {
		t.Fatalf("expected merged start at e1 timestamp, got %v", res[0].Timestamp)
	}
	if res[0].Duration != 4*time.Second {
		t.Fatalf("expected duration 4s, got %v", res[0].Duration)
	}
}

func TestFloodIsIdempotent(t *testing.T) {
	e1 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Duration: time.Second, Data: map[string]any{"test": float64(1)}}
	e2 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:03Z"), Duration: time.Second, Data: map[string]any{"test": float64(2)}}
	e3 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:10Z"), Duration: time.Second, Data: map[string]any{"test": float64(1)}}

	once := Flood([]models.Event{e1, e2, e3}, 5*time.Second)
	twice := Flood(once, 5*time.Second)

	if len(once) != len(twice) {
		t.Fatalf("expected flooding an already-flooded list to be a no-op, got %d events then %d", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Equal(twice[i]) {
			t.Fatalf("event %d changed on re-flood: %+v -> %+v", i, once[i], twice[i])
		}
	}
}

func TestFloodSplitsGapForDifferingData(t *testing.T) {
	e1 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:00Z"), Duration: time.Second, Data: map[string]any{"test": float64(1)}}
	e2 := models.Event{Timestamp: mustTime(t, "2000-01-01T00:00:03Z"), Duration: time.Second, Data: map[string]any{"test": float64(2)}}

	res := Flood([]models.Event{e1, e2}, 5*time.Second)
	if len(res) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(res), res)
	}
	if res[0].Duration != 2*time.Second {
		t.Fatalf("expected first event duration 2s, got %v", res[0].Duration)
	}
	if !res[1].Timestamp.Equal(mustTime(t, "2000-01-01T00:00:02Z")) {
		t.Fatalf("expected second event to start at midpoint, got %v", res[1].Timestamp)
	}
	if res[1].Duration != 2*time.Second {
		t.Fatalf("expected second event duration 2s, got %v", res[1].Duration)
	}
}
