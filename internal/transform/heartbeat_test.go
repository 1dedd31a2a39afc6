package transform

import (
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
)

func TestHeartbeatMergeWithinPulsetime(t *testing.T) {
	now := time.Now().UTC()
	event := models.Event{Timestamp: now, Duration: time.Second, Data: map[string]any{"test": float64(1)}}
	hb := models.Event{Timestamp: now.Add(2 * time.Second), Duration: time.Second, Data: map[string]any{"test": float64(1)}}

	merged, ok := Heartbeat(event, hb, 2*time.Second)
	if !ok {
		t.Fatalf("expected merge to succeed")
	}
	if !merged.Timestamp.Equal(now) {
		t.Fatalf("expected merged timestamp %v, got %v", now, merged.Timestamp)
	}
	if merged.Duration != 3*time.Second {
		t.Fatalf("expected merged duration 3s, got %v", merged.Duration)
	}

	if _, ok := Heartbeat(event, hb, 0); ok {
		t.Fatalf("expected no merge with zero pulsetime")
	}
}

func TestHeartbeatRejectsDifferingData(t *testing.T) {
	now := time.Now().UTC()
	event := models.Event{Timestamp: now, Data: map[string]any{"test": float64(1)}}
	hb := models.Event{Timestamp: now, Duration: time.Second, Data: map[string]any{"test": float64(2)}}

	if _, ok := Heartbeat(event, hb, time.Second); ok {
		t.Fatalf("expected no merge for differing data")
	}
}
