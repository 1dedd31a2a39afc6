package transform

import (
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
)

func TestSplitEvent(t *testing.T) {
	now := time.Now().UTC()
	e := models.Event{Timestamp: now, Duration: 2 * time.Hour, Data: map[string]any{}}

	before, after, split := splitEvent(e, now.Add(time.Hour))
	if !split {
		t.Fatalf("expected split")
	}
	if before.Duration != time.Hour || after.Duration != time.Hour {
		t.Fatalf("expected two 1h halves, got %v and %v", before.Duration, after.Duration)
	}
	if !after.Timestamp.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected after to start at split point")
	}

	_, _, split = splitEvent(e, now)
	if split {
		t.Fatalf("expected no split at boundary instant")
	}
}

func TestUnionNoOverlapNoOverlap(t *testing.T) {
	now := time.Now().UTC()
	e1 := models.Event{Timestamp: now, Duration: time.Hour, Data: map[string]any{}}
	e2 := models.Event{Timestamp: now.Add(time.Hour), Duration: time.Hour, Data: map[string]any{}}

	res := UnionNoOverlap([]models.Event{e1}, []models.Event{e2})
	if len(res) != 2 {
		t.Fatalf("expected 2 events, got %d", len(res))
	}

	res = UnionNoOverlap([]models.Event{e2}, []models.Event{e1})
	if len(res) != 2 || !res[0].Timestamp.Equal(now) {
		t.Fatalf("expected events in timestamp order regardless of which list wins, got %+v", res)
	}
}

func TestUnionNoOverlapWithOverlap(t *testing.T) {
	now := time.Now().UTC()
	e1 := models.Event{Timestamp: now, Duration: time.Hour, Data: map[string]any{}}
	e2 := models.Event{Timestamp: now, Duration: 2 * time.Hour, Data: map[string]any{}}

	res := UnionNoOverlap([]models.Event{e1}, []models.Event{e2})
	if len(res) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(res), res)
	}
	if res[0].Duration != time.Hour || res[1].Duration != time.Hour {
		t.Fatalf("expected primary event plus remainder of secondary, got %+v", res)
	}
	if !res[1].Timestamp.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected remainder to start after primary, got %v", res[1].Timestamp)
	}
}
