package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetBucket(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.CreateBucket(ctx, models.Bucket{ID: "aw-watcher-window_test", Type: "currentwindow", Client: "test", Hostname: "host"})
	if err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}

	bucket, err := s.GetBucket(ctx, "aw-watcher-window_test")
	if err != nil {
		t.Fatalf("GetBucket() failed: %v", err)
	}
	if bucket.Type != "currentwindow" || bucket.BID == nil {
		t.Fatalf("unexpected bucket: %+v", bucket)
	}

	if err := s.CreateBucket(ctx, models.Bucket{ID: "aw-watcher-window_test"}); err == nil {
		t.Fatalf("expected error creating duplicate bucket")
	}

	if _, err := s.GetBucket(ctx, "does-not-exist"); err == nil {
		t.Fatalf("expected error getting missing bucket")
	}
}

func TestInsertAndGetEvents(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []models.Event{
		{Timestamp: base, Duration: time.Second, Data: map[string]any{"i": float64(1)}},
		{Timestamp: base.Add(10 * time.Second), Duration: time.Second, Data: map[string]any{"i": float64(2)}},
	}
	inserted, err := s.InsertEvents(ctx, "b1", events)
	if err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}
	for _, e := range inserted {
		if e.ID == nil {
			t.Fatalf("expected inserted event to have an id")
		}
	}

	got, err := s.GetEvents(ctx, "b1", nil, nil, 0)
	if err != nil {
		t.Fatalf("GetEvents() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Timestamp.Before(got[1].Timestamp) {
		t.Fatalf("expected events newest first")
	}

	bucket, err := s.GetBucket(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBucket() failed: %v", err)
	}
	if bucket.Metadata.Start == nil || !bucket.Metadata.Start.Equal(base) {
		t.Fatalf("expected cached bucket start to equal earliest event timestamp")
	}

	count, err := s.GetEventCount(ctx, "b1", nil, nil)
	if err != nil {
		t.Fatalf("GetEventCount() failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestGetEventCountOnlyCountsEventsOverlappingWindow(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []models.Event{
		// Inside the [100s, 200s] window.
		{Timestamp: base.Add(120 * time.Second), Duration: 10 * time.Second, Data: map[string]any{}},
		// Entirely after the window: starttime(500s) is past the window's
		// start, but the event doesn't overlap [100s, 200s] at all. A
		// predicate that ORs its two bounds instead of ANDing them counts
		// this one by mistake.
		{Timestamp: base.Add(500 * time.Second), Duration: 10 * time.Second, Data: map[string]any{}},
	}
	if _, err := s.InsertEvents(ctx, "b1", events); err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}

	start := base.Add(100 * time.Second)
	end := base.Add(200 * time.Second)
	count, err := s.GetEventCount(ctx, "b1", &start, &end)
	if err != nil {
		t.Fatalf("GetEventCount() failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event overlapping the window, got %d", count)
	}
}

func TestInsertEventsRejectsNegativeDuration(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}

	bad := models.Event{Timestamp: time.Now(), Duration: -time.Second, Data: map[string]any{}}
	if _, err := s.InsertEvents(ctx, "b1", []models.Event{bad}); !errors.Is(err, models.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestHeartbeatMergesWithinPulsetime(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.CreateBucket(ctx, models.Bucket{ID: "hb", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	first := models.Event{Timestamp: base, Duration: 0, Data: map[string]any{"app": "editor"}}
	if _, err := s.Heartbeat(ctx, "hb", first, 5*time.Second); err != nil {
		t.Fatalf("Heartbeat() failed: %v", err)
	}

	second := models.Event{Timestamp: base.Add(2 * time.Second), Duration: 0, Data: map[string]any{"app": "editor"}}
	merged, err := s.Heartbeat(ctx, "hb", second, 5*time.Second)
	if err != nil {
		t.Fatalf("Heartbeat() failed: %v", err)
	}
	if merged.Duration != 2*time.Second {
		t.Fatalf("expected merged duration 2s, got %v", merged.Duration)
	}

	events, err := s.GetEvents(ctx, "hb", nil, nil, 0)
	if err != nil {
		t.Fatalf("GetEvents() failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected heartbeats to merge into a single event, got %d", len(events))
	}

	third := models.Event{Timestamp: base.Add(time.Hour), Duration: 0, Data: map[string]any{"app": "other"}}
	if _, err := s.Heartbeat(ctx, "hb", third, 5*time.Second); err != nil {
		t.Fatalf("Heartbeat() failed: %v", err)
	}
	events, err = s.GetEvents(ctx, "hb", nil, nil, 0)
	if err != nil {
		t.Fatalf("GetEvents() failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected distinct app heartbeat to insert a new event, got %d", len(events))
	}
}

func TestKeyValueCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.InsertKeyValue(ctx, models.NewKeyValue("setting.theme", "dark", time.Time{})); err != nil {
		t.Fatalf("InsertKeyValue() failed: %v", err)
	}
	kv, err := s.GetKeyValue(ctx, "setting.theme")
	if err != nil {
		t.Fatalf("GetKeyValue() failed: %v", err)
	}
	if kv.Value != "dark" {
		t.Fatalf("expected value 'dark', got %v", kv.Value)
	}

	if err := s.InsertKeyValue(ctx, models.NewKeyValue("setting.other", "x", time.Time{})); err != nil {
		t.Fatalf("InsertKeyValue() failed: %v", err)
	}
	keys, err := s.GetKeysStarting(ctx, "setting.")
	if err != nil {
		t.Fatalf("GetKeysStarting() failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}

	if err := s.DeleteKeyValue(ctx, "setting.theme"); err != nil {
		t.Fatalf("DeleteKeyValue() failed: %v", err)
	}
	if _, err := s.GetKeyValue(ctx, "setting.theme"); err == nil {
		t.Fatalf("expected error getting deleted key")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openTestStore(t)
	if err := src.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := src.InsertEvents(ctx, "b1", []models.Event{
		{Timestamp: base, Duration: time.Second, Data: map[string]any{"i": float64(1)}},
	}); err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}

	exported, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	dst := openTestStore(t)
	if err := dst.Import(ctx, exported); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	bucket, err := dst.GetBucket(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBucket() failed after import: %v", err)
	}
	if bucket.Type != "test" {
		t.Fatalf("unexpected imported bucket: %+v", bucket)
	}
	events, err := dst.GetEvents(ctx, "b1", nil, nil, 0)
	if err != nil {
		t.Fatalf("GetEvents() failed after import: %v", err)
	}
	if len(events) != 1 || events[0].Data["i"] != float64(1) {
		t.Fatalf("unexpected imported events: %+v", events)
	}
}

func TestDeleteBucket(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}
	if err := s.DeleteBucket(ctx, "b1"); err != nil {
		t.Fatalf("DeleteBucket() failed: %v", err)
	}
	if _, err := s.GetBucket(ctx, "b1"); err == nil {
		t.Fatalf("expected error getting deleted bucket")
	}
}
