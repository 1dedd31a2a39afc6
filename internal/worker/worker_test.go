package worker_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/store"
	"github.com/awgo/awserver/internal/worker"
)

func newTestWorker(t *testing.T) (worker.Worker, context.Context) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	ctx := context.Background()
	w := worker.New(ctx, s)
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
		_ = s.Close()
	})
	return w, ctx
}

func TestWorkerCreateBucketAndInsertEvents(t *testing.T) {
	w, ctx := newTestWorker(t)

	if err := w.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []models.Event{
		{Timestamp: base, Duration: time.Second, Data: map[string]any{"i": float64(1)}},
	}
	inserted, err := w.InsertEvents(ctx, "b1", events)
	if err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}
	if len(inserted) != 1 || inserted[0].ID == nil {
		t.Fatalf("expected one inserted event with an id, got %+v", inserted)
	}

	got, err := w.GetEvents(ctx, "b1", nil, nil, 0)
	if err != nil {
		t.Fatalf("GetEvents() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
}

func TestWorkerManyEventsTriggerCommitBatch(t *testing.T) {
	w, ctx := newTestWorker(t)
	if err := w.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	var events []models.Event
	for i := 0; i < 250; i++ {
		events = append(events, models.Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Duration:  time.Second,
			Data:      map[string]any{"i": float64(i)},
		})
	}
	if _, err := w.InsertEvents(ctx, "b1", events); err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}

	count, err := w.GetEventCount(ctx, "b1", nil, nil)
	if err != nil {
		t.Fatalf("GetEventCount() failed: %v", err)
	}
	if count != 250 {
		t.Fatalf("expected 250 events, got %d", count)
	}
}

func TestWorkerKeyValueAndExport(t *testing.T) {
	w, ctx := newTestWorker(t)
	if err := w.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "test", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}
	if err := w.InsertKeyValue(ctx, models.NewKeyValue("k", "v", time.Time{})); err != nil {
		t.Fatalf("InsertKeyValue() failed: %v", err)
	}
	kv, err := w.GetKeyValue(ctx, "k")
	if err != nil {
		t.Fatalf("GetKeyValue() failed: %v", err)
	}
	if kv.Value != "v" {
		t.Fatalf("expected value 'v', got %v", kv.Value)
	}

	if err := w.ForceCommit(ctx); err != nil {
		t.Fatalf("ForceCommit() failed: %v", err)
	}

	exported, err := w.Export(ctx)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if _, ok := exported.Buckets["b1"]; !ok {
		t.Fatalf("expected exported data to include bucket b1")
	}
}

func TestWorkerCloseIsIdempotentWithPendingDone(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	w := worker.New(context.Background(), s)
	if err := w.CreateBucket(context.Background(), models.Bucket{ID: "b1", Type: "t", Client: "c", Hostname: "h"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	select {
	case err := <-w.Done():
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for Done() after Close()")
	}
}
