package sync_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/store"
	"github.com/awgo/awserver/internal/sync"
	"github.com/awgo/awserver/internal/worker"
)

func newTestWorker(t *testing.T, dbPath string) worker.Worker {
	t.Helper()
	s, err := store.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	w := worker.New(context.Background(), s)
	t.Cleanup(func() {
		_ = w.Close()
		_ = s.Close()
	})
	return w
}

func TestDestinationBucketIDIsDeterministicAndNamespaced(t *testing.T) {
	id := sync.DestinationBucketID("aw-watcher-window_host", "otherhost", "dev123")
	want := "aw-watcher-window_host-synced-from-otherhost-dev123"
	if id != want {
		t.Fatalf("expected %q, got %q", want, id)
	}
}

func TestPushWritesReadableSnapshot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	w := newTestWorker(t, filepath.Join(root, "local.db"))
	if err := w.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "t", Client: "c", Hostname: "h1"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := w.InsertEvents(ctx, "b1", []models.Event{
		{Timestamp: base, Duration: time.Second, Data: map[string]any{}},
	}); err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}

	syncDir := filepath.Join(root, "sync")
	if err := sync.Push(ctx, w, syncDir, "h1", "dev1"); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}

	snapshotPath := filepath.Join(syncDir, "h1", "dev1", "snapshot.db")
	snapshot, err := store.Open(ctx, snapshotPath)
	if err != nil {
		t.Fatalf("failed to open pushed snapshot: %v", err)
	}
	defer snapshot.Close()

	if _, err := snapshot.GetBucket(ctx, "b1"); err != nil {
		t.Fatalf("expected snapshot to contain bucket b1: %v", err)
	}
}

func TestPullReplicatesPeerEventsIntoNamespacedBucket(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	syncDir := filepath.Join(root, "sync")

	peer := newTestWorker(t, filepath.Join(root, "peer.db"))
	if err := peer.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "t", Client: "c", Hostname: "peerhost"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := peer.InsertEvents(ctx, "b1", []models.Event{
		{Timestamp: base, Duration: time.Second, Data: map[string]any{}},
	}); err != nil {
		t.Fatalf("InsertEvents() failed: %v", err)
	}
	if err := sync.Push(ctx, peer, syncDir, "peerhost", "peerdev"); err != nil {
		t.Fatalf("peer Push() failed: %v", err)
	}

	local := newTestWorker(t, filepath.Join(root, "local.db"))
	if err := sync.Pull(ctx, local, syncDir, "localhost", "localdev"); err != nil {
		t.Fatalf("Pull() failed: %v", err)
	}

	destID := sync.DestinationBucketID("b1", "peerhost", "peerdev")
	events, err := local.GetEvents(ctx, destID, nil, nil, 0)
	if err != nil {
		t.Fatalf("GetEvents() on destination bucket failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 replicated event, got %d", len(events))
	}

	// A second pull must not duplicate already-synced events.
	if err := sync.Pull(ctx, local, syncDir, "localhost", "localdev"); err != nil {
		t.Fatalf("second Pull() failed: %v", err)
	}
	events, err = local.GetEvents(ctx, destID, nil, nil, 0)
	if err != nil {
		t.Fatalf("GetEvents() after second pull failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected pull to be idempotent, got %d events", len(events))
	}
}

func TestPullSkipsOwnSnapshot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	syncDir := filepath.Join(root, "sync")

	w := newTestWorker(t, filepath.Join(root, "local.db"))
	if err := w.CreateBucket(ctx, models.Bucket{ID: "b1", Type: "t", Client: "c", Hostname: "h1"}); err != nil {
		t.Fatalf("CreateBucket() failed: %v", err)
	}
	if err := sync.Push(ctx, w, syncDir, "h1", "dev1"); err != nil {
		t.Fatalf("Push() failed: %v", err)
	}

	if err := sync.Pull(ctx, w, syncDir, "h1", "dev1"); err != nil {
		t.Fatalf("Pull() failed: %v", err)
	}

	destID := sync.DestinationBucketID("b1", "h1", "dev1")
	if _, err := w.GetBucket(ctx, destID); err == nil {
		t.Fatalf("expected no destination bucket to be created from syncing a host's own snapshot")
	}
}

func TestPullOnMissingSyncDirIsANoop(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	w := newTestWorker(t, filepath.Join(root, "local.db"))

	if err := sync.Pull(ctx, w, filepath.Join(root, "does-not-exist"), "h1", "dev1"); err != nil {
		t.Fatalf("Pull() on a missing sync dir should be a no-op, got: %v", err)
	}
}

func TestDeduplicateByIDDropsAlreadySeenEvents(t *testing.T) {
	id1, id2 := int64(1), int64(2)
	existing := []models.Event{{ID: &id1}}
	incoming := []models.Event{{ID: &id1}, {ID: &id2}}

	fresh := sync.DeduplicateByID(incoming, existing)
	if len(fresh) != 1 || fresh[0].ID == nil || *fresh[0].ID != id2 {
		t.Fatalf("expected only event id 2 to remain fresh, got %+v", fresh)
	}
}
