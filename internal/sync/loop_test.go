package sync_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/awgo/awserver/internal/sync"
)

func TestLoopStartStopRunsAtLeastOneCycle(t *testing.T) {
	root := t.TempDir()
	w := newTestWorker(t, filepath.Join(root, "local.db"))

	loop := sync.NewLoop(w, filepath.Join(root, "sync"), "h1", "dev1", 50*time.Millisecond)
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		running, lastSyncAt, _ := loop.Status()
		if running && !lastSyncAt.IsZero() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the loop's first sync cycle")
		}
		time.Sleep(5 * time.Millisecond)
	}

	loop.Stop()
	running, _, _ := loop.Status()
	if running {
		t.Fatal("expected loop to report not running after Stop()")
	}
}

func TestLoopStartTwiceFails(t *testing.T) {
	root := t.TempDir()
	w := newTestWorker(t, filepath.Join(root, "local.db"))

	loop := sync.NewLoop(w, filepath.Join(root, "sync"), "h1", "dev1", time.Hour)
	if err := loop.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer loop.Stop()

	if err := loop.Start(context.Background()); err == nil {
		t.Fatal("expected a second Start() to fail while already running")
	}
}
