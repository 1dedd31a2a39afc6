package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awgo/awserver/internal/store"
	"github.com/awgo/awserver/internal/worker"
)

// Push writes a full snapshot of the local store's buckets and events to
// <syncDir>/<hostname>/<deviceID>/snapshot.db, overwriting any previous
// snapshot. Peers read this file; this side never reads what it writes.
func Push(ctx context.Context, w worker.Worker, syncDir, hostname, deviceID string) error {
	destDir := filepath.Join(syncDir, hostname, deviceID)
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return fmt.Errorf("create sync destination directory: %w", err)
	}
	destPath := filepath.Join(destDir, "snapshot.db")

	// Start from a clean file each push: store.Open migrates an existing
	// file in place, which would merge stale rows from a previous push
	// into the new snapshot instead of replacing it.
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}

	export, err := w.Export(ctx)
	if err != nil {
		return fmt.Errorf("export local store: %w", err)
	}

	dest, err := store.Open(ctx, destPath)
	if err != nil {
		return fmt.Errorf("open snapshot destination %s: %w", destPath, err)
	}
	defer dest.Close()

	if err := dest.Import(ctx, export); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
