// Package sync replicates events between instances over a shared
// directory: each instance publishes a snapshot of its own store under
// <sync_root>/<hostname>/<device_id>/, and pulls every other instance's
// snapshot it finds there into locally-namespaced destination buckets.
// There is no network protocol; the directory itself is the transport,
// typically a folder kept in sync by some other tool (cloud drive,
// removable media, rsync).
package sync

import (
	"context"

	"github.com/awgo/awserver/internal/worker"
)

// RunOnce performs one sync cycle: publish the local store as a snapshot
// peers can read, then pull and merge every peer snapshot found under
// syncDir.
func RunOnce(ctx context.Context, w worker.Worker, syncDir, hostname, deviceID string) error {
	if err := Push(ctx, w, syncDir, hostname, deviceID); err != nil {
		return err
	}
	return Pull(ctx, w, syncDir, hostname, deviceID)
}
