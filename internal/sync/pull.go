package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/store"
	"github.com/awgo/awserver/internal/worker"
)

// Pull walks <syncDir>/<hostname>/<deviceID>/*.db for every peer other
// than (localHostname, localDeviceID), opens each snapshot, and
// replicates its buckets into locally-namespaced destination buckets,
// skipping events this side already holds by id. This side only ever
// reads peer snapshot files, never writes to them.
func Pull(ctx context.Context, w worker.Worker, syncDir, localHostname, localDeviceID string) error {
	hostEntries, err := os.ReadDir(syncDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read sync directory: %w", err)
	}

	for _, hostEntry := range hostEntries {
		if !hostEntry.IsDir() {
			continue
		}
		hostname := hostEntry.Name()
		hostDir := filepath.Join(syncDir, hostname)
		deviceEntries, err := os.ReadDir(hostDir)
		if err != nil {
			return fmt.Errorf("read sync host directory %s: %w", hostname, err)
		}
		for _, deviceEntry := range deviceEntries {
			if !deviceEntry.IsDir() {
				continue
			}
			deviceID := deviceEntry.Name()
			if hostname == localHostname && deviceID == localDeviceID {
				continue // never sync a host's own snapshot into itself
			}
			if err := pullDeviceDir(ctx, w, filepath.Join(hostDir, deviceID), hostname, deviceID); err != nil {
				return err
			}
		}
	}
	return nil
}

func pullDeviceDir(ctx context.Context, w worker.Worker, dir, hostname, deviceID string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read sync device directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := pullSnapshot(ctx, w, path, hostname, deviceID); err != nil {
			return fmt.Errorf("sync from %s: %w", path, err)
		}
	}
	return nil
}

func pullSnapshot(ctx context.Context, w worker.Worker, path, hostname, deviceID string) error {
	remote, err := store.Open(ctx, path, store.ReadOnly())
	if err != nil {
		return fmt.Errorf("open peer snapshot: %w", err)
	}
	defer remote.Close()

	for _, bucket := range remote.GetBuckets(ctx) {
		destID := DestinationBucketID(bucket.ID, hostname, deviceID)
		if err := ensureDestinationBucket(ctx, w, destID, bucket); err != nil {
			return err
		}

		remoteEvents, err := remote.GetEvents(ctx, bucket.ID, nil, nil, 0)
		if err != nil {
			return fmt.Errorf("read events from peer bucket %s: %w", bucket.ID, err)
		}
		localEvents, err := w.GetEvents(ctx, destID, nil, nil, 0)
		if err != nil {
			return fmt.Errorf("read local events for %s: %w", destID, err)
		}

		fresh := DeduplicateByID(remoteEvents, localEvents)
		if len(fresh) == 0 {
			continue
		}
		if _, err := w.InsertEvents(ctx, destID, fresh); err != nil {
			return fmt.Errorf("insert synced events into %s: %w", destID, err)
		}
	}
	return nil
}

func ensureDestinationBucket(ctx context.Context, w worker.Worker, destID string, source models.Bucket) error {
	if _, err := w.GetBucket(ctx, destID); err == nil {
		return nil
	}
	err := w.CreateBucket(ctx, models.Bucket{
		ID:       destID,
		Type:     source.Type,
		Client:   source.Client,
		Hostname: source.Hostname,
	})
	if err != nil && !errors.Is(err, models.ErrBucketExists) {
		return fmt.Errorf("create destination bucket %s: %w", destID, err)
	}
	return nil
}
