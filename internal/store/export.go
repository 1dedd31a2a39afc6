package store

import (
	"context"
	"fmt"
	"log"

	"github.com/awgo/awserver/internal/models"
)

// Export serializes the named buckets (or every bucket, if bucketIDs is
// empty) together with their events into the wire shape served at
// /api/0/buckets/{id}/export and /api/0/export.
func (s *Store) Export(ctx context.Context, bucketIDs ...string) (models.BucketsExport, error) {
	ids := bucketIDs
	if len(ids) == 0 {
		ids = s.sortedBucketIDs()
	}

	out := models.BucketsExport{Buckets: make(map[string]models.Bucket, len(ids))}
	for _, id := range ids {
		bucket, err := s.GetBucket(ctx, id)
		if err != nil {
			return models.BucketsExport{}, err
		}
		events, err := s.GetEvents(ctx, id, nil, nil, 0)
		if err != nil {
			return models.BucketsExport{}, fmt.Errorf("export bucket %q: %w", id, err)
		}
		bucket.Events = events
		out.Buckets[id] = bucket
	}
	return out, nil
}

// Import loads an export, creating any bucket that doesn't already exist
// and appending its events. A bucket that already exists is left alone
// (its metadata is not overwritten) but its events are still imported,
// matching the legacy importer's skip-and-log tolerance for partially
// malformed input: a bucket whose own creation fails is logged and
// skipped rather than aborting the whole import.
func (s *Store) Import(ctx context.Context, data models.BucketsExport) error {
	for id, bucket := range data.Buckets {
		bucket.ID = id
		if _, err := s.GetBucket(ctx, id); err == nil {
			if len(bucket.Events) > 0 {
				if _, err := s.InsertEvents(ctx, id, bucket.Events); err != nil {
					log.Printf("store: import: skipping events for existing bucket %q: %v", id, err)
				}
			}
			continue
		}
		if err := s.CreateBucket(ctx, bucket); err != nil {
			log.Printf("store: import: skipping malformed bucket %q: %v", id, err)
			continue
		}
	}
	return nil
}
