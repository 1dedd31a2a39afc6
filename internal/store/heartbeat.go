package store

import (
	"context"
	"fmt"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/transform"
)

// Heartbeat merges heartbeat into the last known event of bucketID if
// transform.Heartbeat decides they belong together (same data, gap within
// pulsetime); otherwise heartbeat is inserted as a new event. Either way
// the stored (possibly merged) event is returned.
//
// The last event is tracked in an in-memory cache so that a steady stream
// of heartbeats doesn't require a database round trip per beat; the cache
// is seeded from the database lazily on first use per bucket.
func (s *Store) Heartbeat(ctx context.Context, bucketID string, heartbeat models.Event, pulsetime time.Duration) (models.Event, error) {
	if _, err := s.GetBucket(ctx, bucketID); err != nil {
		return models.Event{}, err
	}

	last, err := s.lastEvent(ctx, bucketID)
	if err != nil {
		return models.Event{}, err
	}
	if last == nil {
		inserted, err := s.InsertEvents(ctx, bucketID, []models.Event{heartbeat})
		if err != nil {
			return models.Event{}, err
		}
		stored := inserted[0]
		s.setLastEvent(bucketID, stored)
		return stored, nil
	}

	merged, ok := transform.Heartbeat(*last, heartbeat, pulsetime)
	if !ok {
		inserted, err := s.InsertEvents(ctx, bucketID, []models.Event{heartbeat})
		if err != nil {
			return models.Event{}, err
		}
		stored := inserted[0]
		s.setLastEvent(bucketID, stored)
		return stored, nil
	}

	merged.ID = last.ID
	if err := s.ReplaceLastEvent(ctx, bucketID, merged); err != nil {
		return models.Event{}, fmt.Errorf("replace last event for heartbeat merge: %w", err)
	}
	s.setLastEvent(bucketID, merged)
	return merged, nil
}

func (s *Store) lastEvent(ctx context.Context, bucketID string) (*models.Event, error) {
	s.mu.RLock()
	cached, ok := s.lastHeartbeat[bucketID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	events, err := s.GetEvents(ctx, bucketID, nil, nil, 1)
	if err != nil {
		return nil, fmt.Errorf("load last event for bucket %q: %w", bucketID, err)
	}
	if len(events) == 0 {
		return nil, nil
	}
	e := events[0]
	s.setLastEvent(bucketID, e)
	return &e, nil
}

func (s *Store) setLastEvent(bucketID string, e models.Event) {
	s.mu.Lock()
	s.lastHeartbeat[bucketID] = &e
	s.mu.Unlock()
}

// invalidateLastEvent drops the cached last-event for bucketID. Any
// non-heartbeat insert may add events later than the cached tail, so the
// cache must be refreshed from the store on next use.
func (s *Store) invalidateLastEvent(bucketID string) {
	s.mu.Lock()
	delete(s.lastHeartbeat, bucketID)
	s.mu.Unlock()
}
