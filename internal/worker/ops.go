package worker

import (
	"context"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/store"
)

func (w *loop) CreateBucket(ctx context.Context, bucket models.Bucket) error {
	_, err := w.submit(ctx, &command{
		durable: true,
		reply:   make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return nil, s.CreateBucket(ctx, bucket)
		},
	})
	return err
}

func (w *loop) DeleteBucket(ctx context.Context, bucketID string) error {
	_, err := w.submit(ctx, &command{
		durable: true,
		reply:   make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return nil, s.DeleteBucket(ctx, bucketID)
		},
	})
	return err
}

func (w *loop) GetBucket(ctx context.Context, bucketID string) (models.Bucket, error) {
	v, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.GetBucket(ctx, bucketID)
		},
	})
	if err != nil {
		return models.Bucket{}, err
	}
	return v.(models.Bucket), nil
}

func (w *loop) GetBuckets(ctx context.Context) map[string]models.Bucket {
	v, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.GetBuckets(ctx), nil
		},
	})
	if err != nil {
		return map[string]models.Bucket{}
	}
	return v.(map[string]models.Bucket)
}

func (w *loop) InsertEvents(ctx context.Context, bucketID string, events []models.Event) ([]models.Event, error) {
	v, err := w.submit(ctx, &command{
		events: len(events),
		reply:  make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.InsertEvents(ctx, bucketID, events)
		},
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Event), nil
}

func (w *loop) DeleteEventsByID(ctx context.Context, bucketID string, ids []int64) error {
	_, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return nil, s.DeleteEventsByID(ctx, bucketID, ids)
		},
	})
	return err
}

func (w *loop) Heartbeat(ctx context.Context, bucketID string, heartbeat models.Event, pulsetime time.Duration) (models.Event, error) {
	v, err := w.submit(ctx, &command{
		events: 1,
		reply:  make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.Heartbeat(ctx, bucketID, heartbeat, pulsetime)
		},
	})
	if err != nil {
		return models.Event{}, err
	}
	return v.(models.Event), nil
}

func (w *loop) GetEvents(ctx context.Context, bucketID string, start, end *time.Time, limit int) ([]models.Event, error) {
	v, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.GetEvents(ctx, bucketID, start, end, limit)
		},
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Event), nil
}

func (w *loop) GetEventCount(ctx context.Context, bucketID string, start, end *time.Time) (int64, error) {
	v, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.GetEventCount(ctx, bucketID, start, end)
		},
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (w *loop) InsertKeyValue(ctx context.Context, kv models.KeyValue) error {
	_, err := w.submit(ctx, &command{
		durable: true,
		reply:   make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return nil, s.InsertKeyValue(ctx, kv)
		},
	})
	return err
}

func (w *loop) DeleteKeyValue(ctx context.Context, key string) error {
	_, err := w.submit(ctx, &command{
		durable: true,
		reply:   make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return nil, s.DeleteKeyValue(ctx, key)
		},
	})
	return err
}

func (w *loop) GetKeyValue(ctx context.Context, key string) (models.KeyValue, error) {
	v, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.GetKeyValue(ctx, key)
		},
	})
	if err != nil {
		return models.KeyValue{}, err
	}
	return v.(models.KeyValue), nil
}

func (w *loop) GetKeysStarting(ctx context.Context, prefix string) ([]string, error) {
	v, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.GetKeysStarting(ctx, prefix)
		},
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (w *loop) Export(ctx context.Context, bucketIDs ...string) (models.BucketsExport, error) {
	v, err := w.submit(ctx, &command{
		reply: make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return s.Export(ctx, bucketIDs...)
		},
	})
	if err != nil {
		return models.BucketsExport{}, err
	}
	return v.(models.BucketsExport), nil
}

func (w *loop) Import(ctx context.Context, data models.BucketsExport) error {
	_, err := w.submit(ctx, &command{
		durable: true,
		reply:   make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return nil, s.Import(ctx, data)
		},
	})
	return err
}

func (w *loop) ForceCommit(ctx context.Context) error {
	_, err := w.submit(ctx, &command{
		durable: true,
		reply:   make(chan result, 1),
		run: func(ctx context.Context, s *store.Store) (any, error) {
			return nil, nil
		},
	})
	return err
}
