// Package worker serializes concurrent callers onto a single store
// connection. It is the sole thread permitted to mutate the store: every
// request is a command submitted over a channel and answered on a
// one-shot reply channel, handing work to a single background goroutine
// rather than locking shared state directly.
package worker

import (
	"context"
	"time"

	"github.com/awgo/awserver/internal/models"
)

// commitThreshold is the number of uncommitted events after which the
// worker force-commits its current transaction, bounding how much work a
// crash can lose and how large the write-ahead log grows between syncs.
const commitThreshold = 100

// Worker is the thread-safe façade the API layer is given. Every method
// blocks until the command has been applied (or ctx is done).
type Worker interface {
	CreateBucket(ctx context.Context, bucket models.Bucket) error
	DeleteBucket(ctx context.Context, bucketID string) error
	GetBucket(ctx context.Context, bucketID string) (models.Bucket, error)
	GetBuckets(ctx context.Context) map[string]models.Bucket
	InsertEvents(ctx context.Context, bucketID string, events []models.Event) ([]models.Event, error)
	DeleteEventsByID(ctx context.Context, bucketID string, ids []int64) error
	Heartbeat(ctx context.Context, bucketID string, heartbeat models.Event, pulsetime time.Duration) (models.Event, error)
	GetEvents(ctx context.Context, bucketID string, start, end *time.Time, limit int) ([]models.Event, error)
	GetEventCount(ctx context.Context, bucketID string, start, end *time.Time) (int64, error)
	InsertKeyValue(ctx context.Context, kv models.KeyValue) error
	DeleteKeyValue(ctx context.Context, key string) error
	GetKeyValue(ctx context.Context, key string) (models.KeyValue, error)
	GetKeysStarting(ctx context.Context, prefix string) ([]string, error)
	Export(ctx context.Context, bucketIDs ...string) (models.BucketsExport, error)
	Import(ctx context.Context, data models.BucketsExport) error
	ForceCommit(ctx context.Context) error

	// Done reports the worker's terminal error, if any, once its loop has
	// exited. It never yields a value while the worker is still running.
	Done() <-chan error

	// Close stops accepting new commands, commits whatever the current
	// batch holds, and waits for the loop goroutine to exit.
	Close() error
}
