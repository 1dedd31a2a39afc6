// Package store implements the embedded SQLite event store: bucket
// CRUD, event insert/query, heartbeat merging, and flat key-value
// settings. A Store keeps an in-memory cache of bucket metadata (id,
// type, client, hostname, and observed start/end) so that reads of bucket
// listings never hit the database; the cache is kept coherent by every
// write path that can move a bucket's start/end.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/awgo/awserver/internal/models"
)

// Store is the single entry point for all persistent state. It is safe
// for concurrent use; callers that need serialized writes (the worker)
// still get a consistent view of the bucket cache because every mutating
// method updates the cache under the same lock it uses for the query.
type Store struct {
	db   *safeDB
	path string

	mu            *sync.RWMutex
	buckets       map[string]models.Bucket
	lastHeartbeat map[string]*models.Event
}

// Option configures how Open brings a database up before handing back a
// Store.
type Option func(*openOptions)

type openOptions struct {
	migrationsDisabled bool
	readOnly           bool
}

// MigrationsDisabled makes Open fail instead of auto-initializing or
// migrating a database that isn't already at CurrentVersion — including
// a brand new file with no schema at all, reproducing "opening an
// uninitialized store without migration permission is an error".
func MigrationsDisabled() Option {
	return func(o *openOptions) { o.migrationsDisabled = true }
}

// ReadOnly opens strictly for reads: like MigrationsDisabled, it never
// runs InitDB or a migration, but it additionally documents intent for
// callers (like internal/sync) that must never write to the file they're
// opening, only read it.
func ReadOnly() Option {
	return func(o *openOptions) { o.readOnly = true }
}

// Open opens (creating if necessary) the SQLite database at path and
// loads the bucket cache. By default it migrates the database to the
// current schema; MigrationsDisabled or ReadOnly instead require the
// database to already be at CurrentVersion and fail otherwise.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if o.migrationsDisabled || o.readOnly {
		if err := requireCurrentVersion(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s := &Store{
		db:            newSafeDB(db),
		path:          path,
		mu:            &sync.RWMutex{},
		buckets:       make(map[string]models.Bucket),
		lastHeartbeat: make(map[string]*models.Event),
	}
	if err := s.loadBucketsCache(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load buckets cache: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx returns a shallow copy of s whose statements run inside tx
// instead of directly against the connection pool, sharing the same
// bucket and last-heartbeat caches. The worker uses this to batch many
// commands into one transaction while still going through the ordinary
// Store API for each command.
func (s *Store) WithTx(tx *sql.Tx) *Store {
	cp := *s
	cp.db = withTx(tx)
	return &cp
}

// BeginTx starts a new transaction on the store's connection pool. Only
// the worker calls this; it is how the worker's commit-threshold batching
// is implemented on top of the ordinary Store API.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

func (s *Store) loadBucketsCache(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT buckets.bid, buckets.id, buckets.type, buckets.client,
		       buckets.hostname, buckets.created,
		       min(events.starttime), max(events.endtime),
		       buckets.data
		FROM buckets
		LEFT OUTER JOIN events ON buckets.bid = events.bucketrow
		GROUP BY buckets.bid
	`)
	if err != nil {
		return fmt.Errorf("query buckets: %w", err)
	}
	defer rows.Close()

	cache := make(map[string]models.Bucket)
	for rows.Next() {
		var (
			bid                      int64
			id, typ, client, host    string
			created                  string
			startNs, endNs           sql.NullInt64
			dataStr                  string
		)
		if err := rows.Scan(&bid, &id, &typ, &client, &host, &created, &startNs, &endNs, &dataStr); err != nil {
			return fmt.Errorf("scan bucket row: %w", err)
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(dataStr), &data); err != nil {
			return fmt.Errorf("parse bucket data for %q: %w", id, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return fmt.Errorf("parse bucket created for %q: %w", id, err)
		}
		meta := models.BucketMetadata{}
		if startNs.Valid {
			t := time.Unix(0, startNs.Int64).UTC()
			meta.Start = &t
		}
		if endNs.Valid {
			t := time.Unix(0, endNs.Int64).UTC()
			meta.End = &t
		}
		bidCopy := bid
		cache[id] = models.Bucket{
			BID:      &bidCopy,
			ID:       id,
			Type:     typ,
			Client:   client,
			Hostname: host,
			Created:  &createdAt,
			Data:     data,
			Metadata: meta,
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate bucket rows: %w", err)
	}
	s.mu.Lock()
	s.buckets = cache
	s.mu.Unlock()
	return nil
}

// CreateBucket inserts a new bucket and, if bucket.Events is set,
// imports its events too (used by Import).
func (s *Store) CreateBucket(ctx context.Context, bucket models.Bucket) error {
	now := time.Now().UTC()
	created := bucket.Created
	if created == nil {
		created = &now
	}
	data := bucket.Data
	if data == nil {
		data = map[string]any{}
	}
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal bucket data: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO buckets (id, type, client, hostname, created, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`, bucket.ID, bucket.Type, bucket.Client, bucket.Hostname, created.Format(time.RFC3339Nano), string(dataBytes))
	if err != nil {
		if isUniqueConstraintErr(err) {
			return fmt.Errorf("create bucket %q: %w", bucket.ID, models.ErrBucketExists)
		}
		return fmt.Errorf("create bucket %q: %w", bucket.ID, err)
	}
	bid, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get bucket rowid: %w", err)
	}

	stored := models.Bucket{
		BID:      &bid,
		ID:       bucket.ID,
		Type:     bucket.Type,
		Client:   bucket.Client,
		Hostname: bucket.Hostname,
		Created:  created,
		Data:     data,
	}
	s.mu.Lock()
	s.buckets[bucket.ID] = stored
	s.mu.Unlock()
	log.Printf("store: created bucket %s", bucket.ID)

	if len(bucket.Events) > 0 {
		if _, err := s.InsertEvents(ctx, bucket.ID, bucket.Events); err != nil {
			return fmt.Errorf("import events for bucket %q: %w", bucket.ID, err)
		}
	}
	return nil
}

// DeleteBucket removes a bucket and all of its events.
func (s *Store) DeleteBucket(ctx context.Context, bucketID string) error {
	bucket, err := s.GetBucket(ctx, bucketID)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE bucketrow = ?", *bucket.BID); err != nil {
		return fmt.Errorf("delete events for bucket %q: %w", bucketID, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM buckets WHERE bid = ?", *bucket.BID); err != nil {
		return fmt.Errorf("delete bucket %q: %w", bucketID, err)
	}
	s.mu.Lock()
	delete(s.buckets, bucketID)
	delete(s.lastHeartbeat, bucketID)
	s.mu.Unlock()
	return nil
}

// GetBucket returns bucket metadata from the in-memory cache.
func (s *Store) GetBucket(_ context.Context, bucketID string) (models.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket, ok := s.buckets[bucketID]
	if !ok {
		return models.Bucket{}, fmt.Errorf("bucket %q: %w", bucketID, models.ErrBucketNotFound)
	}
	return bucket, nil
}

// GetBuckets returns a copy of every bucket's metadata, keyed by id.
func (s *Store) GetBuckets(_ context.Context) map[string]models.Bucket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Bucket, len(s.buckets))
	for k, v := range s.buckets {
		out[k] = v
	}
	return out
}

// InsertEvents inserts events into bucketID and returns them with their
// assigned ids set.
func (s *Store) InsertEvents(ctx context.Context, bucketID string, events []models.Event) ([]models.Event, error) {
	bucket, err := s.GetBucket(ctx, bucketID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Event, len(events))
	for i, event := range events {
		if event.Duration < 0 {
			return nil, fmt.Errorf("insert event into bucket %q: %w", bucketID, models.ErrInvalidDuration)
		}
		startNs := event.Timestamp.UnixNano()
		endNs := startNs + event.Duration.Nanoseconds()
		dataBytes, err := json.Marshal(event.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal event data: %w", err)
		}
		var id int64
		if event.ID != nil {
			// Upsert by id: an event carrying an id that already exists in
			// this bucket replaces that row in place rather than inserting
			// a second one.
			id = *event.ID
			_, err = s.db.ExecContext(ctx, `
				INSERT INTO events (id, bucketrow, starttime, endtime, data)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					bucketrow = excluded.bucketrow,
					starttime = excluded.starttime,
					endtime = excluded.endtime,
					data = excluded.data
			`, id, *bucket.BID, startNs, endNs, string(dataBytes))
			if err != nil {
				return nil, fmt.Errorf("upsert event %d into bucket %q: %w", id, bucketID, err)
			}
		} else {
			var res sql.Result
			res, err = s.db.ExecContext(ctx, `
				INSERT INTO events (bucketrow, starttime, endtime, data)
				VALUES (?, ?, ?, ?)
			`, *bucket.BID, startNs, endNs, string(dataBytes))
			if err != nil {
				return nil, fmt.Errorf("insert event into bucket %q: %w", bucketID, err)
			}
			id, err = res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("get event rowid: %w", err)
			}
		}
		stored := event.Clone()
		stored.ID = &id
		out[i] = stored
		s.updateEndtime(bucketID, stored)
		s.invalidateLastEvent(bucketID)
	}
	return out, nil
}

// DeleteEventsByID removes specific events from bucketID by their row ids.
// Ids that don't exist in the bucket are silently skipped rather than
// reported as not-found, matching DELETE's usual idempotent semantics.
func (s *Store) DeleteEventsByID(ctx context.Context, bucketID string, ids []int64) error {
	bucket, err := s.GetBucket(ctx, bucketID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE bucketrow = ? AND id = ?", *bucket.BID, id); err != nil {
			return fmt.Errorf("delete event %d in bucket %q: %w", id, bucketID, err)
		}
	}
	var minStart, maxEnd sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT min(starttime), max(endtime) FROM events WHERE bucketrow = ?", *bucket.BID).Scan(&minStart, &maxEnd); err != nil {
		return fmt.Errorf("recompute span of bucket %q: %w", bucketID, err)
	}
	bucket.Metadata = models.BucketMetadata{}
	if minStart.Valid && maxEnd.Valid {
		start, end := time.Unix(0, minStart.Int64).UTC(), time.Unix(0, maxEnd.Int64).UTC()
		bucket.Metadata.Start, bucket.Metadata.End = &start, &end
	}
	s.mu.Lock()
	s.buckets[bucketID] = bucket
	s.mu.Unlock()
	s.invalidateLastEvent(bucketID)
	return nil
}

// updateEndtime extends the cached bucket's observed start/end to cover
// event, if event falls outside the currently known span.
func (s *Store) updateEndtime(bucketID string, event models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.buckets[bucketID]
	if !ok {
		return
	}
	changed := false
	if bucket.Metadata.Start == nil || event.Timestamp.Before(*bucket.Metadata.Start) {
		ts := event.Timestamp
		bucket.Metadata.Start = &ts
		changed = true
	}
	end := event.EndTime()
	if bucket.Metadata.End == nil || end.After(*bucket.Metadata.End) {
		bucket.Metadata.End = &end
		changed = true
	}
	if changed {
		s.buckets[bucketID] = bucket
	}
}

// ReplaceLastEvent overwrites the event with the greatest endtime in
// bucketID with event — used by Heartbeat when a merge succeeds, so the
// DB row count doesn't grow for a stream of overlapping heartbeats.
func (s *Store) ReplaceLastEvent(ctx context.Context, bucketID string, event models.Event) error {
	if event.Duration < 0 {
		return fmt.Errorf("replace last event in bucket %q: %w", bucketID, models.ErrInvalidDuration)
	}
	bucket, err := s.GetBucket(ctx, bucketID)
	if err != nil {
		return err
	}
	startNs := event.Timestamp.UnixNano()
	endNs := startNs + event.Duration.Nanoseconds()
	dataBytes, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE events
		SET starttime = ?, endtime = ?, data = ?
		WHERE bucketrow = ?
		  AND endtime = (SELECT max(endtime) FROM events WHERE bucketrow = ?)
	`, startNs, endNs, string(dataBytes), *bucket.BID, *bucket.BID)
	if err != nil {
		return fmt.Errorf("replace last event in bucket %q: %w", bucketID, err)
	}
	s.updateEndtime(bucketID, event)
	return nil
}

// GetEvents returns events in bucketID overlapping or touching
// [start, end] (both bounds inclusive), newest first, clipped to the window, limited to limit rows (limit<=0 means
// unlimited). An empty slice (not an error) is returned if start is
// after end.
func (s *Store) GetEvents(ctx context.Context, bucketID string, start, end *time.Time, limit int) ([]models.Event, error) {
	bucket, err := s.GetBucket(ctx, bucketID)
	if err != nil {
		return nil, err
	}

	startFilterNs := int64(0)
	if start != nil {
		startFilterNs = start.UnixNano()
	}
	endFilterNs := int64(math.MaxInt64)
	if end != nil {
		endFilterNs = end.UnixNano()
	}
	if startFilterNs > endFilterNs {
		log.Printf("store: get events: starttime was after endtime for bucket %s", bucketID)
		return []models.Event{}, nil
	}
	sqlLimit := int64(-1)
	if limit > 0 {
		sqlLimit = int64(limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, starttime, endtime, data
		FROM events
		WHERE bucketrow = ?
		  AND endtime >= ?
		  AND starttime <= ?
		ORDER BY starttime DESC, id ASC
		LIMIT ?
	`, *bucket.BID, startFilterNs, endFilterNs, sqlLimit)
	if err != nil {
		return nil, fmt.Errorf("query events in bucket %q: %w", bucketID, err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var (
			id                 int64
			startNs, endNs     int64
			dataStr            string
		)
		if err := rows.Scan(&id, &startNs, &endNs, &dataStr); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		if startNs < startFilterNs {
			startNs = startFilterNs
		}
		if endNs > endFilterNs {
			endNs = endFilterNs
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(dataStr), &data); err != nil {
			log.Printf("store: corrupt event %d in bucket %s: %v", id, bucketID, err)
			continue
		}
		idCopy := id
		out = append(out, models.Event{
			ID:        &idCopy,
			Timestamp: time.Unix(0, startNs).UTC(),
			Duration:  time.Duration(endNs - startNs),
			Data:      data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	if out == nil {
		out = []models.Event{}
	}
	return out, nil
}

// GetEventCount returns the number of events in bucketID overlapping or
// touching [start, end] (both bounds inclusive), or 0 if start is not
// before end.
func (s *Store) GetEventCount(ctx context.Context, bucketID string, start, end *time.Time) (int64, error) {
	bucket, err := s.GetBucket(ctx, bucketID)
	if err != nil {
		return 0, err
	}
	startFilterNs := int64(0)
	if start != nil {
		startFilterNs = start.UnixNano()
	}
	endFilterNs := int64(math.MaxInt64)
	if end != nil {
		endFilterNs = end.UnixNano()
	}
	if startFilterNs >= endFilterNs {
		log.Printf("store: get event count: endtime was at or before starttime for bucket %s", bucketID)
		return 0, nil
	}

	var count int64
	err = s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM events
		WHERE bucketrow = ?
		  AND endtime >= ?
		  AND starttime <= ?
	`, *bucket.BID, startFilterNs, endFilterNs).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events in bucket %q: %w", bucketID, err)
	}
	return count, nil
}

// sortedBucketIDs is a small helper used by Export for deterministic
// output ordering.
func (s *Store) sortedBucketIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.buckets))
	for id := range s.buckets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func isUniqueConstraintErr(err error) bool {
	// modernc.org/sqlite wraps the SQLite result code in its error
	// string rather than a typed sentinel; substring match mirrors how
	// the driver's own tests detect constraint violations.
	return err != nil && (containsFold(err.Error(), "UNIQUE constraint") || containsFold(err.Error(), "constraint failed"))
}

func containsFold(s, substr string) bool {
	return len(s) >= len(substr) && indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	sl := []rune(s)
	bl := []rune(substr)
	for i := 0; i+len(bl) <= len(sl); i++ {
		match := true
		for j := range bl {
			if toLower(sl[i+j]) != toLower(bl[j]) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
