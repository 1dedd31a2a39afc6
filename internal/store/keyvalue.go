package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/awgo/awserver/internal/models"
)

// InsertKeyValue upserts a flat setting under key.
func (s *Store) InsertKeyValue(ctx context.Context, kv models.KeyValue) error {
	valueBytes, err := json.Marshal(kv.Value)
	if err != nil {
		return fmt.Errorf("marshal value for key %q: %w", kv.Key, err)
	}
	ts := kv.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO key_value (key, value, last_modified)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, last_modified = excluded.last_modified
	`, kv.Key, string(valueBytes), ts.UnixNano())
	if err != nil {
		return fmt.Errorf("insert key_value %q: %w", kv.Key, err)
	}
	return nil
}

// DeleteKeyValue removes a setting. It is not an error to delete a key
// that doesn't exist.
func (s *Store) DeleteKeyValue(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM key_value WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete key_value %q: %w", key, err)
	}
	return nil
}

// GetKeyValue looks up a single setting.
func (s *Store) GetKeyValue(ctx context.Context, key string) (models.KeyValue, error) {
	var (
		valueStr string
		modNs    int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT value, last_modified FROM key_value WHERE key = ?", key).Scan(&valueStr, &modNs)
	if err == sql.ErrNoRows {
		return models.KeyValue{}, fmt.Errorf("key %q: %w", key, models.ErrKeyNotFound)
	}
	if err != nil {
		return models.KeyValue{}, fmt.Errorf("get key_value %q: %w", key, err)
	}
	var value any
	if err := json.Unmarshal([]byte(valueStr), &value); err != nil {
		return models.KeyValue{}, fmt.Errorf("parse value for key %q: %w", key, err)
	}
	return models.KeyValue{Key: key, Value: value, Timestamp: time.Unix(0, modNs).UTC()}, nil
}

// GetKeysStarting returns every key with the given prefix, sorted.
func (s *Store) GetKeysStarting(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM key_value WHERE key LIKE ? ORDER BY key ASC", prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list key_value keys with prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key rows: %w", err)
	}
	return keys, nil
}
