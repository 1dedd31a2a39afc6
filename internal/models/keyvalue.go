package models

import "time"

// KeyValue is a single entry in the store's flat settings table: an
// arbitrary JSON value addressed by a string key, with the timestamp of
// its last write.
type KeyValue struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

func NewKeyValue(key string, value any, timestamp time.Time) KeyValue {
	return KeyValue{Key: key, Value: value, Timestamp: timestamp}
}
