// Package models defines the value types shared across the event store,
// transform library, worker, and query engine: events, buckets, key-value
// settings, and the time-interval period type used to bound queries.
package models

import (
	"encoding/json"
	"time"
)

// Event is a single observation: a timestamp, a duration, and an open bag
// of client-defined data. Duration is stored in nanoseconds internally but
// marshals to/from a fractional-seconds number on the wire, matching the
// JSON shape clients have always sent.
type Event struct {
	ID        *int64          `json:"id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Duration  time.Duration   `json:"-"`
	Data      map[string]any  `json:"data"`
}

// eventWire is the JSON projection of Event: duration as fractional seconds.
type eventWire struct {
	ID        *int64         `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  float64        `json:"duration"`
	Data      map[string]any `json:"data"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	data := e.Data
	if data == nil {
		data = map[string]any{}
	}
	return json.Marshal(eventWire{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Duration:  e.Duration.Seconds(),
		Data:      data,
	})
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var w eventWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	e.ID = w.ID
	e.Timestamp = w.Timestamp
	e.Duration = time.Duration(w.Duration * float64(time.Second))
	e.Data = w.Data
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	return nil
}

// EndTime returns the event's end instant: timestamp + duration.
func (e Event) EndTime() time.Time {
	return e.Timestamp.Add(e.Duration)
}

// Equal compares timestamp, duration and data, ignoring ID — used by the
// merge/dedup logic in transform and sync, which compare observations
// independent of where (or whether) they've been assigned a row id.
func (e Event) Equal(o Event) bool {
	if !e.Timestamp.Equal(o.Timestamp) {
		return false
	}
	if e.Duration != o.Duration {
		return false
	}
	return dataEqual(e.Data, o.Data)
}

func dataEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	// Data maps arrive via json.Unmarshal on both sides so a byte-for-byte
	// comparison of re-marshaled, key-sorted output is a safe deep-equal.
	var an, bn any
	if err := json.Unmarshal(ab, &an); err != nil {
		return false
	}
	if err := json.Unmarshal(bb, &bn); err != nil {
		return false
	}
	an2, _ := json.Marshal(an)
	bn2, _ := json.Marshal(bn)
	return string(an2) == string(bn2)
}

// Clone returns a copy of the event with a fresh top-level data map, so
// callers (transform functions in particular) can set or delete keys on
// the copy without touching the original. Nested values (maps, slices)
// are not copied and stay shared with the original.
func (e Event) Clone() Event {
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	return Event{ID: e.ID, Timestamp: e.Timestamp, Duration: e.Duration, Data: data}
}
