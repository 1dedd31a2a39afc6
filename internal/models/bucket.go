package models

import "time"

// Bucket is a named, typed container of events from one data source
// ("client") on one host. BID is the internal row id; ID is the
// client-visible bucket name and is what callers address buckets by.
type Bucket struct {
	BID         *int64         `json:"-"`
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Client      string         `json:"client"`
	Hostname    string         `json:"hostname"`
	Created     *time.Time     `json:"created,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	Metadata    BucketMetadata `json:"metadata"`
	Events      []Event        `json:"events,omitempty"` // only set on export/import
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
}

// BucketMetadata carries derived, read-only span information: the
// earliest event timestamp and the latest event end time in the bucket.
type BucketMetadata struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// BucketsExport is the top-level shape of an export/import file: a map of
// bucket id to bucket, each bucket carrying its full event list.
type BucketsExport struct {
	Buckets map[string]Bucket `json:"buckets"`
}
