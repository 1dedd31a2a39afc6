package models

import "errors"

// Sentinel errors returned by the store and worker, checked with
// errors.Is by the API layer to pick an HTTP status code.
var (
	ErrBucketNotFound  = errors.New("bucket not found")
	ErrBucketExists    = errors.New("bucket already exists")
	ErrKeyNotFound     = errors.New("key not found")
	ErrInvalidInterval = errors.New("invalid time interval")
	ErrInvalidDuration = errors.New("event duration must not be negative")
)
