package transform

import (
	"strings"

	"github.com/awgo/awserver/internal/models"
)

// FindBucket returns the id of the first bucket whose id starts with
// prefix and, if hostname is non-nil, whose hostname matches it too.
func FindBucket(prefix string, hostname *string, buckets []models.Bucket) (string, bool) {
	for _, bucket := range buckets {
		if !strings.HasPrefix(bucket.ID, prefix) {
			continue
		}
		if hostname == nil {
			return bucket.ID, true
		}
		if bucket.Hostname == *hostname {
			return bucket.ID, true
		}
	}
	return "", false
}
