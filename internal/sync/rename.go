package sync

import "fmt"

// DestinationBucketID computes the local bucket id events replicated from
// a peer are stored under. Deterministic and collision-free across
// distinct origins: two peers with the same bucket id never collide
// locally because the origin hostname and device id are both folded in.
func DestinationBucketID(sourceBucketID, originHostname, originDeviceID string) string {
	return fmt.Sprintf("%s-synced-from-%s-%s", sourceBucketID, originHostname, originDeviceID)
}
