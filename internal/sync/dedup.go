package sync

import "github.com/awgo/awserver/internal/models"

// DeduplicateByID removes events this destination bucket already holds,
// identified by the remote's event id, which is carried through
// unmodified end to end. The input slice is not mutated.
func DeduplicateByID(incoming []models.Event, existing []models.Event) []models.Event {
	if len(incoming) == 0 {
		return incoming
	}
	seen := make(map[int64]bool, len(existing))
	for _, e := range existing {
		if e.ID != nil {
			seen[*e.ID] = true
		}
	}

	out := make([]models.Event, 0, len(incoming))
	for _, e := range incoming {
		if e.ID != nil && seen[*e.ID] {
			continue
		}
		out = append(out, e)
	}
	return out
}
