package transform

import (
	"time"

	"github.com/awgo/awserver/internal/models"
)

// UnionNoOverlap merges primary and secondary, removing overlap in favor
// of primary: where a secondary event overlaps a primary one, the
// secondary event is split so only the non-overlapping remainder
// survives.
func UnionNoOverlap(primary, secondary []models.Event) []models.Event {
	events2 := append([]models.Event(nil), secondary...)
	out := make([]models.Event, 0, len(primary)+len(secondary))

	i, j := 0, 0
	for i < len(primary) && j < len(events2) {
		e1 := primary[i]
		e2 := events2[j]
		p1 := models.NewTimeInterval(e1.Timestamp, e1.EndTime())
		p2 := models.NewTimeInterval(e2.Timestamp, e2.EndTime())

		if p1.Intersects(p2) {
			if !e1.Timestamp.After(e2.Timestamp) {
				out = append(out, e1)
				i++
				_, e2Next, split := splitEvent(e2, e1.Timestamp.Add(e1.Duration))
				if split {
					events2[j] = e2Next
				} else {
					j++
				}
			} else {
				e2First, e2Second, split := splitEvent(e2, e1.Timestamp)
				out = append(out, e2First)
				j++
				if split {
					events2 = append(events2[:j], append([]models.Event{e2Second}, events2[j:]...)...)
				}
			}
		} else {
			if !e1.Timestamp.After(e2.Timestamp) {
				out = append(out, e1)
				i++
			} else {
				out = append(out, e2)
				j++
			}
		}
	}
	out = append(out, primary[i:]...)
	out = append(out, events2[j:]...)
	return out
}

// splitEvent splits e at timestamp into a (before, after) pair if
// timestamp falls strictly inside e's span; otherwise it returns e
// unchanged with split=false.
func splitEvent(e models.Event, timestamp time.Time) (before, after models.Event, split bool) {
	end := e.EndTime()
	if e.Timestamp.Before(timestamp) && timestamp.Before(end) {
		before = models.Event{Timestamp: e.Timestamp, Duration: timestamp.Sub(e.Timestamp), Data: e.Data}
		after = models.Event{Timestamp: timestamp, Duration: e.Duration - timestamp.Sub(e.Timestamp), Data: e.Data}
		return before, after, true
	}
	return e, models.Event{}, false
}
