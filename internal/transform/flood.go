package transform

import (
	"log"
	"time"

	"github.com/awgo/awserver/internal/models"
)

// Flood closes short gaps between adjacent events. Events are sorted by
// timestamp first. For each adjacent pair whose gap is smaller than
// pulsetime: if their data is equal, the earlier event is extended to
// cover the later one and the later one is dropped; otherwise the gap is
// split in half, extending the earlier event's end and pulling the later
// event's start forward to meet it. A negative gap (overlapping events)
// with equal data is still merged, with a one-time warning per call; for
// a negative gap with differing data the earlier event is dropped from
// the output, also with a one-time warning per call.
func Flood(events []models.Event, pulsetime time.Duration) []models.Event {
	sorted := SortByTimestamp(events)
	out := make([]models.Event, 0, len(sorted))

	var warnedNegativeSafe, warnedNegativeUnsafe bool
	var gapPrev time.Duration
	havePrevGap := false
	dropNext := false

	for i := 0; i < len(sorted); i++ {
		if dropNext {
			dropNext = false
			continue
		}
		e1 := sorted[i].Clone()
		if havePrevGap {
			e1.Timestamp = e1.Timestamp.Add(-gapPrev / 2)
			e1.Duration = e1.Duration + gapPrev/2
			havePrevGap = false
		}

		if i+1 >= len(sorted) {
			out = append(out, e1)
			break
		}
		e2 := sorted[i+1]
		gap := e2.Timestamp.Sub(e1.EndTime())

		if gap < pulsetime {
			if dataKeyvalsEqual(e1.Data, e2.Data) {
				if gap < 0 && !warnedNegativeSafe {
					log.Printf("transform: flood: gap of negative duration (%s) merged safely; only warning once per batch", gap)
					warnedNegativeSafe = true
				}
				e1.Duration = e2.EndTime().Sub(e1.Timestamp)
				dropNext = true
			} else {
				if gap < 0 {
					if !warnedNegativeUnsafe {
						log.Printf("transform: flood: gap of negative duration (%s) could not be safely merged; only warning once per batch", gap)
						warnedNegativeUnsafe = true
					}
					// Unresolvable overlap between differing data: drop e1
					// entirely rather than emit a nonsensical clipped event.
					continue
				}
				e1.Duration = e1.Duration + gap/2
				gapPrev = gap
				havePrevGap = true
			}
		}
		out = append(out, e1)
	}
	return out
}

func dataKeyvalsEqual(a, b map[string]any) bool {
	return models.Event{Data: a}.Equal(models.Event{Data: b})
}
