package transform

import (
	"log"
	"time"

	"github.com/awgo/awserver/internal/models"
)

// Heartbeat merges heartbeat into lastEvent if their data is identical
// and their intervals fall within pulsetime of each other, returning the
// merged event. It returns false if no merge is possible: differing
// data, heartbeat preceding lastEvent, heartbeat arriving more than
// pulsetime after lastEvent ends, or (defensively) a negative resulting
// duration.
func Heartbeat(lastEvent, heartbeat models.Event, pulsetime time.Duration) (models.Event, bool) {
	if !dataKeyvalsEqual(heartbeat.Data, lastEvent.Data) {
		return models.Event{}, false
	}

	lastEnd := lastEvent.EndTime()
	heartbeatEnd := heartbeat.EndTime()

	if lastEvent.Timestamp.After(heartbeat.Timestamp) {
		return models.Event{}, false
	}
	lastEndAllowed := lastEnd.Add(pulsetime)
	if heartbeat.Timestamp.After(lastEndAllowed) {
		return models.Event{}, false
	}

	start := lastEvent.Timestamp
	if heartbeat.Timestamp.Before(start) {
		start = heartbeat.Timestamp
	}
	end := lastEnd
	if heartbeatEnd.After(end) {
		end = heartbeatEnd
	}
	duration := end.Sub(start)
	if duration < 0 {
		log.Printf("transform: heartbeat: merge would produce a negative duration, refusing to merge")
		return models.Event{}, false
	}

	merged := models.Event{Timestamp: start, Duration: duration, Data: lastEvent.Clone().Data}
	return merged, true
}
