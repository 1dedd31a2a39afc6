package apiserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/worker"
)

// HeartbeatHandler serves POST /api/0/buckets/{id}/heartbeat?pulsetime=<seconds>.
type HeartbeatHandler struct {
	Worker worker.Worker
}

func (h *HeartbeatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	pulsetime, err := parsePulsetime(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var heartbeat models.Event
	if err := decodeJSON(r, &heartbeat); err != nil {
		writeError(w, err)
		return
	}

	merged, err := h.Worker.Heartbeat(r.Context(), r.PathValue("id"), heartbeat, pulsetime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func parsePulsetime(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("pulsetime")
	if raw == "" {
		return 0, &rangeParseError{msg: "pulsetime query parameter is required"}
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds < 0 {
		return 0, &rangeParseError{msg: "pulsetime must be a non-negative number of seconds"}
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
