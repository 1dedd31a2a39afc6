package apiserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/worker"
)

// EventsHandler serves the event-resource endpoints nested under a
// bucket: list (with optional start/end/limit filters), insert, count,
// and delete-by-id.
type EventsHandler struct {
	Worker worker.Worker
}

// List handles GET /api/0/buckets/{id}/events?start=&end=&limit=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, &rangeParseError{msg: "limit must be an integer"})
			return
		}
	}

	events, err := h.Worker.GetEvents(r.Context(), r.PathValue("id"), start, end, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Create handles POST /api/0/buckets/{id}/events, inserting one or more
// events and returning them with server-assigned ids.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var events []models.Event
	if err := decodeJSON(r, &events); err != nil {
		writeError(w, err)
		return
	}
	inserted, err := h.Worker.InsertEvents(r.Context(), r.PathValue("id"), events)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inserted)
}

// Count handles GET /api/0/buckets/{id}/events/count?start=&end=.
func (h *EventsHandler) Count(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	count, err := h.Worker.GetEventCount(r.Context(), r.PathValue("id"), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// Delete handles DELETE /api/0/buckets/{id}/events/{event_id}.
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("event_id"), 10, 64)
	if err != nil {
		writeError(w, &rangeParseError{msg: "event id must be an integer"})
		return
	}
	if err := h.Worker.DeleteEventsByID(r.Context(), r.PathValue("id"), []int64{id}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func parseTimeRange(r *http.Request) (start, end *time.Time, err error) {
	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, &rangeParseError{msg: "start must be an RFC 3339 timestamp"}
		}
		start = &t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, &rangeParseError{msg: "end must be an RFC 3339 timestamp"}
		}
		end = &t
	}
	return start, end, nil
}

// rangeParseError is a plain validation error for malformed query
// parameters, mapped to 400 by writeError's default case.
type rangeParseError struct{ msg string }

func (e *rangeParseError) Error() string { return e.msg }
