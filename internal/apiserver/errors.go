// Package apiserver exposes one thin handler struct per resource, each
// translating an HTTP request into a worker.Worker call and its result
// (or error) back into a JSON response. It deliberately stops short of
// owning an http.ServeMux: an embedder registers these handlers against
// whatever router it likes, keyed by path patterns that populate
// r.PathValue (e.g. "/api/0/buckets/{id}").
package apiserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/query"
)

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps a worker/store/query error onto the status code table
// from the error handling design: not-found -> 404, conflict -> 304
// (matching the original's literal http.StatusNotModified choice for an
// already-existing bucket, not a typo), validation -> 400, anything else
// -> 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrBucketNotFound),
		errors.Is(err, models.ErrKeyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrBucketExists):
		status = http.StatusNotModified
	case errors.Is(err, models.ErrInvalidInterval):
		status = http.StatusBadRequest
	default:
		var qerr *query.Error
		var rerr *rangeParseError
		if errors.As(err, &qerr) || errors.As(err, &rerr) {
			status = http.StatusBadRequest
		}
	}

	if status == http.StatusNotModified {
		// A 304 response carries no body per RFC 7232; writing one would
		// violate the protocol, so the message is logged instead.
		log.Printf("apiserver: %v", err)
		w.WriteHeader(status)
		return
	}

	writeJSON(w, status, errorResponse{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("apiserver: encode response: %v", err)
	}
}

// decodeJSON decodes the request body into v, reporting any failure as a
// validation error (400) rather than letting writeError's default 500
// apply to what is, semantically, a malformed client request.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &rangeParseError{msg: "malformed request body: " + err.Error()}
	}
	return nil
}
