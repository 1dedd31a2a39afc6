package apiserver

import (
	"net/http"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/worker"
)

// BucketsHandler serves the bucket-resource endpoints: list, get, create,
// delete. One method per verb.
type BucketsHandler struct {
	Worker worker.Worker
}

// List handles GET /api/0/buckets.
func (h *BucketsHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Worker.GetBuckets(r.Context()))
}

// Get handles GET /api/0/buckets/{id}.
func (h *BucketsHandler) Get(w http.ResponseWriter, r *http.Request) {
	bucket, err := h.Worker.GetBucket(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

// Create handles POST /api/0/buckets/{id}.
func (h *BucketsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var bucket models.Bucket
	if err := decodeJSON(r, &bucket); err != nil {
		writeError(w, err)
		return
	}
	bucket.ID = r.PathValue("id")
	if err := h.Worker.CreateBucket(r.Context(), bucket); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// Delete handles DELETE /api/0/buckets/{id}.
func (h *BucketsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Worker.DeleteBucket(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
