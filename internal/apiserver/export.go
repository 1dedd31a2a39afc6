package apiserver

import (
	"net/http"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/worker"
)

// ExportHandler serves GET /api/0/export and GET /api/0/buckets/{id}/export.
type ExportHandler struct {
	Worker worker.Worker
}

// All handles GET /api/0/export: every bucket.
func (h *ExportHandler) All(w http.ResponseWriter, r *http.Request) {
	export, err := h.Worker.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// One handles GET /api/0/buckets/{id}/export: a single bucket.
func (h *ExportHandler) One(w http.ResponseWriter, r *http.Request) {
	export, err := h.Worker.Export(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// ImportHandler serves POST /api/0/import.
type ImportHandler struct {
	Worker worker.Worker
}

func (h *ImportHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var data models.BucketsExport
	if err := decodeJSON(r, &data); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Worker.Import(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
