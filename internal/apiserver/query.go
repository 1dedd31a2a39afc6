package apiserver

import (
	"net/http"
	"strings"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/query"
	"github.com/awgo/awserver/internal/worker"
)

// QueryHandler serves POST /api/0/query: run a script against one or
// more time periods, one result per period.
type QueryHandler struct {
	Worker worker.Worker
}

type queryRequest struct {
	Timeperiods []string `json:"timeperiods"`
	Query       []string `json:"query"`
}

func (h *QueryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	intervals := make([]models.TimeInterval, len(req.Timeperiods))
	for i, raw := range req.Timeperiods {
		ti, err := models.ParseTimeInterval(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		intervals[i] = ti
	}

	code := strings.Join(req.Query, "\n")
	results := make([]query.Value, len(intervals))
	for i, ti := range intervals {
		v, err := query.Run(r.Context(), code, ti, h.Worker)
		if err != nil {
			writeError(w, err)
			return
		}
		results[i] = v
	}
	writeJSON(w, http.StatusOK, results)
}
