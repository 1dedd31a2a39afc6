package apiserver

import (
	"net/http"
	"strings"

	"github.com/awgo/awserver/internal/models"
	"github.com/awgo/awserver/internal/worker"
)

// settingsSuffix namespaces every key this handler touches in the
// key_value table, per the wire contract's reserved "<name>.settings"
// key form: the store's key_value table is a flat namespace shared by
// every future key_value consumer, not settings alone, so the suffix is
// added and stripped here rather than baked into the store layer.
const settingsSuffix = ".settings"

// SettingsHandler serves the flat key-value settings endpoints:
// GET/POST/DELETE /api/0/settings/{key} and GET /api/0/settings.
type SettingsHandler struct {
	Worker worker.Worker
}

// List handles GET /api/0/settings: every key stored under the
// ".settings" suffix, with the suffix stripped back off.
func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Worker.GetKeysStarting(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutSuffix(key, settingsSuffix); ok {
			names = append(names, name)
		}
	}
	writeJSON(w, http.StatusOK, names)
}

// Get handles GET /api/0/settings/{key}.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	kv, err := h.Worker.GetKeyValue(r.Context(), r.PathValue("key")+settingsSuffix)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kv.Value)
}

// Set handles POST /api/0/settings/{key}.
func (h *SettingsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var value any
	if err := decodeJSON(r, &value); err != nil {
		writeError(w, err)
		return
	}
	kv := models.KeyValue{Key: r.PathValue("key") + settingsSuffix, Value: value}
	if err := h.Worker.InsertKeyValue(r.Context(), kv); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// Delete handles DELETE /api/0/settings/{key}.
func (h *SettingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Worker.DeleteKeyValue(r.Context(), r.PathValue("key")+settingsSuffix); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
