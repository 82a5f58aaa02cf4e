package handlers

import (
	"net/http"

	"github.com/citywatch/citywatch/internal/api"
)

// handleGetDuplicateSettings handles GET /api/settings/duplicates
func (h *APIHandler) handleGetDuplicateSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Duplicates.GetSettings(r.Context())
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, settings)
}

// handleUpdateDuplicateSettings handles PUT /api/settings/duplicates
func (h *APIHandler) handleUpdateDuplicateSettings(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateDuplicateSettingsRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.svc.Duplicates.GetSettings(r.Context())
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	updated, err := h.svc.Duplicates.UpdateSettings(r.Context(), api.ApplyDuplicateSettings(*current, req))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, updated)
}
