package handlers

import (
	"net/http"

	"github.com/citywatch/citywatch/internal/api"
	"github.com/citywatch/citywatch/internal/database"
)

// handleGetReporter handles GET /api/reporters/{email}.
// ?severity= chooses the severity the priority score is computed for.
func (h *APIHandler) handleGetReporter(w http.ResponseWriter, r *http.Request) {
	sev := database.SeverityMedium
	if v := r.URL.Query().Get("severity"); v != "" {
		parsed, ok := database.ParseSeverity(v)
		if !ok {
			api.RespondValidationError(w, map[string]string{"severity": "must be one of: Low Medium High Critical"})
			return
		}
		sev = parsed
	}

	priority, err := h.svc.Reporters.Priority(r.Context(), r.PathValue("email"), sev)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, priority)
}

// handleListIncidentTypes handles GET /api/incident-types
func (h *APIHandler) handleListIncidentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.IncidentTypes.List(r.Context())
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, types)
}

// handleUpsertIncidentType handles POST /api/incident-types
func (h *APIHandler) handleUpsertIncidentType(w http.ResponseWriter, r *http.Request) {
	var req api.UpsertIncidentTypeRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.Validate(req); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	t, err := h.svc.IncidentTypes.Upsert(r.Context(), req.Name, req.Severity, req.Description)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, t)
}

// handleDeleteIncidentType handles DELETE /api/incident-types/{name}
func (h *APIHandler) handleDeleteIncidentType(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.IncidentTypes.Delete(r.Context(), r.PathValue("name")); err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondNoContent(w)
}
