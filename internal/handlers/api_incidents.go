package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/citywatch/citywatch/internal/api"
	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/services"
)

// handleListIncidents handles GET /api/incidents
func (h *APIHandler) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ListFilter{IncidentType: q.Get("type")}

	if v := q.Get("status"); v != "" {
		status := database.IncidentStatus(v)
		if !status.IsValid() {
			api.RespondValidationError(w, map[string]string{"status": "is not a known status"})
			return
		}
		filter.Status = status
	}
	if v := q.Get("flagged"); v != "" {
		flagged, err := strconv.ParseBool(v)
		if err != nil {
			api.RespondValidationError(w, map[string]string{"flagged": "must be true or false"})
			return
		}
		filter.Flagged = &flagged
	}

	params := api.ParsePagination(r)
	incidents, total, err := h.svc.Incidents.List(r.Context(), filter, params.Offset(), params.PerPage)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.PaginatedResponse{
		Data: api.IncidentsToListItems(incidents, h.now()),
		Pagination: params.Meta(total),
	})
}

// handleCreateIncident handles POST /api/incidents
func (h *APIHandler) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	var req api.CreateIncidentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.Validate(req); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}
	in, errs := api.CreateRequestToIncident(req)
	if errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	inc, err := h.svc.Incidents.Create(r.Context(), in)
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusCreated, api.IncidentToDetail(inc, h.now(), inc.ID))
}

// handleGetIncident handles GET /api/incidents/{id}. Viewing records the
// staff member and a merged report carries redirectTo.
func (h *APIHandler) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inc, err := h.svc.Incidents.MarkViewed(r.Context(), id, staffUser(r))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}

	redirect := inc.ID
	if inc.Status == database.IncidentStatusMerged {
		if survivor, err := h.svc.Merges.Resolve(r.Context(), id); err != nil {
			log.Printf("APIHandler: failed to resolve merge chain for %s: %v", id, err)
			redirect = inc.MergedInto
		} else {
			redirect = survivor.ID
		}
	}
	api.RespondJSON(w, http.StatusOK, api.IncidentToDetail(inc, h.now(), redirect))
}

// handleSeverityPreview handles GET /api/incidents/{id}/severity-preview?severity=
func (h *APIHandler) handleSeverityPreview(w http.ResponseWriter, r *http.Request) {
	sev := r.URL.Query().Get("severity")
	if sev == "" {
		api.RespondValidationError(w, map[string]string{"severity": "is required"})
		return
	}
	preview, err := h.svc.Incidents.PreviewSeverityChange(r.Context(), r.PathValue("id"), database.Severity(sev))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, preview)
}

// handleChangeSeverity handles PUT /api/incidents/{id}/severity
func (h *APIHandler) handleChangeSeverity(w http.ResponseWriter, r *http.Request) {
	var req api.ChangeSeverityRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.Validate(req); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	id := r.PathValue("id")
	inc, err := h.svc.Incidents.ChangeSeverity(r.Context(), id, database.Severity(req.Severity))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	log.Printf("APIHandler: %s set severity of %s to %s", staffUser(r), id, inc.Severity)
	api.RespondJSON(w, http.StatusOK, api.IncidentToDetail(inc, h.now(), inc.ID))
}

// handleCompleteIncident handles POST /api/incidents/{id}/complete
func (h *APIHandler) handleCompleteIncident(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Incidents.MarkCompleted(r.Context(), r.PathValue("id"))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, summary)
}

// handleFlagIncident handles POST /api/incidents/{id}/flag
func (h *APIHandler) handleFlagIncident(w http.ResponseWriter, r *http.Request) {
	var req api.FlagIncidentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.Validate(req); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	inc, err := h.svc.Incidents.Flag(r.Context(), r.PathValue("id"), req.Reason, req.Notes, staffUser(r))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, api.IncidentToDetail(inc, h.now(), inc.ID))
}
