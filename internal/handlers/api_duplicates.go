package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/citywatch/citywatch/internal/api"
	"github.com/citywatch/citywatch/internal/services"
)

// handleDuplicateCandidates handles GET /api/incidents/{id}/duplicates
func (h *APIHandler) handleDuplicateCandidates(w http.ResponseWriter, r *http.Request) {
	inc, candidates, err := h.svc.Duplicates.FindCandidates(r.Context(), r.PathValue("id"))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, api.DuplicateCandidatesResponse{
		IncidentID: inc.ID,
		Candidates: candidates,
	})
}

// handleMergeIncidents handles POST /api/incidents/{id}/merge.
// A partial merge answers 207 listing what failed; when nothing merged it is a 422.
func (h *APIHandler) handleMergeIncidents(w http.ResponseWriter, r *http.Request) {
	var req api.MergeIncidentsRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs := api.Validate(req); errs != nil {
		api.RespondValidationError(w, errs)
		return
	}

	targetID := r.PathValue("id")
	outcome, err := h.svc.Merges.MergeIncidents(r.Context(), targetID, req.SourceIDs, staffUser(r))

	var partial *services.PartialFailureError
	switch {
	case err == nil:
		api.RespondJSON(w, http.StatusOK, api.MergeOutcomeToResponse(targetID, outcome, nil))
	case errors.As(err, &partial):
		log.Printf("APIHandler: partial merge into %s: %v", targetID, err)
		status := http.StatusMultiStatus
		if len(partial.Merged) == 0 {
			status = http.StatusUnprocessableEntity
		}
		api.RespondJSON(w, status, api.MergeOutcomeToResponse(targetID, outcome, partial))
	default:
		api.RespondServiceError(w, err)
	}
}

// handleMergeHistory handles GET /api/incidents/{id}/merges
func (h *APIHandler) handleMergeHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Merges.MergeHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, rows)
}

// handleDuplicateGroups handles GET /api/duplicates/groups. The background
// scan's snapshot is served when present unless ?fresh=true.
func (h *APIHandler) handleDuplicateGroups(w http.ResponseWriter, r *http.Request) {
	if h.scan != nil && r.URL.Query().Get("fresh") != "true" {
		if latest := h.scan.Latest(); latest != nil {
			scannedAt := latest.ScannedAt
			api.RespondJSON(w, http.StatusOK, api.DuplicateGroupsResponse{Groups: latest.Groups, ScannedAt: &scannedAt})
			return
		}
	}

	groups, err := h.svc.Duplicates.ScanGroups(r.Context())
	if err != nil {
		api.RespondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, api.DuplicateGroupsResponse{Groups: groups})
}
