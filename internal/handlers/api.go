package handlers

import (
	"net/http"
	"time"

	"github.com/citywatch/citywatch/internal/jobs"
	"github.com/citywatch/citywatch/internal/middleware"
	"github.com/citywatch/citywatch/internal/services"
)

// ScanSnapshot exposes the latest background duplicate scan, if any
type ScanSnapshot interface {
	Latest() *jobs.ScanResult
}

// APIServices are the services the staff API is built on
type APIServices struct {
	Incidents     *services.IncidentService
	Merges        *services.MergeService
	Duplicates    *services.DuplicateService
	Reporters     *services.ReporterService
	Messages      *services.MessageService
	IncidentTypes *services.IncidentTypeService
}

// APIHandler handles the staff console API
type APIHandler struct {
	svc  APIServices
	scan ScanSnapshot
	now  func() time.Time
}

// NewAPIHandler creates a new API handler. scan may be nil, in which case
// duplicate groups are always computed on request.
func NewAPIHandler(svc APIServices, scan ScanSnapshot) *APIHandler {
	return &APIHandler{svc: svc, scan: scan, now: time.Now}
}

// SetupRoutes sets up all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	// Reports
	mux.HandleFunc("GET /api/incidents", h.handleListIncidents)
	mux.HandleFunc("POST /api/incidents", h.handleCreateIncident)
	mux.HandleFunc("GET /api/incidents/{id}", h.handleGetIncident)
	mux.HandleFunc("GET /api/incidents/{id}/severity-preview", h.handleSeverityPreview)
	mux.HandleFunc("PUT /api/incidents/{id}/severity", h.handleChangeSeverity)
	mux.HandleFunc("POST /api/incidents/{id}/complete", h.handleCompleteIncident)
	mux.HandleFunc("POST /api/incidents/{id}/flag", h.handleFlagIncident)

	// Duplicates and merging
	mux.HandleFunc("GET /api/incidents/{id}/duplicates", h.handleDuplicateCandidates)
	mux.HandleFunc("POST /api/incidents/{id}/merge", h.handleMergeIncidents)
	mux.HandleFunc("GET /api/incidents/{id}/merges", h.handleMergeHistory)
	mux.HandleFunc("GET /api/duplicates/groups", h.handleDuplicateGroups)

	// Conversation
	mux.HandleFunc("GET /api/incidents/{id}/messages", h.handleListMessages)
	mux.HandleFunc("POST /api/incidents/{id}/messages", h.handlePostMessage)

	// Reporters
	mux.HandleFunc("GET /api/reporters/{email}", h.handleGetReporter)

	// Catalog
	mux.HandleFunc("GET /api/incident-types", h.handleListIncidentTypes)
	mux.HandleFunc("POST /api/incident-types", h.handleUpsertIncidentType)
	mux.HandleFunc("DELETE /api/incident-types/{name}", h.handleDeleteIncidentType)

	// Settings
	mux.HandleFunc("GET /api/settings/duplicates", h.handleGetDuplicateSettings)
	mux.HandleFunc("PUT /api/settings/duplicates", h.handleUpdateDuplicateSettings)
}

// staffUser names the caller for audit fields
func staffUser(r *http.Request) string {
	if user := middleware.GetUserFromContext(r.Context()); user != "" {
		return user
	}
	return "staff"
}
