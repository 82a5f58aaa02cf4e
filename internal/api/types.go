package api

import (
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/duplicates"
)

// ========== Incident Types ==========

// CreateIncidentRequest is the request body for POST /api/incidents.
// Timestamp accepts every legacy shape NormalizeTimestamp understands.
type CreateIncidentRequest struct {
	Location      string      `json:"location" validate:"max=512"`
	LocationInfo  string      `json:"locationInfo" validate:"max=2048"`
	Latitude      *float64    `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64    `json:"longitude" validate:"omitempty,longitude"`
	IncidentType  string      `json:"incidentType" validate:"max=128"`
	Description   string      `json:"description" validate:"max=10000"`
	MediaURLs     []string    `json:"mediaUrls" validate:"omitempty,max=20,dive,url"`
	Severity      string      `json:"severity"`
	Timestamp     interface{} `json:"timestamp"`
	ReporterName  string      `json:"reporterName" validate:"max=255"`
	ReporterEmail string      `json:"reporterEmail" validate:"omitempty,email"`
	IsAnonymous   bool        `json:"isAnonymous"`
}

// ChangeSeverityRequest is the request body for PUT /api/incidents/{id}/severity.
type ChangeSeverityRequest struct {
	Severity string `json:"severity" validate:"required"`
}

// FlagIncidentRequest is the request body for POST /api/incidents/{id}/flag.
type FlagIncidentRequest struct {
	Reason string `json:"reason" validate:"required,max=64"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// MergeIncidentsRequest is the request body for POST /api/incidents/{id}/merge.
type MergeIncidentsRequest struct {
	SourceIDs []string `json:"sourceIds" validate:"required,min=1,max=50,dive,required"`
}

// PostMessageRequest is the request body for POST /api/incidents/{id}/messages.
// Staff consoles post as staff; sender defaults to the authenticated user.
type PostMessageRequest struct {
	Body       string `json:"body" validate:"required,max=4000"`
	SenderRole string `json:"senderRole" validate:"omitempty,oneof=staff reporter"`
	Sender     string `json:"sender" validate:"max=255"`
}

// IncidentDetailResponse is a single reconciled report.
// RedirectTo names the surviving report when this one was merged away.
type IncidentDetailResponse struct {
	*database.Incident
	TimeRemaining string `json:"timeRemaining"`
	RedirectTo    string `json:"redirectTo,omitempty"`
}

// IncidentListItem is a compact representation of a report for list views.
// It omits description, media and the merge log to reduce response size.
type IncidentListItem struct {
	ID            string                  `json:"id"`
	Location      string                  `json:"location"`
	IncidentType  string                  `json:"incidentType"`
	Severity      database.Severity       `json:"severity"`
	Status        database.IncidentStatus `json:"status"`
	IsOverdue     bool                    `json:"isOverdue"`
	Flagged       bool                    `json:"flagged"`
	HasMedia      bool                    `json:"hasMedia"`
	MergedCount   int                     `json:"mergedCount"`
	ReporterName  string                  `json:"reporterName,omitempty"`
	Timestamp     time.Time               `json:"timestamp"`
	Deadline      *time.Time              `json:"deadline,omitempty"`
	TimeRemaining string                  `json:"timeRemaining"`
	CompletedAt   *time.Time              `json:"completedAt,omitempty"`
}

// DuplicateCandidatesResponse lists merge candidates for one report.
type DuplicateCandidatesResponse struct {
	IncidentID string                 `json:"incidentId"`
	Candidates []duplicates.Candidate `json:"candidates"`
}

// DuplicateGroupsResponse is the batch duplicate scan.
// ScannedAt is set when the groups come from the background scan.
type DuplicateGroupsResponse struct {
	Groups    []duplicates.Group `json:"groups"`
	ScannedAt *time.Time         `json:"scannedAt,omitempty"`
}

// MergeResponse reports which sources were merged. Failed is only present
// on a partial merge and maps source ID to reason.
type MergeResponse struct {
	TargetID string            `json:"targetId"`
	Merged   []string          `json:"merged"`
	Failed   map[string]string `json:"failed,omitempty"`
	MergedAt time.Time         `json:"mergedAt"`
}

// ========== Catalog Types ==========

// UpsertIncidentTypeRequest is the request body for POST /api/incident-types.
type UpsertIncidentTypeRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Severity    string `json:"severity" validate:"required,oneof=Low Medium High Critical"`
	Description string `json:"description" validate:"max=1024"`
}

// ========== Settings Types ==========

// UpdateDuplicateSettingsRequest is the request body for PUT /api/settings/duplicates.
// Omitted fields keep their stored value.
type UpdateDuplicateSettingsRequest struct {
	ScanEnabled                *bool    `json:"scan_enabled"`
	RadiusMeters               *float64 `json:"radius_meters"`
	ProximityOverrideMeters    *float64 `json:"proximity_override_meters"`
	SimilarityThresholdPercent *float64 `json:"similarity_threshold_percent"`
	ScanIntervalMinutes        *int     `json:"scan_interval_minutes"`
}

// ========== Pagination Types ==========

// PaginationMeta contains pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PaginatedResponse wraps a list response with pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}
