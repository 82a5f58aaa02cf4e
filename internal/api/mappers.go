package api

import (
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/services"
	"github.com/citywatch/citywatch/internal/utils"
)

// IncidentToListItem converts a database Incident to a compact list representation.
func IncidentToListItem(i database.Incident, now time.Time) IncidentListItem {
	return IncidentListItem{
		ID:            i.ID,
		Location:      i.Location,
		IncidentType:  i.IncidentType,
		Severity:      i.Severity,
		Status:        i.Status,
		IsOverdue:     i.IsOverdue,
		Flagged:       i.Flagged,
		HasMedia:      len(i.MediaURLs) > 0,
		MergedCount:   len(i.MergedReports),
		ReporterName:  i.ReporterName,
		Timestamp:     i.Timestamp,
		Deadline:      i.Deadline,
		TimeRemaining: timeRemaining(&i, now),
		CompletedAt:   i.CompletedAt,
	}
}

// IncidentsToListItems converts a slice of database Incidents to list items.
func IncidentsToListItems(incidents []database.Incident, now time.Time) []IncidentListItem {
	items := make([]IncidentListItem, len(incidents))
	for i, inc := range incidents {
		items[i] = IncidentToListItem(inc, now)
	}
	return items
}

// IncidentToDetail wraps a report with its countdown. redirectTo is only
// set for merged reports whose chain resolves elsewhere.
func IncidentToDetail(inc *database.Incident, now time.Time, redirectTo string) IncidentDetailResponse {
	resp := IncidentDetailResponse{Incident: inc, TimeRemaining: timeRemaining(inc, now)}
	if inc.Status == database.IncidentStatusMerged && redirectTo != inc.ID {
		resp.RedirectTo = redirectTo
	}
	return resp
}

func timeRemaining(inc *database.Incident, now time.Time) string {
	switch inc.Status {
	case database.IncidentStatusCompleted:
		return "Completed"
	case database.IncidentStatusMerged:
		return "Merged"
	}
	return utils.FormatTimeRemaining(inc.Deadline, now)
}

// CreateRequestToIncident builds the report to file. A timestamp that is
// present but unparseable is a field error; an absent one means now.
func CreateRequestToIncident(req CreateIncidentRequest) (*database.Incident, map[string]string) {
	inc := &database.Incident{
		Location:      req.Location,
		LocationInfo:  req.LocationInfo,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		IncidentType:  req.IncidentType,
		Description:   req.Description,
		MediaURLs:     database.StringList(req.MediaURLs),
		Severity:      database.Severity(req.Severity),
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
		IsAnonymous:   req.IsAnonymous,
	}
	if req.Timestamp != nil {
		ts := database.NormalizeTimestamp(req.Timestamp)
		if ts == nil {
			return nil, map[string]string{"timestamp": "is not a recognized timestamp"}
		}
		inc.Timestamp = *ts
	}
	return inc, nil
}

// MergeOutcomeToResponse flattens a merge result and its partial failure, if any.
func MergeOutcomeToResponse(targetID string, outcome *services.MergeOutcome, partial *services.PartialFailureError) MergeResponse {
	resp := MergeResponse{TargetID: targetID, Merged: []string{}}
	if outcome != nil {
		resp.Merged = append(resp.Merged, outcome.Merged...)
		resp.MergedAt = outcome.MergedAt
	}
	if partial != nil && len(partial.Failed) > 0 {
		resp.Failed = make(map[string]string, len(partial.Failed))
		for id, err := range partial.Failed {
			resp.Failed[id] = err.Error()
		}
	}
	return resp
}

// ApplyDuplicateSettings overlays the fields present in req onto current.
func ApplyDuplicateSettings(current database.DuplicateSettings, req UpdateDuplicateSettingsRequest) *database.DuplicateSettings {
	if req.ScanEnabled != nil {
		current.ScanEnabled = *req.ScanEnabled
	}
	if req.RadiusMeters != nil {
		current.RadiusMeters = *req.RadiusMeters
	}
	if req.ProximityOverrideMeters != nil {
		current.ProximityOverrideMeters = *req.ProximityOverrideMeters
	}
	if req.SimilarityThresholdPercent != nil {
		current.SimilarityThresholdPercent = *req.SimilarityThresholdPercent
	}
	if req.ScanIntervalMinutes != nil {
		current.ScanIntervalMinutes = *req.ScanIntervalMinutes
	}
	return &current
}
