package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/events"
	"github.com/citywatch/citywatch/internal/geo"
	"github.com/citywatch/citywatch/internal/severity"
	"github.com/citywatch/citywatch/internal/utils"
	"gorm.io/gorm"
)

// falseReportReasons are flag reasons that count against the reporter
var falseReportReasons = map[string]bool{
	"false_report": true,
	"fake":         true,
	"spam":         true,
	"prank":        true,
}

// IsFalseReportReason returns true if a flag reason classifies the report as false
func IsFalseReportReason(reason string) bool {
	return falseReportReasons[strings.ToLower(strings.TrimSpace(reason))]
}

// ResolutionSummary is the outcome of completing a report
type ResolutionSummary struct {
	IncidentID  string    `json:"incidentId"`
	Hours       float64   `json:"resolutionTimeHours"`
	Formatted   string    `json:"resolutionTimeFormatted"`
	CompletedAt time.Time `json:"completedAt"`
}

// SeverityPreview shows the effect of a severity change before it is committed
type SeverityPreview struct {
	IncidentID       string            `json:"incidentId"`
	OldSeverity      database.Severity `json:"oldSeverity"`
	NewSeverity      database.Severity `json:"newSeverity"`
	OldDeadline      *time.Time        `json:"oldDeadline,omitempty"`
	NewDeadline      *time.Time        `json:"newDeadline,omitempty"`
	OldTimeRemaining string            `json:"oldTimeRemaining"`
	NewTimeRemaining string            `json:"newTimeRemaining"`
	WouldBeOverdue   bool              `json:"wouldBeOverdue"`
}

// ListFilter narrows a report listing
type ListFilter struct {
	Status       database.IncidentStatus
	IncidentType string
	Flagged      *bool
}

// IncidentService owns report lifecycle transitions
type IncidentService struct {
	db        *gorm.DB
	engine    *severity.Engine
	reporters *ReporterService
	events    events.Publisher
	now       func() time.Time
}

// NewIncidentService creates a new incident service.
// reporters and publisher may be nil.
func NewIncidentService(db *gorm.DB, engine *severity.Engine, reporters *ReporterService, publisher events.Publisher) *IncidentService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &IncidentService{
		db:        db,
		engine:    engine,
		reporters: reporters,
		events:    publisher,
		now:       time.Now,
	}
}

// Engine returns the severity engine used for reconciliation
func (s *IncidentService) Engine() *severity.Engine {
	return s.engine
}

func (s *IncidentService) fetch(ctx context.Context, id string) (*database.Incident, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidInput("report id is required")
	}
	var inc database.Incident
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&inc).Error; err != nil {
		return nil, storeError("get report "+id, err)
	}
	return &inc, nil
}

// write applies a partial update to one report. Zero rows matched means the
// report vanished after it was read.
func (s *IncidentService) write(ctx context.Context, id string, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&database.Incident{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return storeError("update report "+id, res.Error)
	}
	if res.RowsAffected == 0 {
		return storeError("update report "+id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (s *IncidentService) publish(t events.Type, inc *database.Incident, data map[string]interface{}) {
	s.events.Publish(events.Event{Type: t, IncidentID: inc.ID, Incident: inc, Data: data, At: s.now().UTC()})
}

// reconcile brings inc up to date in memory and persists any change
func (s *IncidentService) reconcile(ctx context.Context, inc *database.Incident) (severity.Patch, error) {
	patch := s.engine.Reconcile(ctx, inc, s.now())
	if patch.Empty() {
		return patch, nil
	}
	wasOverdue := inc.Status == database.IncidentStatusOverdue
	if err := s.write(ctx, inc.ID, patch.Updates()); err != nil {
		return patch, err
	}
	patch.ApplyTo(inc)
	if !wasOverdue && inc.Status == database.IncidentStatusOverdue {
		s.publish(events.IncidentOverdue, inc, nil)
	}
	return patch, nil
}

// Get returns a report, reconciling severity, deadline and overdue state on
// the way out. A failed reconcile write is logged and the computed values
// are still returned.
func (s *IncidentService) Get(ctx context.Context, id string) (*database.Incident, error) {
	inc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.reconcile(ctx, inc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		log.Printf("IncidentService: failed to persist reconcile for %s: %v", id, err)
		s.engine.Reconcile(ctx, inc, s.now()).ApplyTo(inc)
	}
	return inc, nil
}

// Reconcile re-reads a report and persists its reconcile patch
func (s *IncidentService) Reconcile(ctx context.Context, id string) (severity.Patch, error) {
	inc, err := s.fetch(ctx, id)
	if err != nil {
		return severity.Patch{}, err
	}
	return s.reconcile(ctx, inc)
}

// MarkViewed records a staff view. The first view of a New report moves it
// to In Progress.
func (s *IncidentService) MarkViewed(ctx context.Context, id, viewedBy string) (*database.Incident, error) {
	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := map[string]interface{}{
		"last_viewed":    now,
		"last_viewed_by": viewedBy,
	}
	becameActive := inc.Status == database.IncidentStatusNew
	if becameActive {
		updates["status"] = database.IncidentStatusInProgress
	}
	if err := s.write(ctx, id, updates); err != nil {
		return nil, err
	}

	inc.LastViewed = &now
	inc.LastViewedBy = viewedBy
	if becameActive {
		inc.Status = database.IncidentStatusInProgress
		s.publish(events.IncidentUpdated, inc, map[string]interface{}{"status": inc.Status})
	}
	return inc, nil
}

func parseSeverityInput(value database.Severity) (database.Severity, error) {
	sev, ok := database.ParseSeverity(string(value))
	if !ok {
		return "", invalidInput("severity %q is not one of Low, Medium, High, Critical", value)
	}
	return sev, nil
}

// PreviewSeverityChange computes old and new deadlines for a proposed
// severity without writing anything
func (s *IncidentService) PreviewSeverityChange(ctx context.Context, id string, newSeverity database.Severity) (*SeverityPreview, error) {
	sev, err := parseSeverityInput(newSeverity)
	if err != nil {
		return nil, err
	}
	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.Status.IsTerminal() {
		return nil, invalidInput("report %s is %s", id, inc.Status)
	}

	now := s.now()
	newDeadline := severity.CalculateDeadline(&inc.Timestamp, sev)
	return &SeverityPreview{
		IncidentID:       inc.ID,
		OldSeverity:      inc.Severity,
		NewSeverity:      sev,
		OldDeadline:      inc.Deadline,
		NewDeadline:      newDeadline,
		OldTimeRemaining: utils.FormatTimeRemaining(inc.Deadline, now),
		NewTimeRemaining: utils.FormatTimeRemaining(newDeadline, now),
		WouldBeOverdue:   severity.IsOverdue(newDeadline, inc.Status, now),
	}, nil
}

// ChangeSeverity sets a staff-chosen severity and recomputes the deadline.
// Status only moves between Overdue and In Progress as the new deadline dictates.
func (s *IncidentService) ChangeSeverity(ctx context.Context, id string, newSeverity database.Severity) (*database.Incident, error) {
	sev, err := parseSeverityInput(newSeverity)
	if err != nil {
		return nil, err
	}
	inc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.Status.IsTerminal() {
		return nil, invalidInput("cannot change severity of a %s report", inc.Status)
	}

	now := s.now()
	deadline := severity.CalculateDeadline(&inc.Timestamp, sev)
	overdue := severity.IsOverdue(deadline, inc.Status, now)
	status := inc.Status
	switch {
	case overdue:
		status = database.IncidentStatusOverdue
	case status == database.IncidentStatusOverdue:
		status = database.IncidentStatusInProgress
	}

	updates := map[string]interface{}{
		"severity":   sev,
		"deadline":   deadline,
		"is_overdue": overdue,
		"status":     status,
	}
	if err := s.write(ctx, id, updates); err != nil {
		return nil, err
	}

	previous := inc.Severity
	inc.Severity = sev
	inc.Deadline = deadline
	inc.IsOverdue = overdue
	inc.Status = status
	log.Printf("IncidentService: severity of %s changed %s -> %s", id, previous, sev)
	s.publish(events.IncidentUpdated, inc, map[string]interface{}{"previousSeverity": previous, "severity": sev})
	return inc, nil
}

// MarkCompleted closes a report and records how long it took. The reporter
// is credited with a verified report; that step is best-effort.
func (s *IncidentService) MarkCompleted(ctx context.Context, id string) (*ResolutionSummary, error) {
	inc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc.Status.IsTerminal() {
		return nil, invalidInput("report %s is already %s", id, inc.Status)
	}

	now := s.now().UTC()
	hours := now.Sub(inc.Timestamp).Hours()
	if hours < 0 {
		hours = 0
	}
	formatted := utils.FormatResolutionTime(hours)

	updates := map[string]interface{}{
		"status":                    database.IncidentStatusCompleted,
		"completed_at":              now,
		"is_overdue":                false,
		"resolution_time_hours":     hours,
		"resolution_time_formatted": formatted,
	}
	if err := s.write(ctx, id, updates); err != nil {
		return nil, err
	}

	inc.Status = database.IncidentStatusCompleted
	inc.CompletedAt = &now
	inc.IsOverdue = false
	inc.ResolutionTimeHours = &hours
	inc.ResolutionTimeFormatted = formatted

	if inc.TracksReporter() && s.reporters != nil {
		if update, err := s.reporters.RecordVerification(ctx, inc.ReporterEmail); err != nil {
			log.Printf("IncidentService: failed to record verification for report %s: %v", id, err)
		} else {
			log.Printf("IncidentService: reporter trust %d -> %d after completing %s", update.Previous, update.Current, id)
		}
	}

	s.publish(events.IncidentCompleted, inc, map[string]interface{}{"resolutionTimeFormatted": formatted})
	return &ResolutionSummary{IncidentID: id, Hours: hours, Formatted: formatted, CompletedAt: now}, nil
}

// Flag marks a report as suspicious for review. Flagging never changes the
// status. False-report reasons penalize the reporter, best-effort.
func (s *IncidentService) Flag(ctx context.Context, id, reason, notes, flaggedBy string) (*database.Incident, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalidInput("flag reason is required")
	}
	inc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	notes = utils.SanitizeText(notes)
	updates := map[string]interface{}{
		"flagged":     true,
		"flag_reason": reason,
		"flag_notes":  notes,
		"flag_status": database.FlagStatusPendingReview,
		"flagged_at":  now,
		"flagged_by":  flaggedBy,
	}
	if err := s.write(ctx, id, updates); err != nil {
		return nil, err
	}

	inc.Flagged = true
	inc.FlagReason = reason
	inc.FlagNotes = notes
	inc.FlagStatus = database.FlagStatusPendingReview
	inc.FlaggedAt = &now
	inc.FlaggedBy = flaggedBy

	if IsFalseReportReason(reason) && inc.TracksReporter() && s.reporters != nil {
		if _, err := s.reporters.RecordFalseReport(ctx, inc.ReporterEmail); err != nil {
			log.Printf("IncidentService: failed to record false report for %s: %v", id, err)
		}
	}

	s.publish(events.IncidentFlagged, inc, map[string]interface{}{"reason": reason})
	return inc, nil
}

// Create files a new report. Lifecycle fields supplied by the caller are
// reset; severity, deadline and overdue state are derived.
func (s *IncidentService) Create(ctx context.Context, in *database.Incident) (*database.Incident, error) {
	if in == nil {
		return nil, invalidInput("report is required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, invalidInput("latitude and longitude must be provided together")
	}
	if in.HasCoordinates() {
		if _, ok := geo.PointFrom(in.Latitude, in.Longitude); !ok {
			return nil, invalidInput("coordinates %v,%v are out of range", *in.Latitude, *in.Longitude)
		}
	}

	inc := database.Incident{
		Location:      utils.SanitizeText(in.Location),
		LocationInfo:  utils.SanitizeText(in.LocationInfo),
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		IncidentType:  strings.TrimSpace(in.IncidentType),
		Description:   utils.SanitizeText(in.Description),
		MediaURLs:     append(database.StringList{}, in.MediaURLs...),
		Severity:      in.Severity,
		Timestamp:     in.Timestamp.UTC(),
		Status:        database.IncidentStatusNew,
		ReporterName:  strings.TrimSpace(in.ReporterName),
		ReporterEmail: strings.ToLower(strings.TrimSpace(in.ReporterEmail)),
		IsAnonymous:   in.IsAnonymous,
	}
	if inc.Severity != "" {
		sev, err := parseSeverityInput(inc.Severity)
		if err != nil {
			return nil, err
		}
		inc.Severity = sev
	}
	if in.Timestamp.IsZero() {
		inc.Timestamp = s.now().UTC()
	}
	if inc.IsAnonymous {
		inc.ReporterEmail = ""
		inc.ReporterName = ""
	}

	s.engine.Reconcile(ctx, &inc, s.now()).ApplyTo(&inc)

	if err := s.db.WithContext(ctx).Create(&inc).Error; err != nil {
		return nil, storeError("create report", err)
	}

	if inc.TracksReporter() && s.reporters != nil {
		if err := s.reporters.RecordReport(ctx, inc.ReporterEmail); err != nil {
			log.Printf("IncidentService: failed to count report %s for reporter: %v", inc.ID, err)
		}
	}

	log.Printf("IncidentService: created report %s (%s, %s)", inc.ID, inc.IncidentType, inc.Severity)
	s.publish(events.IncidentCreated, &inc, nil)
	return &inc, nil
}

// List returns a page of reports, newest first, reconciled in memory
func (s *IncidentService) List(ctx context.Context, filter ListFilter, offset, limit int) ([]database.Incident, int64, error) {
	q := s.db.WithContext(ctx).Model(&database.Incident{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.IncidentType != "" {
		q = q.Where("incident_type = ?", filter.IncidentType)
	}
	if filter.Flagged != nil {
		q = q.Where("flagged = ?", *filter.Flagged)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeError("count reports", err)
	}

	var incidents []database.Incident
	if err := q.Order("timestamp DESC").Offset(offset).Limit(limit).Find(&incidents).Error; err != nil {
		return nil, 0, storeError("list reports", err)
	}
	s.reconcileAll(ctx, incidents)
	return incidents, total, nil
}

// ListActive returns every non-terminal report, oldest first, reconciled in memory
func (s *IncidentService) ListActive(ctx context.Context) ([]database.Incident, error) {
	var incidents []database.Incident
	err := s.db.WithContext(ctx).
		Where("status IN ?", database.ActiveStatuses()).
		Order("timestamp ASC").
		Find(&incidents).Error
	if err != nil {
		return nil, storeError("list active reports", err)
	}
	s.reconcileAll(ctx, incidents)
	return incidents, nil
}

func (s *IncidentService) reconcileAll(ctx context.Context, incidents []database.Incident) {
	now := s.now()
	for i := range incidents {
		s.engine.Reconcile(ctx, &incidents[i], now).ApplyTo(&incidents[i])
	}
}
