package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/citywatch/citywatch/internal/database"
)

// ========================================
// Incident Builder
// ========================================

// IncidentBuilder builds report instances for testing
type IncidentBuilder struct {
	incident database.Incident
}

// NewIncidentBuilder creates a new report builder with defaults: a New
// pothole report with no coordinates, filed an hour ago
func NewIncidentBuilder() *IncidentBuilder {
	return &IncidentBuilder{
		incident: database.Incident{
			ID:           uuid.New().String(),
			Location:     "100 Main St",
			IncidentType: "Pothole",
			Description:  "Large pothole in the right lane",
			Status:       database.IncidentStatusNew,
			Timestamp:    time.Now().Add(-time.Hour).UTC(),
			MediaURLs:    database.StringList{},
		},
	}
}

// WithID sets the report ID
func (b *IncidentBuilder) WithID(id string) *IncidentBuilder {
	b.incident.ID = id
	return b
}

// WithType sets the incident type label
func (b *IncidentBuilder) WithType(incidentType string) *IncidentBuilder {
	b.incident.IncidentType = incidentType
	return b
}

// WithDescription sets the description
func (b *IncidentBuilder) WithDescription(desc string) *IncidentBuilder {
	b.incident.Description = desc
	return b
}

// WithSeverity sets the severity
func (b *IncidentBuilder) WithSeverity(severity database.Severity) *IncidentBuilder {
	b.incident.Severity = severity
	return b
}

// WithStatus sets the status
func (b *IncidentBuilder) WithStatus(status database.IncidentStatus) *IncidentBuilder {
	b.incident.Status = status
	return b
}

// WithTimestamp sets the creation time
func (b *IncidentBuilder) WithTimestamp(ts time.Time) *IncidentBuilder {
	b.incident.Timestamp = ts
	return b
}

// WithDeadline sets the stored deadline
func (b *IncidentBuilder) WithDeadline(deadline time.Time) *IncidentBuilder {
	b.incident.Deadline = &deadline
	return b
}

// At sets the coordinates
func (b *IncidentBuilder) At(lat, lon float64) *IncidentBuilder {
	b.incident.Latitude = &lat
	b.incident.Longitude = &lon
	return b
}

// WithMedia sets the attached media URLs
func (b *IncidentBuilder) WithMedia(urls ...string) *IncidentBuilder {
	b.incident.MediaURLs = append(database.StringList{}, urls...)
	return b
}

// FromReporter sets the reporter identity
func (b *IncidentBuilder) FromReporter(name, email string) *IncidentBuilder {
	b.incident.ReporterName = name
	b.incident.ReporterEmail = email
	b.incident.IsAnonymous = false
	return b
}

// Anonymous marks the report as anonymous
func (b *IncidentBuilder) Anonymous() *IncidentBuilder {
	b.incident.IsAnonymous = true
	return b
}

// Overdue marks the cached overdue flag
func (b *IncidentBuilder) Overdue() *IncidentBuilder {
	b.incident.IsOverdue = true
	return b
}

// MergedInto marks the report as merged into target
func (b *IncidentBuilder) MergedInto(target string) *IncidentBuilder {
	now := time.Now().UTC()
	b.incident.Status = database.IncidentStatusMerged
	b.incident.MergedInto = target
	b.incident.MergedAt = &now
	return b
}

// Build returns the constructed report
func (b *IncidentBuilder) Build() database.Incident {
	return b.incident
}

// Create persists the report and returns it
func (b *IncidentBuilder) Create(t *testing.T, db *gorm.DB) database.Incident {
	t.Helper()
	inc := b.incident
	if err := db.Create(&inc).Error; err != nil {
		t.Fatalf("failed to create test report: %v", err)
	}
	return inc
}

// ========================================
// Reporter Builder
// ========================================

// ReporterBuilder builds Reporter instances for testing
type ReporterBuilder struct {
	reporter database.Reporter
}

// NewReporterBuilder creates a new reporter builder with defaults
func NewReporterBuilder() *ReporterBuilder {
	now := time.Now().UTC()
	return &ReporterBuilder{
		reporter: database.Reporter{
			Email:      "resident@example.com",
			TrustLevel: 10,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
}

// WithEmail sets the email
func (b *ReporterBuilder) WithEmail(email string) *ReporterBuilder {
	b.reporter.Email = email
	return b
}

// WithTrustLevel sets the stored trust level
func (b *ReporterBuilder) WithTrustLevel(level int) *ReporterBuilder {
	b.reporter.TrustLevel = level
	return b
}

// WithHistory sets the report counters
func (b *ReporterBuilder) WithHistory(reports, verified, falseReports int) *ReporterBuilder {
	b.reporter.ReportCount = reports
	b.reporter.VerifiedReports = verified
	b.reporter.FalseReports = falseReports
	return b
}

// Since sets the creation time
func (b *ReporterBuilder) Since(createdAt time.Time) *ReporterBuilder {
	b.reporter.CreatedAt = createdAt
	return b
}

// Build returns the constructed reporter
func (b *ReporterBuilder) Build() database.Reporter {
	return b.reporter
}

// Create persists the reporter and returns it
func (b *ReporterBuilder) Create(t *testing.T, db *gorm.DB) database.Reporter {
	t.Helper()
	r := b.reporter
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("failed to create test reporter: %v", err)
	}
	return r
}
