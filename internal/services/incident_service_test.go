package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/events"
	"github.com/citywatch/citywatch/internal/severity"
	"github.com/citywatch/citywatch/internal/testhelpers"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

var testCatalog = severity.StaticCatalog{
	"Pothole":         database.SeverityMedium,
	"Streetlight Out": database.SeverityLow,
	"Fallen Tree":     database.SeverityHigh,
	"Water Main":      database.SeverityCritical,
}

type testEnv struct {
	db        *gorm.DB
	incidents *IncidentService
	reporters *ReporterService
	merges    *MergeService
	events    *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	rec := &events.Recorder{}
	clock := func() time.Time { return testNow }

	reporters := NewReporterService(db)
	reporters.now = clock
	incidents := NewIncidentService(db, severity.NewEngine(testCatalog), reporters, rec)
	incidents.now = clock
	merges := NewMergeService(db, rec)
	merges.now = clock

	return &testEnv{db: db, incidents: incidents, reporters: reporters, merges: merges, events: rec}
}

func (e *testEnv) reload(t *testing.T, id string) database.Incident {
	t.Helper()
	var inc database.Incident
	if err := e.db.Where("id = ?", id).First(&inc).Error; err != nil {
		t.Fatalf("failed to reload report %s: %v", id, err)
	}
	return inc
}

func hoursAgo(h float64) time.Time {
	return testNow.Add(-time.Duration(h * float64(time.Hour)))
}

func TestIncidentService_Create_DerivesSeverityAndDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.incidents.Create(ctx, &database.Incident{
		IncidentType: "Pothole",
		Description:  "  Deep pothole near the bus stop\x00 ",
		Timestamp:    hoursAgo(2),
		Status:       database.IncidentStatusCompleted,
		MergedInto:   "bogus",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if created.Severity != database.SeverityMedium {
		t.Errorf("expected Medium, got %q", created.Severity)
	}
	if created.Status != database.IncidentStatusNew {
		t.Errorf("expected New, got %q", created.Status)
	}
	if created.MergedInto != "" {
		t.Errorf("expected mergedInto to be reset, got %q", created.MergedInto)
	}
	if created.Description != "Deep pothole near the bus stop" {
		t.Errorf("expected sanitized description, got %q", created.Description)
	}
	want := hoursAgo(2).Add(120 * time.Hour)
	if created.Deadline == nil || !created.Deadline.Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, created.Deadline)
	}

	stored := env.reload(t, created.ID)
	if stored.Severity != database.SeverityMedium || stored.Deadline == nil {
		t.Errorf("expected derived fields to be persisted, got %+v", stored)
	}
	if len(env.events.OfType(events.IncidentCreated)) != 1 {
		t.Error("expected one created event")
	}
}

func TestIncidentService_Create_ImportedOverdue(t *testing.T) {
	env := newTestEnv(t)

	created, err := env.incidents.Create(context.Background(), &database.Incident{
		IncidentType: "Water Main",
		Timestamp:    hoursAgo(30),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Severity != database.SeverityCritical {
		t.Errorf("expected Critical, got %q", created.Severity)
	}
	if !created.IsOverdue || created.Status != database.IncidentStatusOverdue {
		t.Errorf("expected an overdue report, got status=%q isOverdue=%v", created.Status, created.IsOverdue)
	}
}

func TestIncidentService_Create_Validation(t *testing.T) {
	env := newTestEnv(t)
	lat, lon, bad := 40.0, -73.0, 120.0

	tests := []struct {
		name string
		in   *database.Incident
	}{
		{"nil report", nil},
		{"latitude only", &database.Incident{Latitude: &lat}},
		{"longitude only", &database.Incident{Longitude: &lon}},
		{"latitude out of range", &database.Incident{Latitude: &bad, Longitude: &lon}},
		{"unknown severity", &database.Incident{Severity: "Urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.incidents.Create(context.Background(), tt.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestIncidentService_Create_AnonymousAndReporterCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testhelpers.NewReporterBuilder().WithEmail("ana@example.com").WithHistory(2, 1, 0).Create(t, env.db)

	anon, err := env.incidents.Create(ctx, &database.Incident{
		IncidentType:  "Pothole",
		ReporterName:  "Ana",
		ReporterEmail: "ana@example.com",
		IsAnonymous:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anon.ReporterEmail != "" || anon.ReporterName != "" {
		t.Errorf("expected anonymous report to drop reporter identity, got %q %q", anon.ReporterName, anon.ReporterEmail)
	}

	if _, err := env.incidents.Create(ctx, &database.Incident{
		IncidentType:  "Pothole",
		ReporterEmail: " Ana@Example.com ",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := env.reporters.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ReportCount != 3 {
		t.Errorf("expected report count 3, got %d", r.ReportCount)
	}
}

func TestIncidentService_Get_ReconcilesAndPersists(t *testing.T) {
	env := newTestEnv(t)
	inc := testhelpers.NewIncidentBuilder().
		WithType("Fallen Tree").
		WithTimestamp(hoursAgo(80)).
		WithStatus(database.IncidentStatusInProgress).
		Create(t, env.db)

	got, err := env.incidents.Get(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Severity != database.SeverityHigh {
		t.Errorf("expected High, got %q", got.Severity)
	}
	if got.Status != database.IncidentStatusOverdue || !got.IsOverdue {
		t.Errorf("expected overdue after 80h on a 72h deadline, got %q %v", got.Status, got.IsOverdue)
	}

	stored := env.reload(t, inc.ID)
	if stored.Status != database.IncidentStatusOverdue || stored.Severity != database.SeverityHigh {
		t.Errorf("expected reconcile to be persisted, got %q %q", stored.Status, stored.Severity)
	}
	if n := len(env.events.OfType(events.IncidentOverdue)); n != 1 {
		t.Errorf("expected one overdue event, got %d", n)
	}

	// second read is a no-op
	if _, err := env.incidents.Get(context.Background(), inc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(env.events.OfType(events.IncidentOverdue)); n != 1 {
		t.Errorf("expected no further overdue events, got %d", n)
	}
}

func TestIncidentService_Get_Errors(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.incidents.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.incidents.Get(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIncidentService_Get_StoreDown(t *testing.T) {
	env := newTestEnv(t)
	sqlDB, _ := env.db.DB()
	sqlDB.Close()

	if _, err := env.incidents.Get(context.Background(), "any"); !errors.Is(err, ErrDependencyUnavailable) {
		t.Errorf("expected ErrDependencyUnavailable, got %v", err)
	}
}

func TestIncidentService_Reconcile_TerminalClearsOverdue(t *testing.T) {
	env := newTestEnv(t)
	inc := testhelpers.NewIncidentBuilder().MergedInto("target").Overdue().Create(t, env.db)

	patch, err := env.incidents.Reconcile(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patch.IsOverdue == nil || *patch.IsOverdue {
		t.Errorf("expected isOverdue to be cleared, got %+v", patch)
	}
	if patch.Status != nil || patch.Severity != nil || patch.Deadline != nil {
		t.Errorf("expected only isOverdue in the patch, got %+v", patch)
	}
	stored := env.reload(t, inc.ID)
	if stored.IsOverdue || stored.Status != database.IncidentStatusMerged {
		t.Errorf("expected Merged and not overdue, got %q %v", stored.Status, stored.IsOverdue)
	}
}

func TestIncidentService_MarkViewed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := testhelpers.NewIncidentBuilder().WithTimestamp(hoursAgo(1)).Create(t, env.db)

	got, err := env.incidents.MarkViewed(ctx, inc.ID, "officer.lee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != database.IncidentStatusInProgress {
		t.Errorf("expected In Progress, got %q", got.Status)
	}
	if got.LastViewedBy != "officer.lee" || got.LastViewed == nil || !got.LastViewed.Equal(testNow) {
		t.Errorf("expected view to be recorded, got %v by %q", got.LastViewed, got.LastViewedBy)
	}

	stored := env.reload(t, inc.ID)
	if stored.Status != database.IncidentStatusInProgress || stored.LastViewedBy != "officer.lee" {
		t.Errorf("expected view to be persisted, got %q %q", stored.Status, stored.LastViewedBy)
	}

	// Overdue reports stay Overdue when viewed
	late := testhelpers.NewIncidentBuilder().WithType("Water Main").WithTimestamp(hoursAgo(48)).Create(t, env.db)
	got, err = env.incidents.MarkViewed(ctx, late.ID, "officer.lee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != database.IncidentStatusOverdue {
		t.Errorf("expected Overdue, got %q", got.Status)
	}
}

func TestIncidentService_ChangeSeverity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := testhelpers.NewIncidentBuilder().
		WithTimestamp(hoursAgo(30)).
		WithStatus(database.IncidentStatusInProgress).
		Create(t, env.db)

	got, err := env.incidents.ChangeSeverity(ctx, inc.ID, "critical")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Severity != database.SeverityCritical {
		t.Errorf("expected Critical, got %q", got.Severity)
	}
	if !got.IsOverdue || got.Status != database.IncidentStatusOverdue {
		t.Errorf("expected 30h old Critical report to be overdue, got %q %v", got.Status, got.IsOverdue)
	}

	got, err = env.incidents.ChangeSeverity(ctx, inc.ID, database.SeverityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.IsOverdue || got.Status != database.IncidentStatusInProgress {
		t.Errorf("expected High to lift the overdue state, got %q %v", got.Status, got.IsOverdue)
	}
	want := hoursAgo(30).Add(72 * time.Hour)
	stored := env.reload(t, inc.ID)
	if stored.Deadline == nil || !stored.Deadline.Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, stored.Deadline)
	}
	if stored.Severity != database.SeverityHigh || stored.Status != database.IncidentStatusInProgress {
		t.Errorf("expected High / In Progress persisted, got %q %q", stored.Severity, stored.Status)
	}
}

func TestIncidentService_ChangeSeverity_KeepsNewStatus(t *testing.T) {
	env := newTestEnv(t)
	inc := testhelpers.NewIncidentBuilder().WithTimestamp(hoursAgo(1)).Create(t, env.db)

	got, err := env.incidents.ChangeSeverity(context.Background(), inc.ID, database.SeverityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != database.IncidentStatusNew {
		t.Errorf("expected status to stay New, got %q", got.Status)
	}
}

func TestIncidentService_ChangeSeverity_Rejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	open := testhelpers.NewIncidentBuilder().Create(t, env.db)
	done := testhelpers.NewIncidentBuilder().WithStatus(database.IncidentStatusCompleted).Create(t, env.db)

	if _, err := env.incidents.ChangeSeverity(ctx, open.ID, "urgent"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown severity, got %v", err)
	}
	if _, err := env.incidents.ChangeSeverity(ctx, done.ID, database.SeverityHigh); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for completed report, got %v", err)
	}
	if _, err := env.incidents.ChangeSeverity(ctx, "missing", database.SeverityHigh); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncidentService_PreviewSeverityChange(t *testing.T) {
	env := newTestEnv(t)
	inc := testhelpers.NewIncidentBuilder().
		WithTimestamp(hoursAgo(30)).
		WithStatus(database.IncidentStatusInProgress).
		Create(t, env.db)

	preview, err := env.incidents.PreviewSeverityChange(context.Background(), inc.ID, database.SeverityCritical)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.OldSeverity != database.SeverityMedium || preview.NewSeverity != database.SeverityCritical {
		t.Errorf("unexpected severities %q -> %q", preview.OldSeverity, preview.NewSeverity)
	}
	if !preview.WouldBeOverdue {
		t.Error("expected preview to report the change would be overdue")
	}
	if preview.NewTimeRemaining != "Overdue by 6 hours" {
		t.Errorf("unexpected new time remaining %q", preview.NewTimeRemaining)
	}
	if preview.OldTimeRemaining != "3 days 18 hours remaining" {
		t.Errorf("unexpected old time remaining %q", preview.OldTimeRemaining)
	}

	stored := env.reload(t, inc.ID)
	if stored.Severity != database.SeverityMedium {
		t.Errorf("expected preview not to change severity, got %q", stored.Severity)
	}
}

func TestIncidentService_MarkCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := testhelpers.NewIncidentBuilder().
		WithTimestamp(hoursAgo(50.5)).
		FromReporter("Ana", "ana@example.com").
		Overdue().
		Create(t, env.db)

	summary, err := env.incidents.MarkCompleted(ctx, inc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Formatted != "2 days 2 hours 30 minutes" {
		t.Errorf("unexpected formatted resolution %q", summary.Formatted)
	}
	if summary.Hours < 50.49 || summary.Hours > 50.51 {
		t.Errorf("expected ~50.5 hours, got %f", summary.Hours)
	}

	stored := env.reload(t, inc.ID)
	if stored.Status != database.IncidentStatusCompleted || stored.IsOverdue {
		t.Errorf("expected Completed and not overdue, got %q %v", stored.Status, stored.IsOverdue)
	}
	if stored.CompletedAt == nil || stored.ResolutionTimeFormatted != summary.Formatted {
		t.Errorf("expected resolution to be persisted, got %+v", stored)
	}

	r, err := env.reporters.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("expected reporter to be created: %v", err)
	}
	if r.TrustLevel != 15 || r.VerifiedReports != 1 {
		t.Errorf("expected seeded verified reporter, got %+v", r)
	}

	if _, err := env.incidents.MarkCompleted(ctx, inc.ID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected completing twice to be rejected, got %v", err)
	}
	if n := len(env.events.OfType(events.IncidentCompleted)); n != 1 {
		t.Errorf("expected one completed event, got %d", n)
	}
}

func TestIncidentService_MarkCompleted_AnonymousSkipsTrust(t *testing.T) {
	env := newTestEnv(t)
	inc := testhelpers.NewIncidentBuilder().FromReporter("Ana", "ana@example.com").Anonymous().Create(t, env.db)

	if _, err := env.incidents.MarkCompleted(context.Background(), inc.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var count int64
	env.db.Model(&database.Reporter{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no reporter records, got %d", count)
	}
}

func TestIncidentService_Flag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inc := testhelpers.NewIncidentBuilder().
		FromReporter("Sam", "sam@example.com").
		WithStatus(database.IncidentStatusInProgress).
		Create(t, env.db)

	if _, err := env.incidents.Flag(ctx, inc.ID, "  ", "", "officer.lee"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty reason, got %v", err)
	}

	got, err := env.incidents.Flag(ctx, inc.ID, "spam", "same photo as yesterday", "officer.lee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Flagged || got.FlagStatus != database.FlagStatusPendingReview {
		t.Errorf("expected report to be flagged for review, got %+v", got)
	}
	if got.Status != database.IncidentStatusInProgress {
		t.Errorf("expected flagging to leave status alone, got %q", got.Status)
	}

	stored := env.reload(t, inc.ID)
	if !stored.Flagged || stored.FlagReason != "spam" || stored.FlaggedBy != "officer.lee" {
		t.Errorf("expected flag to be persisted, got %+v", stored)
	}

	r, err := env.reporters.GetByEmail(ctx, "sam@example.com")
	if err != nil {
		t.Fatalf("expected reporter to be created: %v", err)
	}
	if r.TrustLevel != 5 || r.FalseReports != 1 {
		t.Errorf("expected seeded false-report reporter, got %+v", r)
	}
}

func TestIncidentService_Flag_OtherReasonKeepsTrust(t *testing.T) {
	env := newTestEnv(t)
	inc := testhelpers.NewIncidentBuilder().FromReporter("Sam", "sam@example.com").Create(t, env.db)

	if _, err := env.incidents.Flag(context.Background(), inc.ID, "needs_photo", "", "officer.lee"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var count int64
	env.db.Model(&database.Reporter{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no reporter penalty, got %d records", count)
	}
}

func TestIsFalseReportReason(t *testing.T) {
	tests := []struct {
		reason string
		want   bool
	}{
		{"spam", true},
		{" False_Report ", true},
		{"prank", true},
		{"fake", true},
		{"duplicate", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsFalseReportReason(tt.reason); got != tt.want {
			t.Errorf("IsFalseReportReason(%q) = %v, want %v", tt.reason, got, tt.want)
		}
	}
}

func TestIncidentService_List(t *testing.T) {
	env := newTestEnv(t)
	b := testhelpers.NewIncidentBuilder
	b().WithTimestamp(hoursAgo(1)).Create(t, env.db)
	b().WithTimestamp(hoursAgo(2)).WithType("Fallen Tree").Create(t, env.db)
	b().WithTimestamp(hoursAgo(3)).WithStatus(database.IncidentStatusCompleted).Create(t, env.db)
	flagged := b().WithTimestamp(hoursAgo(4)).Build()
	flagged.Flagged = true
	env.db.Create(&flagged)

	page, total, err := env.incidents.List(context.Background(), ListFilter{}, 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 4 || len(page) != 2 {
		t.Fatalf("expected 2 of 4, got %d of %d", len(page), total)
	}
	if !page[0].Timestamp.After(page[1].Timestamp) {
		t.Error("expected newest first")
	}

	yes := true
	tests := []struct {
		name   string
		filter ListFilter
		want   int64
	}{
		{"by status", ListFilter{Status: database.IncidentStatusCompleted}, 1},
		{"by type", ListFilter{IncidentType: "Fallen Tree"}, 1},
		{"flagged", ListFilter{Flagged: &yes}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := env.incidents.List(context.Background(), tt.filter, 0, 10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total != tt.want {
				t.Errorf("expected %d, got %d", tt.want, total)
			}
		})
	}
}

func TestIncidentService_ListActive(t *testing.T) {
	env := newTestEnv(t)
	b := testhelpers.NewIncidentBuilder
	b().WithTimestamp(hoursAgo(1)).Create(t, env.db)
	b().WithTimestamp(hoursAgo(130)).Create(t, env.db)
	b().WithStatus(database.IncidentStatusCompleted).Create(t, env.db)
	b().MergedInto("x").Create(t, env.db)

	active, err := env.incidents.ListActive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active reports, got %d", len(active))
	}
	if !active[0].IsOverdue || active[0].Status != database.IncidentStatusOverdue {
		t.Errorf("expected the oldest report to be reconciled as overdue, got %q", active[0].Status)
	}
}
