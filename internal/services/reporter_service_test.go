package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/testhelpers"
	"github.com/citywatch/citywatch/internal/trust"
)

func TestReporterService_RecordVerification_SeedsNewReporter(t *testing.T) {
	env := newTestEnv(t)

	update, err := env.reporters.RecordVerification(context.Background(), " New@Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !update.Created || update.Current != trust.SeedVerifiedLevel || update.Email != "new@example.com" {
		t.Errorf("unexpected update %+v", update)
	}

	r, err := env.reporters.GetByEmail(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ReportCount != 1 || r.VerifiedReports != 1 || r.FalseReports != 0 {
		t.Errorf("unexpected counters %+v", r)
	}
}

func TestReporterService_RecordVerification_Existing(t *testing.T) {
	env := newTestEnv(t)
	testhelpers.NewReporterBuilder().
		WithEmail("ana@example.com").
		WithHistory(4, 1, 0).
		WithTrustLevel(20).
		Since(testNow.Add(-60 * 24 * time.Hour)).
		Create(t, env.db)

	update, err := env.reporters.RecordVerification(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10 base + 10 verified + 10 accuracy + 2 tenure, plus the 10 bonus
	if update.Previous != 20 || update.Current != 42 || update.Created {
		t.Errorf("unexpected update %+v", update)
	}

	r, _ := env.reporters.GetByEmail(context.Background(), "ana@example.com")
	if r.VerifiedReports != 2 || r.TrustLevel != 42 || r.ReportCount != 4 {
		t.Errorf("unexpected stored reporter %+v", r)
	}
}

func TestReporterService_RecordFalseReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testhelpers.NewReporterBuilder().
		WithEmail("sam@example.com").
		WithHistory(4, 2, 0).
		WithTrustLevel(32).
		Since(testNow.Add(-60 * 24 * time.Hour)).
		Create(t, env.db)

	update, err := env.reporters.RecordFalseReport(ctx, "sam@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if update.Previous != 32 || update.Current != 22 {
		t.Errorf("expected 32 -> 22, got %+v", update)
	}

	seeded, err := env.reporters.RecordFalseReport(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seeded.Created || seeded.Current != trust.SeedFalseReportLevel {
		t.Errorf("unexpected seed %+v", seeded)
	}
}

func TestReporterService_TrustStaysInRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testhelpers.NewReporterBuilder().
		WithEmail("veteran@example.com").
		WithHistory(40, 40, 0).
		Since(testNow.Add(-3 * 365 * 24 * time.Hour)).
		Create(t, env.db)

	for i := 0; i < 5; i++ {
		update, err := env.reporters.RecordVerification(ctx, "veteran@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if update.Current < trust.MinLevel || update.Current > trust.MaxLevel {
			t.Fatalf("trust %d out of range", update.Current)
		}
	}
	for i := 0; i < 20; i++ {
		update, err := env.reporters.RecordFalseReport(ctx, "veteran@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if update.Current < trust.MinLevel || update.Current > trust.MaxLevel {
			t.Fatalf("trust %d out of range", update.Current)
		}
	}
}

func TestReporterService_RecordReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testhelpers.NewReporterBuilder().WithEmail("ana@example.com").WithHistory(1, 0, 0).Create(t, env.db)

	if err := env.reporters.RecordReport(ctx, "ana@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.reporters.RecordReport(ctx, "stranger@example.com"); err != nil {
		t.Fatalf("unexpected error for unknown reporter: %v", err)
	}

	r, _ := env.reporters.GetByEmail(ctx, "ana@example.com")
	if r.ReportCount != 2 {
		t.Errorf("expected report count 2, got %d", r.ReportCount)
	}
	if _, err := env.reporters.GetByEmail(ctx, "stranger@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected unknown reporter not to be created, got %v", err)
	}
}

func TestReporterService_Priority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	testhelpers.NewReporterBuilder().WithEmail("ana@example.com").WithTrustLevel(85).Create(t, env.db)

	tests := []struct {
		name     string
		email    string
		severity database.Severity
		want     int
	}{
		{"trusted high", "ana@example.com", database.SeverityHigh, 68},
		{"trusted critical", "ana@example.com", database.SeverityCritical, 98},
		{"unknown medium", "nobody@example.com", database.SeverityMedium, 30},
		{"unknown unset", "nobody@example.com", database.SeverityUnset, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := env.reporters.Priority(ctx, tt.email, tt.severity)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.PriorityScore != tt.want {
				t.Errorf("expected %d, got %d", tt.want, p.PriorityScore)
			}
		})
	}
}

func TestReporterService_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, email := range []string{"", "   ", "not-an-email"} {
		if _, err := env.reporters.RecordVerification(ctx, email); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("RecordVerification(%q): expected ErrInvalidInput, got %v", email, err)
		}
		if _, err := env.reporters.Priority(ctx, email, database.SeverityLow); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Priority(%q): expected ErrInvalidInput, got %v", email, err)
		}
	}
}
