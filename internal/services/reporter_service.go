package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/trust"
	"gorm.io/gorm"
)

// TrustUpdate describes the outcome of a trust event
type TrustUpdate struct {
	Email    string `json:"email"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Created  bool   `json:"created"`
}

// ReporterPriority is a reporter's trust and the priority it lends a severity
type ReporterPriority struct {
	Reporter      *database.Reporter `json:"reporter"`
	PriorityScore int                `json:"priorityScore"`
}

// ReporterService maintains reporter trust records
type ReporterService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewReporterService creates a new reporter service
func NewReporterService(db *gorm.DB) *ReporterService {
	return &ReporterService{db: db, now: time.Now}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", invalidInput("reporter email %q is not valid", email)
	}
	return email, nil
}

// GetByEmail returns the reporter record for email
func (s *ReporterService) GetByEmail(ctx context.Context, email string) (*database.Reporter, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	var r database.Reporter
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&r).Error; err != nil {
		return nil, storeError("get reporter", err)
	}
	return &r, nil
}

// Priority returns the reporter's trust and its priority for the given severity.
// Unknown reporters score as trust 0.
func (s *ReporterService) Priority(ctx context.Context, email string, severity database.Severity) (*ReporterPriority, error) {
	r, err := s.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		normalized, _ := normalizeEmail(email)
		r = &database.Reporter{Email: normalized}
	}
	return &ReporterPriority{Reporter: r, PriorityScore: trust.PriorityScore(r.TrustLevel, severity)}, nil
}

// RecordVerification credits a completed report to the reporter. New
// reporters start at the verified seed level; existing ones are rescored
// and receive the completion bonus.
func (s *ReporterService) RecordVerification(ctx context.Context, email string) (*TrustUpdate, error) {
	return s.record(ctx, email, func(r *database.Reporter, now time.Time) {
		r.VerifiedReports++
		if r.ReportCount == 0 {
			r.ReportCount = 1
		}
		r.TrustLevel = trust.LevelAfterVerification(r.ReportCount, r.VerifiedReports, r.FalseReports, r.CreatedAt, now)
	}, database.Reporter{ReportCount: 1, VerifiedReports: 1, TrustLevel: trust.SeedVerifiedLevel})
}

// RecordFalseReport penalizes the reporter for a report flagged as false
func (s *ReporterService) RecordFalseReport(ctx context.Context, email string) (*TrustUpdate, error) {
	return s.record(ctx, email, func(r *database.Reporter, now time.Time) {
		r.FalseReports++
		if r.ReportCount == 0 {
			r.ReportCount = 1
		}
		r.TrustLevel = trust.Level(r.ReportCount, r.VerifiedReports, r.FalseReports, r.CreatedAt, now)
	}, database.Reporter{ReportCount: 1, FalseReports: 1, TrustLevel: trust.SeedFalseReportLevel})
}

// RecordReport counts a newly filed report against an existing reporter.
// Records are only created by trust events, so unknown reporters are skipped.
func (s *ReporterService) RecordReport(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Model(&database.Reporter{}).
		Where("email = ?", email).
		Update("report_count", gorm.Expr("report_count + 1")).Error
	return storeError("record report", err)
}

func (s *ReporterService) record(ctx context.Context, email string, mutate func(*database.Reporter, time.Time), seed database.Reporter) (*TrustUpdate, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var update TrustUpdate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r database.Reporter
		err := tx.Where("email = ?", email).First(&r).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r = seed
			r.Email = email
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			update = TrustUpdate{Email: email, Previous: 0, Current: r.TrustLevel, Created: true}
			return nil
		}
		if err != nil {
			return err
		}

		previous := r.TrustLevel
		mutate(&r, now)
		if err := tx.Model(&database.Reporter{}).Where("id = ?", r.ID).Updates(map[string]interface{}{
			"trust_level":      r.TrustLevel,
			"report_count":     r.ReportCount,
			"verified_reports": r.VerifiedReports,
			"false_reports":    r.FalseReports,
		}).Error; err != nil {
			return err
		}
		update = TrustUpdate{Email: email, Previous: previous, Current: r.TrustLevel}
		return nil
	})
	if err != nil {
		return nil, storeError("record trust event", err)
	}
	return &update, nil
}
