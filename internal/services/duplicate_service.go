package services

import (
	"context"
	"log"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/duplicates"
	"gorm.io/gorm"
)

// DuplicateService finds duplicate reports among the active fleet
type DuplicateService struct {
	db *gorm.DB
}

// NewDuplicateService creates a new duplicate service
func NewDuplicateService(db *gorm.DB) *DuplicateService {
	return &DuplicateService{db: db}
}

// GetActiveIncidents returns all non-terminal reports, oldest first
func (s *DuplicateService) GetActiveIncidents(ctx context.Context) ([]database.Incident, error) {
	var incidents []database.Incident
	err := s.db.WithContext(ctx).
		Where("status IN ?", database.ActiveStatuses()).
		Order("timestamp ASC").
		Find(&incidents).Error
	if err != nil {
		return nil, storeError("get active reports", err)
	}
	return incidents, nil
}

// GetSettings returns duplicate settings (creates defaults if not exists)
func (s *DuplicateService) GetSettings(ctx context.Context) (*database.DuplicateSettings, error) {
	settings, err := database.GetOrCreateDuplicateSettings(s.db.WithContext(ctx))
	if err != nil {
		return nil, storeError("get duplicate settings", err)
	}
	return settings, nil
}

// Criteria returns the thresholds from stored settings. A store failure
// falls back to the defaults so detection keeps working.
func (s *DuplicateService) Criteria(ctx context.Context) duplicates.Criteria {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		log.Printf("DuplicateService: using default criteria: %v", err)
		return duplicates.DefaultCriteria()
	}
	return duplicates.CriteriaFromSettings(settings)
}

// ValidateSettings checks threshold ranges
func ValidateSettings(settings *database.DuplicateSettings) error {
	switch {
	case settings.RadiusMeters <= 0:
		return invalidInput("radius_meters must be positive")
	case settings.ProximityOverrideMeters <= 0:
		return invalidInput("proximity_override_meters must be positive")
	case settings.ProximityOverrideMeters > settings.RadiusMeters:
		return invalidInput("proximity_override_meters must not exceed radius_meters")
	case settings.SimilarityThresholdPercent <= 0 || settings.SimilarityThresholdPercent > 100:
		return invalidInput("similarity_threshold_percent must be in (0, 100]")
	case settings.ScanIntervalMinutes < 1:
		return invalidInput("scan_interval_minutes must be at least 1")
	}
	return nil
}

// UpdateSettings validates and stores duplicate settings
func (s *DuplicateService) UpdateSettings(ctx context.Context, settings *database.DuplicateSettings) (*database.DuplicateSettings, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	current, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings.ID = current.ID
	settings.CreatedAt = current.CreatedAt
	if err := database.UpdateDuplicateSettings(s.db.WithContext(ctx), settings); err != nil {
		return nil, storeError("update duplicate settings", err)
	}
	log.Printf("DuplicateService: settings updated (radius=%.0fm override=%.0fm similarity=%.0f%% scan=%v every %dm)",
		settings.RadiusMeters, settings.ProximityOverrideMeters, settings.SimilarityThresholdPercent,
		settings.ScanEnabled, settings.ScanIntervalMinutes)
	return settings, nil
}

// FindCandidates returns the active reports that could be merged into id,
// nearest first
func (s *DuplicateService) FindCandidates(ctx context.Context, id string) (*database.Incident, []duplicates.Candidate, error) {
	if id == "" {
		return nil, nil, invalidInput("report id is required")
	}
	var incident database.Incident
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&incident).Error; err != nil {
		return nil, nil, storeError("get report "+id, err)
	}
	pool, err := s.GetActiveIncidents(ctx)
	if err != nil {
		return nil, nil, err
	}
	candidates := duplicates.FindDuplicateCandidates(&incident, pool, s.Criteria(ctx))
	if candidates == nil {
		candidates = []duplicates.Candidate{}
	}
	return &incident, candidates, nil
}

// ScanGroups clusters every active report into duplicate groups
func (s *DuplicateService) ScanGroups(ctx context.Context) ([]duplicates.Group, error) {
	pool, err := s.GetActiveIncidents(ctx)
	if err != nil {
		return nil, err
	}
	groups := duplicates.ScanAllDuplicateGroups(pool, s.Criteria(ctx))
	if groups == nil {
		groups = []duplicates.Group{}
	}
	return groups, nil
}
