package database

import "time"

// DuplicateSettings controls duplicate detection and the background scan
type DuplicateSettings struct {
	ID                         uint      `gorm:"primaryKey" json:"id"`
	ScanEnabled                bool      `gorm:"default:true" json:"scan_enabled"`
	RadiusMeters               float64   `gorm:"default:100" json:"radius_meters"`
	ProximityOverrideMeters    float64   `gorm:"default:20" json:"proximity_override_meters"`
	SimilarityThresholdPercent float64   `gorm:"default:30" json:"similarity_threshold_percent"`
	ScanIntervalMinutes        int       `gorm:"default:5" json:"scan_interval_minutes"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

func (DuplicateSettings) TableName() string {
	return "duplicate_settings"
}

// NewDefaultDuplicateSettings returns settings with default values
func NewDefaultDuplicateSettings() *DuplicateSettings {
	return &DuplicateSettings{
		ScanEnabled:                true,
		RadiusMeters:               100,
		ProximityOverrideMeters:    20,
		SimilarityThresholdPercent: 30,
		ScanIntervalMinutes:        5,
	}
}
