package database

import "time"

// IncidentMerge tracks when reports are merged together.
// One row is written per source report folded into a target.
type IncidentMerge struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SourceIncidentID string    `gorm:"size:36;not null;index" json:"sourceIncidentId"` // The report that was merged away
	TargetIncidentID string    `gorm:"size:36;not null;index" json:"targetIncidentId"` // The primary report that absorbed the source
	MergeReason      string    `gorm:"type:text" json:"mergeReason"`
	MergedBy         string    `gorm:"type:varchar(255);not null" json:"mergedBy"` // 'system' for scheduled merges, or the staff username
	CreatedAt        time.Time `json:"createdAt"`
}

func (IncidentMerge) TableName() string {
	return "incident_merges"
}
