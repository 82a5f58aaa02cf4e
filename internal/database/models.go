package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// scanJSON decodes a JSON column value; drivers hand back either []byte or string
func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// StringList is a JSON-encoded list of strings
type StringList []string

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	return scanJSON(value, l)
}

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// MergedReport records a report that was folded into a primary report
type MergedReport struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	MergedAt  time.Time `json:"mergedAt"`
}

// MergedReportList is a JSON-encoded list of merged report entries
type MergedReportList []MergedReport

// Scan implements the sql.Scanner interface
func (l *MergedReportList) Scan(value interface{}) error {
	if value == nil {
		*l = MergedReportList{}
		return nil
	}
	return scanJSON(value, l)
}

// Value implements the driver.Valuer interface
func (l MergedReportList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// Contains returns true if an entry for the given report ID exists
func (l MergedReportList) Contains(id string) bool {
	for _, m := range l {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Incident is a citizen-submitted report. JSON names are the persisted
// document contract shared with the console and must not change.
type Incident struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Location     string     `gorm:"type:text" json:"location"`
	LocationInfo string     `gorm:"type:text" json:"locationInfo"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	IncidentType string     `gorm:"size:255;index" json:"incidentType"`
	Description  string     `gorm:"type:text" json:"description"`
	MediaURLs    StringList `gorm:"column:media_urls;type:text" json:"mediaUrls"`

	Severity  Severity       `gorm:"size:16" json:"severity"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Deadline  *time.Time     `json:"deadline,omitempty"`
	Status    IncidentStatus `gorm:"size:32;not null;default:'New';index" json:"status"`
	IsOverdue bool           `gorm:"default:false" json:"isOverdue"`

	// Suspicious-report markers, independent of Status
	Flagged    bool       `gorm:"default:false;index" json:"flagged"`
	FlagReason string     `gorm:"size:64" json:"flagReason,omitempty"`
	FlagNotes  string     `gorm:"type:text" json:"flagNotes,omitempty"`
	FlagStatus FlagStatus `gorm:"size:32" json:"flagStatus,omitempty"`
	FlaggedAt  *time.Time `json:"flaggedAt,omitempty"`
	FlaggedBy  string     `gorm:"size:255" json:"flaggedBy,omitempty"`

	MergedInto    string           `gorm:"size:36;index" json:"mergedInto,omitempty"`
	MergedAt      *time.Time       `json:"mergedAt,omitempty"`
	MergedReports MergedReportList `gorm:"type:text" json:"mergedReports"`

	CompletedAt             *time.Time `json:"completedAt,omitempty"`
	ResolutionTimeHours     *float64   `json:"resolutionTimeHours,omitempty"`
	ResolutionTimeFormatted string     `gorm:"size:128" json:"resolutionTimeFormatted,omitempty"`

	ReporterName  string `gorm:"size:255" json:"reporterName"`
	ReporterEmail string `gorm:"size:255;index" json:"reporterEmail"`
	IsAnonymous   bool   `gorm:"default:false" json:"isAnonymous"`

	LastViewed   *time.Time `json:"lastViewed,omitempty"`
	LastViewedBy string     `gorm:"size:255" json:"lastViewedBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate hook to assign the opaque ID and creation stamp
func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
	if i.Status == "" {
		i.Status = IncidentStatusNew
	}
	return nil
}

// HasCoordinates returns true if the reporter shared a location
func (i *Incident) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// TracksReporter returns true if trust events apply to this report's reporter
func (i *Incident) TracksReporter() bool {
	return !i.IsAnonymous && i.ReporterEmail != ""
}

func (Incident) TableName() string {
	return "reports"
}

// IncidentTypeConfig maps an incident type name to its canonical severity
type IncidentTypeConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:128;not null" json:"name" yaml:"name"`
	Severity    Severity  `gorm:"size:16;not null" json:"severity" yaml:"severity"`
	Description string    `gorm:"type:text" json:"description" yaml:"description"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

func (IncidentTypeConfig) TableName() string {
	return "incident_types"
}

// Reporter tracks a citizen's report history for trust scoring
type Reporter struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	TrustLevel      int       `gorm:"default:0" json:"trustLevel"`
	ReportCount     int       `gorm:"default:0" json:"reportCount"`
	VerifiedReports int       `gorm:"default:0" json:"verifiedReports"`
	FalseReports    int       `gorm:"default:0" json:"falseReports"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (Reporter) TableName() string {
	return "reporters"
}
