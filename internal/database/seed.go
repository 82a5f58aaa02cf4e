package database

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// incidentTypesFile is the on-disk shape of the catalog seed
type incidentTypesFile struct {
	IncidentTypes []IncidentTypeConfig `yaml:"incident_types"`
}

// DefaultIncidentTypes is the catalog installed on a fresh database
func DefaultIncidentTypes() []IncidentTypeConfig {
	return []IncidentTypeConfig{
		{Name: "Pothole", Severity: SeverityMedium, Description: "Road surface damage"},
		{Name: "Road Damage", Severity: SeverityMedium, Description: "Cracked or collapsed road"},
		{Name: "Streetlight Out", Severity: SeverityLow, Description: "Broken or dark street light"},
		{Name: "Graffiti", Severity: SeverityLow, Description: "Vandalism on public property"},
		{Name: "Illegal Dumping", Severity: SeverityMedium, Description: "Waste left on public land"},
		{Name: "Fallen Tree", Severity: SeverityHigh, Description: "Tree blocking road or sidewalk"},
		{Name: "Flooding", Severity: SeverityHigh, Description: "Standing water or blocked drains"},
		{Name: "Traffic Signal Failure", Severity: SeverityCritical, Description: "Signal dark or stuck"},
		{Name: "Water Main Break", Severity: SeverityCritical, Description: "Burst water main"},
	}
}

// ParseIncidentTypes decodes a YAML catalog and validates every entry
func ParseIncidentTypes(data []byte) ([]IncidentTypeConfig, error) {
	var file incidentTypesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse incident types: %w", err)
	}

	seen := make(map[string]bool, len(file.IncidentTypes))
	types := make([]IncidentTypeConfig, 0, len(file.IncidentTypes))
	for i, t := range file.IncidentTypes {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("incident type %d has no name", i)
		}
		sev, ok := ParseSeverity(string(t.Severity))
		if !ok {
			return nil, fmt.Errorf("incident type %q has invalid severity %q", t.Name, t.Severity)
		}
		key := strings.ToLower(t.Name)
		if seen[key] {
			return nil, fmt.Errorf("incident type %q is listed twice", t.Name)
		}
		seen[key] = true
		t.Severity = sev
		types = append(types, t)
	}
	return types, nil
}

// LoadIncidentTypesFile reads a YAML catalog from disk
func LoadIncidentTypesFile(path string) ([]IncidentTypeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseIncidentTypes(data)
}

// SeedIncidentTypes inserts catalog entries whose name is not yet present.
// Existing entries are left alone so staff edits survive restarts.
func SeedIncidentTypes(db *gorm.DB, types []IncidentTypeConfig) (int, error) {
	created := 0
	for _, t := range types {
		var count int64
		if err := db.Model(&IncidentTypeConfig{}).Where("LOWER(name) = ?", strings.ToLower(t.Name)).Count(&count).Error; err != nil {
			return created, err
		}
		if count > 0 {
			continue
		}
		entry := IncidentTypeConfig{Name: t.Name, Severity: t.Severity, Description: t.Description}
		if err := db.Create(&entry).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
