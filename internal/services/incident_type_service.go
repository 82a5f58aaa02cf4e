package services

import (
	"context"
	"log"
	"strings"

	"github.com/citywatch/citywatch/internal/database"
	"gorm.io/gorm"
)

// CatalogInvalidator is told when the incident type catalog changes
type CatalogInvalidator interface {
	Invalidate()
}

// IncidentTypeService manages the incident type catalog
type IncidentTypeService struct {
	db      *gorm.DB
	catalog CatalogInvalidator
}

// NewIncidentTypeService creates a new incident type service. catalog may be nil.
func NewIncidentTypeService(db *gorm.DB, catalog CatalogInvalidator) *IncidentTypeService {
	return &IncidentTypeService{db: db, catalog: catalog}
}

func (s *IncidentTypeService) invalidate() {
	if s.catalog != nil {
		s.catalog.Invalidate()
	}
}

// List returns the catalog ordered by name
func (s *IncidentTypeService) List(ctx context.Context) ([]database.IncidentTypeConfig, error) {
	var types []database.IncidentTypeConfig
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, storeError("list incident types", err)
	}
	return types, nil
}

// Upsert creates the named type or changes its severity and description
func (s *IncidentTypeService) Upsert(ctx context.Context, name string, severity string, description string) (*database.IncidentTypeConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("incident type name is required")
	}
	sev, ok := database.ParseSeverity(severity)
	if !ok {
		return nil, invalidInput("severity %q is not one of Low, Medium, High, Critical", severity)
	}

	var t database.IncidentTypeConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("LOWER(name) = ?", strings.ToLower(name)).First(&t).Error
		if err == gorm.ErrRecordNotFound {
			t = database.IncidentTypeConfig{Name: name, Severity: sev, Description: description}
			return tx.Create(&t).Error
		}
		if err != nil {
			return err
		}
		t.Severity = sev
		t.Description = description
		return tx.Save(&t).Error
	})
	if err != nil {
		return nil, storeError("save incident type", err)
	}

	log.Printf("IncidentTypeService: %s set to %s", t.Name, t.Severity)
	s.invalidate()
	return &t, nil
}

// Delete removes the named type. Reports of that type fall back to Medium.
func (s *IncidentTypeService) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidInput("incident type name is required")
	}
	res := s.db.WithContext(ctx).Where("LOWER(name) = ?", strings.ToLower(name)).Delete(&database.IncidentTypeConfig{})
	if res.Error != nil {
		return storeError("delete incident type", res.Error)
	}
	if res.RowsAffected == 0 {
		return storeError("delete incident type "+name, gorm.ErrRecordNotFound)
	}
	log.Printf("IncidentTypeService: %s deleted", name)
	s.invalidate()
	return nil
}
