package database

import "testing"

func TestDuplicateSettings_TableName(t *testing.T) {
	ds := DuplicateSettings{}
	if ds.TableName() != "duplicate_settings" {
		t.Errorf("expected table name 'duplicate_settings', got '%s'", ds.TableName())
	}
}

func TestDuplicateSettings_Defaults(t *testing.T) {
	ds := NewDefaultDuplicateSettings()

	if !ds.ScanEnabled {
		t.Error("expected ScanEnabled to be true by default")
	}
	if ds.RadiusMeters != 100 {
		t.Errorf("expected RadiusMeters 100, got %f", ds.RadiusMeters)
	}
	if ds.ProximityOverrideMeters != 20 {
		t.Errorf("expected ProximityOverrideMeters 20, got %f", ds.ProximityOverrideMeters)
	}
	if ds.SimilarityThresholdPercent != 30 {
		t.Errorf("expected SimilarityThresholdPercent 30, got %f", ds.SimilarityThresholdPercent)
	}
	if ds.ScanIntervalMinutes != 5 {
		t.Errorf("expected ScanIntervalMinutes 5, got %d", ds.ScanIntervalMinutes)
	}
}

func TestGetOrCreateDuplicateSettings(t *testing.T) {
	db := setupTestDB(t)

	first, err := GetOrCreateDuplicateSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected settings row to be created")
	}

	first.RadiusMeters = 150
	if err := UpdateDuplicateSettings(db, first); err != nil {
		t.Fatalf("unexpected error updating settings: %v", err)
	}

	second, err := GetOrCreateDuplicateSettings(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected singleton row %d, got %d", first.ID, second.ID)
	}
	if second.RadiusMeters != 150 {
		t.Errorf("expected RadiusMeters 150, got %f", second.RadiusMeters)
	}
}
