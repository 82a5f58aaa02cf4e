package database

import "testing"

func TestIncidentMerge_TableName(t *testing.T) {
	im := IncidentMerge{}
	if im.TableName() != "incident_merges" {
		t.Errorf("expected table name 'incident_merges', got '%s'", im.TableName())
	}
}

func TestIncidentMerge_Persist(t *testing.T) {
	db := setupTestDB(t)

	rows := []IncidentMerge{
		{SourceIncidentID: "s1", TargetIncidentID: "t1", MergedBy: "clerk", MergeReason: "duplicate"},
		{SourceIncidentID: "s2", TargetIncidentID: "t1", MergedBy: "clerk"},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	db.Model(&IncidentMerge{}).Where("target_incident_id = ?", "t1").Count(&count)
	if count != 2 {
		t.Errorf("expected 2 merge rows for target, got %d", count)
	}
}
