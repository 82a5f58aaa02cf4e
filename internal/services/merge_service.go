package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/events"
	"gorm.io/gorm"
)

// maxMergeChain bounds how many mergedInto hops Resolve follows
const maxMergeChain = 32

// MergeBanner separates a source report's description inside its target
func MergeBanner(sourceID string) string {
	return fmt.Sprintf("--- Merged from report %s ---", sourceID)
}

// MergeOutcome is the result of a merge batch
type MergeOutcome struct {
	Target   *database.Incident `json:"target"`
	Merged   []string           `json:"merged"`
	MergedAt time.Time          `json:"mergedAt"`
}

// MergeService folds duplicate reports into a primary report.
//
// There is no transaction spanning reports: the target is written first,
// then each source on its own. A failed source leaves that source untouched,
// is folded back out of the target and is reported back so the caller can
// retry just that id.
type MergeService struct {
	db     *gorm.DB
	events events.Publisher
	now    func() time.Time
}

// NewMergeService creates a new merge service
func NewMergeService(db *gorm.DB, publisher events.Publisher) *MergeService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &MergeService{db: db, events: publisher, now: time.Now}
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// MergeIncidents merges sourceIDs into targetID. When some sources fail the
// outcome is still returned together with a *PartialFailureError.
func (s *MergeService) MergeIncidents(ctx context.Context, targetID string, sourceIDs []string, mergedBy string) (*MergeOutcome, error) {
	sourceIDs = dedupeIDs(sourceIDs)
	if strings.TrimSpace(targetID) == "" {
		return nil, invalidInput("target report id is required")
	}
	if len(sourceIDs) == 0 {
		return nil, invalidInput("at least one source report is required")
	}
	if mergedBy == "" {
		mergedBy = "system"
	}

	db := s.db.WithContext(ctx)

	var target database.Incident
	if err := db.Where("id = ?", targetID).First(&target).Error; err != nil {
		return nil, storeError("get merge target "+targetID, err)
	}
	if target.Status.IsTerminal() {
		return nil, invalidInput("cannot merge into a %s report", target.Status)
	}

	var found []database.Incident
	if err := db.Where("id IN ?", sourceIDs).Find(&found).Error; err != nil {
		return nil, storeError("get merge sources", err)
	}
	byID := make(map[string]*database.Incident, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	failed := make(map[string]error)
	var sources []*database.Incident
	for _, id := range sourceIDs {
		src, ok := byID[id]
		switch {
		case id == targetID:
			failed[id] = invalidInput("a report cannot be merged into itself")
		case !ok:
			failed[id] = fmt.Errorf("get merge source %s: %w", id, ErrNotFound)
		case src.Status == database.IncidentStatusMerged:
			failed[id] = invalidInput("report %s is already merged into %s", id, src.MergedInto)
		case src.Status == database.IncidentStatusCompleted:
			failed[id] = invalidInput("report %s is completed", id)
		default:
			sources = append(sources, src)
		}
	}

	now := s.now().UTC()
	outcome := &MergeOutcome{Target: &target, Merged: []string{}, MergedAt: now}

	original := target
	if len(sources) > 0 {
		updated := foldSources(original, sources, now)
		if err := s.writeTarget(ctx, &updated); err != nil {
			return nil, err
		}
		target = updated
	}

	var succeeded []*database.Incident
	for _, src := range sources {
		if err := s.mergeSource(ctx, src, targetID, mergedBy, now); err != nil {
			log.Printf("MergeService: failed to merge %s into %s: %v", src.ID, targetID, err)
			failed[src.ID] = err
			continue
		}
		succeeded = append(succeeded, src)
		outcome.Merged = append(outcome.Merged, src.ID)
	}

	// Sources that did not merge are folded back out of the target
	if len(succeeded) < len(sources) {
		compensated := foldSources(original, succeeded, now)
		if err := s.writeTarget(ctx, &compensated); err != nil {
			log.Printf("MergeService: failed to remove unmerged sources from %s: %v", targetID, err)
		} else {
			target = compensated
		}
	}

	if len(outcome.Merged) > 0 {
		log.Printf("MergeService: merged %d reports into %s (by %s)", len(outcome.Merged), targetID, mergedBy)
		s.events.Publish(events.Event{
			Type:       events.IncidentsMerged,
			IncidentID: targetID,
			Incident:   &target,
			Data:       map[string]interface{}{"merged": outcome.Merged},
			At:         now,
		})
	}

	if len(failed) > 0 {
		return outcome, &PartialFailureError{TargetID: targetID, Merged: outcome.Merged, Failed: failed}
	}
	return outcome, nil
}

// foldSources returns target with each source's entry, description and media
// appended. Sources already listed in mergedReports are skipped so a retry
// does not repeat their content.
func foldSources(target database.Incident, sources []*database.Incident, now time.Time) database.Incident {
	merged := append(database.MergedReportList{}, target.MergedReports...)
	media := append(database.StringList{}, target.MediaURLs...)
	var desc strings.Builder
	desc.WriteString(target.Description)

	for _, src := range sources {
		if merged.Contains(src.ID) {
			continue
		}
		merged = append(merged, database.MergedReport{ID: src.ID, Timestamp: src.Timestamp, MergedAt: now})

		if desc.Len() > 0 {
			desc.WriteString("\n\n")
		}
		desc.WriteString(MergeBanner(src.ID))
		if src.Description != "" {
			desc.WriteString("\n")
			desc.WriteString(src.Description)
		}

		media = append(media, src.MediaURLs...)
	}

	target.MergedReports = merged
	target.MediaURLs = media
	target.Description = desc.String()
	return target
}

func (s *MergeService) writeTarget(ctx context.Context, target *database.Incident) error {
	res := s.db.WithContext(ctx).Model(&database.Incident{}).Where("id = ?", target.ID).Updates(map[string]interface{}{
		"merged_reports": target.MergedReports,
		"description":    target.Description,
		"media_urls":     target.MediaURLs,
	})
	if res.Error != nil {
		return storeError("update merge target "+target.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return storeError("update merge target "+target.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// mergeSource marks one source as merged and writes its audit row. The status
// guard keeps a concurrently merged or completed source from being rewritten.
func (s *MergeService) mergeSource(ctx context.Context, src *database.Incident, targetID, mergedBy string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&database.Incident{}).
			Where("id = ? AND status IN ?", src.ID, database.ActiveStatuses()).
			Updates(map[string]interface{}{
				"status":      database.IncidentStatusMerged,
				"merged_into": targetID,
				"merged_at":   now,
				"is_overdue":  false,
			})
		if res.Error != nil {
			return storeError("update merge source "+src.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return storeError("update merge source "+src.ID, gorm.ErrRecordNotFound)
		}

		audit := &database.IncidentMerge{
			SourceIncidentID: src.ID,
			TargetIncidentID: targetID,
			MergeReason:      "duplicate report",
			MergedBy:         mergedBy,
		}
		if err := tx.Create(audit).Error; err != nil {
			return storeError("record merge "+src.ID, err)
		}
		return nil
	})
}

// Resolve follows mergedInto from id to the report that absorbed it.
// Unmerged reports resolve to themselves.
func (s *MergeService) Resolve(ctx context.Context, id string) (*database.Incident, error) {
	var current database.Incident
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&current).Error; err != nil {
		return nil, storeError("get report "+id, err)
	}

	seen := map[string]bool{current.ID: true}
	for hops := 0; current.MergedInto != "" && hops < maxMergeChain; hops++ {
		if seen[current.MergedInto] {
			log.Printf("MergeService: merge chain from %s loops at %s", id, current.MergedInto)
			break
		}
		var next database.Incident
		if err := s.db.WithContext(ctx).Where("id = ?", current.MergedInto).First(&next).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				log.Printf("MergeService: report %s points at missing target %s", current.ID, current.MergedInto)
				break
			}
			return nil, storeError("resolve merge chain", err)
		}
		seen[next.ID] = true
		current = next
	}
	return &current, nil
}

// MergeHistory returns the audit rows for merges into targetID, oldest first
func (s *MergeService) MergeHistory(ctx context.Context, targetID string) ([]database.IncidentMerge, error) {
	var rows []database.IncidentMerge
	err := s.db.WithContext(ctx).Where("target_incident_id = ?", targetID).Order("created_at ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, storeError("get merge history", err)
	}
	return rows, nil
}
