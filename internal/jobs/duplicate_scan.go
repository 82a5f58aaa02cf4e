package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/duplicates"
	"github.com/citywatch/citywatch/internal/events"
)

// DuplicateScanner is the part of the duplicate service the scan job needs
type DuplicateScanner interface {
	GetSettings(ctx context.Context) (*database.DuplicateSettings, error)
	ScanGroups(ctx context.Context) ([]duplicates.Group, error)
}

// ScanResult is the outcome of the most recent duplicate scan
type ScanResult struct {
	Groups    []duplicates.Group `json:"groups"`
	ScannedAt time.Time          `json:"scannedAt"`
}

// DuplicateScanJob periodically clusters active reports into duplicate
// groups for staff review. It never merges on its own.
type DuplicateScanJob struct {
	scanner DuplicateScanner
	now     func() time.Time

	mu     sync.RWMutex
	latest *ScanResult
}

// NewDuplicateScanJob creates a new duplicate scan job
func NewDuplicateScanJob(scanner DuplicateScanner) *DuplicateScanJob {
	return &DuplicateScanJob{scanner: scanner, now: time.Now}
}

// Run executes one scan. Returns the number of groups found.
func (j *DuplicateScanJob) Run(ctx context.Context) (int, error) {
	settings, err := j.scanner.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	if !settings.ScanEnabled {
		log.Println("Duplicate scan is disabled, skipping")
		return 0, nil
	}

	groups, err := j.scanner.ScanGroups(ctx)
	if err != nil {
		return 0, err
	}

	j.mu.Lock()
	j.latest = &ScanResult{Groups: groups, ScannedAt: j.now().UTC()}
	j.mu.Unlock()

	for _, g := range groups {
		log.Printf("Duplicate group: %s has %d likely duplicates", g.Primary.ID, len(g.Duplicates))
	}
	return len(groups), nil
}

// Latest returns the most recent scan, or nil before the first one
func (j *DuplicateScanJob) Latest() *ScanResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.latest
}

// Publish prunes reports that left the active set from the snapshot, so
// merged or completed reports stop showing before the next scan.
func (j *DuplicateScanJob) Publish(e events.Event) {
	gone := make(map[string]bool)
	switch e.Type {
	case events.IncidentsMerged:
		merged, _ := e.Data["merged"].([]string)
		for _, id := range merged {
			gone[id] = true
		}
	case events.IncidentCompleted:
		gone[e.IncidentID] = true
	default:
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.latest == nil || len(gone) == 0 {
		return
	}
	j.latest = pruneGroups(j.latest, gone)
}

// pruneGroups returns a copy of r without the gone reports. Groups left
// with no duplicates are dropped.
func pruneGroups(r *ScanResult, gone map[string]bool) *ScanResult {
	out := &ScanResult{Groups: make([]duplicates.Group, 0, len(r.Groups)), ScannedAt: r.ScannedAt}
	for _, g := range r.Groups {
		if g.Primary == nil || gone[g.Primary.ID] {
			continue
		}
		dups := make([]duplicates.Candidate, 0, len(g.Duplicates))
		for _, c := range g.Duplicates {
			if c.Incident != nil && !gone[c.Incident.ID] {
				dups = append(dups, c)
			}
		}
		if len(dups) > 0 {
			out.Groups = append(out.Groups, duplicates.Group{Primary: g.Primary, Duplicates: dups})
		}
	}
	return out
}

func scanInterval(settings *database.DuplicateSettings) time.Duration {
	minutes := settings.ScanIntervalMinutes
	if minutes < 1 {
		minutes = database.NewDefaultDuplicateSettings().ScanIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// Start begins the periodic scan
func (j *DuplicateScanJob) Start(stop <-chan struct{}) {
	ctx := context.Background()
	settings, err := j.scanner.GetSettings(ctx)
	if err != nil {
		log.Printf("Failed to get duplicate scan settings, using default interval: %v", err)
		settings = database.NewDefaultDuplicateSettings()
	}

	interval := scanInterval(settings)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			groups, err := j.Run(ctx)
			if err != nil {
				log.Printf("Duplicate scan error: %v", err)
			} else if groups > 0 {
				log.Printf("Duplicate scan: found %d groups", groups)
			}

			// Refresh interval from settings (in case it changed)
			newSettings, err := j.scanner.GetSettings(ctx)
			if err == nil && scanInterval(newSettings) != interval {
				interval = scanInterval(newSettings)
				ticker.Reset(interval)
				log.Printf("Duplicate scan interval updated to %d minutes", newSettings.ScanIntervalMinutes)
			}

		case <-stop:
			log.Println("Duplicate scan job stopped")
			return
		}
	}
}
