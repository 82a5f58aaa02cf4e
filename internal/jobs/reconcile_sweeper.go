package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/services"
	"github.com/citywatch/citywatch/internal/severity"
)

// Reconciler re-derives and persists one report's severity, deadline and
// overdue state
type Reconciler interface {
	Reconcile(ctx context.Context, id string) (severity.Patch, error)
}

// ReconcileSweeper persists overdue transitions for reports nobody is looking
// at. Reads reconcile on their own; the sweep covers the rest.
type ReconcileSweeper struct {
	db         *gorm.DB
	reconciler Reconciler
}

// NewReconcileSweeper creates a new reconcile sweeper
func NewReconcileSweeper(db *gorm.DB, reconciler Reconciler) *ReconcileSweeper {
	return &ReconcileSweeper{db: db, reconciler: reconciler}
}

// Sweep reconciles every active report and returns how many changed
func (s *ReconcileSweeper) Sweep(ctx context.Context) (int, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&database.Incident{}).
		Where("status IN ?", database.ActiveStatuses()).
		Order("timestamp ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		patch, err := s.reconciler.Reconcile(ctx, id)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				continue
			}
			log.Printf("Failed to reconcile report %s: %v", id, err)
			continue
		}
		if !patch.Empty() {
			changed++
		}
	}
	return changed, nil
}

// Start begins the periodic sweep
func (s *ReconcileSweeper) Start(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			changed, err := s.Sweep(context.Background())
			if err != nil {
				log.Printf("Reconcile sweeper error: %v", err)
			} else if changed > 0 {
				log.Printf("Reconcile sweeper: updated %d reports", changed)
			}
		case <-stop:
			log.Println("Reconcile sweeper stopped")
			return
		}
	}
}
