package severity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/citywatch/citywatch/internal/cache"
	"github.com/citywatch/citywatch/internal/database"
	"gorm.io/gorm"
)

// DefaultCatalogTTL is how long a catalog snapshot is served before refetching
const DefaultCatalogTTL = 5 * time.Minute

const snapshotKey = "incident_types"

const staleRetryInterval = 30 * time.Second

// ErrCatalogUnavailable is returned when the catalog source cannot be read
var ErrCatalogUnavailable = errors.New("incident type catalog unavailable")

// Catalog resolves an incident type name to its configured severity
type Catalog interface {
	Lookup(ctx context.Context, typeName string) (database.Severity, bool)
}

// Source loads the full incident type catalog from its system of record
type Source interface {
	LoadIncidentTypes(ctx context.Context) ([]database.IncidentTypeConfig, error)
}

// Snapshot maps lowercased type names to severities
type Snapshot map[string]database.Severity

// CatalogCache serves the incident type catalog from a TTL'd snapshot that
// is rebuilt wholesale from the source on miss.
type CatalogCache struct {
	source Source
	cache  *cache.Cache

	// refreshMu serializes refreshes; lookups never wait on it
	refreshMu sync.Mutex
}

// NewCatalogCache creates a catalog cache. ttl <= 0 uses DefaultCatalogTTL
// and a nil clock uses the wall clock.
func NewCatalogCache(source Source, ttl time.Duration, clock cache.Clock) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{
		source: source,
		cache:  cache.New(ttl, 0, clock),
	}
}

// Get returns the current snapshot, refreshing it when expired. If the source
// fails the last known snapshot is returned alongside the error.
func (c *CatalogCache) Get(ctx context.Context) (Snapshot, error) {
	if v, ok := c.cache.Get(snapshotKey); ok {
		return v.(Snapshot), nil
	}

	snap, err := c.refresh(ctx)
	if err != nil {
		if v, ok := c.cache.GetStale(snapshotKey); ok {
			// keep serving the old snapshot and retry the source later
			c.cache.SetWithTTL(snapshotKey, v, staleRetryInterval)
			return v.(Snapshot), err
		}
		return nil, err
	}
	return snap, nil
}

// Refresh rebuilds the snapshot from the source
func (c *CatalogCache) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

func (c *CatalogCache) refresh(ctx context.Context) (Snapshot, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	types, err := c.source.LoadIncidentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load incident types: %v", ErrCatalogUnavailable, err)
	}

	snap := make(Snapshot, len(types))
	for _, t := range types {
		sev, ok := database.ParseSeverity(string(t.Severity))
		if !ok {
			log.Printf("CatalogCache: ignoring incident type %q with invalid severity %q", t.Name, t.Severity)
			continue
		}
		snap[normalizeName(t.Name)] = sev
	}

	c.cache.Set(snapshotKey, snap)
	return snap, nil
}

// Invalidate drops the snapshot so the next lookup refetches
func (c *CatalogCache) Invalidate() {
	c.cache.Delete(snapshotKey)
}

// Lookup implements Catalog
func (c *CatalogCache) Lookup(ctx context.Context, typeName string) (database.Severity, bool) {
	snap, err := c.Get(ctx)
	if err != nil {
		log.Printf("CatalogCache: serving %s catalog: %v", staleLabel(snap), err)
	}
	if snap == nil {
		return database.SeverityUnset, false
	}
	sev, ok := snap[normalizeName(typeName)]
	return sev, ok
}

func staleLabel(snap Snapshot) string {
	if snap == nil {
		return "empty"
	}
	return "stale"
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GormSource reads the catalog from the incident_types table
type GormSource struct {
	db *gorm.DB
}

// NewGormSource creates a catalog source backed by the database
func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

// LoadIncidentTypes implements Source
func (s *GormSource) LoadIncidentTypes(ctx context.Context) ([]database.IncidentTypeConfig, error) {
	var types []database.IncidentTypeConfig
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// StaticCatalog is a fixed in-memory catalog
type StaticCatalog map[string]database.Severity

// Lookup implements Catalog
func (s StaticCatalog) Lookup(_ context.Context, typeName string) (database.Severity, bool) {
	target := normalizeName(typeName)
	for name, sev := range s {
		if normalizeName(name) == target {
			return sev, true
		}
	}
	return database.SeverityUnset, false
}
