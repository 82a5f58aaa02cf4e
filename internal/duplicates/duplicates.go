// Package duplicates finds reports that likely describe the same civic issue.
// Everything here is pure: callers fetch the pool, this package classifies it.
package duplicates

import (
	"sort"
	"strings"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/geo"
	"github.com/citywatch/citywatch/internal/textsim"
)

// Criteria are the thresholds a pair of reports must meet to be duplicates
type Criteria struct {
	RadiusMeters            float64 `json:"radiusMeters"`
	ProximityOverrideMeters float64 `json:"proximityOverrideMeters"`
	SimilarityPercent       float64 `json:"similarityPercent"`
}

// DefaultCriteria returns the standard 100m radius, 20m override and 30% similarity
func DefaultCriteria() Criteria {
	return Criteria{
		RadiusMeters:            100,
		ProximityOverrideMeters: 20,
		SimilarityPercent:       textsim.DefaultThresholdPercent,
	}
}

// CriteriaFromSettings builds criteria from stored settings, falling back to
// defaults for unset values
func CriteriaFromSettings(s *database.DuplicateSettings) Criteria {
	c := DefaultCriteria()
	if s == nil {
		return c
	}
	if s.RadiusMeters > 0 {
		c.RadiusMeters = s.RadiusMeters
	}
	if s.ProximityOverrideMeters > 0 {
		c.ProximityOverrideMeters = s.ProximityOverrideMeters
	}
	if s.SimilarityThresholdPercent > 0 {
		c.SimilarityPercent = s.SimilarityThresholdPercent
	}
	return c
}

// Match explains why a pair qualified
type Match struct {
	DistanceMeters     float64 `json:"distanceMeters"`
	SameType           bool    `json:"sameType"`
	SimilarDescription bool    `json:"similarDescription"`
	ProximityOverride  bool    `json:"proximityOverride"`
}

// Evaluate reports whether b is a duplicate candidate of a.
// b must differ from a, must not be merged, and both must carry coordinates.
// Within the override distance nothing else is checked; otherwise b must be
// within the radius and share the trimmed type or have a similar description.
func Evaluate(a, b *database.Incident, c Criteria) (Match, bool) {
	if a == nil || b == nil || a.ID == b.ID || b.Status == database.IncidentStatusMerged {
		return Match{}, false
	}

	pa, ok := geo.PointFrom(a.Latitude, a.Longitude)
	if !ok {
		return Match{}, false
	}
	pb, ok := geo.PointFrom(b.Latitude, b.Longitude)
	if !ok {
		return Match{}, false
	}

	m := Match{DistanceMeters: pa.DistanceMeters(pb)}
	if m.DistanceMeters < c.ProximityOverrideMeters {
		m.ProximityOverride = true
		m.SameType = sameType(a.IncidentType, b.IncidentType)
		m.SimilarDescription = textsim.SimilarWithThreshold(a.Description, b.Description, c.SimilarityPercent)
		return m, true
	}
	if m.DistanceMeters > c.RadiusMeters {
		return Match{}, false
	}

	m.SameType = sameType(a.IncidentType, b.IncidentType)
	if !m.SameType {
		m.SimilarDescription = textsim.SimilarWithThreshold(a.Description, b.Description, c.SimilarityPercent)
	}
	if !m.SameType && !m.SimilarDescription {
		return Match{}, false
	}
	return m, true
}

// IsCandidate reports whether b is a duplicate candidate of a
func IsCandidate(a, b *database.Incident, c Criteria) bool {
	_, ok := Evaluate(a, b, c)
	return ok
}

func sameType(t1, t2 string) bool {
	t1 = strings.TrimSpace(t1)
	return t1 != "" && t1 == strings.TrimSpace(t2)
}

// Candidate is a report proposed for merging into another
type Candidate struct {
	Incident           *database.Incident `json:"incident"`
	DistanceMeters     float64            `json:"distanceMeters"`
	SameType           bool               `json:"sameType"`
	SimilarDescription bool               `json:"similarDescription"`
	ProximityOverride  bool               `json:"proximityOverride"`
	Preselected        bool               `json:"preselected"`
}

func newCandidate(inc *database.Incident, m Match) Candidate {
	return Candidate{
		Incident:           inc,
		DistanceMeters:     m.DistanceMeters,
		SameType:           m.SameType,
		SimilarDescription: m.SimilarDescription,
		ProximityOverride:  m.ProximityOverride,
		Preselected:        true,
	}
}

// FindDuplicateCandidates returns the active reports in pool that are
// candidates to merge into incident, nearest first. All are preselected.
func FindDuplicateCandidates(incident *database.Incident, pool []database.Incident, c Criteria) []Candidate {
	var candidates []Candidate
	for i := range pool {
		other := &pool[i]
		if other.Status.IsTerminal() {
			continue
		}
		if m, ok := Evaluate(incident, other, c); ok {
			candidates = append(candidates, newCandidate(other, m))
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})
	return candidates
}

// Group is a primary report and the later reports that duplicate it
type Group struct {
	Primary    *database.Incident `json:"primary"`
	Duplicates []Candidate        `json:"duplicates"`
}

// ScanAllDuplicateGroups clusters the active reports in pool. Reports are
// visited oldest first; each unclaimed report claims every later unclaimed
// candidate. A report lands in at most one group.
//
// This compares every pair and is meant for active fleets in the hundreds.
func ScanAllDuplicateGroups(pool []database.Incident, c Criteria) []Group {
	active := make([]*database.Incident, 0, len(pool))
	for i := range pool {
		if !pool[i].Status.IsTerminal() {
			active = append(active, &pool[i])
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Timestamp.Equal(active[j].Timestamp) {
			return active[i].ID < active[j].ID
		}
		return active[i].Timestamp.Before(active[j].Timestamp)
	})

	processed := make([]bool, len(active))
	var groups []Group
	for i, primary := range active {
		if processed[i] {
			continue
		}
		var dups []Candidate
		for j := i + 1; j < len(active); j++ {
			if processed[j] {
				continue
			}
			if m, ok := Evaluate(primary, active[j], c); ok {
				dups = append(dups, newCandidate(active[j], m))
				processed[j] = true
			}
		}
		processed[i] = true
		if len(dups) > 0 {
			groups = append(groups, Group{Primary: primary, Duplicates: dups})
		}
	}
	return groups
}
