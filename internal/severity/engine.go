package severity

import (
	"context"
	"strings"
	"time"

	"github.com/citywatch/citywatch/internal/database"
)

// DeadlineTolerance is how far a stored deadline may drift from the computed
// one before reconcile rewrites it
const DeadlineTolerance = time.Hour

// Timeframe returns the time allowed to resolve an incident of the given
// severity. Unset and unknown severities get the Medium timeframe.
func Timeframe(s database.Severity) time.Duration {
	switch s {
	case database.SeverityLow:
		return 168 * time.Hour
	case database.SeverityHigh:
		return 72 * time.Hour
	case database.SeverityCritical:
		return 24 * time.Hour
	default:
		return 120 * time.Hour
	}
}

// CalculateDeadline returns createdAt plus the severity timeframe, or nil
// when createdAt is absent
func CalculateDeadline(createdAt *time.Time, s database.Severity) *time.Time {
	if createdAt == nil || createdAt.IsZero() {
		return nil
	}
	d := createdAt.Add(Timeframe(s))
	return &d
}

// IsOverdue returns true if the deadline has passed and the status is not terminal
func IsOverdue(deadline *time.Time, status database.IncidentStatus, now time.Time) bool {
	if status.IsTerminal() || deadline == nil {
		return false
	}
	return now.After(*deadline)
}

// SplitTypes breaks a combined type label on , ; and / into trimmed names
func SplitTypes(incidentType string) []string {
	fields := strings.FieldsFunc(incidentType, func(r rune) bool {
		return r == ',' || r == ';' || r == '/'
	})
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	return names
}

// Engine derives severities, deadlines and overdue state for incidents
type Engine struct {
	catalog Catalog
}

// NewEngine creates an engine that resolves type severities through catalog
func NewEngine(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// ResolveSeverity keeps an explicit non-Low severity and otherwise derives
// the highest severity among the incident's types. Types missing from the
// catalog count as Medium. A Low incident with no type label stays Low.
func (e *Engine) ResolveSeverity(ctx context.Context, incidentType string, current database.Severity) database.Severity {
	if current.IsValid() && current != database.SeverityLow {
		return current
	}

	names := SplitTypes(incidentType)
	if len(names) == 0 {
		if current == database.SeverityLow {
			return current
		}
		return database.SeverityMedium
	}

	best := database.SeverityUnset
	for _, name := range names {
		sev, ok := e.lookup(ctx, name)
		if !ok {
			sev = database.SeverityMedium
		}
		if sev.Rank() > best.Rank() {
			best = sev
		}
	}
	return best
}

func (e *Engine) lookup(ctx context.Context, name string) (database.Severity, bool) {
	if e.catalog == nil {
		return database.SeverityUnset, false
	}
	return e.catalog.Lookup(ctx, name)
}

// Reconcile computes the field changes needed to bring an incident in line
// with its severity, deadline and overdue rules at now. Terminal incidents
// only ever have isOverdue cleared. Applying the result and reconciling
// again yields an empty patch.
func (e *Engine) Reconcile(ctx context.Context, inc *database.Incident, now time.Time) Patch {
	var p Patch

	if inc.Status.IsTerminal() {
		if inc.IsOverdue {
			p.IsOverdue = boolPtr(false)
		}
		return p
	}

	sev := e.ResolveSeverity(ctx, inc.IncidentType, inc.Severity)
	if sev != inc.Severity {
		p.Severity = &sev
	}

	deadline := inc.Deadline
	var created *time.Time
	if !inc.Timestamp.IsZero() {
		created = &inc.Timestamp
	}
	if computed := CalculateDeadline(created, sev); computed != nil {
		if deadline == nil || absDuration(computed.Sub(*deadline)) > DeadlineTolerance {
			p.Deadline = computed
			deadline = computed
		}
	}

	overdue := IsOverdue(deadline, inc.Status, now)
	if overdue != inc.IsOverdue {
		p.IsOverdue = boolPtr(overdue)
	}

	switch {
	case overdue && inc.Status != database.IncidentStatusOverdue:
		p.Status = statusPtr(database.IncidentStatusOverdue)
	case !overdue && inc.Status == database.IncidentStatusOverdue:
		p.Status = statusPtr(database.IncidentStatusInProgress)
	}

	return p
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func boolPtr(b bool) *bool { return &b }

func statusPtr(s database.IncidentStatus) *database.IncidentStatus { return &s }
