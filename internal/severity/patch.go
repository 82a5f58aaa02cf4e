package severity

import (
	"time"

	"github.com/citywatch/citywatch/internal/database"
)

// Patch holds only the incident fields a reconcile changed
type Patch struct {
	Severity  *database.Severity       `json:"severity,omitempty"`
	Deadline  *time.Time               `json:"deadline,omitempty"`
	Status    *database.IncidentStatus `json:"status,omitempty"`
	IsOverdue *bool                    `json:"isOverdue,omitempty"`
}

// Empty returns true if the patch changes nothing
func (p Patch) Empty() bool {
	return p.Severity == nil && p.Deadline == nil && p.Status == nil && p.IsOverdue == nil
}

// ApplyTo writes the patch onto an in-memory incident
func (p Patch) ApplyTo(inc *database.Incident) {
	if p.Severity != nil {
		inc.Severity = *p.Severity
	}
	if p.Deadline != nil {
		d := *p.Deadline
		inc.Deadline = &d
	}
	if p.Status != nil {
		inc.Status = *p.Status
	}
	if p.IsOverdue != nil {
		inc.IsOverdue = *p.IsOverdue
	}
}

// Updates returns the patch as a column map for a partial gorm update
func (p Patch) Updates() map[string]interface{} {
	updates := make(map[string]interface{})
	if p.Severity != nil {
		updates["severity"] = *p.Severity
	}
	if p.Deadline != nil {
		updates["deadline"] = *p.Deadline
	}
	if p.Status != nil {
		updates["status"] = *p.Status
	}
	if p.IsOverdue != nil {
		updates["is_overdue"] = *p.IsOverdue
	}
	return updates
}
