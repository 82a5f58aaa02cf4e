package database

import "strings"

// Severity is the urgency tier of an incident
type Severity string

const (
	SeverityUnset    Severity = ""
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// ValidSeverities returns all severity tiers from least to most urgent
func ValidSeverities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// Rank orders severities; unset and unknown values rank 0
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// IsValid returns true for the four known tiers
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// ParseSeverity matches a severity name case-insensitively
func ParseSeverity(value string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return SeverityLow, true
	case "medium":
		return SeverityMedium, true
	case "high":
		return SeverityHigh, true
	case "critical":
		return SeverityCritical, true
	default:
		return SeverityUnset, false
	}
}

// IncidentStatus represents the lifecycle state of an incident
type IncidentStatus string

const (
	IncidentStatusNew        IncidentStatus = "New"
	IncidentStatusInProgress IncidentStatus = "In Progress"
	IncidentStatusOverdue    IncidentStatus = "Overdue"
	IncidentStatusCompleted  IncidentStatus = "Completed"
	IncidentStatusMerged     IncidentStatus = "Merged"
)

// ActiveStatuses are the non-terminal statuses
func ActiveStatuses() []IncidentStatus {
	return []IncidentStatus{IncidentStatusNew, IncidentStatusInProgress, IncidentStatusOverdue}
}

// IsTerminal returns true for Completed and Merged
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusCompleted || s == IncidentStatusMerged
}

// IsValid returns true for known statuses
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusNew, IncidentStatusInProgress, IncidentStatusOverdue,
		IncidentStatusCompleted, IncidentStatusMerged:
		return true
	}
	return false
}

// FlagStatus tracks review of a suspicious report
type FlagStatus string

const (
	FlagStatusNone          FlagStatus = ""
	FlagStatusPendingReview FlagStatus = "pending_review"
)
