package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/citywatch/citywatch/internal/database"
	"github.com/citywatch/citywatch/internal/events"
	"github.com/citywatch/citywatch/internal/utils"
)

// FormatEvent renders an event as a Slack mrkdwn message. Events that are
// not worth a notification render as "".
func FormatEvent(e events.Event, now time.Time) string {
	inc := e.Incident
	if inc == nil {
		return ""
	}

	var sb strings.Builder
	switch e.Type {
	case events.IncidentOverdue:
		sb.WriteString(fmt.Sprintf("%s *Overdue report* (%s)\n", getSeverityEmoji(inc.Severity), severityLabel(inc.Severity)))
		sb.WriteString(summaryLine(inc))
		sb.WriteString(fmt.Sprintf("*Deadline*: %s\n", utils.FormatTimeRemaining(inc.Deadline, now)))
	case events.IncidentFlagged:
		sb.WriteString("🚩 *Report flagged for review*\n")
		sb.WriteString(summaryLine(inc))
		sb.WriteString(fmt.Sprintf("*Reason*: %s", inc.FlagReason))
		if inc.FlaggedBy != "" {
			sb.WriteString(fmt.Sprintf(" (by %s)", inc.FlaggedBy))
		}
		sb.WriteString("\n")
		if inc.FlagNotes != "" {
			sb.WriteString(fmt.Sprintf("*Notes*: %s\n", utils.TruncateText(inc.FlagNotes, 300)))
		}
	case events.IncidentsMerged:
		merged, _ := e.Data["merged"].([]string)
		sb.WriteString(fmt.Sprintf("🔗 *%d duplicate report(s) merged*\n", len(merged)))
		sb.WriteString(summaryLine(inc))
	default:
		return ""
	}
	sb.WriteString(fmt.Sprintf("_Report %s_", inc.ID))
	return sb.String()
}

func summaryLine(inc *database.Incident) string {
	kind := inc.IncidentType
	if kind == "" {
		kind = "Report"
	}
	where := inc.Location
	if where == "" {
		where = "unknown location"
	}
	line := fmt.Sprintf("*%s* at %s\n", kind, where)
	if inc.Description != "" {
		line += fmt.Sprintf("> %s\n", utils.TruncateText(strings.ReplaceAll(inc.Description, "\n", " "), 200))
	}
	return line
}

func severityLabel(s database.Severity) string {
	if s == database.SeverityUnset {
		return "Unrated"
	}
	return string(s)
}

// getSeverityEmoji returns an emoji for the given severity
func getSeverityEmoji(s database.Severity) string {
	switch s {
	case database.SeverityCritical:
		return "🔴"
	case database.SeverityHigh:
		return "🟠"
	case database.SeverityMedium:
		return "🟡"
	case database.SeverityLow:
		return "🟢"
	default:
		return "⚠️"
	}
}
