package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FormatDuration formats a duration in a human-readable format
// Examples: "45ms", "1.5s", "2m 30s", "1h 15m"
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes < 60 {
		if seconds > 0 {
			return fmt.Sprintf("%dm %ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	}
	hours := minutes / 60
	minutes = minutes % 60
	if minutes > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dh", hours)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatResolutionTime renders a resolution span as days, hours and minutes,
// dropping zero units. Spans under a minute read "Less than 1 minute".
// Examples: "2 days 3 hours", "1 hour 5 minutes", "45 minutes"
func FormatResolutionTime(hours float64) string {
	totalMinutes := int(math.Floor(hours*60 + 1e-9))
	if totalMinutes < 1 {
		return "Less than 1 minute"
	}

	days := totalMinutes / (24 * 60)
	h := (totalMinutes % (24 * 60)) / 60
	m := totalMinutes % 60

	var parts []string
	if days > 0 {
		parts = append(parts, plural(days, "day"))
	}
	if h > 0 {
		parts = append(parts, plural(h, "hour"))
	}
	if m > 0 {
		parts = append(parts, plural(m, "minute"))
	}
	return strings.Join(parts, " ")
}

// FormatTimeRemaining describes a deadline relative to now.
// Examples: "3 days 4 hours remaining", "Overdue by 2 hours", "No deadline"
func FormatTimeRemaining(deadline *time.Time, now time.Time) string {
	if deadline == nil {
		return "No deadline"
	}
	diff := deadline.Sub(now)
	if diff >= 0 {
		return FormatResolutionTime(diff.Hours()) + " remaining"
	}
	return "Overdue by " + strings.ToLower(FormatResolutionTime(-diff.Hours()))
}

// TruncateText truncates text to maxLen characters, adding "..." if truncated
// Also removes newlines for single-line display
func TruncateText(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
