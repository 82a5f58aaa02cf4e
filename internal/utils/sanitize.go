package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Control characters (except common whitespace)
var controlCharPattern = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// ValidateReportID validates that a report ID is a well-formed UUID
func ValidateReportID(id string) error {
	if id == "" {
		return fmt.Errorf("report ID is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// SanitizeText strips control characters and surrounding whitespace from
// free text submitted by reporters or staff
func SanitizeText(text string) string {
	text = controlCharPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// EscapeForLogging escapes sensitive content for safe logging
func EscapeForLogging(text string, maxLen int) string {
	// Truncate
	if len(text) > maxLen {
		text = text[:maxLen] + "..."
	}

	// Remove newlines for single-line logging
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, "\r", "\\r")
	text = strings.ReplaceAll(text, "\t", "\\t")

	return text
}
