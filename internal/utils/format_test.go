package utils

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"milliseconds", 45 * time.Millisecond, "45ms"},
		{"one second", 1 * time.Second, "1.0s"},
		{"seconds with decimal", 1500 * time.Millisecond, "1.5s"},
		{"one minute", 1 * time.Minute, "1m"},
		{"minutes and seconds", 2*time.Minute + 30*time.Second, "2m 30s"},
		{"one hour", 1 * time.Hour, "1h"},
		{"hours and minutes", 1*time.Hour + 15*time.Minute, "1h 15m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("FormatDuration(%v) = %s; want %s", tt.duration, result, tt.expected)
			}
		})
	}
}

func TestFormatResolutionTime(t *testing.T) {
	tests := []struct {
		name     string
		hours    float64
		expected string
	}{
		{"zero", 0, "Less than 1 minute"},
		{"thirty seconds", 0.5 / 60, "Less than 1 minute"},
		{"negative", -2, "Less than 1 minute"},
		{"one minute", 1.0 / 60, "1 minute"},
		{"forty five minutes", 0.75, "45 minutes"},
		{"one hour", 1, "1 hour"},
		{"hour and minutes", 1 + 5.0/60, "1 hour 5 minutes"},
		{"one day", 24, "1 day"},
		{"days and hours", 51, "2 days 3 hours"},
		{"days and minutes", 48 + 10.0/60, "2 days 10 minutes"},
		{"all units", 24 + 1 + 1.0/60, "1 day 1 hour 1 minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatResolutionTime(tt.hours)
			if result != tt.expected {
				t.Errorf("FormatResolutionTime(%v) = %q; want %q", tt.hours, result, tt.expected)
			}
		})
	}
}

func TestFormatTimeRemaining(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(3*24*time.Hour + 4*time.Hour)
	past := now.Add(-2 * time.Hour)

	tests := []struct {
		name     string
		deadline *time.Time
		expected string
	}{
		{"no deadline", nil, "No deadline"},
		{"future", &future, "3 days 4 hours remaining"},
		{"past", &past, "Overdue by 2 hours"},
		{"exactly now", &now, "Less than 1 minute remaining"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatTimeRemaining(tt.deadline, now)
			if result != tt.expected {
				t.Errorf("FormatTimeRemaining() = %q; want %q", result, tt.expected)
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxLen   int
		expected string
	}{
		{"short text", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"with newlines", "hello\nworld", 20, "hello world"},
		{"very short max", "hello", 3, "..."},
		{"multibyte", "café olé crème", 7, "café..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateText(tt.text, tt.maxLen)
			if result != tt.expected {
				t.Errorf("TruncateText(%q, %d) = %q; want %q", tt.text, tt.maxLen, result, tt.expected)
			}
		})
	}
}
