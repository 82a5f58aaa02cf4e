package textsim

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Huge POTHOLE!!", "huge pothole"},
		{"  broken   light,\nnear  school ", "broken light near school"},
		{"Café on 5th", "cafe on 5th"},
		{"pot-hole", "pothole"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	tests := []struct {
		name     string
		d1, d2   string
		expected bool
	}{
		{
			name:     "substring match",
			d1:       "Large pothole",
			d2:       "Large pothole on Main Street near the bakery",
			expected: true,
		},
		{
			name:     "punctuation ignored for substring",
			d1:       "Streetlight out!",
			d2:       "streetlight out",
			expected: true,
		},
		{
			name:     "word overlap above threshold",
			d1:       "Deep pothole damaging cars outside pharmacy",
			d2:       "Cars keep hitting deep pothole by the bus stop",
			expected: true,
		},
		{
			name:     "unrelated descriptions",
			d1:       "Overflowing garbage bins behind market",
			d2:       "Streetlight flickering all night long",
			expected: false,
		},
		{
			name:     "short words only",
			d1:       "big dog",
			d2:       "red car",
			expected: false,
		},
		{
			name:     "empty description",
			d1:       "",
			d2:       "water main burst",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similar(tt.d1, tt.d2); got != tt.expected {
				t.Errorf("Similar(%q, %q) = %v, want %v", tt.d1, tt.d2, got, tt.expected)
			}
			if got := Similar(tt.d2, tt.d1); got != tt.expected {
				t.Errorf("Similar is not symmetric for %q / %q", tt.d1, tt.d2)
			}
		})
	}
}

func TestOverlapPercent(t *testing.T) {
	// "pothole" and "deep" shared out of min(3, 4) qualifying words.
	got := OverlapPercent("deep pothole here", "very deep pothole there")
	want := 2.0 / 3.0 * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}

	if got := OverlapPercent("a an", "pothole"); got != 0 {
		t.Errorf("expected 0 with no qualifying words, got %f", got)
	}
}

func TestSimilarWithThreshold(t *testing.T) {
	d1 := "flooded underpass blocking traffic"
	d2 := "traffic jam downtown today"
	// one shared word out of the three qualifying words in d2
	if !SimilarWithThreshold(d1, d2, 30) {
		t.Error("expected match at 30% threshold")
	}
	if SimilarWithThreshold(d1, d2, 40) {
		t.Error("expected no match at 40% threshold")
	}
}
