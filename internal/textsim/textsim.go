// Package textsim implements the token-overlap description similarity used to
// spot near-duplicate incident reports.
package textsim

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultThresholdPercent is the minimum word overlap for two descriptions to match.
	DefaultThresholdPercent = 30.0

	// minWordLength excludes short filler words ("the", "on", "a") from overlap.
	minWordLength = 3
)

// Normalize lowercases s, folds accents and strips punctuation and symbols.
// Runs of whitespace collapse to a single space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the distinct words of a normalized description longer than three characters.
func Words(normalized string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) > minWordLength {
			words[w] = struct{}{}
		}
	}
	return words
}

// OverlapPercent returns shared words as a percentage of the smaller word set.
// Returns 0 when either description has no qualifying words.
func OverlapPercent(d1, d2 string) float64 {
	w1 := Words(Normalize(d1))
	w2 := Words(Normalize(d2))
	if len(w1) == 0 || len(w2) == 0 {
		return 0
	}

	small, large := w1, w2
	if len(small) > len(large) {
		small, large = large, small
	}

	matches := 0
	for w := range small {
		if _, ok := large[w]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(small)) * 100
}

// Similar reports whether two descriptions likely describe the same issue,
// using DefaultThresholdPercent.
func Similar(d1, d2 string) bool {
	return SimilarWithThreshold(d1, d2, DefaultThresholdPercent)
}

// SimilarWithThreshold reports whether one normalized description contains
// the other, or the word overlap reaches thresholdPercent.
func SimilarWithThreshold(d1, d2 string, thresholdPercent float64) bool {
	n1 := Normalize(d1)
	n2 := Normalize(d2)
	if n1 == "" || n2 == "" {
		return false
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return true
	}
	return OverlapPercent(n1, n2) >= thresholdPercent
}
