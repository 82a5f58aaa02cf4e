// Package trust scores how reliable a reporter's history makes them.
package trust

import (
	"math"
	"time"

	"github.com/citywatch/citywatch/internal/database"
)

const (
	MinLevel = 0
	MaxLevel = 100

	// SeedVerifiedLevel is the level of a reporter first seen on a verification
	SeedVerifiedLevel = 15
	// SeedFalseReportLevel is the level of a reporter first seen on a false report
	SeedFalseReportLevel = 5
	// VerificationBonus is added on top of the formula for each completed report
	VerificationBonus = 10

	baseLevel         = 10
	maxVerifiedBonus  = 50
	perVerified       = 5
	accuracyWeight    = 20
	maxTenureBonus    = 10
	daysPerTenureStep = 30
	perFalseReport    = 10
	penaltyFloor      = 5
)

// Level computes a 0..100 trust level from a reporter's counters
func Level(reportCount, verifiedReports, falseReports int, createdAt, now time.Time) int {
	reportCount = nonNegative(reportCount)
	verifiedReports = nonNegative(verifiedReports)
	falseReports = nonNegative(falseReports)

	base := float64(baseLevel)
	base += math.Min(maxVerifiedBonus, float64(verifiedReports*perVerified))
	if reportCount > 0 {
		// verifications of reports filed before the reporter was tracked can
		// outnumber reportCount
		accuracy := math.Min(1, float64(verifiedReports)/float64(reportCount))
		base += math.Round(accuracy * accuracyWeight)
	}

	base += math.Min(maxTenureBonus, math.Floor(float64(tenureDays(createdAt, now))/daysPerTenureStep))

	// the false-report penalty alone never takes the level below penaltyFloor
	base -= math.Min(base-penaltyFloor, float64(falseReports*perFalseReport))

	return Clamp(int(math.Round(base)))
}

// LevelAfterVerification is Level plus the completion bonus, clamped
func LevelAfterVerification(reportCount, verifiedReports, falseReports int, createdAt, now time.Time) int {
	return Clamp(Level(reportCount, verifiedReports, falseReports, createdAt, now) + VerificationBonus)
}

// Clamp bounds a level to 0..100
func Clamp(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// tenureDays is whole days since createdAt, at least 1
func tenureDays(createdAt, now time.Time) int {
	if createdAt.IsZero() || !now.After(createdAt) {
		return 1
	}
	days := int(now.Sub(createdAt).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// SeverityBase is the priority floor contributed by a severity tier.
// Unset and unknown severities score as Medium.
func SeverityBase(s database.Severity) int {
	switch s {
	case database.SeverityLow:
		return 10
	case database.SeverityHigh:
		return 60
	case database.SeverityCritical:
		return 90
	default:
		return 30
	}
}

// PriorityScore ranks an incident by severity, nudged by reporter trust
func PriorityScore(trustLevel int, s database.Severity) int {
	score := SeverityBase(s) + Clamp(trustLevel)/10
	if score > MaxLevel {
		return MaxLevel
	}
	return score
}
