// Package scoring contains the pure computation core of the distribution
// engine: the normalized sub-score primitives, the vaga priority calculator
// and the analyst fit scorer. Everything here is deterministic and
// clock-explicit — callers pass now, nothing reads the wall clock.
package scoring

import "raisa/distribution-service/internal/model"

// NeutralScore is substituted whenever an optional input is missing.
// Primitives are total: they degrade to this default instead of erroring.
const NeutralScore = 50

// billingTier maps a monthly-billing ceiling to a score. Tiers are checked in
// order; the first ceiling the value fits under wins.
type billingTier struct {
	UpTo  float64
	Score int
}

// billingTiers is the saturating step table for BillingScore.
var billingTiers = []billingTier{
	{UpTo: 5_000, Score: 30},
	{UpTo: 10_000, Score: 45},
	{UpTo: 20_000, Score: 60},
	{UpTo: 35_000, Score: 75},
	{UpTo: 50_000, Score: 90},
}

const billingTopScore = 100

// clampScore bounds v to the [0,100] score range.
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// UrgencyScore rates how time-pressed a vaga is. A vaga explicitly marked
// urgent scores 90 regardless of deadline. Otherwise the score decreases in
// steps as the deadline moves out: floor 20, cap 100. Without a deadline the
// neutral default applies.
func UrgencyScore(hasDeadline bool, daysUntilDeadline int, urgent bool) int {
	if urgent {
		return 90
	}
	if !hasDeadline {
		return NeutralScore
	}
	switch {
	case daysUntilDeadline <= 3: // overdue or imminent
		return 100
	case daysUntilDeadline <= 7:
		return 85
	case daysUntilDeadline <= 15:
		return 70
	case daysUntilDeadline <= 30:
		return 45
	default:
		return 20
	}
}

// BillingScore rates the deal value of a vaga against the billing tier
// table, saturating at 100. A zero or negative estimate means the field was
// not filled in and yields the neutral default.
func BillingScore(monthlyBilling float64) int {
	if monthlyBilling <= 0 {
		return NeutralScore
	}
	for _, t := range billingTiers {
		if monthlyBilling <= t.UpTo {
			return t.Score
		}
	}
	return billingTopScore
}

// VIPBoost is the fixed additive contribution of a VIP client. It is added
// into the final formula, never blended.
func VIPBoost(vip bool) int {
	if vip {
		return 20
	}
	return 0
}

// TimeOpenScore rates how long a vaga has been sitting open. Increasing in
// elapsed days; negative inputs are treated as zero.
func TimeOpenScore(daysOpen int) int {
	switch {
	case daysOpen <= 3:
		return 10
	case daysOpen <= 7:
		return 25
	case daysOpen <= 15:
		return 50
	case daysOpen <= 30:
		return 75
	default:
		return 100
	}
}

// StackComplexityScore estimates how specialized (hard to fill) a vaga is
// from the size of its required stack and the seniority tier. An empty stack
// yields the neutral default.
func StackComplexityScore(stack []string, seniority model.Seniority) int {
	if len(stack) == 0 {
		return NeutralScore
	}

	var base int
	switch {
	case len(stack) <= 2:
		base = 30
	case len(stack) <= 4:
		base = 50
	case len(stack) <= 6:
		base = 70
	default:
		base = 85
	}

	switch seniority {
	case model.SeniorityJunior:
		base -= 10
	case model.SenioritySenior:
		base += 10
	case model.SeniorityEspecialista:
		base += 20
	}

	return clampScore(base)
}
