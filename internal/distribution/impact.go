package distribution

import (
	"time"

	"raisa/distribution-service/internal/model"
)

// impactDeadBand is the tolerance, in days, inside which a before/after
// difference counts as neutral.
const impactDeadBand = 1.0

// MeasureImpact compares an analyst's average days-to-close before and after
// an adjustment change. It reports ok=false until at least minSamples closed
// vagas exist on each side of the change.
func MeasureImpact(changedAt time.Time, durations []model.ClosedDuration, minSamples int) (before, after float64, impact string, ok bool) {
	var sumBefore, sumAfter float64
	var nBefore, nAfter int

	for _, d := range durations {
		if d.ClosedAt.Before(changedAt) {
			sumBefore += d.Days
			nBefore++
		} else {
			sumAfter += d.Days
			nAfter++
		}
	}
	if nBefore < minSamples || nAfter < minSamples {
		return 0, 0, "", false
	}

	before = sumBefore / float64(nBefore)
	after = sumAfter / float64(nAfter)

	switch {
	case after < before-impactDeadBand:
		impact = model.ImpactPositive // closing faster after the change
	case after > before+impactDeadBand:
		impact = model.ImpactNegative
	default:
		impact = model.ImpactNeutral
	}
	return before, after, impact, true
}
