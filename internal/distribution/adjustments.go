package distribution

import (
	"fmt"
	"strconv"

	"raisa/distribution-service/internal/model"
)

// fieldChange records one before/after pair for the audit trail.
type fieldChange struct {
	field string
	prev  string
	next  string
}

// validatePatch checks every supplied field against its documented range
// before anything is written.
func validatePatch(p AdjustmentPatch) error {
	if p.PriorityClass != nil {
		switch *p.PriorityClass {
		case model.ClassHigh, model.ClassNormal, model.ClassLow:
		default:
			return &ValidationError{Msg: fmt.Sprintf("unknown priority class %q", *p.PriorityClass)}
		}
	}
	if p.MaxConcurrentVagas != nil && *p.MaxConcurrentVagas < 1 {
		return &ValidationError{Msg: "maxConcurrentVagas must be at least 1"}
	}
	if p.PerformanceMultiplier != nil {
		if *p.PerformanceMultiplier < model.MinPerformanceMultiplier || *p.PerformanceMultiplier > model.MaxPerformanceMultiplier {
			return &ValidationError{Msg: fmt.Sprintf("performanceMultiplier must be between %.1f and %.1f",
				model.MinPerformanceMultiplier, model.MaxPerformanceMultiplier)}
		}
	}
	if p.ExperienceBonus != nil && (*p.ExperienceBonus < 0 || *p.ExperienceBonus > model.MaxExperienceBonus) {
		return &ValidationError{Msg: fmt.Sprintf("experienceBonus must be between 0 and %d", model.MaxExperienceBonus)}
	}
	if p.StackFitOverride != nil && (*p.StackFitOverride < 0 || *p.StackFitOverride > 100) {
		return &ValidationError{Msg: "stackFitOverride must be between 0 and 100"}
	}
	if p.ClientFitOverride != nil && (*p.ClientFitOverride < 0 || *p.ClientFitOverride > 100) {
		return &ValidationError{Msg: "clientFitOverride must be between 0 and 100"}
	}
	return nil
}

// applyPatch merges the patch into the current record, returning the updated
// record plus the list of actual changes (unchanged fields produce no audit
// entry).
func applyPatch(current model.AnalystAdjustment, p AdjustmentPatch) (model.AnalystAdjustment, []fieldChange) {
	updated := current
	var changes []fieldChange

	if p.ActiveForDistribution != nil && *p.ActiveForDistribution != current.ActiveForDistribution {
		changes = append(changes, fieldChange{"activeForDistribution",
			strconv.FormatBool(current.ActiveForDistribution), strconv.FormatBool(*p.ActiveForDistribution)})
		updated.ActiveForDistribution = *p.ActiveForDistribution
	}
	if p.PriorityClass != nil && *p.PriorityClass != current.PriorityClass {
		changes = append(changes, fieldChange{"priorityClass",
			string(current.PriorityClass), string(*p.PriorityClass)})
		updated.PriorityClass = *p.PriorityClass
	}
	if p.MaxConcurrentVagas != nil && *p.MaxConcurrentVagas != current.MaxConcurrentVagas {
		changes = append(changes, fieldChange{"maxConcurrentVagas",
			strconv.Itoa(current.MaxConcurrentVagas), strconv.Itoa(*p.MaxConcurrentVagas)})
		updated.MaxConcurrentVagas = *p.MaxConcurrentVagas
	}
	if p.PerformanceMultiplier != nil && *p.PerformanceMultiplier != current.PerformanceMultiplier {
		changes = append(changes, fieldChange{"performanceMultiplier",
			formatFloat(current.PerformanceMultiplier), formatFloat(*p.PerformanceMultiplier)})
		updated.PerformanceMultiplier = *p.PerformanceMultiplier
	}
	if p.ExperienceBonus != nil && *p.ExperienceBonus != current.ExperienceBonus {
		changes = append(changes, fieldChange{"experienceBonus",
			strconv.Itoa(current.ExperienceBonus), strconv.Itoa(*p.ExperienceBonus)})
		updated.ExperienceBonus = *p.ExperienceBonus
	}
	if p.Notes != nil && *p.Notes != current.Notes {
		changes = append(changes, fieldChange{"notes", current.Notes, *p.Notes})
		updated.Notes = *p.Notes
	}

	switch {
	case p.ClearStackFitOverride:
		if current.StackFitOverride != nil {
			changes = append(changes, fieldChange{"stackFitOverride", formatOverride(current.StackFitOverride), "unset"})
			updated.StackFitOverride = nil
		}
	case p.StackFitOverride != nil:
		if current.StackFitOverride == nil || *current.StackFitOverride != *p.StackFitOverride {
			changes = append(changes, fieldChange{"stackFitOverride",
				formatOverride(current.StackFitOverride), strconv.Itoa(*p.StackFitOverride)})
			v := *p.StackFitOverride
			updated.StackFitOverride = &v
		}
	}

	switch {
	case p.ClearClientFitOverride:
		if current.ClientFitOverride != nil {
			changes = append(changes, fieldChange{"clientFitOverride", formatOverride(current.ClientFitOverride), "unset"})
			updated.ClientFitOverride = nil
		}
	case p.ClientFitOverride != nil:
		if current.ClientFitOverride == nil || *current.ClientFitOverride != *p.ClientFitOverride {
			changes = append(changes, fieldChange{"clientFitOverride",
				formatOverride(current.ClientFitOverride), strconv.Itoa(*p.ClientFitOverride)})
			v := *p.ClientFitOverride
			updated.ClientFitOverride = &v
		}
	}

	return updated, changes
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOverride(v *int) string {
	if v == nil {
		return "unset"
	}
	return strconv.Itoa(*v)
}
