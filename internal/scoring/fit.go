package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"raisa/distribution-service/internal/model"
)

// Class bumps applied to the final score for High/Low priority analysts.
const classBump = 5

// Default average days-to-close assumed for analysts with no closed history.
const defaultAvgDaysToClose = 20.0

// Tier scaling factors for the estimated days-to-close. Non-increasing in
// match score: a better fit never estimates slower.
var tierDaysFactor = map[model.AdequacyTier]float64{
	model.AdequacyExcelente: 0.8,
	model.AdequacyBom:       1.0,
	model.AdequacyRegular:   1.2,
	model.AdequacyBaixo:     1.5,
}

// FitScorer ranks a roster of analysts against a vaga.
type FitScorer struct {
	policy Policy
}

// NewFitScorer returns a FitScorer governed by the given policy.
func NewFitScorer(policy Policy) *FitScorer {
	return &FitScorer{policy: policy}
}

// Recommend scores every distribution-eligible analyst against the vaga and
// returns them ranked: match score descending, ties broken by lower current
// workload, then higher overall approval rate, then analyst ID ascending —
// a deterministic, reproducible order.
//
// Analysts whose adjustment record has ActiveForDistribution=false are
// excluded entirely, not merely scored low. An analyst with no adjustment
// record scores under the onboarding defaults.
func (f *FitScorer) Recommend(
	vaga *model.Vaga,
	priority *model.PriorityScore,
	roster []model.Analyst,
	adjustments map[string]model.AnalystAdjustment,
	now time.Time,
) []model.AnalystFitScore {
	scores := make([]model.AnalystFitScore, 0, len(roster))
	workload := make(map[string]int, len(roster))
	approval := make(map[string]float64, len(roster))

	for i := range roster {
		a := &roster[i]
		adj, ok := adjustments[a.ID]
		if !ok {
			adj = model.DefaultAdjustment(a.ID)
		}
		if !adj.ActiveForDistribution {
			continue
		}
		scores = append(scores, f.scoreOne(vaga, priority, a, adj, now))
		workload[a.ID] = a.ActiveVagas
		approval[a.ID] = a.OverallApprovalRate
	}

	sort.Slice(scores, func(i, j int) bool {
		si, sj := scores[i], scores[j]
		if si.Score != sj.Score {
			return si.Score > sj.Score
		}
		if workload[si.AnalystID] != workload[sj.AnalystID] {
			return workload[si.AnalystID] < workload[sj.AnalystID]
		}
		if approval[si.AnalystID] != approval[sj.AnalystID] {
			return approval[si.AnalystID] > approval[sj.AnalystID]
		}
		return si.AnalystID < sj.AnalystID
	})

	return scores
}

// scoreOne computes a single analyst's fit against the vaga.
func (f *FitScorer) scoreOne(
	vaga *model.Vaga,
	priority *model.PriorityScore,
	a *model.Analyst,
	adj model.AnalystAdjustment,
	now time.Time,
) model.AnalystFitScore {
	factors := model.FitFactors{
		StackFit:          stackFit(a.Experience, vaga.Stack, adj.StackFitOverride),
		ClientFit:         clientFit(a, vaga.ClientID, adj.ClientFitOverride),
		Availability:      availability(a.ActiveVagas, adj.MaxConcurrentVagas),
		HistoricalSuccess: clampScore(int(math.Round(a.OverallApprovalRate))),
	}

	w := f.policy.weights()
	raw := (float64(factors.StackFit)*w.StackFit +
		float64(factors.ClientFit)*w.ClientFit +
		float64(factors.Availability)*w.Availability +
		float64(factors.HistoricalSuccess)*w.HistoricalSuccess) / f.policy.weightSum()

	raw *= boundedMultiplier(adj.PerformanceMultiplier)
	raw += float64(boundedBonus(adj.ExperienceBonus))

	switch adj.PriorityClass {
	case model.ClassHigh:
		raw += classBump
	case model.ClassLow:
		raw -= classBump
	}

	score := clampScore(int(math.Round(raw)))
	tier := f.adequacyTier(score)

	avg := a.AvgDaysToClose
	if avg <= 0 {
		avg = defaultAvgDaysToClose
	}
	estDays := int(math.Round(avg * tierDaysFactor[tier]))
	if estDays < 1 {
		estDays = 1
	}

	return model.AnalystFitScore{
		VagaID:               vaga.ID,
		AnalystID:            a.ID,
		AnalystName:          a.Name,
		Score:                score,
		Tier:                 tier,
		Factors:              factors,
		EstimatedDaysToClose: estDays,
		Recommendation:       recommendation(tier, estDays, priority),
		ComputedAt:           now,
	}
}

// adequacyTier buckets a match score. Cutoffs come from the policy and are
// monotonic and non-overlapping.
func (f *FitScorer) adequacyTier(score int) model.AdequacyTier {
	switch {
	case score >= f.policy.AdequacyExcellent:
		return model.AdequacyExcelente
	case score >= f.policy.AdequacyGood:
		return model.AdequacyBom
	case score >= f.policy.AdequacyRegular:
		return model.AdequacyRegular
	default:
		return model.AdequacyBaixo
	}
}

// stackFit is the overlap ratio between the analyst's experience set and the
// vaga's required stack. When an override is set on the adjustment record it
// is used verbatim and the computed overlap is discarded.
func stackFit(experience, stack []string, override *int) int {
	if override != nil {
		return clampScore(*override)
	}
	if len(stack) == 0 {
		return NeutralScore
	}
	known := make(map[string]bool, len(experience))
	for _, e := range experience {
		known[normalizeTech(e)] = true
	}
	matches := 0
	for _, tech := range stack {
		if known[normalizeTech(tech)] {
			matches++
		}
	}
	return clampScore(int(math.Round(float64(matches) / float64(len(stack)) * 100)))
}

// clientFit is the analyst's approval rate for this specific client when a
// track record exists, falling back to the overall rate. Overridden verbatim
// when set.
func clientFit(a *model.Analyst, clientID string, override *int) int {
	if override != nil {
		return clampScore(*override)
	}
	if h, ok := a.ClientHistory[clientID]; ok && h.ClosedCount > 0 {
		return clampScore(int(math.Round(h.ApprovalRate)))
	}
	return clampScore(int(math.Round(a.OverallApprovalRate)))
}

// availability is the inverse of the analyst's load ratio: idle scores near
// 100, at or over capacity scores 0. A non-positive capacity means the
// analyst can take nothing.
func availability(active, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	if active < 0 {
		active = 0
	}
	return clampScore(int(math.Round((1 - float64(active)/float64(capacity)) * 100)))
}

// boundedMultiplier pins a performance multiplier into its documented range.
func boundedMultiplier(m float64) float64 {
	if m < model.MinPerformanceMultiplier {
		return model.MinPerformanceMultiplier
	}
	if m > model.MaxPerformanceMultiplier {
		return model.MaxPerformanceMultiplier
	}
	return m
}

// boundedBonus pins an experience bonus into its documented range.
func boundedBonus(b int) int {
	if b < 0 {
		return 0
	}
	if b > model.MaxExperienceBonus {
		return model.MaxExperienceBonus
	}
	return b
}

// recommendation builds the human-facing label for one ranking entry,
// flagging estimates that blow the vaga's recommended SLA.
func recommendation(tier model.AdequacyTier, estDays int, priority *model.PriorityScore) string {
	var label string
	switch tier {
	case model.AdequacyExcelente:
		label = "Altamente recomendado"
	case model.AdequacyBom:
		label = "Recomendado"
	case model.AdequacyRegular:
		label = "Adequado com ressalvas"
	default:
		label = "Não recomendado"
	}
	if priority != nil && estDays > priority.SLADays {
		return fmt.Sprintf("%s — estimativa de %d dias acima do SLA de %d dias", label, estDays, priority.SLADays)
	}
	return label
}

// normalizeTech folds a technology name for overlap comparison.
func normalizeTech(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '\t':
			// skip
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
