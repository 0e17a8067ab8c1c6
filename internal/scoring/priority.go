package scoring

import (
	"fmt"
	"strings"
	"time"

	"raisa/distribution-service/internal/model"
)

// Fallback formula constants. This score-base-plus-bonuses arithmetic is the
// authoritative path; the richer per-factor breakdown is reported as
// telemetry only (fatores_considerados).
const (
	priorityBase      = 50
	urgentBonus       = 30
	vipBonus          = 20
	daysOpenBonus     = 10
	daysOpenThreshold = 15
)

// Calculator computes priority scores and SLA recommendations for vagas.
type Calculator struct {
	policy Policy
}

// NewCalculator returns a Calculator governed by the given policy.
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Compute derives the priority score of a vaga from its attributes and its
// client's flags. A nil client degrades to the minimal-confidence default —
// this is an advisory system, a degraded score beats a hard failure.
func (c *Calculator) Compute(vaga *model.Vaga, client *model.Client, now time.Time) model.PriorityScore {
	if client == nil {
		return c.Degraded(vaga.ID, now)
	}

	daysOpen := vaga.DaysOpen(now)

	score := priorityBase
	if vaga.Urgent {
		score += urgentBonus
	}
	if client.VIP {
		score += vipBonus
	}
	if daysOpen > daysOpenThreshold {
		score += daysOpenBonus
	}
	score = clampScore(score)

	tier, sla := c.tierAndSLA(score)
	if vaga.Urgent {
		// An explicitly urgent vaga always gets the tight SLA.
		sla = c.policy.SLAHighDays
	}

	daysUntil, hasDeadline := vaga.DaysUntilDeadline(now)
	var billing float64
	if vaga.MonthlyBilling != nil {
		billing = *vaga.MonthlyBilling
	}

	return model.PriorityScore{
		VagaID:        vaga.ID,
		Score:         score,
		Tier:          tier,
		SLADays:       sla,
		Justification: justification(vaga, client, daysOpen, tier, sla),
		Factors: model.PriorityFactors{
			Urgency:         UrgencyScore(hasDeadline, daysUntil, vaga.Urgent),
			Billing:         BillingScore(billing),
			StackComplexity: StackComplexityScore(vaga.Stack, vaga.Seniority),
			VIPBoost:        VIPBoost(client.VIP),
			DaysOpen:        daysOpen,
		},
		ComputedAt: now,
	}
}

// Degraded is the minimal-confidence default returned when the client record
// cannot be resolved: neutral score, medium tier, standard SLA.
func (c *Calculator) Degraded(vagaID string, now time.Time) model.PriorityScore {
	return model.PriorityScore{
		VagaID:        vagaID,
		Score:         NeutralScore,
		Tier:          model.TierMedia,
		SLADays:       c.policy.SLAMediumDays,
		Justification: "Dados do cliente indisponíveis — prioridade média atribuída por padrão.",
		ComputedAt:    now,
	}
}

// tierAndSLA buckets a score into a priority tier and its recommended SLA.
func (c *Calculator) tierAndSLA(score int) (model.PriorityTier, int) {
	switch {
	case score >= c.policy.PriorityHigh:
		return model.TierAlta, c.policy.SLAHighDays
	case score >= c.policy.PriorityMedium:
		return model.TierMedia, c.policy.SLAMediumDays
	default:
		return model.TierBaixa, c.policy.SLALowDays
	}
}

// justification builds the templated natural-language explanation shown next
// to the score. Deterministic — no LLM involved on this path.
func justification(vaga *model.Vaga, client *model.Client, daysOpen int, tier model.PriorityTier, sla int) string {
	var reasons []string
	if vaga.Urgent {
		reasons = append(reasons, "vaga sinalizada como urgente")
	}
	if client.VIP {
		reasons = append(reasons, fmt.Sprintf("cliente VIP (%s)", client.Name))
	}
	if daysOpen > daysOpenThreshold {
		reasons = append(reasons, fmt.Sprintf("aberta há %d dias", daysOpen))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "sem fatores de aceleração identificados")
	}

	var label string
	switch tier {
	case model.TierAlta:
		label = "Alta"
	case model.TierBaixa:
		label = "Baixa"
	default:
		label = "Média"
	}

	return fmt.Sprintf("Prioridade %s — %s. SLA recomendado: %d dias.",
		label, strings.Join(reasons, "; "), sla)
}
