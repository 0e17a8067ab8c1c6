package scoring_test

import (
	"strings"
	"testing"
	"time"

	"raisa/distribution-service/internal/model"
	"raisa/distribution-service/internal/scoring"
)

// frozenNow keeps every computation deterministic.
var frozenNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newVaga(urgent bool, daysOpen int) *model.Vaga {
	return &model.Vaga{
		ID:        "vaga-1",
		Title:     "Desenvolvedor Go Sênior",
		Stack:     []string{"Go", "PostgreSQL"},
		Seniority: model.SenioritySenior,
		ClientID:  "client-1",
		Urgent:    urgent,
		CreatedAt: frozenNow.AddDate(0, 0, -daysOpen),
	}
}

// ── End-to-end arithmetic scenarios ────────────────────────────────────────

// Urgent vaga at a VIP client without a billing estimate:
// base 50 + urgent 30 + vip 20 = 100, tier Alta, SLA 7 days.
func TestCompute_UrgentVIPNoBilling(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	vaga := newVaga(true, 2)
	client := &model.Client{ID: "client-1", Name: "Acme", VIP: true}

	got := calc.Compute(vaga, client, frozenNow)

	if got.Score != 100 {
		t.Errorf("Score = %d, want 100", got.Score)
	}
	if got.Tier != model.TierAlta {
		t.Errorf("Tier = %s, want ALTA", got.Tier)
	}
	if got.SLADays != 7 {
		t.Errorf("SLADays = %d, want 7", got.SLADays)
	}
}

// Non-urgent vaga, non-VIP client, open 20 days:
// base 50 + daysOpen>15 bonus 10 = 60, tier Média, SLA 15 days.
func TestCompute_AgedNonUrgent(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	vaga := newVaga(false, 20)
	client := &model.Client{ID: "client-1", Name: "Acme", VIP: false}

	got := calc.Compute(vaga, client, frozenNow)

	if got.Score != 60 {
		t.Errorf("Score = %d, want 60", got.Score)
	}
	if got.Tier != model.TierMedia {
		t.Errorf("Tier = %s, want MEDIA", got.Tier)
	}
	if got.SLADays != 15 {
		t.Errorf("SLADays = %d, want 15", got.SLADays)
	}
}

// No acceleration factors at all: the base score alone, tier Média.
func TestCompute_BaseOnly(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	vaga := newVaga(false, 2)
	client := &model.Client{ID: "client-1", Name: "Acme"}

	got := calc.Compute(vaga, client, frozenNow)

	if got.Score != 50 {
		t.Errorf("Score = %d, want 50", got.Score)
	}
	if got.Tier != model.TierMedia {
		t.Errorf("Tier = %s, want MEDIA", got.Tier)
	}
}

// ── Urgent SLA override ────────────────────────────────────────────────────

// An urgent vaga keeps the 7-day SLA even when its score lands mid-tier.
func TestCompute_UrgentAlwaysTightSLA(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	vaga := newVaga(true, 2)
	client := &model.Client{ID: "client-1", Name: "Acme", VIP: false}

	got := calc.Compute(vaga, client, frozenNow)

	if got.Score != 80 { // base 50 + urgent 30
		t.Errorf("Score = %d, want 80", got.Score)
	}
	if got.SLADays != 7 {
		t.Errorf("SLADays = %d, want 7 for an urgent vaga", got.SLADays)
	}
}

// ── Degraded default ───────────────────────────────────────────────────────

// A missing client degrades to the minimal-confidence default instead of
// failing: score 50, tier Média, SLA 15, justification noting missing data.
func TestCompute_MissingClientDegrades(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	vaga := newVaga(true, 30)

	got := calc.Compute(vaga, nil, frozenNow)

	if got.Score != 50 || got.Tier != model.TierMedia || got.SLADays != 15 {
		t.Errorf("degraded default = (%d, %s, %d), want (50, MEDIA, 15)", got.Score, got.Tier, got.SLADays)
	}
	if !strings.Contains(got.Justification, "indisponíveis") {
		t.Errorf("justification should mention missing data, got %q", got.Justification)
	}
}

// ── Determinism ────────────────────────────────────────────────────────────

func TestCompute_Deterministic(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	vaga := newVaga(true, 20)
	billing := 42_000.0
	vaga.MonthlyBilling = &billing
	deadline := frozenNow.AddDate(0, 0, 5)
	vaga.Deadline = &deadline
	client := &model.Client{ID: "client-1", Name: "Acme", VIP: true}

	first := calc.Compute(vaga, client, frozenNow)
	for i := 0; i < 10; i++ {
		again := calc.Compute(vaga, client, frozenNow)
		if again != first {
			t.Fatalf("Compute is not deterministic: %+v != %+v", again, first)
		}
	}
}

// ── Telemetry factors ──────────────────────────────────────────────────────

// The factor breakdown is reported for transparency even though only the
// fallback arithmetic drives the final number.
func TestCompute_ReportsRawFactors(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	vaga := newVaga(false, 20)
	billing := 8_000.0
	vaga.MonthlyBilling = &billing
	client := &model.Client{ID: "client-1", Name: "Acme", VIP: true}

	got := calc.Compute(vaga, client, frozenNow)

	if got.Factors.DaysOpen != 20 {
		t.Errorf("Factors.DaysOpen = %d, want raw 20", got.Factors.DaysOpen)
	}
	if got.Factors.VIPBoost != 20 {
		t.Errorf("Factors.VIPBoost = %d, want 20", got.Factors.VIPBoost)
	}
	if got.Factors.Billing != 45 {
		t.Errorf("Factors.Billing = %d, want 45", got.Factors.Billing)
	}
	if got.Factors.Urgency != 50 { // no deadline, not urgent
		t.Errorf("Factors.Urgency = %d, want neutral 50", got.Factors.Urgency)
	}
}

// ── Clamping under extreme inputs ──────────────────────────────────────────

func TestCompute_AlwaysClamped(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultPolicy())
	negBilling := -5_000.0
	past := frozenNow.AddDate(-1, 0, 0)

	vagas := []*model.Vaga{
		newVaga(true, 100000),
		{ID: "v", ClientID: "c", CreatedAt: frozenNow.AddDate(1, 0, 0)}, // created "in the future"
		{ID: "v", ClientID: "c", MonthlyBilling: &negBilling, Deadline: &past, Urgent: true, CreatedAt: past},
	}
	clients := []*model.Client{nil, {ID: "c", VIP: true}, {ID: "c"}}

	for _, v := range vagas {
		for _, c := range clients {
			got := calc.Compute(v, c, frozenNow)
			if got.Score < 0 || got.Score > 100 {
				t.Errorf("Score %d out of [0,100] for vaga=%+v client=%+v", got.Score, v, c)
			}
		}
	}
}
