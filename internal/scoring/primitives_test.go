package scoring_test

import (
	"testing"

	"raisa/distribution-service/internal/model"
	"raisa/distribution-service/internal/scoring"
)

// ── UrgencyScore ───────────────────────────────────────────────────────────

func TestUrgencyScore_UrgentFlagWins(t *testing.T) {
	// The urgent flag takes precedence over any deadline distance.
	for _, days := range []int{-10, 0, 5, 50} {
		if got := scoring.UrgencyScore(true, days, true); got != 90 {
			t.Errorf("UrgencyScore(urgent, %d days) = %d, want 90", days, got)
		}
	}
}

func TestUrgencyScore_NoDeadline(t *testing.T) {
	if got := scoring.UrgencyScore(false, 0, false); got != 50 {
		t.Errorf("UrgencyScore without deadline = %d, want neutral 50", got)
	}
}

func TestUrgencyScore_DecreasingInDeadlineDistance(t *testing.T) {
	cases := []struct {
		days int
		want int
	}{
		{-5, 100}, // overdue
		{0, 100},
		{3, 100},
		{7, 85},
		{15, 70},
		{30, 45},
		{90, 20}, // floor
	}
	prev := 101
	for _, c := range cases {
		got := scoring.UrgencyScore(true, c.days, false)
		if got != c.want {
			t.Errorf("UrgencyScore(%d days) = %d, want %d", c.days, got, c.want)
		}
		if got > prev {
			t.Errorf("UrgencyScore must be non-increasing: %d days scored %d > previous %d", c.days, got, prev)
		}
		prev = got
	}
}

// ── BillingScore ───────────────────────────────────────────────────────────

func TestBillingScore_MissingIsNeutral(t *testing.T) {
	for _, v := range []float64{0, -1, -100000} {
		if got := scoring.BillingScore(v); got != 50 {
			t.Errorf("BillingScore(%v) = %d, want neutral 50", v, got)
		}
	}
}

func TestBillingScore_IncreasingAndSaturating(t *testing.T) {
	cases := []struct {
		billing float64
		want    int
	}{
		{1_000, 30},
		{5_000, 30},
		{8_000, 45},
		{15_000, 60},
		{30_000, 75},
		{45_000, 90},
		{50_001, 100},
		{1_000_000, 100}, // saturated
	}
	prev := -1
	for _, c := range cases {
		got := scoring.BillingScore(c.billing)
		if got != c.want {
			t.Errorf("BillingScore(%v) = %d, want %d", c.billing, got, c.want)
		}
		if got < prev {
			t.Errorf("BillingScore must be non-decreasing: %v scored %d < previous %d", c.billing, got, prev)
		}
		prev = got
	}
}

// ── VIPBoost ───────────────────────────────────────────────────────────────

func TestVIPBoost(t *testing.T) {
	if got := scoring.VIPBoost(true); got != 20 {
		t.Errorf("VIPBoost(true) = %d, want 20", got)
	}
	if got := scoring.VIPBoost(false); got != 0 {
		t.Errorf("VIPBoost(false) = %d, want 0", got)
	}
}

// ── TimeOpenScore ──────────────────────────────────────────────────────────

func TestTimeOpenScore_IncreasingInDaysOpen(t *testing.T) {
	prev := -1
	for _, days := range []int{-3, 0, 3, 7, 15, 30, 200} {
		got := scoring.TimeOpenScore(days)
		if got < 0 || got > 100 {
			t.Fatalf("TimeOpenScore(%d) = %d out of [0,100]", days, got)
		}
		if got < prev {
			t.Errorf("TimeOpenScore must be non-decreasing: %d days scored %d < previous %d", days, got, prev)
		}
		prev = got
	}
}

// ── StackComplexityScore ───────────────────────────────────────────────────

func TestStackComplexityScore_EmptyStackIsNeutral(t *testing.T) {
	if got := scoring.StackComplexityScore(nil, model.SenioritySenior); got != 50 {
		t.Errorf("StackComplexityScore(empty) = %d, want neutral 50", got)
	}
}

func TestStackComplexityScore_SeniorityRaisesScore(t *testing.T) {
	stack := []string{"Go", "Kubernetes", "PostgreSQL", "Kafka", "Terraform"}
	junior := scoring.StackComplexityScore(stack, model.SeniorityJunior)
	pleno := scoring.StackComplexityScore(stack, model.SeniorityPleno)
	senior := scoring.StackComplexityScore(stack, model.SenioritySenior)
	esp := scoring.StackComplexityScore(stack, model.SeniorityEspecialista)

	if !(junior < pleno && pleno < senior && senior < esp) {
		t.Errorf("expected strictly increasing by seniority, got %d %d %d %d", junior, pleno, senior, esp)
	}
}

// ── Totality / clamping under extreme inputs ───────────────────────────────

func TestPrimitives_AlwaysInRange(t *testing.T) {
	days := []int{-1000, -1, 0, 1, 14, 99, 100000}
	billings := []float64{-1e12, -1, 0, 0.01, 1e12}
	stacks := [][]string{nil, {}, {"Go"}, make([]string, 50)}
	seniorities := []model.Seniority{"", model.SeniorityJunior, model.SeniorityEspecialista, "UNKNOWN"}

	check := func(name string, got int) {
		t.Helper()
		if got < 0 || got > 100 {
			t.Errorf("%s = %d out of [0,100]", name, got)
		}
	}

	for _, d := range days {
		check("UrgencyScore", scoring.UrgencyScore(true, d, false))
		check("UrgencyScore", scoring.UrgencyScore(false, d, true))
		check("TimeOpenScore", scoring.TimeOpenScore(d))
	}
	for _, b := range billings {
		check("BillingScore", scoring.BillingScore(b))
	}
	for _, st := range stacks {
		for _, sen := range seniorities {
			check("StackComplexityScore", scoring.StackComplexityScore(st, sen))
		}
	}
}
