// Package model defines the shared domain structures of the distribution
// service: vagas (job requisitions), clients, analysts, adjustment records
// and the score/audit records the engine emits.
package model

import "time"

// Seniority mirrors the seniority_tier enum in PostgreSQL.
type Seniority string

const (
	SeniorityJunior       Seniority = "JUNIOR"
	SeniorityPleno        Seniority = "PLENO"
	SenioritySenior       Seniority = "SENIOR"
	SeniorityEspecialista Seniority = "ESPECIALISTA"
)

// Actor identifies the user performing a mutating action. Both fields come
// from the x-user-id / x-user-name headers forwarded by the Gateway.
type Actor struct {
	ID   string
	Name string
}

// ─── Vaga ────────────────────────────────────────────────────────────────────

// Vaga is a job requisition as read from the vagas table.
// StatusWorkflow holds one of the workflow.Status values; it is kept as a
// plain string here and parsed at the workflow boundary.
type Vaga struct {
	ID                     string
	Title                  string
	Description            string
	AISuggestedDescription *string
	Stack                  []string
	Seniority              Seniority
	MonthlyBilling         *float64
	ClientID               string
	Urgent                 bool
	Deadline               *time.Time
	StatusWorkflow         string
	AssignedAnalystID      *string
	AssignedAnalystName    *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// DaysOpen returns the whole days elapsed since the vaga was created.
// Recomputed on read — never stored authoritatively.
func (v *Vaga) DaysOpen(now time.Time) int {
	d := int(now.Sub(v.CreatedAt).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// DaysUntilDeadline returns the whole days remaining before the closing
// deadline. The second return is false when no deadline is set.
func (v *Vaga) DaysUntilDeadline(now time.Time) (int, bool) {
	if v.Deadline == nil {
		return 0, false
	}
	return int(v.Deadline.Sub(now).Hours() / 24), true
}

// ─── Client ──────────────────────────────────────────────────────────────────

// Client carries the billing-relationship attributes used as scoring inputs.
type Client struct {
	ID        string
	Name      string
	VIP       bool
	CreatedAt time.Time
}

// ─── Analyst ─────────────────────────────────────────────────────────────────

// ClientHistory is one entry of an analyst's per-client track record.
// ApprovalRate is a percentage in [0,100].
type ClientHistory struct {
	ApprovalRate float64 `json:"approvalRate"`
	ClosedCount  int     `json:"closedCount"`
}

// Analyst is the immutable roster snapshot the distribution engine scores
// against. It is mutated only by the surrounding CRUD layer.
type Analyst struct {
	ID                  string
	Name                string
	Experience          []string
	ActiveVagas         int
	ClientHistory       map[string]ClientHistory
	OverallApprovalRate float64 // percentage, [0,100]
	AvgDaysToClose      float64
}

// ─── Analyst adjustment ──────────────────────────────────────────────────────

// PriorityClass biases an analyst's final match score.
type PriorityClass string

const (
	ClassHigh   PriorityClass = "HIGH"
	ClassNormal PriorityClass = "NORMAL"
	ClassLow    PriorityClass = "LOW"
)

// Adjustment bounds enforced on every save.
const (
	MinPerformanceMultiplier = 0.5
	MaxPerformanceMultiplier = 2.0
	MaxExperienceBonus       = 20
)

// AnalystAdjustment is the single mutable per-analyst record the override
// layer maintains. Version backs the optimistic compare-and-swap on save:
// a writer holding a stale version loses with a conflict error.
type AnalystAdjustment struct {
	AnalystID             string
	ActiveForDistribution bool
	PriorityClass         PriorityClass
	MaxConcurrentVagas    int
	PerformanceMultiplier float64 // [0.5, 2.0], multiplicative on the final score
	ExperienceBonus       int     // [0, 20], additive fixed points
	StackFitOverride      *int    // [0, 100], replaces the computed stack fit
	ClientFitOverride     *int    // [0, 100], replaces the computed client fit
	Notes                 string
	Version               int64
	UpdatedAt             time.Time
}

// DefaultAdjustment returns the record every analyst starts with on
// onboarding and returns to after an explicit reset.
func DefaultAdjustment(analystID string) AnalystAdjustment {
	return AnalystAdjustment{
		AnalystID:             analystID,
		ActiveForDistribution: true,
		PriorityClass:         ClassNormal,
		MaxConcurrentVagas:    5,
		PerformanceMultiplier: 1.0,
		ExperienceBonus:       0,
	}
}

// ─── Audit trail ─────────────────────────────────────────────────────────────

// Impact labels assigned once enough post-change data exists.
const (
	ImpactPositive = "POSITIVE"
	ImpactNegative = "NEGATIVE"
	ImpactNeutral  = "NEUTRAL"
)

// HistoryEntry is one append-only audit record. Entries are never mutated or
// deleted; the only later write is the one-time fill of the impact fields.
type HistoryEntry struct {
	ID            string
	EntityType    string // e.g. "analyst_adjustment", "vaga"
	EntityID      string
	Field         string
	PreviousValue string
	NewValue      string
	Reason        string
	ActorID       string
	ActorName     string
	CreatedAt     time.Time

	// Filled by the impact sweep once enough closures exist on both sides.
	AvgDaysBefore *float64
	AvgDaysAfter  *float64
	Impact        *string
}

// ─── Priority score ──────────────────────────────────────────────────────────

// PriorityTier buckets a priority score.
type PriorityTier string

const (
	TierAlta  PriorityTier = "ALTA"
	TierMedia PriorityTier = "MEDIA"
	TierBaixa PriorityTier = "BAIXA"
)

// PriorityFactors carries the raw sub-factor values reported alongside the
// final number (fatores_considerados) for transparency. DaysOpen is the raw
// elapsed-day count, not a normalized score.
type PriorityFactors struct {
	Urgency         int `json:"urgencia"`
	Billing         int `json:"faturamento"`
	StackComplexity int `json:"complexidade_stack"`
	VIPBoost        int `json:"boost_vip"`
	DaysOpen        int `json:"tempo_vaga_aberta"`
}

// PriorityScore is one computation result for a vaga. Scores are appended and
// superseded by later computations; readers take the newest by ComputedAt.
type PriorityScore struct {
	VagaID        string
	Score         int // [0, 100]
	Tier          PriorityTier
	SLADays       int
	Justification string
	Factors       PriorityFactors
	ComputedAt    time.Time
}

// ─── Analyst fit score ───────────────────────────────────────────────────────

// AdequacyTier buckets an analyst match score.
type AdequacyTier string

const (
	AdequacyExcelente AdequacyTier = "EXCELENTE"
	AdequacyBom       AdequacyTier = "BOM"
	AdequacyRegular   AdequacyTier = "REGULAR"
	AdequacyBaixo     AdequacyTier = "BAIXO"
)

// FitFactors carries the four raw factor values behind a match score.
type FitFactors struct {
	StackFit          int `json:"fit_stack"`
	ClientFit         int `json:"fit_cliente"`
	Availability      int `json:"disponibilidade"`
	HistoricalSuccess int `json:"sucesso_historico"`
}

// AnalystFitScore is one ranked recommendation entry for a vaga.
// Same append-and-supersede lifecycle as PriorityScore.
type AnalystFitScore struct {
	VagaID               string
	AnalystID            string
	AnalystName          string
	Score                int // [0, 100]
	Tier                 AdequacyTier
	Factors              FitFactors
	EstimatedDaysToClose int
	Recommendation       string
	ComputedAt           time.Time
}

// ─── Redistribution ──────────────────────────────────────────────────────────

// RedistributionRecord is the append-only audit record of a vaga changing
// hands. Previous analyst fields are nil on first assignment.
type RedistributionRecord struct {
	ID                  string
	VagaID              string
	PreviousAnalystID   *string
	PreviousAnalystName *string
	NewAnalystID        string
	NewAnalystName      string
	Reason              string
	ActorID             string
	ActorName           string
	CreatedAt           time.Time
}

// ClosedDuration is one closed vaga of an analyst, used by the
// adjustment-impact sweep to compare days-to-close before and after a change.
type ClosedDuration struct {
	ClosedAt time.Time
	Days     float64
}
