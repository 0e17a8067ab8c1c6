// Package ports declares the repository and notifier interfaces the
// distribution core depends on. The core never touches a database client
// directly — implementations live in storage and notify, tests substitute
// in-memory fakes.
package ports

import (
	"context"
	"time"

	"raisa/distribution-service/internal/model"
)

// VagaFilter narrows a vaga listing. Zero values mean "no filter".
type VagaFilter struct {
	Status   string
	ClientID string
	Urgent   *bool
}

// VagaRepository provides read access to vagas plus the narrow mutations the
// workflow needs.
type VagaRepository interface {
	GetVaga(ctx context.Context, id string) (*model.Vaga, error)
	ListVagas(ctx context.Context, filter VagaFilter) ([]model.Vaga, error)

	// UpdateStatus moves a vaga from one workflow status to another.
	// The write is guarded: it only applies while the vaga is still in
	// `from`, so two concurrent transitions cannot interleave.
	UpdateStatus(ctx context.Context, id string, from, to string) error

	// SetDescription replaces the canonical description text.
	SetDescription(ctx context.Context, id, text string) error

	// SetAISuggestion stores the AI-improved description awaiting approval.
	SetAISuggestion(ctx context.Context, id, text string) error

	// Redistribute reassigns the vaga and appends the audit record in one
	// transaction — either both writes land or neither does.
	Redistribute(ctx context.Context, rec model.RedistributionRecord) error

	// ClosedDurations returns the days-to-close of every closed vaga the
	// analyst worked, for the adjustment-impact sweep.
	ClosedDurations(ctx context.Context, analystID string) ([]model.ClosedDuration, error)
}

// ClientRepository resolves client records for scoring.
type ClientRepository interface {
	GetClient(ctx context.Context, id string) (*model.Client, error)
}

// AnalystRepository provides the roster snapshot the fit scorer reads.
type AnalystRepository interface {
	GetAnalyst(ctx context.Context, id string) (*model.Analyst, error)
	ListRoster(ctx context.Context) ([]model.Analyst, error)
}

// AdjustmentRepository maintains the single current adjustment record per
// analyst.
type AdjustmentRepository interface {
	// GetAdjustment returns the current record, or ErrNotFound when the
	// analyst still runs on onboarding defaults.
	GetAdjustment(ctx context.Context, analystID string) (*model.AnalystAdjustment, error)

	// ListAdjustments returns the current records for the given analysts,
	// keyed by analyst ID. Analysts without a record are simply absent.
	ListAdjustments(ctx context.Context, analystIDs []string) (map[string]model.AnalystAdjustment, error)

	// SaveAdjustment persists adj if and only if the stored version still
	// equals expectedVersion (0 for a first write). A lost race returns
	// ErrConflict — the caller re-fetches and retries.
	SaveAdjustment(ctx context.Context, adj model.AnalystAdjustment, expectedVersion int64) error
}

// AuditRepository is the append-only history log. No update or delete is
// exposed — the single later write is the one-time impact fill.
type AuditRepository interface {
	AppendHistory(ctx context.Context, e model.HistoryEntry) error
	ListHistory(ctx context.Context, entityType, entityID string) ([]model.HistoryEntry, error)

	// ListPendingImpact returns entries older than the cutoff whose impact
	// fields are still empty.
	ListPendingImpact(ctx context.Context, olderThan time.Time) ([]model.HistoryEntry, error)

	// SetImpact fills the impact fields of one entry. It only writes while
	// the fields are still empty; a second call is a no-op.
	SetImpact(ctx context.Context, entryID string, before, after float64, impact string) error
}

// ScoreRepository persists the recompute-and-supersede score records.
// Nothing is ever updated in place; readers take the newest by timestamp.
type ScoreRepository interface {
	AppendPriorityScore(ctx context.Context, s model.PriorityScore) error
	LatestPriorityScore(ctx context.Context, vagaID string) (*model.PriorityScore, error)
	AppendFitScores(ctx context.Context, scores []model.AnalystFitScore) error

	// ListStalePriorityVagas returns open pre-distribution vagas whose
	// newest priority score is older than the cutoff (or missing).
	ListStalePriorityVagas(ctx context.Context, before time.Time) ([]string, error)
}

// Notifier is the fire-and-forget event sink. Implementations log failures
// and never propagate them — a lost notification must not roll back the
// core write.
type Notifier interface {
	DescriptionReady(ctx context.Context, vagaID string)
	PriorityReady(ctx context.Context, score model.PriorityScore)
	Redistributed(ctx context.Context, rec model.RedistributionRecord)
}
