// Package distribution contains the core business logic of the vaga
// prioritization and analyst-distribution engine. It is transport-agnostic:
// the HTTP handler (handler.go) and the cron sweep (scheduler package) both
// delegate here, and every collaborator comes in through the ports
// interfaces — no database client, no global state.
package distribution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"raisa/distribution-service/internal/model"
	"raisa/distribution-service/internal/ports"
	"raisa/distribution-service/internal/scoring"
	"raisa/distribution-service/internal/workflow"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// Deps groups everything a Service needs. Now is optional and defaults to
// time.Now; tests freeze it.
type Deps struct {
	Vagas       ports.VagaRepository
	Clients     ports.ClientRepository
	Analysts    ports.AnalystRepository
	Adjustments ports.AdjustmentRepository
	Audit       ports.AuditRepository
	Scores      ports.ScoreRepository
	Notifier    ports.Notifier
	Policy      scoring.Policy
	Now         func() time.Time
}

// Service encapsulates all distribution business logic.
type Service struct {
	vagas       ports.VagaRepository
	clients     ports.ClientRepository
	analysts    ports.AnalystRepository
	adjustments ports.AdjustmentRepository
	audit       ports.AuditRepository
	scores      ports.ScoreRepository
	notifier    ports.Notifier
	calc        *scoring.Calculator
	fit         *scoring.FitScorer
	now         func() time.Time
}

// NewService returns a configured Service.
func NewService(d Deps) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		vagas:       d.Vagas,
		clients:     d.Clients,
		analysts:    d.Analysts,
		adjustments: d.Adjustments,
		audit:       d.Audit,
		scores:      d.Scores,
		notifier:    d.Notifier,
		calc:        scoring.NewCalculator(d.Policy),
		fit:         scoring.NewFitScorer(d.Policy),
		now:         now,
	}
}

// ─── Scoring operations ──────────────────────────────────────────────────────

// ComputePriority computes and persists a fresh priority score for the vaga.
// A missing client degrades to the documented minimal-confidence default; a
// missing vaga is the caller's bug and returns ErrNotFound. When the vaga sits
// in description_approved the computation advances it to
// awaiting_priority_approval, where it waits for manual approval.
func (s *Service) ComputePriority(ctx context.Context, vagaID string) (*model.PriorityScore, error) {
	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return nil, err
	}
	status, err := workflow.ParseStatus(vaga.StatusWorkflow)
	if err != nil {
		return nil, fmt.Errorf("computePriority: %w", err)
	}
	if workflow.IsClosed(status) {
		return nil, &StateError{Status: string(status), Msg: "cannot score a closed vaga"}
	}

	client, err := s.clients.GetClient(ctx, vaga.ClientID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("computePriority: %w", err)
	}

	score := s.calc.Compute(vaga, client, s.now())
	if err := s.scores.AppendPriorityScore(ctx, score); err != nil {
		return nil, fmt.Errorf("computePriority persist: %w", err)
	}

	if status == workflow.StatusDescriptionApproved {
		if err := s.transition(ctx, vaga.ID, status, workflow.StatusAwaitingPriorityApproval); err != nil {
			return nil, err
		}
	}

	s.notifier.PriorityReady(ctx, score)
	return &score, nil
}

// RecommendAnalysts returns the ranked analyst recommendations for the vaga.
// A priority score must exist (NotFound otherwise). An empty list is a valid
// answer — it means no analyst is currently eligible for distribution.
func (s *Service) RecommendAnalysts(ctx context.Context, vagaID string) ([]model.AnalystFitScore, error) {
	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return nil, err
	}

	priority, err := s.scores.LatestPriorityScore(ctx, vagaID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("no priority score for vaga %s: %w", vagaID, ErrNotFound)
		}
		return nil, fmt.Errorf("recommendAnalysts: %w", err)
	}

	roster, err := s.analysts.ListRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("recommendAnalysts roster: %w", err)
	}

	ids := make([]string, 0, len(roster))
	for _, a := range roster {
		ids = append(ids, a.ID)
	}
	adjustments, err := s.adjustments.ListAdjustments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("recommendAnalysts adjustments: %w", err)
	}

	ranking := s.fit.Recommend(vaga, priority, roster, adjustments, s.now())
	if len(ranking) > 0 {
		if err := s.scores.AppendFitScores(ctx, ranking); err != nil {
			return nil, fmt.Errorf("recommendAnalysts persist: %w", err)
		}
	}
	return ranking, nil
}

// ListVagas is a read passthrough used by the listing endpoint.
func (s *Service) ListVagas(ctx context.Context, filter ports.VagaFilter) ([]model.Vaga, error) {
	return s.vagas.ListVagas(ctx, filter)
}

// ─── Adjustment layer ────────────────────────────────────────────────────────

// AdjustmentPatch is a partial update of an analyst's adjustment record.
// Nil fields are left untouched. Clearing an override is explicit so that
// "not in the patch" and "remove the override" cannot be confused.
type AdjustmentPatch struct {
	ActiveForDistribution  *bool
	PriorityClass          *model.PriorityClass
	MaxConcurrentVagas     *int
	PerformanceMultiplier  *float64
	ExperienceBonus        *int
	StackFitOverride       *int
	ClearStackFitOverride  bool
	ClientFitOverride      *int
	ClearClientFitOverride bool
	Notes                  *string
}

// SaveAdjustment applies the patch to the analyst's current adjustment record
// under an optimistic version check and appends one history entry per changed
// field. A blank reason is rejected; a lost write race returns ErrConflict.
// A patch that changes nothing is a no-op.
func (s *Service) SaveAdjustment(ctx context.Context, analystID string, patch AdjustmentPatch, reason string, actor model.Actor) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Msg: "reason is required"}
	}
	if err := validatePatch(patch); err != nil {
		return err
	}
	if _, err := s.analysts.GetAnalyst(ctx, analystID); err != nil {
		return err
	}

	current, expectedVersion, err := s.currentAdjustment(ctx, analystID)
	if err != nil {
		return err
	}

	updated, changes := applyPatch(current, patch)
	if len(changes) == 0 {
		return nil
	}

	updated.UpdatedAt = s.now()
	if err := s.adjustments.SaveAdjustment(ctx, updated, expectedVersion); err != nil {
		return err
	}

	for _, c := range changes {
		entry := model.HistoryEntry{
			EntityType:    entityAnalystAdjustment,
			EntityID:      analystID,
			Field:         c.field,
			PreviousValue: c.prev,
			NewValue:      c.next,
			Reason:        reason,
			ActorID:       actor.ID,
			ActorName:     actor.Name,
			CreatedAt:     s.now(),
		}
		if err := s.audit.AppendHistory(ctx, entry); err != nil {
			return fmt.Errorf("saveAdjustment history: %w", err)
		}
	}
	return nil
}

// ResetAdjustment restores the analyst's adjustment record to onboarding
// defaults, logging a single history entry that captures the previous values.
func (s *Service) ResetAdjustment(ctx context.Context, analystID string, actor model.Actor) error {
	if _, err := s.analysts.GetAnalyst(ctx, analystID); err != nil {
		return err
	}

	current, expectedVersion, err := s.currentAdjustment(ctx, analystID)
	if err != nil {
		return err
	}

	previous, _ := json.Marshal(current)

	reset := model.DefaultAdjustment(analystID)
	reset.UpdatedAt = s.now()
	if err := s.adjustments.SaveAdjustment(ctx, reset, expectedVersion); err != nil {
		return err
	}

	defaults, _ := json.Marshal(reset)
	entry := model.HistoryEntry{
		EntityType:    entityAnalystAdjustment,
		EntityID:      analystID,
		Field:         "reset",
		PreviousValue: string(previous),
		NewValue:      string(defaults),
		Reason:        "reset to defaults",
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		CreatedAt:     s.now(),
	}
	if err := s.audit.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("resetAdjustment history: %w", err)
	}
	return nil
}

// AdjustmentHistory lists the audit trail of one analyst's adjustment record,
// newest first.
func (s *Service) AdjustmentHistory(ctx context.Context, analystID string) ([]model.HistoryEntry, error) {
	return s.audit.ListHistory(ctx, entityAnalystAdjustment, analystID)
}

// ─── Workflow operations ─────────────────────────────────────────────────────

// Redistribute reassigns a vaga to a different analyst. Only legal while the
// vaga is distributed or in progress; the reason is mandatory. The assignment
// update and the audit record are persisted in one transaction.
func (s *Service) Redistribute(ctx context.Context, vagaID, newAnalystID, reason string, actor model.Actor) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Msg: "a reason is required to redistribute a vaga"}
	}

	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return err
	}
	status, err := workflow.ParseStatus(vaga.StatusWorkflow)
	if err != nil {
		return fmt.Errorf("redistribute: %w", err)
	}
	if !workflow.AllowsRedistribution(status) {
		return &StateError{Status: string(status), Msg: "vaga can only be redistributed while distributed or in progress"}
	}

	analyst, err := s.analysts.GetAnalyst(ctx, newAnalystID)
	if err != nil {
		return err
	}

	rec := model.RedistributionRecord{
		VagaID:              vagaID,
		PreviousAnalystID:   vaga.AssignedAnalystID,
		PreviousAnalystName: vaga.AssignedAnalystName,
		NewAnalystID:        analyst.ID,
		NewAnalystName:      analyst.Name,
		Reason:              reason,
		ActorID:             actor.ID,
		ActorName:           actor.Name,
		CreatedAt:           s.now(),
	}
	if err := s.vagas.Redistribute(ctx, rec); err != nil {
		return fmt.Errorf("redistribute: %w", err)
	}

	s.notifier.Redistributed(ctx, rec)
	return nil
}

// DescriptionDecision is the outcome of a description review.
type DescriptionDecision string

const (
	DecisionApproved          DescriptionDecision = "approved"
	DecisionEditedAndApproved DescriptionDecision = "edited_and_approved"
	DecisionRejected          DescriptionDecision = "rejected"
)

// ApproveDescription records the human decision on an AI-improved
// description. Rejection routes the vaga back to draft; the two approval
// outcomes advance it and persist which text became canonical.
func (s *Service) ApproveDescription(ctx context.Context, vagaID string, decision DescriptionDecision, finalText string, actor model.Actor) error {
	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return err
	}
	status, err := workflow.ParseStatus(vaga.StatusWorkflow)
	if err != nil {
		return fmt.Errorf("approveDescription: %w", err)
	}
	if status != workflow.StatusAwaitingDescriptionApproval {
		return &StateError{Status: string(status), Msg: "vaga is not awaiting description approval"}
	}

	switch decision {
	case DecisionRejected:
		if err := s.transition(ctx, vagaID, status, workflow.StatusDraft); err != nil {
			return err
		}

	case DecisionApproved:
		// The AI suggestion becomes canonical. A vaga without a stored
		// suggestion keeps its current text.
		if vaga.AISuggestedDescription != nil {
			if err := s.vagas.SetDescription(ctx, vagaID, *vaga.AISuggestedDescription); err != nil {
				return fmt.Errorf("approveDescription: %w", err)
			}
		}
		if err := s.transition(ctx, vagaID, status, workflow.StatusDescriptionApproved); err != nil {
			return err
		}

	case DecisionEditedAndApproved:
		if strings.TrimSpace(finalText) == "" {
			return &ValidationError{Msg: "edited_and_approved requires the final text"}
		}
		if err := s.vagas.SetDescription(ctx, vagaID, finalText); err != nil {
			return fmt.Errorf("approveDescription: %w", err)
		}
		if err := s.transition(ctx, vagaID, status, workflow.StatusDescriptionApproved); err != nil {
			return err
		}

	default:
		return &ValidationError{Msg: fmt.Sprintf("unknown description decision %q", decision)}
	}

	entry := model.HistoryEntry{
		EntityType: entityVaga,
		EntityID:   vagaID,
		Field:      "description_decision",
		NewValue:   string(decision),
		Reason:     "description review",
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		CreatedAt:  s.now(),
	}
	if err := s.audit.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("approveDescription history: %w", err)
	}
	return nil
}

// ApprovePriority confirms the computed priority and moves the vaga into
// distribution. Requires an existing priority score.
func (s *Service) ApprovePriority(ctx context.Context, vagaID string, actor model.Actor) error {
	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return err
	}
	status, err := workflow.ParseStatus(vaga.StatusWorkflow)
	if err != nil {
		return fmt.Errorf("approvePriority: %w", err)
	}
	if status != workflow.StatusAwaitingPriorityApproval {
		return &StateError{Status: string(status), Msg: "vaga is not awaiting priority approval"}
	}

	score, err := s.scores.LatestPriorityScore(ctx, vagaID)
	if err != nil {
		if isNotFound(err) {
			return &StateError{Status: string(status), Msg: "no priority score computed for this vaga"}
		}
		return fmt.Errorf("approvePriority: %w", err)
	}

	if err := s.transition(ctx, vagaID, status, workflow.StatusDistributed); err != nil {
		return err
	}

	entry := model.HistoryEntry{
		EntityType: entityVaga,
		EntityID:   vagaID,
		Field:      "priority_approved",
		NewValue:   fmt.Sprintf("%d (%s)", score.Score, score.Tier),
		Reason:     "priority approval",
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		CreatedAt:  s.now(),
	}
	if err := s.audit.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("approvePriority history: %w", err)
	}
	return nil
}

// RequestAIReview moves a draft vaga into AI review. The LLM call itself is
// an external collaborator; this only records the trigger.
func (s *Service) RequestAIReview(ctx context.Context, vagaID string, actor model.Actor) error {
	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return err
	}
	status, err := workflow.ParseStatus(vaga.StatusWorkflow)
	if err != nil {
		return fmt.Errorf("requestAIReview: %w", err)
	}
	if status != workflow.StatusDraft {
		return &StateError{Status: string(status), Msg: "only a draft vaga can be sent for AI review"}
	}
	return s.transition(ctx, vagaID, status, workflow.StatusAwaitingAIReview)
}

// MarkDescriptionReady records the external collaborator's improved
// description and puts the vaga in front of a reviewer.
func (s *Service) MarkDescriptionReady(ctx context.Context, vagaID, suggestion string) error {
	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return err
	}
	status, err := workflow.ParseStatus(vaga.StatusWorkflow)
	if err != nil {
		return fmt.Errorf("markDescriptionReady: %w", err)
	}
	if status != workflow.StatusAwaitingAIReview {
		return &StateError{Status: string(status), Msg: "vaga is not in AI review"}
	}

	if strings.TrimSpace(suggestion) != "" {
		if err := s.vagas.SetAISuggestion(ctx, vagaID, suggestion); err != nil {
			return fmt.Errorf("markDescriptionReady: %w", err)
		}
	}
	if err := s.transition(ctx, vagaID, status, workflow.StatusAwaitingDescriptionApproval); err != nil {
		return err
	}

	s.notifier.DescriptionReady(ctx, vagaID)
	return nil
}

// advanceable lists the stages AdvanceWorkflow may target. Everything earlier
// goes through a dedicated approval action.
var advanceable = map[workflow.Status]bool{
	workflow.StatusInProgress:          true,
	workflow.StatusCVsSent:             true,
	workflow.StatusInterviewsScheduled: true,
	workflow.StatusClosed:              true,
}

// AdvanceWorkflow moves a vaga through the post-distribution stages
// (in_progress, cvs_sent, interviews_scheduled, closed), triggered by
// external actions such as CV sending. Skipping stages is rejected.
func (s *Service) AdvanceWorkflow(ctx context.Context, vagaID, next string, actor model.Actor) error {
	target, err := workflow.ParseStatus(next)
	if err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	if !advanceable[target] {
		return &ValidationError{Msg: fmt.Sprintf("status %s is reached through its dedicated action, not advance", target)}
	}

	vaga, err := s.vagas.GetVaga(ctx, vagaID)
	if err != nil {
		return err
	}
	status, err := workflow.ParseStatus(vaga.StatusWorkflow)
	if err != nil {
		return fmt.Errorf("advanceWorkflow: %w", err)
	}

	if err := s.transition(ctx, vagaID, status, target); err != nil {
		return err
	}

	entry := model.HistoryEntry{
		EntityType:    entityVaga,
		EntityID:      vagaID,
		Field:         "status_workflow",
		PreviousValue: string(status),
		NewValue:      string(target),
		Reason:        "workflow advance",
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		CreatedAt:     s.now(),
	}
	if err := s.audit.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("advanceWorkflow history: %w", err)
	}
	return nil
}

// ─── Sweep operations (called by the cron scheduler) ─────────────────────────

// RecomputeStalePriorities refreshes the priority of every open
// pre-distribution vaga whose newest score is older than maxAge. Days-open
// drifts daily, so stale scores slowly under-report priority.
func (s *Service) RecomputeStalePriorities(ctx context.Context, maxAge time.Duration) error {
	ids, err := s.scores.ListStalePriorityVagas(ctx, s.now().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("stale priority listing: %w", err)
	}
	for _, id := range ids {
		if _, err := s.ComputePriority(ctx, id); err != nil {
			slog.Warn("stale priority recompute failed", "vagaId", id, "err", err)
		}
	}
	return nil
}

// EvaluateAdjustmentImpacts fills the before/after impact fields of
// adjustment history entries at least minAge old, once the analyst has
// enough closed vagas on both sides of the change.
func (s *Service) EvaluateAdjustmentImpacts(ctx context.Context, minAge time.Duration, minSamples int) error {
	entries, err := s.audit.ListPendingImpact(ctx, s.now().Add(-minAge))
	if err != nil {
		return fmt.Errorf("pending impact listing: %w", err)
	}

	for _, e := range entries {
		if e.EntityType != entityAnalystAdjustment {
			continue
		}
		durations, err := s.vagas.ClosedDurations(ctx, e.EntityID)
		if err != nil {
			slog.Warn("impact evaluation: closed durations failed", "analystId", e.EntityID, "err", err)
			continue
		}
		before, after, impact, ok := MeasureImpact(e.CreatedAt, durations, minSamples)
		if !ok {
			continue
		}
		if err := s.audit.SetImpact(ctx, e.ID, before, after, impact); err != nil {
			slog.Warn("impact evaluation: persist failed", "entryId", e.ID, "err", err)
		}
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

const (
	entityAnalystAdjustment = "analyst_adjustment"
	entityVaga              = "vaga"
)

// transition applies a guarded workflow status change. The legality check
// runs here; the repository guard catches concurrent movers.
func (s *Service) transition(ctx context.Context, vagaID string, from, to workflow.Status) error {
	if !workflow.IsTransitionAllowed(from, to) {
		return &StateError{Status: string(from), Msg: fmt.Sprintf("transition %s → %s is not allowed", from, to)}
	}
	if err := s.vagas.UpdateStatus(ctx, vagaID, string(from), string(to)); err != nil {
		return fmt.Errorf("transition %s → %s: %w", from, to, err)
	}
	return nil
}

// currentAdjustment returns the analyst's current record plus the version the
// next save must compare against. Analysts without a record run on defaults
// at version 0.
func (s *Service) currentAdjustment(ctx context.Context, analystID string) (model.AnalystAdjustment, int64, error) {
	current, err := s.adjustments.GetAdjustment(ctx, analystID)
	if err != nil {
		if isNotFound(err) {
			return model.DefaultAdjustment(analystID), 0, nil
		}
		return model.AnalystAdjustment{}, 0, err
	}
	return *current, current.Version, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
