// Package storage implements the ports repositories on PostgreSQL (pgx).
//
// All audit collections are append-only at the SQL level: the only UPDATE on
// adjustment_history is the one-time impact fill, guarded by impact IS NULL.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"raisa/distribution-service/internal/distribution"
	"raisa/distribution-service/internal/model"
	"raisa/distribution-service/internal/ports"
	"raisa/distribution-service/internal/workflow"
)

// psql builds queries with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements every repository port on a shared pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a configured Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Interface guards.
var (
	_ ports.VagaRepository       = (*Store)(nil)
	_ ports.ClientRepository     = (*Store)(nil)
	_ ports.AnalystRepository    = (*Store)(nil)
	_ ports.AdjustmentRepository = (*Store)(nil)
	_ ports.AuditRepository      = (*Store)(nil)
	_ ports.ScoreRepository      = (*Store)(nil)
)

// ─── Vagas ───────────────────────────────────────────────────────────────────

const vagaColumns = `id, title, description, ai_suggested_description, stack,
       seniority, monthly_billing, client_id, urgent, deadline,
       status_workflow, assigned_analyst_id, assigned_analyst_name,
       created_at, updated_at`

// GetVaga returns a single vaga by ID.
func (s *Store) GetVaga(ctx context.Context, id string) (*model.Vaga, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+vagaColumns+` FROM vagas WHERE id = $1`, id)
	v, err := scanVaga(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("vaga %s: %w", id, distribution.ErrNotFound)
		}
		return nil, fmt.Errorf("getVaga: %w", err)
	}
	return v, nil
}

// ListVagas returns vagas matching the filter, newest first.
func (s *Store) ListVagas(ctx context.Context, filter ports.VagaFilter) ([]model.Vaga, error) {
	b := psql.Select(vagaColumns).From("vagas").OrderBy("updated_at DESC")
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status_workflow": filter.Status})
	}
	if filter.ClientID != "" {
		b = b.Where(sq.Eq{"client_id": filter.ClientID})
	}
	if filter.Urgent != nil {
		b = b.Where(sq.Eq{"urgent": *filter.Urgent})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("listVagas build: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listVagas query: %w", err)
	}
	defer rows.Close()

	vagas := make([]model.Vaga, 0)
	for rows.Next() {
		v, err := scanVaga(rows)
		if err != nil {
			return nil, fmt.Errorf("listVagas scan: %w", err)
		}
		vagas = append(vagas, *v)
	}
	return vagas, rows.Err()
}

// UpdateStatus moves a vaga between workflow statuses. The WHERE guard on the
// current status makes concurrent movers lose with a conflict instead of
// silently double-transitioning. Reaching closed also stamps closed_at.
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE vagas
		 SET status_workflow = $1::vaga_workflow_status,
		     closed_at       = CASE WHEN $1 = 'closed' THEN NOW() ELSE closed_at END,
		     updated_at      = NOW()
		 WHERE id = $2 AND status_workflow = $3::vaga_workflow_status`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("updateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vaga %s moved away from %s: %w", id, from, distribution.ErrConflict)
	}
	return nil
}

// SetDescription replaces the canonical description text.
func (s *Store) SetDescription(ctx context.Context, id, text string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE vagas SET description = $1, updated_at = NOW() WHERE id = $2`, text, id)
	if err != nil {
		return fmt.Errorf("setDescription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vaga %s: %w", id, distribution.ErrNotFound)
	}
	return nil
}

// SetAISuggestion stores the AI-improved description awaiting approval.
func (s *Store) SetAISuggestion(ctx context.Context, id, text string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE vagas SET ai_suggested_description = $1, updated_at = NOW() WHERE id = $2`, text, id)
	if err != nil {
		return fmt.Errorf("setAISuggestion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vaga %s: %w", id, distribution.ErrNotFound)
	}
	return nil
}

// Redistribute updates the vaga's assignment and appends the audit record in
// a single transaction — either both land or neither does.
func (s *Store) Redistribute(ctx context.Context, rec model.RedistributionRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("redistribute begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE vagas
		 SET assigned_analyst_id = $1, assigned_analyst_name = $2, updated_at = NOW()
		 WHERE id = $3`,
		rec.NewAnalystID, rec.NewAnalystName, rec.VagaID,
	)
	if err != nil {
		return fmt.Errorf("redistribute update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vaga %s: %w", rec.VagaID, distribution.ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO redistributions
		   (vaga_id, previous_analyst_id, previous_analyst_name,
		    new_analyst_id, new_analyst_name, reason, actor_id, actor_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.VagaID, rec.PreviousAnalystID, rec.PreviousAnalystName,
		rec.NewAnalystID, rec.NewAnalystName, rec.Reason, rec.ActorID, rec.ActorName, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("redistribute insert: %w", err)
	}

	return tx.Commit(ctx)
}

// ClosedDurations returns the days-to-close of every closed vaga the analyst
// worked, used by the adjustment-impact sweep.
func (s *Store) ClosedDurations(ctx context.Context, analystID string) ([]model.ClosedDuration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT closed_at, EXTRACT(EPOCH FROM (closed_at - created_at)) / 86400.0
		 FROM vagas
		 WHERE assigned_analyst_id = $1
		   AND status_workflow = 'closed'
		   AND closed_at IS NOT NULL`,
		analystID,
	)
	if err != nil {
		return nil, fmt.Errorf("closedDurations query: %w", err)
	}
	defer rows.Close()

	out := make([]model.ClosedDuration, 0)
	for rows.Next() {
		var d model.ClosedDuration
		if err := rows.Scan(&d.ClosedAt, &d.Days); err != nil {
			return nil, fmt.Errorf("closedDurations scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ─── Clients ─────────────────────────────────────────────────────────────────

// GetClient returns a single client by ID.
func (s *Store) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, vip, created_at FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.VIP, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", id, distribution.ErrNotFound)
		}
		return nil, fmt.Errorf("getClient: %w", err)
	}
	return &c, nil
}

// ─── Analysts ────────────────────────────────────────────────────────────────

const analystColumns = `id, name, experience, active_vagas, client_history,
       overall_approval_rate, avg_days_to_close`

// GetAnalyst returns a single analyst snapshot by ID.
func (s *Store) GetAnalyst(ctx context.Context, id string) (*model.Analyst, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+analystColumns+` FROM analysts WHERE id = $1`, id)
	a, err := scanAnalyst(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("analyst %s: %w", id, distribution.ErrNotFound)
		}
		return nil, fmt.Errorf("getAnalyst: %w", err)
	}
	return a, nil
}

// ListRoster returns every analyst, ID ascending for stable iteration.
func (s *Store) ListRoster(ctx context.Context) ([]model.Analyst, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+analystColumns+` FROM analysts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listRoster query: %w", err)
	}
	defer rows.Close()

	roster := make([]model.Analyst, 0)
	for rows.Next() {
		a, err := scanAnalyst(rows)
		if err != nil {
			return nil, fmt.Errorf("listRoster scan: %w", err)
		}
		roster = append(roster, *a)
	}
	return roster, rows.Err()
}

// ─── Adjustments ─────────────────────────────────────────────────────────────

const adjustmentColumns = `analyst_id, active_for_distribution, priority_class,
       max_concurrent_vagas, performance_multiplier, experience_bonus,
       stack_fit_override, client_fit_override, notes, version, updated_at`

// GetAdjustment returns the analyst's current adjustment record, or
// ErrNotFound when the analyst still runs on onboarding defaults.
func (s *Store) GetAdjustment(ctx context.Context, analystID string) (*model.AnalystAdjustment, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+adjustmentColumns+` FROM analyst_adjustments WHERE analyst_id = $1`, analystID)
	adj, err := scanAdjustment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("adjustment for analyst %s: %w", analystID, distribution.ErrNotFound)
		}
		return nil, fmt.Errorf("getAdjustment: %w", err)
	}
	return adj, nil
}

// ListAdjustments returns the current records for the given analysts, keyed
// by analyst ID.
func (s *Store) ListAdjustments(ctx context.Context, analystIDs []string) (map[string]model.AnalystAdjustment, error) {
	out := make(map[string]model.AnalystAdjustment, len(analystIDs))
	if len(analystIDs) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+adjustmentColumns+` FROM analyst_adjustments WHERE analyst_id = ANY($1)`, analystIDs)
	if err != nil {
		return nil, fmt.Errorf("listAdjustments query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("listAdjustments scan: %w", err)
		}
		out[adj.AnalystID] = *adj
	}
	return out, rows.Err()
}

// SaveAdjustment persists the record under an optimistic version check.
// expectedVersion 0 means "no record yet" and inserts; anything else updates
// only while the stored version still matches. Either way a lost race
// returns ErrConflict.
func (s *Store) SaveAdjustment(ctx context.Context, adj model.AnalystAdjustment, expectedVersion int64) error {
	var (
		tag pgconn.CommandTag
		err error
	)

	if expectedVersion == 0 {
		tag, err = s.pool.Exec(ctx,
			`INSERT INTO analyst_adjustments
			   (analyst_id, active_for_distribution, priority_class, max_concurrent_vagas,
			    performance_multiplier, experience_bonus, stack_fit_override,
			    client_fit_override, notes, version, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)
			 ON CONFLICT (analyst_id) DO NOTHING`,
			adj.AnalystID, adj.ActiveForDistribution, adj.PriorityClass, adj.MaxConcurrentVagas,
			adj.PerformanceMultiplier, adj.ExperienceBonus, adj.StackFitOverride,
			adj.ClientFitOverride, adj.Notes, adj.UpdatedAt,
		)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE analyst_adjustments
			 SET active_for_distribution = $1, priority_class = $2, max_concurrent_vagas = $3,
			     performance_multiplier = $4, experience_bonus = $5, stack_fit_override = $6,
			     client_fit_override = $7, notes = $8, version = version + 1, updated_at = $9
			 WHERE analyst_id = $10 AND version = $11`,
			adj.ActiveForDistribution, adj.PriorityClass, adj.MaxConcurrentVagas,
			adj.PerformanceMultiplier, adj.ExperienceBonus, adj.StackFitOverride,
			adj.ClientFitOverride, adj.Notes, adj.UpdatedAt,
			adj.AnalystID, expectedVersion,
		)
	}
	if err != nil {
		return fmt.Errorf("saveAdjustment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("adjustment for analyst %s: %w", adj.AnalystID, distribution.ErrConflict)
	}
	return nil
}

// ─── Audit trail ─────────────────────────────────────────────────────────────

// AppendHistory inserts one audit entry. There is deliberately no update or
// delete counterpart.
func (s *Store) AppendHistory(ctx context.Context, e model.HistoryEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO adjustment_history
		   (entity_type, entity_id, field, previous_value, new_value,
		    reason, actor_id, actor_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.EntityType, e.EntityID, e.Field, e.PreviousValue, e.NewValue,
		e.Reason, e.ActorID, e.ActorName, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appendHistory: %w", err)
	}
	return nil
}

const historyColumns = `id, entity_type, entity_id, field, previous_value, new_value,
       reason, actor_id, actor_name, created_at, avg_days_before, avg_days_after, impact`

// ListHistory returns the audit trail for one entity, newest first.
func (s *Store) ListHistory(ctx context.Context, entityType, entityID string) ([]model.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+historyColumns+`
		 FROM adjustment_history
		 WHERE entity_type = $1 AND entity_id = $2
		 ORDER BY created_at DESC`,
		entityType, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("listHistory query: %w", err)
	}
	defer rows.Close()
	return collectHistory(rows)
}

// ListPendingImpact returns entries older than the cutoff whose impact fields
// are still empty.
func (s *Store) ListPendingImpact(ctx context.Context, olderThan time.Time) ([]model.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+historyColumns+`
		 FROM adjustment_history
		 WHERE impact IS NULL AND created_at < $1
		 ORDER BY created_at`,
		olderThan,
	)
	if err != nil {
		return nil, fmt.Errorf("listPendingImpact query: %w", err)
	}
	defer rows.Close()
	return collectHistory(rows)
}

// SetImpact fills the impact fields of one entry. The impact IS NULL guard
// keeps the fill one-time: a second call is a no-op.
func (s *Store) SetImpact(ctx context.Context, entryID string, before, after float64, impact string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE adjustment_history
		 SET avg_days_before = $1, avg_days_after = $2, impact = $3
		 WHERE id = $4 AND impact IS NULL`,
		before, after, impact, entryID,
	)
	if err != nil {
		return fmt.Errorf("setImpact: %w", err)
	}
	return nil
}

// ─── Scores ──────────────────────────────────────────────────────────────────

// AppendPriorityScore inserts one priority computation. Prior rows are never
// touched; readers take the newest by computed_at.
func (s *Store) AppendPriorityScore(ctx context.Context, score model.PriorityScore) error {
	factors, err := json.Marshal(score.Factors)
	if err != nil {
		return fmt.Errorf("appendPriorityScore marshal: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO vaga_priority_scores
		   (vaga_id, score, tier, sla_days, justification, factors, computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		score.VagaID, score.Score, score.Tier, score.SLADays,
		score.Justification, factors, score.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("appendPriorityScore: %w", err)
	}
	return nil
}

// LatestPriorityScore returns the newest priority computation for a vaga.
func (s *Store) LatestPriorityScore(ctx context.Context, vagaID string) (*model.PriorityScore, error) {
	var (
		score   model.PriorityScore
		factors []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT vaga_id, score, tier, sla_days, justification, factors, computed_at
		 FROM vaga_priority_scores
		 WHERE vaga_id = $1
		 ORDER BY computed_at DESC
		 LIMIT 1`,
		vagaID,
	).Scan(&score.VagaID, &score.Score, &score.Tier, &score.SLADays,
		&score.Justification, &factors, &score.ComputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("priority score for vaga %s: %w", vagaID, distribution.ErrNotFound)
		}
		return nil, fmt.Errorf("latestPriorityScore: %w", err)
	}
	if err := json.Unmarshal(factors, &score.Factors); err != nil {
		return nil, fmt.Errorf("latestPriorityScore factors: %w", err)
	}
	return &score, nil
}

// AppendFitScores inserts one full recommendation ranking.
func (s *Store) AppendFitScores(ctx context.Context, scores []model.AnalystFitScore) error {
	for _, fs := range scores {
		factors, err := json.Marshal(fs.Factors)
		if err != nil {
			return fmt.Errorf("appendFitScores marshal: %w", err)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO analyst_fit_scores
			   (vaga_id, analyst_id, analyst_name, score, tier, factors,
			    estimated_days_to_close, recommendation, computed_at)
			 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)`,
			fs.VagaID, fs.AnalystID, fs.AnalystName, fs.Score, fs.Tier, factors,
			fs.EstimatedDaysToClose, fs.Recommendation, fs.ComputedAt,
		)
		if err != nil {
			return fmt.Errorf("appendFitScores: %w", err)
		}
	}
	return nil
}

// ListStalePriorityVagas returns pre-distribution vagas whose newest priority
// score predates the cutoff. Vagas never scored are left alone — they wait
// for their manual trigger.
func (s *Store) ListStalePriorityVagas(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT v.id
		 FROM vagas v
		 JOIN LATERAL (
		   SELECT computed_at FROM vaga_priority_scores ps
		   WHERE ps.vaga_id = v.id
		   ORDER BY computed_at DESC
		   LIMIT 1
		 ) latest ON true
		 WHERE v.status_workflow IN ($1, $2)
		   AND latest.computed_at < $3`,
		string(workflow.StatusDescriptionApproved),
		string(workflow.StatusAwaitingPriorityApproval),
		before,
	)
	if err != nil {
		return nil, fmt.Errorf("listStalePriorityVagas query: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listStalePriorityVagas scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ─── Row scanning ────────────────────────────────────────────────────────────

func scanVaga(row pgx.Row) (*model.Vaga, error) {
	var v model.Vaga
	err := row.Scan(
		&v.ID, &v.Title, &v.Description, &v.AISuggestedDescription, &v.Stack,
		&v.Seniority, &v.MonthlyBilling, &v.ClientID, &v.Urgent, &v.Deadline,
		&v.StatusWorkflow, &v.AssignedAnalystID, &v.AssignedAnalystName,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func scanAnalyst(row pgx.Row) (*model.Analyst, error) {
	var (
		a       model.Analyst
		history []byte
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Experience, &a.ActiveVagas, &history,
		&a.OverallApprovalRate, &a.AvgDaysToClose,
	)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &a.ClientHistory); err != nil {
			return nil, fmt.Errorf("client_history: %w", err)
		}
	}
	return &a, nil
}

func scanAdjustment(row pgx.Row) (*model.AnalystAdjustment, error) {
	var adj model.AnalystAdjustment
	err := row.Scan(
		&adj.AnalystID, &adj.ActiveForDistribution, &adj.PriorityClass,
		&adj.MaxConcurrentVagas, &adj.PerformanceMultiplier, &adj.ExperienceBonus,
		&adj.StackFitOverride, &adj.ClientFitOverride, &adj.Notes,
		&adj.Version, &adj.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &adj, nil
}

func collectHistory(rows pgx.Rows) ([]model.HistoryEntry, error) {
	entries := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var e model.HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Field, &e.PreviousValue, &e.NewValue,
			&e.Reason, &e.ActorID, &e.ActorName, &e.CreatedAt,
			&e.AvgDaysBefore, &e.AvgDaysAfter, &e.Impact,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
