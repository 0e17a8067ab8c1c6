package distribution_test

import (
	"context"
	"fmt"
	"sort"
	"time"

	"raisa/distribution-service/internal/distribution"
	"raisa/distribution-service/internal/model"
	"raisa/distribution-service/internal/ports"
)

// fakeStore is an in-memory implementation of every repository port, shared by
// the service tests. It keeps the same contracts as the Postgres store: guarded
// status updates, CAS on adjustments, append-only history.
type fakeStore struct {
	vagas     map[string]*model.Vaga
	clients   map[string]*model.Client
	analysts  map[string]*model.Analyst
	adjs      map[string]model.AnalystAdjustment
	history   []model.HistoryEntry
	priority  []model.PriorityScore
	fits      []model.AnalystFitScore
	redists   []model.RedistributionRecord
	durations map[string][]model.ClosedDuration
	stale     []string

	saveAdjErr error // injected to simulate a lost CAS race
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vagas:     map[string]*model.Vaga{},
		clients:   map[string]*model.Client{},
		analysts:  map[string]*model.Analyst{},
		adjs:      map[string]model.AnalystAdjustment{},
		durations: map[string][]model.ClosedDuration{},
	}
}

// ─── VagaRepository ─────────────────────────────────────────────────────────

func (f *fakeStore) GetVaga(_ context.Context, id string) (*model.Vaga, error) {
	v, ok := f.vagas[id]
	if !ok {
		return nil, fmt.Errorf("vaga %s: %w", id, distribution.ErrNotFound)
	}
	dup :=*v
	return &dup, nil
}

func (f *fakeStore) ListVagas(_ context.Context, filter ports.VagaFilter) ([]model.Vaga, error) {
	var out []model.Vaga
	for _, v := range f.vagas {
		if filter.Status != "" && v.StatusWorkflow != filter.Status {
			continue
		}
		if filter.ClientID != "" && v.ClientID != filter.ClientID {
			continue
		}
		if filter.Urgent != nil && v.Urgent != *filter.Urgent {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, from, to string) error {
	v, ok := f.vagas[id]
	if !ok {
		return fmt.Errorf("vaga %s: %w", id, distribution.ErrNotFound)
	}
	if v.StatusWorkflow != from {
		return fmt.Errorf("vaga %s moved concurrently: %w", id, distribution.ErrConflict)
	}
	v.StatusWorkflow = to
	return nil
}

func (f *fakeStore) SetDescription(_ context.Context, id, text string) error {
	v, ok := f.vagas[id]
	if !ok {
		return fmt.Errorf("vaga %s: %w", id, distribution.ErrNotFound)
	}
	v.Description = text
	return nil
}

func (f *fakeStore) SetAISuggestion(_ context.Context, id, text string) error {
	v, ok := f.vagas[id]
	if !ok {
		return fmt.Errorf("vaga %s: %w", id, distribution.ErrNotFound)
	}
	v.AISuggestedDescription = &text
	return nil
}

func (f *fakeStore) Redistribute(_ context.Context, rec model.RedistributionRecord) error {
	v, ok := f.vagas[rec.VagaID]
	if !ok {
		return fmt.Errorf("vaga %s: %w", rec.VagaID, distribution.ErrNotFound)
	}
	v.AssignedAnalystID = &rec.NewAnalystID
	v.AssignedAnalystName = &rec.NewAnalystName
	f.redists = append(f.redists, rec)
	return nil
}

func (f *fakeStore) ClosedDurations(_ context.Context, analystID string) ([]model.ClosedDuration, error) {
	return f.durations[analystID], nil
}

// ─── ClientRepository / AnalystRepository ───────────────────────────────────

func (f *fakeStore) GetClient(_ context.Context, id string) (*model.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %s: %w", id, distribution.ErrNotFound)
	}
	dup :=*c
	return &dup, nil
}

func (f *fakeStore) GetAnalyst(_ context.Context, id string) (*model.Analyst, error) {
	a, ok := f.analysts[id]
	if !ok {
		return nil, fmt.Errorf("analyst %s: %w", id, distribution.ErrNotFound)
	}
	dup :=*a
	return &dup, nil
}

func (f *fakeStore) ListRoster(_ context.Context) ([]model.Analyst, error) {
	out := make([]model.Analyst, 0, len(f.analysts))
	for _, a := range f.analysts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ─── AdjustmentRepository ───────────────────────────────────────────────────

func (f *fakeStore) GetAdjustment(_ context.Context, analystID string) (*model.AnalystAdjustment, error) {
	adj, ok := f.adjs[analystID]
	if !ok {
		return nil, fmt.Errorf("adjustment %s: %w", analystID, distribution.ErrNotFound)
	}
	dup :=adj
	return &dup, nil
}

func (f *fakeStore) ListAdjustments(_ context.Context, analystIDs []string) (map[string]model.AnalystAdjustment, error) {
	out := make(map[string]model.AnalystAdjustment)
	for _, id := range analystIDs {
		if adj, ok := f.adjs[id]; ok {
			out[id] = adj
		}
	}
	return out, nil
}

func (f *fakeStore) SaveAdjustment(_ context.Context, adj model.AnalystAdjustment, expectedVersion int64) error {
	if f.saveAdjErr != nil {
		return f.saveAdjErr
	}
	current, exists := f.adjs[adj.AnalystID]
	if expectedVersion == 0 {
		if exists {
			return fmt.Errorf("adjustment %s: %w", adj.AnalystID, distribution.ErrConflict)
		}
		adj.Version = 1
	} else {
		if !exists || current.Version != expectedVersion {
			return fmt.Errorf("adjustment %s: %w", adj.AnalystID, distribution.ErrConflict)
		}
		adj.Version = current.Version + 1
	}
	f.adjs[adj.AnalystID] = adj
	return nil
}

// ─── AuditRepository ────────────────────────────────────────────────────────

func (f *fakeStore) AppendHistory(_ context.Context, e model.HistoryEntry) error {
	f.nextID++
	e.ID = fmt.Sprintf("h-%d", f.nextID)
	f.history = append(f.history, e)
	return nil
}

func (f *fakeStore) ListHistory(_ context.Context, entityType, entityID string) ([]model.HistoryEntry, error) {
	var out []model.HistoryEntry
	for i := len(f.history) - 1; i >= 0; i-- {
		e := f.history[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPendingImpact(_ context.Context, olderThan time.Time) ([]model.HistoryEntry, error) {
	var out []model.HistoryEntry
	for _, e := range f.history {
		if e.Impact == nil && e.CreatedAt.Before(olderThan) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) SetImpact(_ context.Context, entryID string, before, after float64, impact string) error {
	for i := range f.history {
		if f.history[i].ID != entryID || f.history[i].Impact != nil {
			continue
		}
		f.history[i].AvgDaysBefore = &before
		f.history[i].AvgDaysAfter = &after
		f.history[i].Impact = &impact
	}
	return nil
}

// ─── ScoreRepository ────────────────────────────────────────────────────────

func (f *fakeStore) AppendPriorityScore(_ context.Context, s model.PriorityScore) error {
	f.priority = append(f.priority, s)
	return nil
}

func (f *fakeStore) LatestPriorityScore(_ context.Context, vagaID string) (*model.PriorityScore, error) {
	var latest *model.PriorityScore
	for i := range f.priority {
		s := &f.priority[i]
		if s.VagaID != vagaID {
			continue
		}
		if latest == nil || s.ComputedAt.After(latest.ComputedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("priority score for %s: %w", vagaID, distribution.ErrNotFound)
	}
	dup :=*latest
	return &dup, nil
}

func (f *fakeStore) AppendFitScores(_ context.Context, scores []model.AnalystFitScore) error {
	f.fits = append(f.fits, scores...)
	return nil
}

func (f *fakeStore) ListStalePriorityVagas(_ context.Context, _ time.Time) ([]string, error) {
	return f.stale, nil
}

// ─── Notifier ───────────────────────────────────────────────────────────────

type fakeNotifier struct {
	descriptionReady []string
	priorityReady    []model.PriorityScore
	redistributed    []model.RedistributionRecord
}

func (f *fakeNotifier) DescriptionReady(_ context.Context, vagaID string) {
	f.descriptionReady = append(f.descriptionReady, vagaID)
}

func (f *fakeNotifier) PriorityReady(_ context.Context, score model.PriorityScore) {
	f.priorityReady = append(f.priorityReady, score)
}

func (f *fakeNotifier) Redistributed(_ context.Context, rec model.RedistributionRecord) {
	f.redistributed = append(f.redistributed, rec)
}
