// Package scheduler wires up the cron sweep that keeps advisory data fresh:
// priority scores drift as vagas age, and adjustment history entries wait for
// enough closures before their impact can be measured.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"raisa/distribution-service/internal/distribution"
)

// Impact evaluation knobs: an adjustment must be at least this old, with this
// many closures on each side, before its impact fields are filled.
const (
	impactMinAgeDays = 14
	impactMinSamples = 3
)

// Scheduler wraps robfig/cron and manages the periodic sweep.
type Scheduler struct {
	cron   *cron.Cron
	svc    *distribution.Service
	spec   string // cron spec, e.g. "@every 6h"
	maxAge int    // hours before a priority score counts as stale
}

// New creates a Scheduler that fires every intervalHours hours.
func New(svc *distribution.Service, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		svc:    svc,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
		maxAge: intervalHours,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so restarts do not delay stale recomputes by a full interval.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started (spec %s)", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runSweep refreshes stale priority scores, then fills pending adjustment
// impacts.
func (s *Scheduler) runSweep(ctx context.Context) {
	log.Println("[scheduler] Sweep started")

	if err := s.svc.RecomputeStalePriorities(ctx, time.Duration(s.maxAge)*time.Hour); err != nil {
		log.Printf("[scheduler] Stale priority recompute error: %v", err)
	}

	if err := s.svc.EvaluateAdjustmentImpacts(ctx, impactMinAgeDays*24*time.Hour, impactMinSamples); err != nil {
		log.Printf("[scheduler] Impact evaluation error: %v", err)
	}

	log.Println("[scheduler] Sweep complete")
}
