// raisa-distribution-service
//
// Vaga prioritization and analyst-distribution engine.
// Exposes a REST API used by the Gateway to implement:
//   - computePriority(vagaId)            — priority score + SLA recommendation
//   - recommendAnalysts(vagaId)          — ranked analyst recommendations
//   - saveAdjustment / resetAdjustment   — manual override layer with audit trail
//   - redistribute(vagaId, analystId)    — reassignment with mandatory reason
//   - description / priority approvals   — vaga workflow transitions
//
// A cron sweep refreshes stale priority scores and fills adjustment impact
// metrics. Events are published to Redis for Gateway SSE forward.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"raisa/distribution-service/internal/config"
	"raisa/distribution-service/internal/db"
	"raisa/distribution-service/internal/distribution"
	"raisa/distribution-service/internal/notify"
	"raisa/distribution-service/internal/scheduler"
	"raisa/distribution-service/internal/storage"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[distribution-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[distribution-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[distribution-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[distribution-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[distribution-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[distribution-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[distribution-service] Redis connected ✓")

	// ── Core service ─────────────────────────────────────────────────────────
	store := storage.NewStore(pool)
	svc := distribution.NewService(distribution.Deps{
		Vagas:       store,
		Clients:     store,
		Analysts:    store,
		Adjustments: store,
		Audit:       store,
		Scores:      store,
		Notifier:    notify.NewRedisNotifier(rdb),
		Policy:      cfg.Policy,
	})

	// ── Cron sweep ───────────────────────────────────────────────────────────
	sched := scheduler.New(svc, cfg.SweepIntervalHours)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("[distribution-service] Scheduler: %v", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := distribution.NewHandler(svc)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[distribution-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[distribution-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[distribution-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[distribution-service] Shutdown error: %v", err)
	}
	log.Println("[distribution-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "distribution-service",
		"version": version,
	})
}
