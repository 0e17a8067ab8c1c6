package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"raisa/distribution-service/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/raisa")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("DISTRIBUTION_PORT", "")
	t.Setenv("SWEEP_INTERVAL_HOURS", "")
	t.Setenv("SCORING_POLICY_FILE", "")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8084" {
		t.Errorf("Port = %s, want default 8084", cfg.Port)
	}
	if cfg.SweepIntervalHours != 6 {
		t.Errorf("SweepIntervalHours = %d, want default 6", cfg.SweepIntervalHours)
	}
	if cfg.Policy.SLAHighDays != 7 || cfg.Policy.PriorityHigh != 80 {
		t.Errorf("expected compiled-in policy defaults, got %+v", cfg.Policy)
	}
}

func TestLoad_RequiredVariables(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing database url", "DATABASE_URL"},
		{"missing redis url", "REDIS_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")
			if _, err := config.Load(); err == nil {
				t.Errorf("expected an error with %s unset", tt.unset)
			}
		})
	}
}

func TestLoad_RejectsBadSweepInterval(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-3"} {
		setRequired(t)
		t.Setenv("SWEEP_INTERVAL_HOURS", raw)
		if _, err := config.Load(); err == nil {
			t.Errorf("expected an error for SWEEP_INTERVAL_HOURS=%q", raw)
		}
	}
}

// A partial policy file overrides only the thresholds it names.
func TestLoad_PartialPolicyFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("slaLowDays: 45\npriorityHigh: 75\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCORING_POLICY_FILE", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy.SLALowDays != 45 || cfg.Policy.PriorityHigh != 75 {
		t.Errorf("overridden thresholds not applied: %+v", cfg.Policy)
	}
	if cfg.Policy.SLAHighDays != 7 || cfg.Policy.AdequacyGood != 65 {
		t.Errorf("unnamed thresholds must keep their defaults: %+v", cfg.Policy)
	}
}

func TestLoad_RejectsAmbiguousPolicy(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"overlapping adequacy tiers", "adequacyExcellent: 60\nadequacyGood: 65\n"},
		{"overlapping priority tiers", "priorityHigh: 40\npriorityMedium: 50\n"},
		{"sla shrinking toward low tier", "slaLowDays: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			path := filepath.Join(t.TempDir(), "policy.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("SCORING_POLICY_FILE", path)
			if _, err := config.Load(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoad_MissingPolicyFile(t *testing.T) {
	setRequired(t)
	t.Setenv("SCORING_POLICY_FILE", "/nonexistent/policy.yaml")
	if _, err := config.Load(); err == nil {
		t.Error("expected an error for a missing policy file")
	}
}
