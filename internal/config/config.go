// Package config loads and validates runtime configuration at startup.
// Fail-fast: if a required environment variable is missing, the process
// exits with an error. Scoring thresholds can additionally be tuned through
// an optional YAML policy file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"raisa/distribution-service/internal/scoring"
)

// Config holds all runtime configuration for the distribution service.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	SweepIntervalHours int // how often the cron sweep fires
	Policy             scoring.Policy
}

// Load reads environment variables (and the optional policy file named by
// SCORING_POLICY_FILE) and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("DISTRIBUTION_PORT")
	if port == "" {
		port = "8084"
	}

	interval := 6
	if s := os.Getenv("SWEEP_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SWEEP_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	policy := scoring.DefaultPolicy()
	if path := os.Getenv("SCORING_POLICY_FILE"); path != "" {
		loaded, err := loadPolicy(path)
		if err != nil {
			return nil, err
		}
		policy = loaded
	}

	return &Config{
		Port:               port,
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		SweepIntervalHours: interval,
		Policy:             policy,
	}, nil
}

// loadPolicy reads a YAML policy file over the compiled-in defaults, so a
// partial file only overrides the thresholds it names.
func loadPolicy(path string) (scoring.Policy, error) {
	policy := scoring.DefaultPolicy()

	raw, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read scoring policy %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return policy, fmt.Errorf("parse scoring policy %s: %w", path, err)
	}

	if err := validatePolicy(policy); err != nil {
		return policy, fmt.Errorf("scoring policy %s: %w", path, err)
	}
	return policy, nil
}

// validatePolicy rejects cutoff sets that are not monotonic — overlapping
// tiers would make the bucketing ambiguous.
func validatePolicy(p scoring.Policy) error {
	if !(p.AdequacyExcellent > p.AdequacyGood && p.AdequacyGood > p.AdequacyRegular && p.AdequacyRegular > 0) {
		return fmt.Errorf("adequacy cutoffs must be strictly decreasing and positive")
	}
	if !(p.PriorityHigh > p.PriorityMedium && p.PriorityMedium > 0) {
		return fmt.Errorf("priority cutoffs must be strictly decreasing and positive")
	}
	if p.SLAHighDays < 1 || p.SLAMediumDays < p.SLAHighDays || p.SLALowDays < p.SLAMediumDays {
		return fmt.Errorf("SLA days must be positive and non-decreasing from high to low tier")
	}
	return nil
}
