package workflow_test

import (
	"testing"

	"raisa/distribution-service/internal/workflow"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{
		"draft", "awaiting_ai_review", "awaiting_description_approval",
		"description_approved", "awaiting_priority_approval", "distributed",
		"in_progress", "cvs_sent", "interviews_scheduled", "closed",
	}
	for _, s := range valid {
		got, err := workflow.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := workflow.ParseStatus("archived")
	if err == nil {
		t.Error("ParseStatus(\"archived\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := workflow.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

// ── IsClosed ───────────────────────────────────────────────────────────────

func TestIsClosed(t *testing.T) {
	if !workflow.IsClosed(workflow.StatusClosed) {
		t.Error("IsClosed(closed) should return true")
	}
	for _, s := range workflow.All() {
		if s == workflow.StatusClosed {
			continue
		}
		if workflow.IsClosed(s) {
			t.Errorf("IsClosed(%s) should return false", s)
		}
	}
}

// ── IsTransitionAllowed — valid (forward) transitions ─────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	all := workflow.All()
	for i := 0; i < len(all)-1; i++ {
		if !workflow.IsTransitionAllowed(all[i], all[i+1]) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", all[i], all[i+1])
		}
	}
}

// ── IsTransitionAllowed — the rejection back-edge ──────────────────────────

func TestIsTransitionAllowed_RejectionBackEdge(t *testing.T) {
	if !workflow.IsTransitionAllowed(workflow.StatusAwaitingDescriptionApproval, workflow.StatusDraft) {
		t.Error("IsTransitionAllowed(awaiting_description_approval → draft) should be true (rejection)")
	}
}

// ── IsTransitionAllowed — no other backwards movements ─────────────────────

func TestIsTransitionAllowed_Backwards(t *testing.T) {
	all := workflow.All()
	for i, from := range all {
		for j, to := range all {
			if j >= i {
				continue
			}
			// Skip the one legal back-edge.
			if from == workflow.StatusAwaitingDescriptionApproval && to == workflow.StatusDraft {
				continue
			}
			if workflow.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false (backwards)", from, to)
			}
		}
	}
}

// ── IsTransitionAllowed — skip-level transitions are forbidden ─────────────

func TestIsTransitionAllowed_SkipLevel(t *testing.T) {
	all := workflow.All()
	for i, from := range all {
		for j, to := range all {
			if j <= i+1 {
				continue // backwards, self and single-step handled elsewhere
			}
			if workflow.IsTransitionAllowed(from, to) {
				t.Errorf("IsTransitionAllowed(%s → %s) should be false (skip-level)", from, to)
			}
		}
	}
}

// ── IsTransitionAllowed — terminal state has no outgoing transitions ───────

func TestIsTransitionAllowed_FromClosed(t *testing.T) {
	for _, to := range workflow.All() {
		if workflow.IsTransitionAllowed(workflow.StatusClosed, to) {
			t.Errorf("IsTransitionAllowed(closed → %s) should be false (terminal state)", to)
		}
	}
}

// ── IsTransitionAllowed — self-transitions are forbidden ──────────────────

func TestIsTransitionAllowed_Self(t *testing.T) {
	for _, s := range workflow.All() {
		if workflow.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (self)", s, s)
		}
	}
}

// ── AllowsRedistribution ───────────────────────────────────────────────────

func TestAllowsRedistribution(t *testing.T) {
	for _, s := range workflow.All() {
		want := s == workflow.StatusDistributed || s == workflow.StatusInProgress
		if got := workflow.AllowsRedistribution(s); got != want {
			t.Errorf("AllowsRedistribution(%s) = %v, want %v", s, got, want)
		}
	}
}
