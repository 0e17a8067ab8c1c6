package distribution

import "fmt"

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when a referenced vaga, client or analyst is
// missing — the caller holds a stale reference and should re-fetch.
var ErrNotFound = fmt.Errorf("record not found")

// ErrConflict is returned when an optimistic version check loses a race —
// the caller should re-fetch the current state and retry.
var ErrConflict = fmt.Errorf("concurrent write detected")

// ValidationError wraps a user-facing validation message. Caller's fault,
// never retried automatically.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// StateError reports an operation invalid for the vaga's current workflow
// stage. Not retryable without a different action.
type StateError struct {
	Status string
	Msg    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s (current status: %s)", e.Msg, e.Status)
}
