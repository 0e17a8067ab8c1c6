// Package workflow defines the vaga lifecycle state machine.
//
// Valid status graph (forward order):
//
//	draft ──► awaiting_ai_review ──► awaiting_description_approval ──► description_approved
//	  ▲                                         │
//	  └─────────────(rejected)──────────────────┘
//
//	description_approved ──► awaiting_priority_approval ──► distributed ──►
//	in_progress ──► cvs_sent ──► interviews_scheduled ──► closed
//
// The rejection back-edge (awaiting_description_approval → draft) is the only
// backward transition. closed is terminal. Redistribution is a side-action
// available from distributed and in_progress; it never changes the status.
package workflow

import "fmt"

// Status values mirror the vaga_workflow_status enum in PostgreSQL.
type Status string

const (
	StatusDraft                       Status = "draft"
	StatusAwaitingAIReview            Status = "awaiting_ai_review"
	StatusAwaitingDescriptionApproval Status = "awaiting_description_approval"
	StatusDescriptionApproved         Status = "description_approved"
	StatusAwaitingPriorityApproval    Status = "awaiting_priority_approval"
	StatusDistributed                 Status = "distributed"
	StatusInProgress                  Status = "in_progress"
	StatusCVsSent                     Status = "cvs_sent"
	StatusInterviewsScheduled         Status = "interviews_scheduled"
	StatusClosed                      Status = "closed"
)

// all lists every status in forward order.
var all = []Status{
	StatusDraft,
	StatusAwaitingAIReview,
	StatusAwaitingDescriptionApproval,
	StatusDescriptionApproved,
	StatusAwaitingPriorityApproval,
	StatusDistributed,
	StatusInProgress,
	StatusCVsSent,
	StatusInterviewsScheduled,
	StatusClosed,
}

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[Status][]Status{
	StatusDraft:            {StatusAwaitingAIReview},
	StatusAwaitingAIReview: {StatusAwaitingDescriptionApproval},
	// draft is the rejection back-edge — the only backward transition.
	StatusAwaitingDescriptionApproval: {StatusDescriptionApproved, StatusDraft},
	StatusDescriptionApproved:         {StatusAwaitingPriorityApproval},
	StatusAwaitingPriorityApproval:    {StatusDistributed},
	StatusDistributed:                 {StatusInProgress},
	StatusInProgress:                  {StatusCVsSent},
	StatusCVsSent:                     {StatusInterviewsScheduled},
	StatusInterviewsScheduled:         {StatusClosed},
	// closed is terminal — no outgoing transitions
}

// All returns every status in forward order.
func All() []Status {
	out := make([]Status, len(all))
	copy(out, all)
	return out
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	for _, v := range all {
		if st == v {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown vaga workflow status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsClosed returns true when status is the terminal closed state.
func IsClosed(s Status) bool { return s == StatusClosed }

// AllowsRedistribution returns true for the two statuses from which a vaga
// may be reassigned to a different analyst.
func AllowsRedistribution(s Status) bool {
	return s == StatusDistributed || s == StatusInProgress
}
