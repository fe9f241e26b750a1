package models

import "time"

// ExitRequest statuses.
const (
	ExitPendingReturns         = "pending_returns"
	ExitPendingICTConfirmation = "pending_ict_confirmation"
	ExitCleared                = "cleared"
)

// Accepted exit reasons.
const (
	ExitReasonResigned   = "resigned"
	ExitReasonReassigned = "reassigned"
)

// ExitRequest records that a user is leaving the organization. It is advanced
// to cleared by the return workflow once every return it generated reaches a
// terminal state.
type ExitRequest struct {
	ID        int        `json:"id"`
	AgencyID  int        `json:"agency_id"`
	UserID    int        `json:"user_id"`
	Reason    string     `json:"reason"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClearedAt *time.Time `json:"cleared_at"`
}

// CommLine statuses. Lines are suspended (not terminated) on offboarding so the
// provider focal point can decide the final disposition.
const (
	LineAvailable  = "available"
	LineAssigned   = "assigned"
	LineSuspended  = "suspended"
	LineTerminated = "terminated"
)

// CommLine is a communication line (SIM/data line) running parallel to assets.
type CommLine struct {
	ID           int       `json:"id"`
	AgencyID     int       `json:"agency_id"`
	Number       string    `json:"number"`
	Provider     string    `json:"provider"`
	AssignedToID *int      `json:"assigned_to_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}
