package models

import (
	"time"

	id "engageflow/pkg/domain"
)

// SignoffRecord is one role's attestation on a procedure.
// A record is never edited; revoking deletes it and a fresh one must be created.
type SignoffRecord struct {
	ID          id.SignoffID   `json:"id"`
	ProcedureID id.ProcedureID `json:"procedure_id"`
	Role        id.SignoffRole `json:"role"`
	SignedBy    id.UserID      `json:"signed_by"`
	SignedAt    time.Time      `json:"signed_at"`
	ContentHash string         `json:"content_hash"`
}

// SignoffRequirement is a computed slot in the required chain. Record is nil while the
// slot is incomplete.
type SignoffRequirement struct {
	Role   id.SignoffRole `json:"role"`
	Record *SignoffRecord `json:"record,omitempty"`
}

func (r SignoffRequirement) Completed() bool {
	return r.Record != nil
}

// SignoffEventKind classifies a row of the append-only sign-off history.
type SignoffEventKind string

const (
	SignoffEventSigned  SignoffEventKind = "signed"
	SignoffEventRevoked SignoffEventKind = "revoked"
	// SignoffEventCleared marks records dropped when changes were requested.
	SignoffEventCleared SignoffEventKind = "cleared"
)

// SignoffEvent is an append-only history row for the sign-off slots.
type SignoffEvent struct {
	ProcedureID id.ProcedureID   `json:"procedure_id"`
	SignoffID   id.SignoffID     `json:"signoff_id"`
	Role        id.SignoffRole   `json:"role"`
	Kind        SignoffEventKind `json:"kind"`
	ActorID     id.UserID        `json:"actor_id"`
	ContentHash string           `json:"content_hash"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// TransitionLogEntry records one state change. Write-once.
type TransitionLogEntry struct {
	ID          id.TransitionID `json:"id"`
	ProcedureID id.ProcedureID  `json:"procedure_id"`
	FromState   State           `json:"from_state"`
	ToState     State           `json:"to_state"`
	Action      Action          `json:"action"`
	PerformedBy id.UserID       `json:"performed_by"`
	PerformedAt time.Time       `json:"performed_at"`
	Comment     string          `json:"comment,omitempty"`
}
