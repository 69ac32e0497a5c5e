package models

import (
	"fmt"

	id "engageflow/pkg/domain"
)

// TransitionError reports an action that is illegal from the current state, or whose
// state precondition is unmet.
type TransitionError struct {
	Action Action
	State  State
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s from %s: %s", e.Action, e.State, e.Reason)
	}
	return fmt.Sprintf("cannot %s from %s", e.Action, e.State)
}

// AuthorizationError reports an actor lacking the role or slot for an action, including
// segregation-of-duties violations and out-of-order sign-offs.
type AuthorizationError struct {
	Action Action
	Role   id.SignoffRole
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("not authorized to %s as %s: %s", e.Action, e.Role, e.Reason)
	}
	return fmt.Sprintf("not authorized to %s: %s", e.Action, e.Reason)
}

// IntegrityWarning reports reviewable content that changed after the last sign-off.
// It is advisory on reads. It blocks further sign-offs and the terminal sign_off until
// the stale slots are revoked and signed again. Role names the stale record when the
// mismatch was found on a sign-off record rather than on the procedure.
type IntegrityWarning struct {
	StoredHash  string         `json:"stored_hash"`
	CurrentHash string         `json:"current_hash"`
	Role        id.SignoffRole `json:"role,omitempty"`
}

func (e *IntegrityWarning) Error() string {
	if e.Role != "" {
		return "reviewable content changed after the " + e.Role.String() + " sign-off"
	}
	return "reviewable content changed after the last sign-off"
}

// PersistenceError reports a write that lost a compare-and-swap: the procedure changed
// between read and write.
type PersistenceError struct {
	ProcedureID id.ProcedureID
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist procedure %s: %v", e.ProcedureID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
