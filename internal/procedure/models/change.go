package models

import (
	"fmt"

	id "engageflow/pkg/domain"
)

// Change is the unit of persistence produced by the workflow engine. Stores apply it
// atomically as a compare-and-swap on (ExpectedVersion, ExpectedState).
type Change struct {
	// Procedure holds the new field values. Its Version is ignored; stores bump it.
	Procedure       Procedure
	ExpectedVersion int
	ExpectedState   State

	// Transition is required whenever Procedure.State differs from ExpectedState.
	Transition *TransitionLogEntry

	AddSignoffs    []SignoffRecord
	RemoveSignoffs []id.SignoffRole
	SignoffEvents  []SignoffEvent

	// Action is what produced the change, for logging and audit.
	Action Action
}

// Validate enforces the "state changes only through a logged transition" rule.
func (c *Change) Validate() error {
	stateChanged := c.Procedure.State != c.ExpectedState
	if stateChanged && c.Transition == nil {
		return fmt.Errorf("state change %s -> %s without transition log entry", c.ExpectedState, c.Procedure.State)
	}
	if c.Transition != nil {
		if c.Transition.FromState != c.ExpectedState || c.Transition.ToState != c.Procedure.State {
			return fmt.Errorf("transition %s -> %s does not match change %s -> %s",
				c.Transition.FromState, c.Transition.ToState, c.ExpectedState, c.Procedure.State)
		}
		if c.Transition.ProcedureID != c.Procedure.ID {
			return fmt.Errorf("transition belongs to a different procedure")
		}
	}
	return nil
}

// StateChanged reports whether applying the change moves the procedure.
func (c *Change) StateChanged() bool {
	return c.Procedure.State != c.ExpectedState
}
