// Package workflow is the procedure state machine and sign-off chain.
//
// Every function here is synchronous and pure over a Snapshot: callers load the
// procedure and its active sign-off records, ask the engine for a decision or a
// models.Change, and persist the change themselves.
package workflow

import (
	id "engageflow/pkg/domain"

	"engageflow/internal/procedure/models"
)

// Snapshot is the procedure plus its active sign-off records as read from storage.
type Snapshot struct {
	Procedure models.Procedure
	Signoffs  []models.SignoffRecord
}

func (s Snapshot) record(role id.SignoffRole) *models.SignoffRecord {
	for i := range s.Signoffs {
		if s.Signoffs[i].Role == role {
			rec := s.Signoffs[i]
			return &rec
		}
	}
	return nil
}

func (s Snapshot) completedRoles() map[id.SignoffRole]bool {
	out := make(map[id.SignoffRole]bool, len(s.Signoffs))
	for _, rec := range s.Signoffs {
		out[rec.Role] = true
	}
	return out
}

// IsPreparer reports whether user prepared the procedure: either its assignee or the
// signer of the preparer slot. Preparers may not fill any reviewing slot.
func (s Snapshot) IsPreparer(user id.UserID) bool {
	if s.Procedure.IsAssignedTo(user) {
		return true
	}
	if rec := s.record(id.SignoffRolePreparer); rec != nil && rec.SignedBy == user {
		return true
	}
	return false
}
