package workflow

import (
	"time"

	"github.com/google/uuid"

	id "engageflow/pkg/domain"

	"engageflow/internal/procedure/models"
)

// RequiredSignoffs returns the chain for the procedure's risk level in hierarchy order,
// each slot paired with its active record when one exists.
func RequiredSignoffs(snap Snapshot) []models.SignoffRequirement {
	roles := snap.Procedure.RiskLevel.RequiredSignoffRoles()
	reqs := make([]models.SignoffRequirement, 0, len(roles))
	for _, role := range roles {
		reqs = append(reqs, models.SignoffRequirement{Role: role, Record: snap.record(role)})
	}
	return reqs
}

// NextRequiredSignoff returns the first incomplete slot. ok is false when the chain
// is complete.
func NextRequiredSignoff(snap Snapshot) (models.SignoffRequirement, bool) {
	for _, req := range RequiredSignoffs(snap) {
		if !req.Completed() {
			return req, true
		}
	}
	return models.SignoffRequirement{}, false
}

// AllSignoffsComplete reports whether every required slot has an active record.
func AllSignoffsComplete(snap Snapshot) bool {
	_, pending := NextRequiredSignoff(snap)
	return !pending
}

// SignoffProgress is the completed share of the chain as a whole percentage.
func SignoffProgress(snap Snapshot) int {
	reqs := RequiredSignoffs(snap)
	if len(reqs) == 0 {
		return 0
	}
	done := 0
	for _, req := range reqs {
		if req.Completed() {
			done++
		}
	}
	return done * 100 / len(reqs)
}

// LatestSignoff returns the most recently completed slot in chain order.
func LatestSignoff(snap Snapshot) (models.SignoffRequirement, bool) {
	reqs := RequiredSignoffs(snap)
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Completed() {
			return reqs[i], true
		}
	}
	return models.SignoffRequirement{}, false
}

// CanUserSignoff reports whether actor may fill role right now.
func CanUserSignoff(snap Snapshot, actor models.Actor, role id.SignoffRole) bool {
	return checkSignoff(snap, actor, role, models.ActionRecordSignoff) == nil
}

// checkSignoff enforces ordering, role mapping and segregation of duties for one slot.
func checkSignoff(snap Snapshot, actor models.Actor, role id.SignoffRole, action models.Action) error {
	if !role.IsValid() {
		return &models.AuthorizationError{Action: action, Role: role, Reason: "unknown signoff role"}
	}
	next, pending := NextRequiredSignoff(snap)
	if !pending {
		return &models.AuthorizationError{Action: action, Role: role, Reason: "all required signoffs are complete"}
	}
	if next.Role != role {
		return &models.AuthorizationError{
			Action: action,
			Role:   role,
			Reason: "out of order: next required signoff is " + next.Role.String(),
		}
	}
	mapped, ok := actor.Role.SignoffRole()
	if !ok || mapped != role {
		return &models.AuthorizationError{Action: action, Role: role, Reason: "actor role cannot fill this slot"}
	}
	if role == id.SignoffRolePreparer {
		return nil
	}
	if snap.IsPreparer(actor.UserID) {
		return &models.AuthorizationError{Action: action, Role: role, Reason: "preparer cannot review own work"}
	}
	// Reviewing slots sign on top of earlier attestations, which must cover this content.
	warning, err := CheckAttestations(snap)
	if err != nil {
		return err
	}
	if warning != nil {
		return warning
	}
	return nil
}

// newSignoff builds the record and history row for one slot, stamping the current hash.
func newSignoff(p models.Procedure, role id.SignoffRole, actor models.Actor, hash string, now time.Time) (models.SignoffRecord, models.SignoffEvent) {
	rec := models.SignoffRecord{
		ID:          id.SignoffID(uuid.New()),
		ProcedureID: p.ID,
		Role:        role,
		SignedBy:    actor.UserID,
		SignedAt:    now,
		ContentHash: hash,
	}
	evt := models.SignoffEvent{
		ProcedureID: p.ID,
		SignoffID:   rec.ID,
		Role:        role,
		Kind:        models.SignoffEventSigned,
		ActorID:     actor.UserID,
		ContentHash: hash,
		OccurredAt:  now,
	}
	return rec, evt
}

// RecordSignoff fills the next remaining slot of an approved procedure. The state does
// not change; the procedure's content hash moves to the new attestation.
func RecordSignoff(snap Snapshot, actor models.Actor, role id.SignoffRole, now time.Time) (*models.Change, error) {
	p := snap.Procedure
	if p.State != models.StateApproved {
		return nil, &models.TransitionError{
			Action: models.ActionRecordSignoff,
			State:  p.State,
			Reason: "additional signoffs are recorded on approved procedures",
		}
	}
	if err := checkSignoff(snap, actor, role, models.ActionRecordSignoff); err != nil {
		return nil, err
	}
	hash, err := ComputeContentHash(p)
	if err != nil {
		return nil, err
	}
	rec, evt := newSignoff(p, role, actor, hash, now)
	next := p
	next.ContentHash = hash
	next.UpdatedAt = now
	return &models.Change{
		Procedure:       next,
		ExpectedVersion: p.Version,
		ExpectedState:   p.State,
		AddSignoffs:     []models.SignoffRecord{rec},
		SignoffEvents:   []models.SignoffEvent{evt},
		Action:          models.ActionRecordSignoff,
	}, nil
}

// RevokeSignoff removes the most recently completed record. Only override roles may
// revoke and revocation never cascades to other slots. When the remaining records no
// longer support the current state the procedure reverts, with a logged transition.
func RevokeSignoff(snap Snapshot, actor models.Actor, role id.SignoffRole, comment string, now time.Time) (*models.Change, error) {
	p := snap.Procedure
	if p.State.IsTerminal() {
		return nil, &models.TransitionError{Action: models.ActionRevokeSignoff, State: p.State}
	}
	if !actor.Role.HasOverride() {
		return nil, &models.AuthorizationError{
			Action: models.ActionRevokeSignoff,
			Role:   role,
			Reason: "only managers and partners can revoke signoffs",
		}
	}
	latest, ok := LatestSignoff(snap)
	if !ok {
		return nil, &models.TransitionError{
			Action: models.ActionRevokeSignoff,
			State:  p.State,
			Reason: "no signoff to revoke",
		}
	}
	if latest.Role != role {
		return nil, &models.AuthorizationError{
			Action: models.ActionRevokeSignoff,
			Role:   role,
			Reason: "only the most recent signoff (" + latest.Role.String() + ") can be revoked",
		}
	}

	remaining := snap.completedRoles()
	delete(remaining, role)

	next := p
	next.UpdatedAt = now
	next.State = ReconcileState(p.State, remaining, p.HasWorkPerformed(), p.HasConclusion())
	next.ContentHash = ""
	if prev := previousRecord(snap, role); prev != nil {
		next.ContentHash = prev.ContentHash
	}

	change := &models.Change{
		Procedure:       next,
		ExpectedVersion: p.Version,
		ExpectedState:   p.State,
		RemoveSignoffs:  []id.SignoffRole{role},
		SignoffEvents: []models.SignoffEvent{{
			ProcedureID: p.ID,
			SignoffID:   latest.Record.ID,
			Role:        role,
			Kind:        models.SignoffEventRevoked,
			ActorID:     actor.UserID,
			ContentHash: latest.Record.ContentHash,
			OccurredAt:  now,
		}},
		Action: models.ActionRevokeSignoff,
	}
	if next.State != p.State {
		change.Transition = newTransition(p, next.State, models.ActionRevokeSignoff, actor, comment, now)
	}
	return change, nil
}

// previousRecord returns the completed slot immediately below role in the chain.
func previousRecord(snap Snapshot, role id.SignoffRole) *models.SignoffRecord {
	var prev *models.SignoffRecord
	for _, req := range RequiredSignoffs(snap) {
		if req.Role == role {
			return prev
		}
		if req.Completed() {
			prev = req.Record
		}
	}
	return prev
}

// ReconcileState derives the state that the active sign-offs and content support.
// Terminal states and states before submission are returned unchanged.
func ReconcileState(state models.State, completed map[id.SignoffRole]bool, hasWork, hasConclusion bool) models.State {
	switch state {
	case models.StatePendingReview, models.StateInReview, models.StateApproved:
		if !completed[id.SignoffRolePreparer] || !hasWork || !hasConclusion {
			return models.StateInProgress
		}
		if state == models.StateApproved && !completed[id.SignoffRoleReviewer] {
			return models.StateInReview
		}
	}
	return state
}

// IsConsistent reports whether snap's state is what ReconcileState derives for it.
func IsConsistent(snap Snapshot) bool {
	p := snap.Procedure
	return ReconcileState(p.State, snap.completedRoles(), p.HasWorkPerformed(), p.HasConclusion()) == p.State
}
