package workflow

import (
	"time"

	"github.com/google/uuid"

	id "engageflow/pkg/domain"

	"engageflow/internal/procedure/models"
)

type guard func(snap Snapshot, actor models.Actor) error

type rule struct {
	to    models.State
	check guard
}

// transitions is the legal (state, action) table. mark_not_applicable is legal from
// every non-terminal state and is resolved in lookup.
var transitions = map[models.State]map[models.Action]rule{
	models.StateNotStarted: {
		models.ActionStart: {to: models.StateInProgress, check: checkStart},
	},
	models.StateInProgress: {
		models.ActionSubmitForReview: {to: models.StatePendingReview, check: checkSubmit},
	},
	models.StatePendingReview: {
		models.ActionBeginReview: {to: models.StateInReview, check: checkReviewer(models.ActionBeginReview)},
	},
	models.StateInReview: {
		models.ActionApprove:        {to: models.StateApproved, check: checkApprove},
		models.ActionRequestChanges: {to: models.StateChangesRequested, check: checkReviewer(models.ActionRequestChanges)},
	},
	models.StateChangesRequested: {
		models.ActionStart: {to: models.StateInProgress, check: checkStart},
	},
	models.StateApproved: {
		models.ActionSignOff: {to: models.StateSignedOff, check: checkSignOff},
	},
}

func lookup(state models.State, action models.Action) (rule, bool) {
	if action == models.ActionMarkNotApplicable && !state.IsTerminal() && state.IsValid() {
		return rule{to: models.StateNotApplicable, check: checkOverride(models.ActionMarkNotApplicable)}, true
	}
	r, ok := transitions[state][action]
	return r, ok
}

func checkStart(snap Snapshot, actor models.Actor) error {
	p := snap.Procedure
	if p.AssignedTo.IsNil() {
		if actor.Role == id.FirmRoleStaff || actor.Role.HasOverride() {
			return nil
		}
		return &models.AuthorizationError{Action: models.ActionStart, Reason: "only preparers or managers can pick up unassigned work"}
	}
	if p.IsAssignedTo(actor.UserID) || actor.Role.HasOverride() {
		return nil
	}
	return &models.AuthorizationError{Action: models.ActionStart, Reason: "actor is not the assignee"}
}

func checkSubmit(snap Snapshot, actor models.Actor) error {
	p := snap.Procedure
	if !p.IsAssignedTo(actor.UserID) {
		return &models.AuthorizationError{
			Action: models.ActionSubmitForReview,
			Role:   id.SignoffRolePreparer,
			Reason: "actor is not the assignee",
		}
	}
	if err := checkSignoff(snap, actor, id.SignoffRolePreparer, models.ActionSubmitForReview); err != nil {
		return err
	}
	if !p.HasWorkPerformed() || !p.HasConclusion() {
		return &models.TransitionError{
			Action: models.ActionSubmitForReview,
			State:  p.State,
			Reason: "work performed and conclusion are required",
		}
	}
	return nil
}

func checkReviewer(action models.Action) guard {
	return func(snap Snapshot, actor models.Actor) error {
		if !actor.Role.CanReview() {
			return &models.AuthorizationError{Action: action, Reason: "actor role cannot review"}
		}
		if snap.IsPreparer(actor.UserID) {
			return &models.AuthorizationError{Action: action, Reason: "preparer cannot review own work"}
		}
		return nil
	}
}

func checkApprove(snap Snapshot, actor models.Actor) error {
	next, pending := NextRequiredSignoff(snap)
	if !pending {
		return &models.AuthorizationError{Action: models.ActionApprove, Reason: "all required signoffs are complete"}
	}
	return checkSignoff(snap, actor, next.Role, models.ActionApprove)
}

func checkSignOff(snap Snapshot, actor models.Actor) error {
	if err := checkReviewer(models.ActionSignOff)(snap, actor); err != nil {
		return err
	}
	if next, pending := NextRequiredSignoff(snap); pending {
		return &models.TransitionError{
			Action: models.ActionSignOff,
			State:  snap.Procedure.State,
			Reason: "signoff " + next.Role.String() + " is still required",
		}
	}
	warning, err := CheckAttestations(snap)
	if err != nil {
		return err
	}
	if warning != nil {
		return warning
	}
	return nil
}

func checkOverride(action models.Action) guard {
	return func(_ Snapshot, actor models.Actor) error {
		if !actor.Role.HasOverride() {
			return &models.AuthorizationError{Action: action, Reason: "requires manager or partner"}
		}
		return nil
	}
}

// Permission is the answer to "may this actor do this now", with a reason when not.
type Permission struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Err     error  `json:"-"`
}

func check(snap Snapshot, actor models.Actor, action models.Action) (rule, error) {
	r, ok := lookup(snap.Procedure.State, action)
	if !ok {
		return rule{}, &models.TransitionError{Action: action, State: snap.Procedure.State}
	}
	if err := r.check(snap, actor); err != nil {
		return rule{}, err
	}
	return r, nil
}

// CanPerformAction evaluates action for actor without producing a change.
func CanPerformAction(snap Snapshot, actor models.Actor, action models.Action) Permission {
	if _, err := check(snap, actor, action); err != nil {
		return Permission{Allowed: false, Reason: err.Error(), Err: err}
	}
	return Permission{Allowed: true}
}

// AvailableActions lists the actions actor may perform now, in canonical order.
// Empty for terminal states.
func AvailableActions(snap Snapshot, actor models.Actor) []models.Action {
	out := []models.Action{}
	for _, action := range models.AllActions {
		if _, err := check(snap, actor, action); err == nil {
			out = append(out, action)
		}
	}
	return out
}

// PerformOption customizes a transition.
type PerformOption func(*performOptions)

type performOptions struct {
	comment string
}

// WithComment attaches a free-text comment to the transition log entry.
func WithComment(comment string) PerformOption {
	return func(o *performOptions) {
		o.comment = comment
	}
}

// Perform validates action and returns the change that applies it. Nothing is mutated;
// on error no change is produced.
func Perform(snap Snapshot, actor models.Actor, action models.Action, now time.Time, opts ...PerformOption) (*models.Change, error) {
	var o performOptions
	for _, opt := range opts {
		opt(&o)
	}

	r, err := check(snap, actor, action)
	if err != nil {
		return nil, err
	}

	p := snap.Procedure
	next := p
	next.State = r.to
	next.UpdatedAt = now
	change := &models.Change{
		ExpectedVersion: p.Version,
		ExpectedState:   p.State,
		Action:          action,
	}

	switch action {
	case models.ActionStart:
		if next.AssignedTo.IsNil() {
			next.AssignedTo = actor.UserID
		}
	case models.ActionSubmitForReview:
		if err := attest(change, &next, id.SignoffRolePreparer, actor, now); err != nil {
			return nil, err
		}
	case models.ActionBeginReview:
		next.ReviewerID = actor.UserID
	case models.ActionApprove:
		req, _ := NextRequiredSignoff(snap)
		if err := attest(change, &next, req.Role, actor, now); err != nil {
			return nil, err
		}
	case models.ActionRequestChanges:
		for _, rec := range snap.Signoffs {
			change.RemoveSignoffs = append(change.RemoveSignoffs, rec.Role)
			change.SignoffEvents = append(change.SignoffEvents, models.SignoffEvent{
				ProcedureID: p.ID,
				SignoffID:   rec.ID,
				Role:        rec.Role,
				Kind:        models.SignoffEventCleared,
				ActorID:     actor.UserID,
				ContentHash: rec.ContentHash,
				OccurredAt:  now,
			})
		}
		next.ContentHash = ""
	}

	change.Procedure = next
	change.Transition = newTransition(p, next.State, action, actor, o.comment, now)
	return change, nil
}

// attest stamps the current content hash into a new record for role.
func attest(change *models.Change, next *models.Procedure, role id.SignoffRole, actor models.Actor, now time.Time) error {
	hash, err := ComputeContentHash(*next)
	if err != nil {
		return err
	}
	rec, evt := newSignoff(*next, role, actor, hash, now)
	next.ContentHash = hash
	change.AddSignoffs = append(change.AddSignoffs, rec)
	change.SignoffEvents = append(change.SignoffEvents, evt)
	return nil
}

func newTransition(p models.Procedure, to models.State, action models.Action, actor models.Actor, comment string, now time.Time) *models.TransitionLogEntry {
	return &models.TransitionLogEntry{
		ID:          id.TransitionID(uuid.New()),
		ProcedureID: p.ID,
		FromState:   p.State,
		ToState:     to,
		Action:      action,
		PerformedBy: actor.UserID,
		PerformedAt: now,
		Comment:     comment,
	}
}
