package models

// State is a procedure's position in the review lifecycle.
type State string

const (
	StateNotStarted       State = "not_started"
	StateInProgress       State = "in_progress"
	StatePendingReview    State = "pending_review"
	StateInReview         State = "in_review"
	StateChangesRequested State = "changes_requested"
	StateApproved         State = "approved"
	StateSignedOff        State = "signed_off"
	StateNotApplicable    State = "not_applicable"
)

// AllStates lists every state in lifecycle order.
var AllStates = []State{
	StateNotStarted,
	StateInProgress,
	StatePendingReview,
	StateInReview,
	StateChangesRequested,
	StateApproved,
	StateSignedOff,
	StateNotApplicable,
}

// IsTerminal reports whether no further action can leave s.
func (s State) IsTerminal() bool {
	return s == StateSignedOff || s == StateNotApplicable
}

func (s State) IsValid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// Action is an input to the state machine.
type Action string

const (
	ActionStart             Action = "start"
	ActionSubmitForReview   Action = "submit_for_review"
	ActionBeginReview       Action = "begin_review"
	ActionApprove           Action = "approve"
	ActionRequestChanges    Action = "request_changes"
	ActionSignOff           Action = "sign_off"
	ActionMarkNotApplicable Action = "mark_not_applicable"
)

// Actions recorded in history that are not user-selectable transitions.
const (
	// ActionRecordSignoff fills a remaining sign-off slot on an approved procedure.
	ActionRecordSignoff Action = "record_signoff"
	// ActionRevokeSignoff removes the latest sign-off; logged when it reverts state.
	ActionRevokeSignoff Action = "revoke_signoff"
	// ActionUpdateContent edits the reviewable fields.
	ActionUpdateContent Action = "update_content"
	// ActionAssign changes the assignee.
	ActionAssign Action = "assign"
)

// AllActions lists the user-selectable transition actions.
var AllActions = []Action{
	ActionStart,
	ActionSubmitForReview,
	ActionBeginReview,
	ActionApprove,
	ActionRequestChanges,
	ActionSignOff,
	ActionMarkNotApplicable,
}

// ParseAction validates a transition action from external input.
func ParseAction(s string) (Action, bool) {
	for _, a := range AllActions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

func (a Action) String() string {
	return string(a)
}
