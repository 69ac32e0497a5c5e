package models

import (
	"strings"
	"time"

	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
)

const (
	maxNameLength      = 256
	maxNarrativeLength = 64 * 1024
)

// Procedure is the aggregate root for one audit test procedure.
//
// Invariants:
//   - Name is non-empty and at most 256 characters
//   - RiskLevel is one of low, medium, high, significant
//   - State only changes through a Change carrying exactly one TransitionLogEntry
//   - State always equals workflow.ReconcileState over the active sign-offs
//   - ContentHash is the digest of WorkPerformed/Conclusion as of the last sign-off,
//     empty while no sign-off is active
//   - Version increases by one on every persisted mutation
//
// AssignedTo and ReviewerID are weak references; the procedure never owns users.
type Procedure struct {
	ID            id.ProcedureID  `json:"id"`
	EngagementID  id.EngagementID `json:"engagement_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	RiskLevel     id.RiskLevel    `json:"risk_level"`
	State         State           `json:"state"`
	AssignedTo    id.UserID       `json:"assigned_to"`
	ReviewerID    id.UserID       `json:"reviewer_id"`
	WorkPerformed string          `json:"work_performed"`
	Conclusion    string          `json:"conclusion"`
	ContentHash   string          `json:"content_hash"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func NewProcedure(
	procedureID id.ProcedureID,
	engagementID id.EngagementID,
	name string,
	description string,
	risk id.RiskLevel,
	assignedTo id.UserID,
	now time.Time,
) (*Procedure, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "procedure name cannot be empty")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "procedure name must be 256 characters or less")
	}
	if !risk.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid risk level")
	}
	if engagementID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "engagement id is required")
	}
	return &Procedure{
		ID:           procedureID,
		EngagementID: engagementID,
		Name:         name,
		Description:  strings.TrimSpace(description),
		RiskLevel:    risk,
		State:        StateNotStarted,
		AssignedTo:   assignedTo,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *Procedure) HasWorkPerformed() bool {
	return strings.TrimSpace(p.WorkPerformed) != ""
}

func (p *Procedure) HasConclusion() bool {
	return strings.TrimSpace(p.Conclusion) != ""
}

// IsAssignedTo reports whether user is the procedure's assignee.
func (p *Procedure) IsAssignedTo(user id.UserID) bool {
	return !p.AssignedTo.IsNil() && p.AssignedTo == user
}

// ValidateNarrative bounds the reviewable fields.
func ValidateNarrative(workPerformed, conclusion string) error {
	if len(workPerformed) > maxNarrativeLength {
		return dErrors.New(dErrors.CodeValidation, "work_performed is too long")
	}
	if len(conclusion) > maxNarrativeLength {
		return dErrors.New(dErrors.CodeValidation, "conclusion is too long")
	}
	return nil
}

// Actor is the identity performing an operation, as resolved by the identity provider.
type Actor struct {
	UserID id.UserID
	Role   id.FirmRole
}
