package service

import (
	"strings"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
)

// CreateProcedureCommand describes a new procedure within an engagement.
type CreateProcedureCommand struct {
	EngagementID id.EngagementID
	Name         string
	Description  string
	RiskLevel    id.RiskLevel
	AssignedTo   id.UserID
}

func (c *CreateProcedureCommand) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.RiskLevel = id.RiskLevel(strings.ToLower(strings.TrimSpace(string(c.RiskLevel))))
}

func (c *CreateProcedureCommand) Validate() error {
	if c.EngagementID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "engagement id is required")
	}
	if c.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !c.RiskLevel.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "risk_level must be one of low, medium, high, significant")
	}
	return nil
}

// ActionCommand requests a state machine action. ExpectedVersion, when non-zero,
// must match the stored version.
type ActionCommand struct {
	Action          models.Action
	Comment         string
	ExpectedVersion int
}

// UpdateContentCommand replaces the reviewable fields.
type UpdateContentCommand struct {
	WorkPerformed   string
	Conclusion      string
	ExpectedVersion int
}

// SignoffCommand fills or revokes one slot of the sign-off chain.
type SignoffCommand struct {
	Role            id.SignoffRole
	Comment         string
	ExpectedVersion int
}
