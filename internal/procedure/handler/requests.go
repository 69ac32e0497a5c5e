package handler

import (
	"strings"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
)

// CreateProcedureRequest is the body of POST /engagements/{engagementID}/procedures.
type CreateProcedureRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RiskLevel   string `json:"risk_level"`
	AssignedTo  string `json:"assigned_to,omitempty"`

	parsedRisk     id.RiskLevel
	parsedAssignee id.UserID
}

func (r *CreateProcedureRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	risk, err := id.ParseRiskLevel(strings.ToLower(strings.TrimSpace(r.RiskLevel)))
	if err != nil {
		return err
	}
	r.parsedRisk = risk
	if strings.TrimSpace(r.AssignedTo) != "" {
		assignee, err := id.ParseUserID(r.AssignedTo)
		if err != nil {
			return err
		}
		r.parsedAssignee = assignee
	}
	return nil
}

// ActionRequest is the optional body of action, signoff and revoke requests.
type ActionRequest struct {
	Comment         string `json:"comment,omitempty"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

func (r *ActionRequest) Validate() error {
	if len(r.Comment) > maxCommentLength {
		return dErrors.New(dErrors.CodeValidation, "comment is too long")
	}
	if r.ExpectedVersion < 0 {
		return dErrors.New(dErrors.CodeValidation, "expected_version must be positive")
	}
	return nil
}

const maxCommentLength = 4096

// UpdateContentRequest is the body of PATCH /procedures/{procedureID}/content.
type UpdateContentRequest struct {
	WorkPerformed   string `json:"work_performed"`
	Conclusion      string `json:"conclusion"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

func (r *UpdateContentRequest) Validate() error {
	if r.ExpectedVersion < 0 {
		return dErrors.New(dErrors.CodeValidation, "expected_version must be positive")
	}
	return models.ValidateNarrative(r.WorkPerformed, r.Conclusion)
}

// AssignRequest is the body of PUT /procedures/{procedureID}/assignee.
type AssignRequest struct {
	UserID string `json:"user_id"`

	parsedUserID id.UserID
}

func (r *AssignRequest) Validate() error {
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return err
	}
	r.parsedUserID = userID
	return nil
}
