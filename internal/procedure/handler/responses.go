package handler

import (
	"engageflow/internal/procedure/models"
	"engageflow/internal/procedure/workflow"
)

type ProcedureListResponse struct {
	Procedures []*models.Procedure `json:"procedures"`
}

type ActionsResponse struct {
	Actions []models.Action `json:"actions"`
}

type PermissionResponse struct {
	Action models.Action `json:"action"`
	workflow.Permission
}

type SignoffsResponse struct {
	Signoffs []models.SignoffRequirement `json:"signoffs"`
}

type EligibilityResponse struct {
	Eligible bool `json:"eligible"`
}
