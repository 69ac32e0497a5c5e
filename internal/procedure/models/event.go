package models

import (
	"time"

	id "engageflow/pkg/domain"
)

// ChangeEvent notifies subscribers that a procedure was mutated. It carries no
// content; subscribers re-query the procedure for current state.
type ChangeEvent struct {
	ProcedureID  id.ProcedureID  `json:"procedure_id"`
	EngagementID id.EngagementID `json:"engagement_id"`
	Action       Action          `json:"action"`
	FromState    State           `json:"from_state"`
	ToState      State           `json:"to_state"`
	Version      int             `json:"version"`
	ActorID      id.UserID       `json:"actor_id"`
	OccurredAt   time.Time       `json:"occurred_at"`
}
