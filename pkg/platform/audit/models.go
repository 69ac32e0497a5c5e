package audit

import (
	"time"

	id "engageflow/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can apply
// different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers attestations with professional-standards significance:
	// sign-offs, revocations, final sign-off. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers denied actions and integrity mismatches.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine lifecycle activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// ActorID is the user who performed the action.
	ActorID id.UserID
	// Subject is the procedure the event is about.
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ContentHash is the reviewable-content digest at the time of the event, when relevant.
	ContentHash string
}

type AuditEvent string

const (
	EventProcedureCreated      AuditEvent = "procedure_created"
	EventProcedureAssigned     AuditEvent = "procedure_assigned"
	EventContentUpdated        AuditEvent = "procedure_content_updated"
	EventProcedureTransitioned AuditEvent = "procedure_transitioned"
	EventProcedureSignedOff    AuditEvent = "procedure_signed_off"

	EventSignoffRecorded AuditEvent = "signoff_recorded"
	EventSignoffRevoked  AuditEvent = "signoff_revoked"
	EventSignoffsCleared AuditEvent = "signoffs_cleared"

	EventActionDenied      AuditEvent = "action_denied"
	EventIntegrityMismatch AuditEvent = "integrity_mismatch"
	EventStaleWrite        AuditEvent = "stale_write_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventSignoffRecorded:    CategoryCompliance,
	EventSignoffRevoked:     CategoryCompliance,
	EventSignoffsCleared:    CategoryCompliance,
	EventProcedureSignedOff: CategoryCompliance,

	EventActionDenied:      CategorySecurity,
	EventIntegrityMismatch: CategorySecurity,

	EventProcedureCreated:      CategoryOperations,
	EventProcedureAssigned:     CategoryOperations,
	EventContentUpdated:        CategoryOperations,
	EventProcedureTransitioned: CategoryOperations,
	EventStaleWrite:            CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
