package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/audit"
	"engageflow/pkg/requestcontext"
)

func (s *Service) startSpan(ctx context.Context, op string, procedureID id.ProcedureID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "procedure."+op, trace.WithAttributes(
		attribute.String("procedure.id", procedureID.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, actor id.UserID, subject string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "actor_id", actor.String(), "procedure_id", subject, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, actor id.UserID, subject string, decision, reason, hash string) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		ActorID:     actor,
		Subject:     subject,
		Action:      string(event),
		Decision:    decision,
		Reason:      reason,
		RequestID:   requestcontext.RequestID(ctx),
		ContentHash: hash,
	}); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func (s *Service) recordRejection(ctx context.Context, action models.Action, actor id.UserID, procedureID id.ProcedureID, err error) {
	kind := rejectionKind(err)
	if s.metrics != nil {
		s.metrics.IncrementRejection(string(action), kind)
		switch kind {
		case rejectStale:
			s.metrics.IncrementStaleWrite()
		case rejectIntegrity:
			s.metrics.IncrementIntegrityMismatch()
		}
	}
	event := audit.EventActionDenied
	switch kind {
	case rejectStale:
		event = audit.EventStaleWrite
	case rejectIntegrity:
		event = audit.EventIntegrityMismatch
	case rejectValidation:
		return
	}
	s.logAudit(ctx, event, actor, procedureID.String(), "action", string(action), "reason", err.Error())
	s.emitAudit(ctx, event, actor, procedureID.String(), "denied", err.Error(), "")
}

// recordChange logs, counts, audits and publishes a committed change.
func (s *Service) recordChange(ctx context.Context, actor models.Actor, change *models.Change, updated *models.Procedure) {
	subject := updated.ID.String()

	if change.Transition != nil {
		t := change.Transition
		if s.metrics != nil {
			s.metrics.IncrementTransition(string(t.Action), string(t.FromState), string(t.ToState))
		}
		event := audit.EventProcedureTransitioned
		if t.ToState == models.StateSignedOff {
			event = audit.EventProcedureSignedOff
		}
		s.logAudit(ctx, event, actor.UserID, subject,
			"action", string(t.Action), "from_state", string(t.FromState), "to_state", string(t.ToState), "version", updated.Version)
		s.emitAudit(ctx, event, actor.UserID, subject, string(t.ToState), string(t.Action), updated.ContentHash)
	}

	for _, evt := range change.SignoffEvents {
		var event audit.AuditEvent
		switch evt.Kind {
		case models.SignoffEventSigned:
			event = audit.EventSignoffRecorded
			if s.metrics != nil {
				s.metrics.IncrementSignoff(string(evt.Role))
			}
		case models.SignoffEventRevoked:
			event = audit.EventSignoffRevoked
			if s.metrics != nil {
				s.metrics.IncrementRevocation(string(evt.Role))
			}
		case models.SignoffEventCleared:
			event = audit.EventSignoffsCleared
		}
		s.logAudit(ctx, event, actor.UserID, subject, "role", string(evt.Role), "content_hash", evt.ContentHash)
		s.emitAudit(ctx, event, actor.UserID, subject, string(evt.Kind), string(evt.Role), evt.ContentHash)
	}

	switch change.Action {
	case models.ActionUpdateContent:
		s.logAudit(ctx, audit.EventContentUpdated, actor.UserID, subject, "version", updated.Version)
		s.emitAudit(ctx, audit.EventContentUpdated, actor.UserID, subject, "updated", "", "")
	case models.ActionAssign:
		s.logAudit(ctx, audit.EventProcedureAssigned, actor.UserID, subject, "assigned_to", updated.AssignedTo.String())
		s.emitAudit(ctx, audit.EventProcedureAssigned, actor.UserID, subject, "assigned", updated.AssignedTo.String(), "")
	}

	s.publish(ctx, models.ChangeEvent{
		ProcedureID:  updated.ID,
		EngagementID: updated.EngagementID,
		Action:       change.Action,
		FromState:    change.ExpectedState,
		ToState:      updated.State,
		Version:      updated.Version,
		ActorID:      actor.UserID,
		OccurredAt:   updated.UpdatedAt,
	})
}

func (s *Service) publish(ctx context.Context, event models.ChangeEvent) {
	if s.changes == nil {
		return
	}
	if err := s.changes.Publish(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementFeedPublishFailure()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to publish procedure change",
				"procedure_id", event.ProcedureID.String(), "error", err)
		}
	}
}

func (s *Service) observe(action models.Action, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAction(string(action), start)
	}
}
