package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"engageflow/internal/procedure/models"
	"engageflow/internal/procedure/workflow"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
	"engageflow/pkg/platform/audit"
	"engageflow/pkg/requestcontext"
)

const notFoundMsg = "procedure not found"

type decision func(snap workflow.Snapshot, actor models.Actor, now time.Time) (*models.Change, error)

// CreateProcedure plans a new procedure. Only managers and partners plan work.
func (s *Service) CreateProcedure(ctx context.Context, cmd CreateProcedureCommand) (_ *models.Procedure, err error) {
	start := time.Now()
	defer s.observe("create", start)
	ctx, span := s.tracer.Start(ctx, "procedure.create")
	defer func() { endSpan(span, err) }()

	cmd.Normalize()
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	actor, err := s.identity.ResolveActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.Role.HasOverride() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only managers and partners can create procedures")
	}
	if !cmd.AssignedTo.IsNil() {
		if _, err := s.identity.LookupUser(ctx, cmd.AssignedTo); err != nil {
			return nil, err
		}
	}

	p, err := models.NewProcedure(
		id.ProcedureID(uuid.New()),
		cmd.EngagementID,
		cmd.Name,
		cmd.Description,
		cmd.RiskLevel,
		cmd.AssignedTo,
		requestcontext.Now(ctx),
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create procedure")
	}

	s.logAudit(ctx, audit.EventProcedureCreated, actor.UserID, p.ID.String(),
		"engagement_id", p.EngagementID.String(), "risk_level", string(p.RiskLevel))
	s.emitAudit(ctx, audit.EventProcedureCreated, actor.UserID, p.ID.String(), "created", string(p.RiskLevel), "")
	if s.metrics != nil {
		s.metrics.IncrementProcedureCreated(string(p.RiskLevel))
	}
	s.publish(ctx, models.ChangeEvent{
		ProcedureID:  p.ID,
		EngagementID: p.EngagementID,
		ToState:      p.State,
		Version:      p.Version,
		ActorID:      actor.UserID,
		OccurredAt:   p.CreatedAt,
	})
	return p, nil
}

// PerformAction applies a state machine action on behalf of the current actor.
func (s *Service) PerformAction(ctx context.Context, procedureID id.ProcedureID, cmd ActionCommand) (*models.Procedure, error) {
	action, ok := models.ParseAction(string(cmd.Action))
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown action")
	}
	return s.execute(ctx, procedureID, action, cmd.ExpectedVersion,
		func(snap workflow.Snapshot, actor models.Actor, now time.Time) (*models.Change, error) {
			return workflow.Perform(snap, actor, action, now, workflow.WithComment(cmd.Comment))
		})
}

// UpdateContent replaces work performed and conclusion.
func (s *Service) UpdateContent(ctx context.Context, procedureID id.ProcedureID, cmd UpdateContentCommand) (*models.Procedure, error) {
	return s.execute(ctx, procedureID, models.ActionUpdateContent, cmd.ExpectedVersion,
		func(snap workflow.Snapshot, actor models.Actor, now time.Time) (*models.Change, error) {
			return workflow.UpdateContent(snap, actor, cmd.WorkPerformed, cmd.Conclusion, now)
		})
}

// Assign hands the procedure to another preparer.
func (s *Service) Assign(ctx context.Context, procedureID id.ProcedureID, assignee id.UserID) (*models.Procedure, error) {
	if _, err := s.identity.LookupUser(ctx, assignee); err != nil {
		return nil, err
	}
	return s.execute(ctx, procedureID, models.ActionAssign, 0,
		func(snap workflow.Snapshot, actor models.Actor, now time.Time) (*models.Change, error) {
			return workflow.Assign(snap, actor, assignee, now)
		})
}

// RecordSignoff fills the next remaining slot on an approved procedure.
func (s *Service) RecordSignoff(ctx context.Context, procedureID id.ProcedureID, cmd SignoffCommand) (*models.Procedure, error) {
	if !cmd.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid signoff role")
	}
	return s.execute(ctx, procedureID, models.ActionRecordSignoff, cmd.ExpectedVersion,
		func(snap workflow.Snapshot, actor models.Actor, now time.Time) (*models.Change, error) {
			return workflow.RecordSignoff(snap, actor, cmd.Role, now)
		})
}

// RevokeSignoff removes the most recent sign-off. The procedure reverts when the
// remaining sign-offs no longer support its state.
func (s *Service) RevokeSignoff(ctx context.Context, procedureID id.ProcedureID, cmd SignoffCommand) (*models.Procedure, error) {
	if !cmd.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid signoff role")
	}
	return s.execute(ctx, procedureID, models.ActionRevokeSignoff, cmd.ExpectedVersion,
		func(snap workflow.Snapshot, actor models.Actor, now time.Time) (*models.Change, error) {
			return workflow.RevokeSignoff(snap, actor, cmd.Role, cmd.Comment, now)
		})
}

// execute runs one command: resolve actor, load snapshot, decide, persist with CAS.
func (s *Service) execute(
	ctx context.Context,
	procedureID id.ProcedureID,
	action models.Action,
	expectedVersion int,
	decide decision,
) (_ *models.Procedure, err error) {
	start := time.Now()
	defer s.observe(action, start)
	ctx, span := s.startSpan(ctx, string(action), procedureID)
	defer func() { endSpan(span, err) }()

	actor, err := s.identity.ResolveActor(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != 0 && expectedVersion != snap.Procedure.Version {
		err := dErrors.New(dErrors.CodeStaleState, "procedure was modified since it was read; reload and retry")
		s.recordRejection(ctx, action, actor.UserID, procedureID, err)
		return nil, err
	}

	change, err := decide(snap, actor, requestcontext.Now(ctx))
	if err != nil {
		s.recordRejection(ctx, action, actor.UserID, procedureID, err)
		return nil, translate(err, notFoundMsg)
	}
	if err := change.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "invalid procedure change")
	}

	updated, err := s.store.ApplyChange(ctx, change)
	if err != nil {
		err = staleWrite(procedureID, err)
		s.recordRejection(ctx, action, actor.UserID, procedureID, err)
		return nil, translate(err, notFoundMsg)
	}
	s.recordChange(ctx, actor, change, updated)
	return updated, nil
}

// loadSnapshot reads the procedure and its active sign-offs concurrently. A torn read
// is harmless: the version precondition rejects any change decided on it.
func (s *Service) loadSnapshot(ctx context.Context, procedureID id.ProcedureID) (workflow.Snapshot, error) {
	var (
		procedure *models.Procedure
		signoffs  []models.SignoffRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		procedure, err = s.store.FindByID(gctx, procedureID)
		return err
	})
	g.Go(func() error {
		var err error
		signoffs, err = s.store.ListSignoffs(gctx, procedureID)
		return err
	})
	if err := g.Wait(); err != nil {
		return workflow.Snapshot{}, translate(err, notFoundMsg)
	}
	return workflow.Snapshot{Procedure: *procedure, Signoffs: signoffs}, nil
}
