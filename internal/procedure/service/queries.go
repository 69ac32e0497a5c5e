package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"engageflow/internal/procedure/models"
	"engageflow/internal/procedure/workflow"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
)

// GetProcedure returns the procedure with its sign-off chain, progress, the current
// actor's available actions and any integrity warning.
func (s *Service) GetProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.ProcedureView, error) {
	actor, err := s.identity.ResolveActor(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.loadSnapshot(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	warning, err := workflow.CheckAttestations(snap)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify content integrity")
	}

	view := &models.ProcedureView{
		Procedure:        &snap.Procedure,
		Signoffs:         workflow.RequiredSignoffs(snap),
		Progress:         workflow.SignoffProgress(snap),
		AvailableActions: workflow.AvailableActions(snap, actor),
		Integrity:        warning,
	}
	if next, ok := workflow.NextRequiredSignoff(snap); ok {
		view.NextSignoff = &next
	}
	return view, nil
}

// ListByEngagement returns an engagement's procedures, optionally filtered by state.
func (s *Service) ListByEngagement(ctx context.Context, engagementID id.EngagementID, states []models.State) ([]*models.Procedure, error) {
	if _, err := s.identity.ResolveActor(ctx); err != nil {
		return nil, err
	}
	for _, st := range states {
		if !st.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown state filter")
		}
	}
	procedures, err := s.store.ListByEngagement(ctx, engagementID, states)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list procedures")
	}
	return procedures, nil
}

// AvailableActions lists what the current actor may do now.
func (s *Service) AvailableActions(ctx context.Context, procedureID id.ProcedureID) ([]models.Action, error) {
	actor, snap, err := s.actorAndSnapshot(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	return workflow.AvailableActions(snap, actor), nil
}

// CanPerformAction explains whether the current actor may perform action now.
func (s *Service) CanPerformAction(ctx context.Context, procedureID id.ProcedureID, action models.Action) (workflow.Permission, error) {
	if _, ok := models.ParseAction(string(action)); !ok {
		return workflow.Permission{}, dErrors.New(dErrors.CodeValidation, "unknown action")
	}
	actor, snap, err := s.actorAndSnapshot(ctx, procedureID)
	if err != nil {
		return workflow.Permission{}, err
	}
	return workflow.CanPerformAction(snap, actor, action), nil
}

// CanUserSignoff reports whether userID could fill role right now.
func (s *Service) CanUserSignoff(ctx context.Context, procedureID id.ProcedureID, userID id.UserID, role id.SignoffRole) (bool, error) {
	if !role.IsValid() {
		return false, dErrors.New(dErrors.CodeValidation, "invalid signoff role")
	}
	if _, err := s.identity.ResolveActor(ctx); err != nil {
		return false, err
	}
	user, err := s.identity.LookupUser(ctx, userID)
	if err != nil {
		return false, err
	}
	snap, err := s.loadSnapshot(ctx, procedureID)
	if err != nil {
		return false, err
	}
	return workflow.CanUserSignoff(snap, user, role), nil
}

// RequiredSignoffs returns the risk-scaled chain with completion.
func (s *Service) RequiredSignoffs(ctx context.Context, procedureID id.ProcedureID) ([]models.SignoffRequirement, error) {
	_, snap, err := s.actorAndSnapshot(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	return workflow.RequiredSignoffs(snap), nil
}

// ValidateContentIntegrity recomputes the content hash and compares it with the hash
// stored at the last sign-off. Like VerifyEngagement and History it is an operator read:
// it resolves no actor, so procctl can call it without a session. HTTP callers are
// authenticated by the router.
func (s *Service) ValidateContentIntegrity(ctx context.Context, procedureID id.ProcedureID) (*models.IntegrityReport, error) {
	p, err := s.store.FindByID(ctx, procedureID)
	if err != nil {
		return nil, translate(err, notFoundMsg)
	}
	return s.integrityReport(ctx, p)
}

// VerifyEngagement checks content integrity of every procedure in an engagement. It
// resolves no actor.
func (s *Service) VerifyEngagement(ctx context.Context, engagementID id.EngagementID) ([]*models.IntegrityReport, error) {
	procedures, err := s.store.ListByEngagement(ctx, engagementID, nil)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list procedures")
	}
	reports := make([]*models.IntegrityReport, 0, len(procedures))
	for _, p := range procedures {
		report, err := s.integrityReport(ctx, p)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (s *Service) integrityReport(ctx context.Context, p *models.Procedure) (*models.IntegrityReport, error) {
	current, err := workflow.ComputeContentHash(*p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute content hash")
	}
	valid, err := workflow.ValidateContentIntegrity(*p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify content integrity")
	}
	if !valid {
		if s.metrics != nil {
			s.metrics.IncrementIntegrityMismatch()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "content integrity mismatch",
				"procedure_id", p.ID.String(), "stored_hash", p.ContentHash, "current_hash", current)
		}
	}
	return &models.IntegrityReport{
		Procedure:   p,
		Valid:       valid,
		StoredHash:  p.ContentHash,
		CurrentHash: current,
	}, nil
}

// History returns the transition log and sign-off history, oldest first. It resolves
// no actor.
func (s *Service) History(ctx context.Context, procedureID id.ProcedureID) (*models.History, error) {
	if _, err := s.store.FindByID(ctx, procedureID); err != nil {
		return nil, translate(err, notFoundMsg)
	}
	var history models.History
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history.Transitions, err = s.store.ListTransitions(gctx, procedureID)
		return err
	})
	g.Go(func() error {
		var err error
		history.SignoffEvents, err = s.store.ListSignoffEvents(gctx, procedureID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return &history, nil
}

func (s *Service) actorAndSnapshot(ctx context.Context, procedureID id.ProcedureID) (models.Actor, workflow.Snapshot, error) {
	actor, err := s.identity.ResolveActor(ctx)
	if err != nil {
		return models.Actor{}, workflow.Snapshot{}, err
	}
	snap, err := s.loadSnapshot(ctx, procedureID)
	if err != nil {
		return models.Actor{}, workflow.Snapshot{}, err
	}
	return actor, snap, nil
}
