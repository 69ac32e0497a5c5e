package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,IdentityProvider,AuditPublisher,ChangePublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"engageflow/internal/procedure/metrics"
	"engageflow/internal/procedure/models"
	"engageflow/internal/procedure/service/mocks"
	"engageflow/internal/procedure/workflow"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
	"engageflow/pkg/platform/audit"
	"engageflow/pkg/platform/sentinel"
)

// =============================================================================
// Procedure Service Test Suite
// =============================================================================
// Unit tests cover error translation, the compare-and-swap contract with the
// store, and the audit/feed side effects. Workflow rules are tested in the
// workflow package; end-to-end command sequences in scenario_test.go.

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	identity  *mocks.MockIdentityProvider
	auditPub  *mocks.MockAuditPublisher
	changes   *mocks.MockChangePublisher
	service   *Service
	ctx       context.Context
	staff     models.Actor
	senior    models.Actor
	manager   models.Actor
	procedure *models.Procedure
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.identity = mocks.NewMockIdentityProvider(s.ctrl)
	s.auditPub = mocks.NewMockAuditPublisher(s.ctrl)
	s.changes = mocks.NewMockChangePublisher(s.ctrl)
	s.service = New(s.store, s.identity,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditPub),
		WithChangePublisher(s.changes),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
	)
	s.ctx = context.Background()

	s.staff = models.Actor{UserID: id.UserID(uuid.New()), Role: id.FirmRoleStaff}
	s.senior = models.Actor{UserID: id.UserID(uuid.New()), Role: id.FirmRoleSenior}
	s.manager = models.Actor{UserID: id.UserID(uuid.New()), Role: id.FirmRoleManager}

	p, err := models.NewProcedure(
		id.ProcedureID(uuid.New()),
		id.EngagementID(uuid.New()),
		"Revenue cut-off testing",
		"",
		id.RiskLow,
		s.staff.UserID,
		time.Now(),
	)
	s.Require().NoError(err)
	s.procedure = p
}

// SetupSubTest gives every s.Run a fresh controller so expectations do not leak.
func (s *ServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) expectActor(actor models.Actor) {
	s.identity.EXPECT().ResolveActor(gomock.Any()).Return(actor, nil)
}

func (s *ServiceSuite) expectSnapshot(p *models.Procedure, signoffs []models.SignoffRecord) {
	copied := *p
	s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(&copied, nil)
	s.store.EXPECT().ListSignoffs(gomock.Any(), p.ID).Return(signoffs, nil)
}

func (s *ServiceSuite) captureAudit() *[]audit.Event {
	var events []audit.Event
	s.auditPub.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		events = append(events, e)
		return nil
	}).AnyTimes()
	return &events
}

// applied mirrors what a store returns after a successful compare-and-swap.
func applied(change *models.Change) *models.Procedure {
	out := change.Procedure
	out.Version = change.ExpectedVersion + 1
	return &out
}

// =============================================================================
// CreateProcedure
// =============================================================================

func (s *ServiceSuite) TestCreateProcedure() {
	cmd := CreateProcedureCommand{
		EngagementID: id.EngagementID(uuid.New()),
		Name:         "  Inventory count observation ",
		RiskLevel:    "High",
		AssignedTo:   s.staff.UserID,
	}

	s.Run("invalid command is rejected before any lookup", func() {
		bad := cmd
		bad.RiskLevel = "extreme"
		_, err := s.service.CreateProcedure(s.ctx, bad)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("staff cannot plan procedures", func() {
		s.expectActor(s.staff)
		_, err := s.service.CreateProcedure(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown assignee is not found", func() {
		s.expectActor(s.manager)
		s.identity.EXPECT().LookupUser(gomock.Any(), s.staff.UserID).
			Return(models.Actor{}, dErrors.New(dErrors.CodeNotFound, "user not found"))
		_, err := s.service.CreateProcedure(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("manager creates a not started procedure", func() {
		events := s.captureAudit()
		s.expectActor(s.manager)
		s.identity.EXPECT().LookupUser(gomock.Any(), s.staff.UserID).Return(s.staff, nil)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.changes.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e models.ChangeEvent) error {
			s.Equal(models.StateNotStarted, e.ToState)
			s.Equal(cmd.EngagementID, e.EngagementID)
			return nil
		})

		p, err := s.service.CreateProcedure(s.ctx, cmd)
		s.Require().NoError(err)
		s.Equal("Inventory count observation", p.Name)
		s.Equal(id.RiskHigh, p.RiskLevel)
		s.Equal(models.StateNotStarted, p.State)
		s.Equal(1, p.Version)
		s.Require().Len(*events, 1)
		s.Equal(string(audit.EventProcedureCreated), (*events)[0].Action)
	})

	s.Run("store failure is internal", func() {
		s.expectActor(s.manager)
		s.identity.EXPECT().LookupUser(gomock.Any(), s.staff.UserID).Return(s.staff, nil)
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		_, err := s.service.CreateProcedure(s.ctx, cmd)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// =============================================================================
// PerformAction: error translation
// =============================================================================

func (s *ServiceSuite) TestPerformActionErrors() {
	s.Run("unknown action", func() {
		_, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{Action: "escalate"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown procedure", func() {
		s.expectActor(s.staff)
		s.store.EXPECT().FindByID(gomock.Any(), s.procedure.ID).Return(nil, sentinel.ErrNotFound)
		s.store.EXPECT().ListSignoffs(gomock.Any(), s.procedure.ID).Return(nil, nil).AnyTimes()
		_, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{Action: models.ActionStart})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("illegal transition keeps the typed error", func() {
		events := s.captureAudit()
		s.expectActor(s.staff)
		s.expectSnapshot(s.procedure, nil)

		_, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{Action: models.ActionApprove})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		var te *models.TransitionError
		s.Require().ErrorAs(err, &te)
		s.Equal(models.StateNotStarted, te.State)
		s.Require().Len(*events, 1)
		s.Equal(string(audit.EventActionDenied), (*events)[0].Action)
	})

	s.Run("unauthorized actor is forbidden", func() {
		s.captureAudit()
		other := models.Actor{UserID: id.UserID(uuid.New()), Role: id.FirmRoleStaff}
		s.expectActor(other)
		s.expectSnapshot(s.procedure, nil)

		_, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{Action: models.ActionStart})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		var ae *models.AuthorizationError
		s.ErrorAs(err, &ae)
	})

	s.Run("stale expected version", func() {
		events := s.captureAudit()
		s.expectActor(s.staff)
		s.expectSnapshot(s.procedure, nil)

		_, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{
			Action:          models.ActionStart,
			ExpectedVersion: s.procedure.Version + 1,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeStaleState))
		s.Require().Len(*events, 1)
		s.Equal(string(audit.EventStaleWrite), (*events)[0].Action)
	})

	s.Run("lost compare-and-swap is stale state", func() {
		s.captureAudit()
		s.expectActor(s.staff)
		s.expectSnapshot(s.procedure, nil)
		s.store.EXPECT().ApplyChange(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrConflict)

		_, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{Action: models.ActionStart})
		s.True(dErrors.HasCode(err, dErrors.CodeStaleState))
		s.ErrorIs(err, sentinel.ErrConflict)
		var pe *models.PersistenceError
		s.Require().ErrorAs(err, &pe)
		s.Equal(s.procedure.ID, pe.ProcedureID)
	})
}

// =============================================================================
// PerformAction: success path
// =============================================================================

func (s *ServiceSuite) TestPerformActionCommits() {
	s.Run("start sends the expected version and state to the store", func() {
		events := s.captureAudit()
		s.expectActor(s.staff)
		s.expectSnapshot(s.procedure, nil)
		s.store.EXPECT().ApplyChange(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, change *models.Change) (*models.Procedure, error) {
				s.Equal(s.procedure.Version, change.ExpectedVersion)
				s.Equal(models.StateNotStarted, change.ExpectedState)
				s.Equal(models.StateInProgress, change.Procedure.State)
				s.Require().NotNil(change.Transition)
				s.Equal("picking this up", change.Transition.Comment)
				return applied(change), nil
			})
		s.changes.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e models.ChangeEvent) error {
			s.Equal(models.ActionStart, e.Action)
			s.Equal(models.StateNotStarted, e.FromState)
			s.Equal(models.StateInProgress, e.ToState)
			s.Equal(s.procedure.Version+1, e.Version)
			return nil
		})

		updated, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{
			Action:          models.ActionStart,
			Comment:         "picking this up",
			ExpectedVersion: s.procedure.Version,
		})
		s.Require().NoError(err)
		s.Equal(models.StateInProgress, updated.State)
		s.Require().Len(*events, 1)
		s.Equal(string(audit.EventProcedureTransitioned), (*events)[0].Action)
	})

	s.Run("feed failure does not fail the command", func() {
		s.captureAudit()
		s.expectActor(s.staff)
		s.expectSnapshot(s.procedure, nil)
		s.store.EXPECT().ApplyChange(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, change *models.Change) (*models.Procedure, error) {
				return applied(change), nil
			})
		s.changes.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

		_, err := s.service.PerformAction(s.ctx, s.procedure.ID, ActionCommand{Action: models.ActionStart})
		s.NoError(err)
	})

	s.Run("submit records the preparer signoff with the content hash", func() {
		events := s.captureAudit()
		p := *s.procedure
		p.State = models.StateInProgress
		p.WorkPerformed = "Traced 25 invoices either side of year end."
		p.Conclusion = "No cut-off errors noted."
		want, err := workflow.ComputeContentHash(p)
		s.Require().NoError(err)

		s.expectActor(s.staff)
		s.expectSnapshot(&p, nil)
		s.store.EXPECT().ApplyChange(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, change *models.Change) (*models.Procedure, error) {
				s.Require().Len(change.AddSignoffs, 1)
				s.Equal(id.SignoffRolePreparer, change.AddSignoffs[0].Role)
				s.Equal(want, change.AddSignoffs[0].ContentHash)
				return applied(change), nil
			})
		s.changes.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		updated, err := s.service.PerformAction(s.ctx, p.ID, ActionCommand{Action: models.ActionSubmitForReview})
		s.Require().NoError(err)
		s.Equal(models.StatePendingReview, updated.State)
		s.Equal(want, updated.ContentHash)

		actions := make([]string, 0, len(*events))
		for _, e := range *events {
			actions = append(actions, e.Action)
		}
		s.ElementsMatch([]string{string(audit.EventProcedureTransitioned), string(audit.EventSignoffRecorded)}, actions)
	})
}

// =============================================================================
// Integrity
// =============================================================================

func (s *ServiceSuite) approvedWithEditedContent() (*models.Procedure, []models.SignoffRecord) {
	p := *s.procedure
	p.State = models.StateApproved
	p.WorkPerformed = "Original work"
	p.Conclusion = "Original conclusion"
	hash, err := workflow.ComputeContentHash(p)
	s.Require().NoError(err)
	p.ContentHash = hash
	p.ReviewerID = s.senior.UserID
	signoffs := []models.SignoffRecord{
		{ID: id.SignoffID(uuid.New()), ProcedureID: p.ID, Role: id.SignoffRolePreparer, SignedBy: s.staff.UserID, ContentHash: hash},
		{ID: id.SignoffID(uuid.New()), ProcedureID: p.ID, Role: id.SignoffRoleReviewer, SignedBy: s.senior.UserID, ContentHash: hash},
	}
	p.WorkPerformed = "Edited after approval"
	return &p, signoffs
}

func (s *ServiceSuite) TestIntegrity() {
	s.Run("sign off is blocked by a content mismatch", func() {
		events := s.captureAudit()
		p, signoffs := s.approvedWithEditedContent()
		s.expectActor(s.manager)
		s.expectSnapshot(p, signoffs)

		_, err := s.service.PerformAction(s.ctx, p.ID, ActionCommand{Action: models.ActionSignOff})
		s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))
		var warning *models.IntegrityWarning
		s.Require().ErrorAs(err, &warning)
		s.Equal(p.ContentHash, warning.StoredHash)
		s.Require().Len(*events, 1)
		s.Equal(string(audit.EventIntegrityMismatch), (*events)[0].Action)
	})

	s.Run("additional signoff is blocked by a content mismatch", func() {
		events := s.captureAudit()
		p, signoffs := s.approvedWithEditedContent()
		p.RiskLevel = id.RiskHigh
		s.expectActor(s.manager)
		s.expectSnapshot(p, signoffs)

		_, err := s.service.RecordSignoff(s.ctx, p.ID, SignoffCommand{Role: id.SignoffRoleManager})
		s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))
		var warning *models.IntegrityWarning
		s.Require().ErrorAs(err, &warning)
		s.Equal(p.ContentHash, warning.StoredHash)
		s.Require().Len(*events, 1)
		s.Equal(string(audit.EventIntegrityMismatch), (*events)[0].Action)
	})

	s.Run("get procedure reports the warning without failing", func() {
		p, signoffs := s.approvedWithEditedContent()
		s.expectActor(s.manager)
		s.expectSnapshot(p, signoffs)

		view, err := s.service.GetProcedure(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Require().NotNil(view.Integrity)
		s.Equal(100, view.Progress)
		s.Nil(view.NextSignoff)
		s.NotContains(view.AvailableActions, models.ActionSignOff)
		s.Contains(view.AvailableActions, models.ActionMarkNotApplicable)
	})

	s.Run("validate content integrity needs no actor", func() {
		p, _ := s.approvedWithEditedContent()
		s.store.EXPECT().FindByID(gomock.Any(), p.ID).Return(p, nil)

		report, err := s.service.ValidateContentIntegrity(s.ctx, p.ID)
		s.Require().NoError(err)
		s.False(report.Valid)
		s.NotEqual(report.StoredHash, report.CurrentHash)
	})
}

// =============================================================================
// Assign, queries and history
// =============================================================================

func (s *ServiceSuite) TestAssign() {
	s.Run("unknown assignee stops before loading", func() {
		other := id.UserID(uuid.New())
		s.identity.EXPECT().LookupUser(gomock.Any(), other).
			Return(models.Actor{}, dErrors.New(dErrors.CodeNotFound, "user not found"))
		_, err := s.service.Assign(s.ctx, s.procedure.ID, other)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("manager reassigns", func() {
		s.captureAudit()
		other := models.Actor{UserID: id.UserID(uuid.New()), Role: id.FirmRoleStaff}
		s.identity.EXPECT().LookupUser(gomock.Any(), other.UserID).Return(other, nil)
		s.expectActor(s.manager)
		s.expectSnapshot(s.procedure, nil)
		s.store.EXPECT().ApplyChange(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, change *models.Change) (*models.Procedure, error) {
				s.Nil(change.Transition)
				s.Equal(models.ActionAssign, change.Action)
				return applied(change), nil
			})
		s.changes.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

		updated, err := s.service.Assign(s.ctx, s.procedure.ID, other.UserID)
		s.Require().NoError(err)
		s.Equal(other.UserID, updated.AssignedTo)
	})
}

func (s *ServiceSuite) TestQueries() {
	s.Run("list rejects unknown state filters", func() {
		s.expectActor(s.staff)
		_, err := s.service.ListByEngagement(s.ctx, s.procedure.EngagementID, []models.State{"archived"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("list passes filters through", func() {
		s.expectActor(s.staff)
		filter := []models.State{models.StateNotStarted}
		s.store.EXPECT().ListByEngagement(gomock.Any(), s.procedure.EngagementID, filter).
			Return([]*models.Procedure{s.procedure}, nil)
		out, err := s.service.ListByEngagement(s.ctx, s.procedure.EngagementID, filter)
		s.Require().NoError(err)
		s.Len(out, 1)
	})

	s.Run("can perform action explains refusals", func() {
		s.expectActor(s.senior)
		s.expectSnapshot(s.procedure, nil)
		perm, err := s.service.CanPerformAction(s.ctx, s.procedure.ID, models.ActionStart)
		s.Require().NoError(err)
		s.False(perm.Allowed)
		s.NotEmpty(perm.Reason)
	})

	s.Run("can user signoff checks the named user", func() {
		p := *s.procedure
		p.State = models.StateInProgress
		s.expectActor(s.manager)
		s.identity.EXPECT().LookupUser(gomock.Any(), s.staff.UserID).Return(s.staff, nil)
		s.expectSnapshot(&p, nil)

		ok, err := s.service.CanUserSignoff(s.ctx, p.ID, s.staff.UserID, id.SignoffRolePreparer)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("history loads both logs", func() {
		s.store.EXPECT().FindByID(gomock.Any(), s.procedure.ID).Return(s.procedure, nil)
		s.store.EXPECT().ListTransitions(gomock.Any(), s.procedure.ID).Return([]models.TransitionLogEntry{{Action: models.ActionStart}}, nil)
		s.store.EXPECT().ListSignoffEvents(gomock.Any(), s.procedure.ID).Return(nil, nil)

		h, err := s.service.History(s.ctx, s.procedure.ID)
		s.Require().NoError(err)
		s.Len(h.Transitions, 1)
		s.Empty(h.SignoffEvents)
	})

	s.Run("unauthenticated reads are refused", func() {
		s.identity.EXPECT().ResolveActor(gomock.Any()).
			Return(models.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		_, err := s.service.GetProcedure(s.ctx, s.procedure.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
