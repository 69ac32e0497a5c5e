//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/sentinel"
	txcontext "engageflow/pkg/platform/tx"
	"engageflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
	actor    id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"procedure_signoff_events", "procedure_transitions", "procedure_signoffs", "procedures"))
	s.actor = id.UserID(uuid.New())
}

func (s *PostgresStoreSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *PostgresStoreSuite) create(engagementID id.EngagementID, risk id.RiskLevel, createdAt time.Time) *models.Procedure {
	p := newTestProcedure(s.T(), engagementID, risk, createdAt)
	s.Require().NoError(s.store.Create(context.Background(), p))
	return p
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	p := s.create(id.EngagementID(uuid.New()), id.RiskSignificant, testNow)

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal(p.EngagementID, got.EngagementID)
	s.Equal(id.RiskSignificant, got.RiskLevel)
	s.Equal(models.StateNotStarted, got.State)
	s.Equal(p.AssignedTo, got.AssignedTo)
	s.True(got.ReviewerID.IsNil())
	s.Equal(1, got.Version)
	s.True(p.CreatedAt.Equal(got.CreatedAt))

	s.ErrorIs(s.store.Create(ctx, p), sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(ctx, id.ProcedureID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByEngagement() {
	ctx := context.Background()
	engagementID := id.EngagementID(uuid.New())
	first := s.create(engagementID, id.RiskLow, testNow)
	second := s.create(engagementID, id.RiskMedium, testNow.Add(time.Hour))
	s.create(id.EngagementID(uuid.New()), id.RiskLow, testNow)

	_, err := s.store.ApplyChange(ctx, transitionChange(*first, models.StateInProgress, models.ActionStart, s.actor))
	s.Require().NoError(err)

	all, err := s.store.ListByEngagement(ctx, engagementID, nil)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(first.ID, all[0].ID)
	s.Equal(second.ID, all[1].ID)

	filtered, err := s.store.ListByEngagement(ctx, engagementID, []models.State{models.StateNotStarted, models.StateSignedOff})
	s.Require().NoError(err)
	s.Require().Len(filtered, 1)
	s.Equal(second.ID, filtered[0].ID)
}

func (s *PostgresStoreSuite) TestApplyChange() {
	s.Run("transition and signoff persist together", func() {
		ctx := context.Background()
		p := s.create(id.EngagementID(uuid.New()), id.RiskHigh, testNow)

		current, err := s.store.ApplyChange(ctx, transitionChange(*p, models.StateInProgress, models.ActionStart, s.actor))
		s.Require().NoError(err)
		s.Equal(2, current.Version)

		current.WorkPerformed = "Agreed balances to confirmations"
		current.ContentHash = "hash-preparer"
		current, err = s.store.ApplyChange(ctx, signoffChange(*current, id.SignoffRolePreparer, s.actor))
		s.Require().NoError(err)
		s.Equal(3, current.Version)
		s.Equal("Agreed balances to confirmations", current.WorkPerformed)

		signoffs, err := s.store.ListSignoffs(ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(signoffs, 1)
		s.Equal(id.SignoffRolePreparer, signoffs[0].Role)
		s.Equal(s.actor, signoffs[0].SignedBy)

		transitions, err := s.store.ListTransitions(ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(transitions, 1)
		s.Equal(models.StateNotStarted, transitions[0].FromState)
		s.Equal(models.StateInProgress, transitions[0].ToState)

		events, err := s.store.ListSignoffEvents(ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(models.SignoffEventSigned, events[0].Kind)
	})

	s.Run("revocation removes the slot and keeps history", func() {
		ctx := context.Background()
		p := s.create(id.EngagementID(uuid.New()), id.RiskLow, testNow)
		current, err := s.store.ApplyChange(ctx, signoffChange(*p, id.SignoffRolePreparer, s.actor))
		s.Require().NoError(err)
		signoffs, err := s.store.ListSignoffs(ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(signoffs, 1)

		_, err = s.store.ApplyChange(ctx, &models.Change{
			Procedure:       *current,
			ExpectedVersion: current.Version,
			ExpectedState:   current.State,
			Action:          models.ActionRevokeSignoff,
			RemoveSignoffs:  []id.SignoffRole{id.SignoffRolePreparer},
			SignoffEvents: []models.SignoffEvent{{
				ProcedureID: p.ID,
				SignoffID:   signoffs[0].ID,
				Role:        id.SignoffRolePreparer,
				Kind:        models.SignoffEventRevoked,
				ActorID:     s.actor,
				ContentHash: signoffs[0].ContentHash,
				OccurredAt:  testNow.Add(time.Hour),
			}},
		})
		s.Require().NoError(err)

		signoffs, err = s.store.ListSignoffs(ctx, p.ID)
		s.Require().NoError(err)
		s.Empty(signoffs)
		events, err := s.store.ListSignoffEvents(ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(models.SignoffEventRevoked, events[1].Kind)
	})

	s.Run("stale version conflicts", func() {
		ctx := context.Background()
		p := s.create(id.EngagementID(uuid.New()), id.RiskLow, testNow)
		_, err := s.store.ApplyChange(ctx, transitionChange(*p, models.StateInProgress, models.ActionStart, s.actor))
		s.Require().NoError(err)

		_, err = s.store.ApplyChange(ctx, transitionChange(*p, models.StateNotApplicable, models.ActionMarkNotApplicable, s.actor))
		s.ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StateInProgress, got.State)
	})

	s.Run("missing procedure", func() {
		p := newTestProcedure(s.T(), id.EngagementID(uuid.New()), id.RiskLow, testNow)
		_, err := s.store.ApplyChange(context.Background(), transitionChange(*p, models.StateInProgress, models.ActionStart, s.actor))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("failed insert rolls the update back", func() {
		ctx := context.Background()
		p := s.create(id.EngagementID(uuid.New()), id.RiskLow, testNow)
		current, err := s.store.ApplyChange(ctx, signoffChange(*p, id.SignoffRolePreparer, s.actor))
		s.Require().NoError(err)

		// A second preparer row violates the one-record-per-role constraint.
		_, err = s.store.ApplyChange(ctx, signoffChange(*current, id.SignoffRolePreparer, s.actor))
		s.Require().Error(err)

		got, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(current.Version, got.Version)
		events, err := s.store.ListSignoffEvents(ctx, p.ID)
		s.Require().NoError(err)
		s.Len(events, 1)
	})
}

func (s *PostgresStoreSuite) TestConcurrentCompareAndSwap() {
	ctx := context.Background()
	p := s.create(id.EngagementID(uuid.New()), id.RiskLow, testNow)

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.store.ApplyChange(ctx, transitionChange(*p, models.StateInProgress, models.ActionStart, id.UserID(uuid.New())))
		}()
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, sentinel.ErrConflict)
	}
	s.Equal(1, wins)

	transitions, err := s.store.ListTransitions(ctx, p.ID)
	s.Require().NoError(err)
	s.Len(transitions, 1)
}

func (s *PostgresStoreSuite) TestCallerTransactionIsJoined() {
	ctx := context.Background()
	p := s.create(id.EngagementID(uuid.New()), id.RiskLow, testNow)

	err := txcontext.Run(ctx, s.postgres.DB, func(ctx context.Context) error {
		if _, err := s.store.ApplyChange(ctx, transitionChange(*p, models.StateInProgress, models.ActionStart, s.actor)); err != nil {
			return err
		}
		return sentinel.ErrUnavailable
	})
	s.ErrorIs(err, sentinel.ErrUnavailable)

	got, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StateNotStarted, got.State, "outer rollback discards the change")
}
