package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/sentinel"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newTestProcedure(t *testing.T, engagementID id.EngagementID, risk id.RiskLevel, createdAt time.Time) *models.Procedure {
	t.Helper()
	p, err := models.NewProcedure(id.ProcedureID(uuid.New()), engagementID, "Revenue cut-off testing", "", risk,
		id.UserID(uuid.New()), createdAt)
	require.NoError(t, err)
	return p
}

// transitionChange moves current to state with a logged transition.
func transitionChange(current models.Procedure, to models.State, action models.Action, actor id.UserID) *models.Change {
	next := current
	next.State = to
	next.UpdatedAt = current.UpdatedAt.Add(time.Minute)
	return &models.Change{
		Procedure:       next,
		ExpectedVersion: current.Version,
		ExpectedState:   current.State,
		Action:          action,
		Transition: &models.TransitionLogEntry{
			ID:          id.TransitionID(uuid.New()),
			ProcedureID: current.ID,
			FromState:   current.State,
			ToState:     to,
			Action:      action,
			PerformedBy: actor,
			PerformedAt: next.UpdatedAt,
		},
	}
}

// signoffChange fills role without moving state.
func signoffChange(current models.Procedure, role id.SignoffRole, actor id.UserID) *models.Change {
	signoffID := id.SignoffID(uuid.New())
	return &models.Change{
		Procedure:       current,
		ExpectedVersion: current.Version,
		ExpectedState:   current.State,
		Action:          models.ActionRecordSignoff,
		AddSignoffs: []models.SignoffRecord{{
			ID:          signoffID,
			ProcedureID: current.ID,
			Role:        role,
			SignedBy:    actor,
			SignedAt:    testNow,
			ContentHash: "hash-" + string(role),
		}},
		SignoffEvents: []models.SignoffEvent{{
			ProcedureID: current.ID,
			SignoffID:   signoffID,
			Role:        role,
			Kind:        models.SignoffEventSigned,
			ActorID:     actor,
			ContentHash: "hash-" + string(role),
			OccurredAt:  testNow,
		}},
	}
}

func TestInMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	p := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskLow, testNow)

	require.NoError(t, s.Create(ctx, p))
	assert.ErrorIs(t, s.Create(ctx, p), sentinel.ErrAlreadyUsed)

	got, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, *p, *got)

	got.Name = "mutated"
	again, err := s.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, again.Name, "returned procedures are copies")

	_, err = s.FindByID(ctx, id.ProcedureID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_ListByEngagement(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	engagementID := id.EngagementID(uuid.New())

	first := newTestProcedure(t, engagementID, id.RiskLow, testNow)
	second := newTestProcedure(t, engagementID, id.RiskHigh, testNow.Add(time.Hour))
	other := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskLow, testNow)
	for _, p := range []*models.Procedure{second, other, first} {
		require.NoError(t, s.Create(ctx, p))
	}
	_, err := s.ApplyChange(ctx, transitionChange(*second, models.StateInProgress, models.ActionStart, second.AssignedTo))
	require.NoError(t, err)

	all, err := s.ListByEngagement(ctx, engagementID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID, "ordered by creation time")
	assert.Equal(t, second.ID, all[1].ID)

	started, err := s.ListByEngagement(ctx, engagementID, []models.State{models.StateInProgress})
	require.NoError(t, err)
	require.Len(t, started, 1)
	assert.Equal(t, second.ID, started[0].ID)

	none, err := s.ListByEngagement(ctx, id.EngagementID(uuid.New()), nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestInMemoryStore_ApplyChange(t *testing.T) {
	ctx := context.Background()
	actor := id.UserID(uuid.New())

	t.Run("bumps version and logs the transition", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskLow, testNow)
		require.NoError(t, s.Create(ctx, p))

		updated, err := s.ApplyChange(ctx, transitionChange(*p, models.StateInProgress, models.ActionStart, actor))
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, models.StateInProgress, updated.State)
		assert.Equal(t, p.CreatedAt, updated.CreatedAt)

		transitions, err := s.ListTransitions(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, transitions, 1)
		assert.Equal(t, models.ActionStart, transitions[0].Action)
	})

	t.Run("stale version conflicts without side effects", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskLow, testNow)
		require.NoError(t, s.Create(ctx, p))
		_, err := s.ApplyChange(ctx, transitionChange(*p, models.StateInProgress, models.ActionStart, actor))
		require.NoError(t, err)

		_, err = s.ApplyChange(ctx, signoffChange(*p, id.SignoffRolePreparer, actor))
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		signoffs, err := s.ListSignoffs(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, signoffs)
		events, err := s.ListSignoffEvents(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("state without transition is rejected", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskLow, testNow)
		require.NoError(t, s.Create(ctx, p))
		change := transitionChange(*p, models.StateInProgress, models.ActionStart, actor)
		change.Transition = nil

		_, err := s.ApplyChange(ctx, change)
		require.Error(t, err)
		got, err := s.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StateNotStarted, got.State)
	})

	t.Run("unknown procedure", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskLow, testNow)
		_, err := s.ApplyChange(ctx, signoffChange(*p, id.SignoffRolePreparer, actor))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("signoffs are added and removed by role", func(t *testing.T) {
		s := NewInMemoryStore()
		p := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskHigh, testNow)
		require.NoError(t, s.Create(ctx, p))

		current, err := s.ApplyChange(ctx, signoffChange(*p, id.SignoffRolePreparer, actor))
		require.NoError(t, err)
		current, err = s.ApplyChange(ctx, signoffChange(*current, id.SignoffRoleReviewer, id.UserID(uuid.New())))
		require.NoError(t, err)

		revoke := &models.Change{
			Procedure:       *current,
			ExpectedVersion: current.Version,
			ExpectedState:   current.State,
			Action:          models.ActionRevokeSignoff,
			RemoveSignoffs:  []id.SignoffRole{id.SignoffRoleReviewer},
			SignoffEvents: []models.SignoffEvent{{
				ProcedureID: p.ID,
				Role:        id.SignoffRoleReviewer,
				Kind:        models.SignoffEventRevoked,
				ActorID:     actor,
				OccurredAt:  testNow,
			}},
		}
		current, err = s.ApplyChange(ctx, revoke)
		require.NoError(t, err)
		assert.Equal(t, 4, current.Version)

		signoffs, err := s.ListSignoffs(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, signoffs, 1)
		assert.Equal(t, id.SignoffRolePreparer, signoffs[0].Role)

		events, err := s.ListSignoffEvents(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, models.SignoffEventRevoked, events[2].Kind)
	})
}

func TestInMemoryStore_ConcurrentCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	p := newTestProcedure(t, id.EngagementID(uuid.New()), id.RiskLow, testNow)
	require.NoError(t, s.Create(ctx, p))

	const writers = 16
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApplyChange(ctx, transitionChange(*p, models.StateInProgress, models.ActionStart, id.UserID(uuid.New())))
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())
	transitions, err := s.ListTransitions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, transitions, 1)
}
