package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/sentinel"
)

// InMemoryStore keeps procedures and their history in process memory.
// ApplyChange holds the write lock for the whole compare-and-swap, so the version
// precondition behaves exactly like the Postgres store.
type InMemoryStore struct {
	mu          sync.RWMutex
	procedures  map[id.ProcedureID]*models.Procedure
	signoffs    map[id.ProcedureID][]models.SignoffRecord
	transitions map[id.ProcedureID][]models.TransitionLogEntry
	events      map[id.ProcedureID][]models.SignoffEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		procedures:  make(map[id.ProcedureID]*models.Procedure),
		signoffs:    make(map[id.ProcedureID][]models.SignoffRecord),
		transitions: make(map[id.ProcedureID][]models.TransitionLogEntry),
		events:      make(map[id.ProcedureID][]models.SignoffEvent),
	}
}

func (s *InMemoryStore) Create(_ context.Context, procedure *models.Procedure) error {
	if procedure == nil {
		return fmt.Errorf("procedure is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.procedures[procedure.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	stored := *procedure
	s.procedures[procedure.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, procedureID id.ProcedureID) (*models.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.procedures[procedureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (s *InMemoryStore) ListByEngagement(_ context.Context, engagementID id.EngagementID, states []models.State) ([]*models.Procedure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter := make(map[models.State]bool, len(states))
	for _, st := range states {
		filter[st] = true
	}
	out := []*models.Procedure{}
	for _, p := range s.procedures {
		if p.EngagementID != engagementID {
			continue
		}
		if len(filter) > 0 && !filter[p.State] {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ApplyChange persists change if the stored version and state still match.
func (s *InMemoryStore) ApplyChange(_ context.Context, change *models.Change) (*models.Procedure, error) {
	if change == nil {
		return nil, fmt.Errorf("change is required")
	}
	if err := change.Validate(); err != nil {
		return nil, fmt.Errorf("apply change: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	procedureID := change.Procedure.ID
	current, ok := s.procedures[procedureID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if current.Version != change.ExpectedVersion || current.State != change.ExpectedState {
		return nil, sentinel.ErrConflict
	}

	next := change.Procedure
	next.Version = current.Version + 1
	next.CreatedAt = current.CreatedAt
	s.procedures[procedureID] = &next

	if len(change.RemoveSignoffs) > 0 || len(change.AddSignoffs) > 0 {
		removed := make(map[id.SignoffRole]bool, len(change.RemoveSignoffs))
		for _, role := range change.RemoveSignoffs {
			removed[role] = true
		}
		kept := make([]models.SignoffRecord, 0, len(s.signoffs[procedureID])+len(change.AddSignoffs))
		for _, rec := range s.signoffs[procedureID] {
			if !removed[rec.Role] {
				kept = append(kept, rec)
			}
		}
		s.signoffs[procedureID] = append(kept, change.AddSignoffs...)
	}
	if change.Transition != nil {
		s.transitions[procedureID] = append(s.transitions[procedureID], *change.Transition)
	}
	s.events[procedureID] = append(s.events[procedureID], change.SignoffEvents...)

	out := next
	return &out, nil
}

func (s *InMemoryStore) ListSignoffs(_ context.Context, procedureID id.ProcedureID) ([]models.SignoffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SignoffRecord{}, s.signoffs[procedureID]...), nil
}

func (s *InMemoryStore) ListTransitions(_ context.Context, procedureID id.ProcedureID) ([]models.TransitionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TransitionLogEntry{}, s.transitions[procedureID]...), nil
}

func (s *InMemoryStore) ListSignoffEvents(_ context.Context, procedureID id.ProcedureID) ([]models.SignoffEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.SignoffEvent{}, s.events[procedureID]...), nil
}
