package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"engageflow/internal/procedure/metrics"
	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	"engageflow/pkg/platform/audit"
)

// Store persists procedures, their active sign-offs and their history.
//
// ApplyChange is a compare-and-swap on (ExpectedVersion, ExpectedState) and writes the
// transition log entry, sign-off rows and sign-off history in one transaction.
// It returns sentinel.ErrConflict when the precondition no longer holds.
type Store interface {
	FindByID(ctx context.Context, procedureID id.ProcedureID) (*models.Procedure, error)
	ListByEngagement(ctx context.Context, engagementID id.EngagementID, states []models.State) ([]*models.Procedure, error)
	Create(ctx context.Context, procedure *models.Procedure) error
	ApplyChange(ctx context.Context, change *models.Change) (*models.Procedure, error)
	ListSignoffs(ctx context.Context, procedureID id.ProcedureID) ([]models.SignoffRecord, error)
	ListTransitions(ctx context.Context, procedureID id.ProcedureID) ([]models.TransitionLogEntry, error)
	ListSignoffEvents(ctx context.Context, procedureID id.ProcedureID) ([]models.SignoffEvent, error)
}

// IdentityProvider resolves who is acting. The service never decides authentication.
type IdentityProvider interface {
	ResolveActor(ctx context.Context) (models.Actor, error)
	LookupUser(ctx context.Context, userID id.UserID) (models.Actor, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// ChangePublisher pushes change notifications to subscribers. Publishing happens
// after commit and never fails a command.
type ChangePublisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// Service orchestrates the procedure workflow: it loads snapshots, asks the workflow
// engine for decisions, and persists the resulting changes.
type Service struct {
	store          Store
	identity       IdentityProvider
	logger         *slog.Logger
	auditPublisher AuditPublisher
	changes        ChangePublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithChangePublisher(publisher ChangePublisher) Option {
	return func(s *Service) {
		s.changes = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(store Store, identity IdentityProvider, opts ...Option) *Service {
	s := &Service{
		store:    store,
		identity: identity,
		tracer:   otel.Tracer("engageflow/procedure"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
