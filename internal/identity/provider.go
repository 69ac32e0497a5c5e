package identity

import (
	"context"
	"errors"
	"log/slog"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
	"engageflow/pkg/platform/sentinel"
	"engageflow/pkg/requestcontext"
)

// Directory looks users up by ID.
type Directory interface {
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	Save(ctx context.Context, user *User) error
}

// Provider resolves actors for the procedure service.
type Provider struct {
	directory Directory
	logger    *slog.Logger
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func NewProvider(directory Directory, opts ...Option) *Provider {
	p := &Provider{directory: directory, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ResolveActor returns the authenticated user from the request context together with
// their current firm role.
func (p *Provider) ResolveActor(ctx context.Context) (models.Actor, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return models.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	user, err := p.directory.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			p.logger.WarnContext(ctx, "token subject not in directory", "user_id", userID.String())
			return models.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "unknown user")
		}
		return models.Actor{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
	}
	if !user.Active {
		return models.Actor{}, dErrors.New(dErrors.CodeForbidden, "user is inactive")
	}
	return models.Actor{UserID: user.ID, Role: user.Role}, nil
}

// LookupUser resolves another user, e.g. a prospective assignee.
func (p *Provider) LookupUser(ctx context.Context, userID id.UserID) (models.Actor, error) {
	user, err := p.directory.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Actor{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.Actor{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if !user.Active {
		return models.Actor{}, dErrors.New(dErrors.CodeValidation, "user is inactive")
	}
	return models.Actor{UserID: user.ID, Role: user.Role}, nil
}
