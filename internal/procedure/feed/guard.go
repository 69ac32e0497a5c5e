package feed

import (
	"context"
	"errors"
	"log/slog"

	"engageflow/internal/procedure/models"
	"engageflow/pkg/platform/circuit"
)

// ErrBackendOpen is returned while a guarded backend's breaker is open.
var ErrBackendOpen = errors.New("feed backend unavailable")

// Guarded skips a failing backend until its breaker admits a probe, so an outage
// does not add latency to every command.
type Guarded struct {
	next    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next Publisher, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Publish(ctx context.Context, event models.ChangeEvent) error {
	if !g.breaker.Allow() {
		return ErrBackendOpen
	}
	if err := g.next.Publish(ctx, event); err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened && g.logger != nil {
			g.logger.WarnContext(ctx, "feed backend circuit opened", "backend", g.breaker.Name(), "error", err)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed && g.logger != nil {
		g.logger.InfoContext(ctx, "feed backend circuit closed", "backend", g.breaker.Name())
	}
	return nil
}
