package service

import (
	"errors"

	"engageflow/internal/procedure/models"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
	"engageflow/pkg/platform/sentinel"
)

// Rejection kinds used for metrics and audit reasons.
const (
	rejectTransition    = "transition"
	rejectAuthorization = "authorization"
	rejectIntegrity     = "integrity"
	rejectStale         = "stale"
	rejectValidation    = "validation"
)

// translate maps engine and store errors to coded domain errors. Typed workflow errors
// stay in the chain so callers can still errors.As them.
func translate(err error, notFoundMsg string) error {
	var (
		te *models.TransitionError
		ae *models.AuthorizationError
		iw *models.IntegrityWarning
		de *dErrors.Error
	)
	switch {
	case errors.As(err, &te):
		return dErrors.Wrap(err, dErrors.CodeInvalidTransition, te.Error())
	case errors.As(err, &ae):
		return dErrors.Wrap(err, dErrors.CodeForbidden, ae.Error())
	case errors.As(err, &iw):
		return dErrors.Wrap(err, dErrors.CodeIntegrity, "content changed after the last signoff; re-attest before signing off")
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeStaleState, "procedure was modified concurrently; reload and retry")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "procedure operation failed")
}

// staleWrite wraps a lost compare-and-swap for procedureID in a PersistenceError.
func staleWrite(procedureID id.ProcedureID, err error) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return &models.PersistenceError{ProcedureID: procedureID, Err: err}
	}
	return err
}

func rejectionKind(err error) string {
	var (
		te *models.TransitionError
		ae *models.AuthorizationError
		iw *models.IntegrityWarning
	)
	switch {
	case errors.As(err, &te):
		return rejectTransition
	case errors.As(err, &ae):
		return rejectAuthorization
	case errors.As(err, &iw):
		return rejectIntegrity
	case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeStaleState):
		return rejectStale
	}
	return rejectValidation
}
