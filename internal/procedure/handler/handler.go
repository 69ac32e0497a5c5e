package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"engageflow/internal/procedure/feed"
	"engageflow/internal/procedure/models"
	"engageflow/internal/procedure/service"
	"engageflow/internal/procedure/workflow"
	id "engageflow/pkg/domain"
	dErrors "engageflow/pkg/domain-errors"
	"engageflow/pkg/platform/httputil"
	strutil "engageflow/pkg/platform/strings"
	"engageflow/pkg/requestcontext"
)

// Service is the procedure workflow surface exposed over HTTP.
type Service interface {
	CreateProcedure(ctx context.Context, cmd service.CreateProcedureCommand) (*models.Procedure, error)
	GetProcedure(ctx context.Context, procedureID id.ProcedureID) (*models.ProcedureView, error)
	ListByEngagement(ctx context.Context, engagementID id.EngagementID, states []models.State) ([]*models.Procedure, error)
	UpdateContent(ctx context.Context, procedureID id.ProcedureID, cmd service.UpdateContentCommand) (*models.Procedure, error)
	Assign(ctx context.Context, procedureID id.ProcedureID, assignee id.UserID) (*models.Procedure, error)
	AvailableActions(ctx context.Context, procedureID id.ProcedureID) ([]models.Action, error)
	CanPerformAction(ctx context.Context, procedureID id.ProcedureID, action models.Action) (workflow.Permission, error)
	PerformAction(ctx context.Context, procedureID id.ProcedureID, cmd service.ActionCommand) (*models.Procedure, error)
	RequiredSignoffs(ctx context.Context, procedureID id.ProcedureID) ([]models.SignoffRequirement, error)
	RecordSignoff(ctx context.Context, procedureID id.ProcedureID, cmd service.SignoffCommand) (*models.Procedure, error)
	RevokeSignoff(ctx context.Context, procedureID id.ProcedureID, cmd service.SignoffCommand) (*models.Procedure, error)
	CanUserSignoff(ctx context.Context, procedureID id.ProcedureID, userID id.UserID, role id.SignoffRole) (bool, error)
	ValidateContentIntegrity(ctx context.Context, procedureID id.ProcedureID) (*models.IntegrityReport, error)
	History(ctx context.Context, procedureID id.ProcedureID) (*models.History, error)
}

// Handler wires procedure endpoints to the procedure service.
type Handler struct {
	service Service
	events  feed.Subscriber
	logger  *slog.Logger
}

// New constructs a procedure handler. events may be nil, which disables the change stream.
func New(service Service, events feed.Subscriber, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		events:  events,
		logger:  logger,
	}
}

// Register mounts procedure endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/engagements/{engagementID}/procedures", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
	})
	r.Route("/procedures/{procedureID}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Patch("/content", h.HandleUpdateContent)
		r.Put("/assignee", h.HandleAssign)
		r.Get("/actions", h.HandleAvailableActions)
		r.Get("/actions/{action}", h.HandleCanPerform)
		r.Post("/actions/{action}", h.HandlePerform)
		r.Get("/signoffs", h.HandleRequiredSignoffs)
		r.Post("/signoffs/{role}", h.HandleRecordSignoff)
		r.Delete("/signoffs/{role}", h.HandleRevokeSignoff)
		r.Get("/signoffs/{role}/eligibility", h.HandleEligibility)
		r.Get("/integrity", h.HandleIntegrity)
		r.Get("/history", h.HandleHistory)
		r.Get("/events", h.HandleEvents)
	})
}

// HandleCreate handles POST /engagements/{engagementID}/procedures.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	engagementID, err := id.ParseEngagementID(chi.URLParam(r, "engagementID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateProcedureRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, err := h.service.CreateProcedure(ctx, service.CreateProcedureCommand{
		EngagementID: engagementID,
		Name:         req.Name,
		Description:  req.Description,
		RiskLevel:    req.parsedRisk,
		AssignedTo:   req.parsedAssignee,
	})
	if err != nil {
		h.fail(w, r, "create procedure failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /engagements/{engagementID}/procedures?state=a,b.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	engagementID, err := id.ParseEngagementID(chi.URLParam(r, "engagementID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var states []models.State
	for _, part := range strutil.SplitListLower(r.URL.Query()["state"]...) {
		states = append(states, models.State(part))
	}

	procedures, err := h.service.ListByEngagement(r.Context(), engagementID, states)
	if err != nil {
		h.fail(w, r, "list procedures failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProcedureListResponse{Procedures: procedures})
}

// HandleGet handles GET /procedures/{procedureID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	view, err := h.service.GetProcedure(r.Context(), procedureID)
	if err != nil {
		h.fail(w, r, "get procedure failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleUpdateContent handles PATCH /procedures/{procedureID}/content.
func (h *Handler) HandleUpdateContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateContentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.UpdateContent(ctx, procedureID, service.UpdateContentCommand{
		WorkPerformed:   req.WorkPerformed,
		Conclusion:      req.Conclusion,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.fail(w, r, "update content failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleAssign handles PUT /procedures/{procedureID}/assignee.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.Assign(ctx, procedureID, req.parsedUserID)
	if err != nil {
		h.fail(w, r, "assign procedure failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleAvailableActions handles GET /procedures/{procedureID}/actions.
func (h *Handler) HandleAvailableActions(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	actions, err := h.service.AvailableActions(r.Context(), procedureID)
	if err != nil {
		h.fail(w, r, "available actions failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ActionsResponse{Actions: actions})
}

// HandleCanPerform handles GET /procedures/{procedureID}/actions/{action}.
func (h *Handler) HandleCanPerform(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	action, ok := actionParam(w, r)
	if !ok {
		return
	}
	perm, err := h.service.CanPerformAction(r.Context(), procedureID, action)
	if err != nil {
		h.fail(w, r, "permission check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PermissionResponse{Action: action, Permission: perm})
}

// HandlePerform handles POST /procedures/{procedureID}/actions/{action}.
func (h *Handler) HandlePerform(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	action, ok := actionParam(w, r)
	if !ok {
		return
	}
	req, ok := h.decodeOptional(w, r)
	if !ok {
		return
	}
	p, err := h.service.PerformAction(r.Context(), procedureID, service.ActionCommand{
		Action:          action,
		Comment:         req.Comment,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.fail(w, r, "perform action failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleRequiredSignoffs handles GET /procedures/{procedureID}/signoffs.
func (h *Handler) HandleRequiredSignoffs(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	reqs, err := h.service.RequiredSignoffs(r.Context(), procedureID)
	if err != nil {
		h.fail(w, r, "required signoffs failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SignoffsResponse{Signoffs: reqs})
}

// HandleRecordSignoff handles POST /procedures/{procedureID}/signoffs/{role}.
func (h *Handler) HandleRecordSignoff(w http.ResponseWriter, r *http.Request) {
	h.handleSignoff(w, r, h.service.RecordSignoff, "record signoff failed")
}

// HandleRevokeSignoff handles DELETE /procedures/{procedureID}/signoffs/{role}.
func (h *Handler) HandleRevokeSignoff(w http.ResponseWriter, r *http.Request) {
	h.handleSignoff(w, r, h.service.RevokeSignoff, "revoke signoff failed")
}

type signoffFunc func(ctx context.Context, procedureID id.ProcedureID, cmd service.SignoffCommand) (*models.Procedure, error)

func (h *Handler) handleSignoff(w http.ResponseWriter, r *http.Request, do signoffFunc, failMsg string) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	role, err := id.ParseSignoffRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := h.decodeOptional(w, r)
	if !ok {
		return
	}
	p, err := do(r.Context(), procedureID, service.SignoffCommand{
		Role:            role,
		Comment:         req.Comment,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.fail(w, r, failMsg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

// HandleEligibility handles GET /procedures/{procedureID}/signoffs/{role}/eligibility?user_id=.
// Without user_id the authenticated user is checked.
func (h *Handler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	role, err := id.ParseSignoffRole(chi.URLParam(r, "role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID := requestcontext.UserID(ctx)
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		if userID, err = id.ParseUserID(raw); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	eligible, err := h.service.CanUserSignoff(ctx, procedureID, userID, role)
	if err != nil {
		h.fail(w, r, "eligibility check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EligibilityResponse{Eligible: eligible})
}

// HandleIntegrity handles GET /procedures/{procedureID}/integrity.
func (h *Handler) HandleIntegrity(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	report, err := h.service.ValidateContentIntegrity(r.Context(), procedureID)
	if err != nil {
		h.fail(w, r, "integrity check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleHistory handles GET /procedures/{procedureID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	procedureID, ok := procedureParam(w, r)
	if !ok {
		return
	}
	history, err := h.service.History(r.Context(), procedureID)
	if err != nil {
		h.fail(w, r, "history failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

// decodeOptional accepts an empty body for commands whose fields are all optional.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request) (*ActionRequest, bool) {
	if r.ContentLength == 0 {
		return &ActionRequest{}, true
	}
	ctx := r.Context()
	return httputil.DecodeAndPrepare[ActionRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
}

// fail logs at a level matching the error's status and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"user_id", requestcontext.UserID(ctx).String(),
		"code", string(code),
		"error", err,
	}
	if httputil.StatusFor(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func procedureParam(w http.ResponseWriter, r *http.Request) (id.ProcedureID, bool) {
	procedureID, err := id.ParseProcedureID(chi.URLParam(r, "procedureID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ProcedureID{}, false
	}
	return procedureID, true
}

func actionParam(w http.ResponseWriter, r *http.Request) (models.Action, bool) {
	action, ok := models.ParseAction(chi.URLParam(r, "action"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown action"))
		return "", false
	}
	return action, true
}
