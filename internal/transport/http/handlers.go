// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the workflow service, and encode; business rules live in the services.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"accessgate/internal/audit"
	"accessgate/internal/ingest"
	"accessgate/internal/platform/middleware"
	"accessgate/internal/request"
	"accessgate/internal/transport/http/shared"
	domainerrors "accessgate/pkg/domain-errors"
)

// WorkflowService is the slice of the approval service the handlers need.
type WorkflowService interface {
	Get(ctx context.Context, id string) (*request.AccessRequest, error)
	ListPending(ctx context.Context) ([]*request.AccessRequest, error)
	ListByState(ctx context.Context, state request.State) ([]*request.AccessRequest, error)
	Approve(ctx context.Context, id, approver, comments string) (*request.AccessRequest, error)
	Reject(ctx context.Context, id, approver, comments string) (*request.AccessRequest, error)
	Provision(ctx context.Context, id string) (*request.AccessRequest, error)
	History(ctx context.Context, id string) ([]audit.Entry, error)
}

// Ingestor runs one ingest pass over the email source.
type Ingestor interface {
	Run(ctx context.Context, limit int) (ingest.Summary, error)
}

// Handler handles the access request endpoints.
type Handler struct {
	logger   *slog.Logger
	workflow WorkflowService
	ingestor Ingestor
}

// New creates a new Handler.
func New(workflow WorkflowService, ingestor Ingestor, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		workflow: workflow,
		ingestor: ingestor,
	}
}

// Register registers the request routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ingest/run", h.handleIngestRun)
	r.Get("/requests", h.handleListRequests)
	r.Get("/requests/pending", h.handleListPending)
	r.Get("/requests/{id}", h.handleGetRequest)
	r.Post("/requests/{id}/approve", h.handleApprove)
	r.Post("/requests/{id}/reject", h.handleReject)
	r.Post("/requests/{id}/provision", h.handleProvision)
	r.Get("/requests/{id}/history", h.handleHistory)
}

// handleIngestRun triggers one pass over the email source. The body is
// optional; an absent or zero limit means "everything available".
func (h *Handler) handleIngestRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ingestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
			return
		}
	}

	summary, err := h.ingestor.Run(ctx, body.Limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest run failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, domainerrors.Wrap(err, domainerrors.CodeCollaborator, "email source unavailable"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.workflow.ListPending(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toListResponse(reqs))
}

// handleListRequests lists by ?state=; with no filter it lists pending to
// match the review queue default.
func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		h.handleListPending(w, r)
		return
	}
	reqs, err := h.workflow.ListByState(r.Context(), request.State(state))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toListResponse(reqs))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.workflow.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.workflow.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.workflow.Reject)
}

func (h *Handler) handleDecision(
	w http.ResponseWriter,
	r *http.Request,
	decide func(ctx context.Context, id, approver, comments string) (*request.AccessRequest, error),
) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var body decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid request body"))
		return
	}

	req, err := decide(ctx, id, body.Approver, body.Comments)
	if err != nil {
		if !domainerrors.Is(err, domainerrors.CodeInvalidState) && !domainerrors.Is(err, domainerrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "decision failed",
				"request_id", middleware.GetRequestID(ctx),
				"access_request_id", id,
				"error", err.Error(),
			)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

// handleProvision re-runs provisioning for an approved or failed request.
func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	req, err := h.workflow.Provision(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.workflow.History(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toHistoryResponse(id, entries))
}
