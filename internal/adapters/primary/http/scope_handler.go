package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	apperrors "github.com/fieldops/workorder-agent/internal/core/errors"
	"github.com/fieldops/workorder-agent/internal/core/services"
)

// ScopeHandler lets the UI drive the project subscription: opening a project
// view activates that project's scope, closing it clears the scope. The
// global subscription is not reachable from here; it lives for the whole
// process.
type ScopeHandler struct {
	manager      *services.SubscriptionManager
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewScopeHandler creates a new scope handler.
func NewScopeHandler(manager *services.SubscriptionManager, errorHandler *ErrorHandler, logger *slog.Logger) *ScopeHandler {
	return &ScopeHandler{
		manager:      manager,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// ScopeRequest selects the active project. A null projectId clears the
// scope and tears the project subscription down.
type ScopeRequest struct {
	ProjectID *int64 `json:"projectId"`
}

// ScopeResponse reports the current scope and connection state.
type ScopeResponse struct {
	Scope           string `json:"scope"`
	ProjectID       *int64 `json:"projectId,omitempty"`
	ConnectionState string `json:"connectionState"`
}

// RegisterRoutes mounts the handler's routes on the given router.
func (h *ScopeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/scope", h.handleGetScope)
	r.Put("/scope", h.handlePutScope)
}

func (h *ScopeHandler) handleGetScope(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.currentScope())
}

func (h *ScopeHandler) handlePutScope(w http.ResponseWriter, r *http.Request) {
	var req ScopeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Request body must be JSON with an optional projectId"))
		return
	}

	if req.ProjectID == nil {
		h.manager.Activate(domain.Scope{})
	} else {
		if *req.ProjectID <= 0 {
			h.errorHandler.Handle(w, r, apperrors.ErrInvalidProjectID)
			return
		}
		h.manager.Activate(domain.ProjectScope(*req.ProjectID))
	}

	WriteJSON(w, http.StatusOK, h.currentScope())
}

func (h *ScopeHandler) currentScope() ScopeResponse {
	scope := h.manager.Scope()

	resp := ScopeResponse{
		Scope:           scope.Kind.String(),
		ConnectionState: h.manager.State().String(),
	}
	if scope.Kind == domain.ScopeProject {
		projectID := scope.ProjectID
		resp.ProjectID = &projectID
	}
	return resp
}
