package http

import (
	"errors"
	"log/slog"
	"net/http"

	mw "github.com/fieldops/workorder-agent/internal/adapters/primary/http/middleware"
	apperrors "github.com/fieldops/workorder-agent/internal/core/errors"
)

// ErrorResponse is the standard JSON error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorHandler provides centralized error handling with logging.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, appErr.Err)
		WriteJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.Message, Code: appErr.Code})
		return
	}

	statusCode, response := h.mapDomainError(err)
	h.logError(r, statusCode, err)
	WriteJSON(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses.
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, apperrors.ErrProjectNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Project not found",
			Code:  "PROJECT_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrWorkOrderNotFound):
		return http.StatusNotFound, ErrorResponse{
			Error: "Work order not found",
			Code:  "WORK_ORDER_NOT_FOUND",
		}
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusBadGateway, ErrorResponse{
			Error: "The work-order server rejected the agent's credentials",
			Code:  "UPSTREAM_UNAUTHORIZED",
		}
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway, ErrorResponse{
			Error: "The work-order server could not be reached",
			Code:  "UPSTREAM_UNAVAILABLE",
		}
	case errors.Is(err, apperrors.ErrInvalidProjectID),
		errors.Is(err, apperrors.ErrInvalidWorkOrderID),
		errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "BAD_REQUEST",
		}
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	attrs := []any{
		"request_id", mw.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	switch {
	case statusCode >= 500:
		h.logger.Error("server error", attrs...)
	case statusCode >= 400:
		h.logger.Warn("client error", attrs...)
	default:
		h.logger.Info("request error", attrs...)
	}
}
