package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/fieldops/workorder-agent/internal/core/errors"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

// WorkOrderHandler serves cached work-order reads to the local UI.
type WorkOrderHandler struct {
	reader       ports.WorkOrderReader
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewWorkOrderHandler creates a new work-order read handler.
func NewWorkOrderHandler(reader ports.WorkOrderReader, errorHandler *ErrorHandler, logger *slog.Logger) *WorkOrderHandler {
	return &WorkOrderHandler{
		reader:       reader,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// RegisterRoutes mounts the handler's routes on the given router.
func (h *WorkOrderHandler) RegisterRoutes(r chi.Router) {
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/work-orders", h.handleListWorkOrders)
		r.Get("/work-orders/{workOrderID}", h.handleGetWorkOrder)
		r.Get("/work-orders/{workOrderID}/files", h.handleListWorkOrderFiles)
		r.Get("/files", h.handleListProjectFiles)
	})
}

func (h *WorkOrderHandler) handleListWorkOrders(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID", apperrors.ErrInvalidProjectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	orders, err := h.reader.ListWorkOrders(r.Context(), projectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, orders)
}

func (h *WorkOrderHandler) handleGetWorkOrder(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID", apperrors.ErrInvalidProjectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	workOrderID, err := pathID(r, "workOrderID", apperrors.ErrInvalidWorkOrderID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	order, err := h.reader.GetWorkOrder(r.Context(), projectID, workOrderID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func (h *WorkOrderHandler) handleListProjectFiles(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID", apperrors.ErrInvalidProjectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	files, err := h.reader.ListProjectFiles(r.Context(), projectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, files)
}

func (h *WorkOrderHandler) handleListWorkOrderFiles(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectID", apperrors.ErrInvalidProjectID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	workOrderID, err := pathID(r, "workOrderID", apperrors.ErrInvalidWorkOrderID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	files, err := h.reader.ListWorkOrderFiles(r.Context(), projectID, workOrderID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	WriteList(w, files)
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string, sentinel error) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, sentinel
	}
	return id, nil
}
