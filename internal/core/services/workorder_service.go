package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

// WorkOrderService serves reads through the cache store. A hit returns the
// cached payload; a miss (absent or invalidated entry) refetches from the
// upstream API and repopulates the cache. This is the refetch half of the
// invalidation design: the event subsystem only marks entries stale, and the
// next read through here picks fresh data up.
type WorkOrderService struct {
	cache    ports.CacheStore
	upstream ports.UpstreamClient
	logger   *slog.Logger
}

var _ ports.WorkOrderReader = (*WorkOrderService)(nil)

// NewWorkOrderService creates a new read-through service.
func NewWorkOrderService(cache ports.CacheStore, upstream ports.UpstreamClient, logger *slog.Logger) *WorkOrderService {
	return &WorkOrderService{
		cache:    cache,
		upstream: upstream,
		logger:   logger.With("component", "workorder_service"),
	}
}

// ListWorkOrders returns the work orders for a project.
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, projectID int64) ([]domain.WorkOrder, error) {
	key := domain.WorkOrderListKey(projectID)
	return readThrough(ctx, s, key, func() ([]domain.WorkOrder, error) {
		return s.upstream.ListWorkOrders(ctx, projectID)
	})
}

// GetWorkOrder returns a single work order.
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, projectID, workOrderID int64) (*domain.WorkOrder, error) {
	key := domain.WorkOrderKey(projectID, workOrderID)
	return readThrough(ctx, s, key, func() (*domain.WorkOrder, error) {
		return s.upstream.GetWorkOrder(ctx, projectID, workOrderID)
	})
}

// ListProjectFiles returns the files attached anywhere in a project.
func (s *WorkOrderService) ListProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error) {
	key := domain.ProjectFilesKey(projectID)
	return readThrough(ctx, s, key, func() ([]domain.ProjectFile, error) {
		return s.upstream.ListProjectFiles(ctx, projectID)
	})
}

// ListWorkOrderFiles returns the files attached to one work order.
func (s *WorkOrderService) ListWorkOrderFiles(ctx context.Context, projectID, workOrderID int64) ([]domain.ProjectFile, error) {
	key := domain.WorkOrderFilesKey(projectID, workOrderID)
	return readThrough(ctx, s, key, func() ([]domain.ProjectFile, error) {
		return s.upstream.ListWorkOrderFiles(ctx, projectID, workOrderID)
	})
}

// readThrough implements the cache-aside pattern for one key. Cache failures
// degrade to a direct upstream fetch rather than failing the read.
func readThrough[T any](ctx context.Context, s *WorkOrderService, key domain.CacheKey, fetch func() (T, error)) (T, error) {
	var zero T

	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed, fetching upstream", "key", key.String(), "error", err)
	} else if ok {
		var value T
		if err := json.Unmarshal(payload, &value); err == nil {
			return value, nil
		}
		// A corrupt entry reads as a miss and gets overwritten below.
		s.logger.Warn("discarding undecodable cache entry", "key", key.String())
	}

	value, err := fetch()
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("failed to encode response for caching", "key", key.String(), "error", err)
		return value, nil
	}
	if err := s.cache.Set(ctx, key, encoded); err != nil {
		s.logger.Warn("cache write failed", "key", key.String(), "error", err)
	}

	return value, nil
}
