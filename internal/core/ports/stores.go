package ports

import (
	"context"

	"github.com/fieldops/workorder-agent/internal/core/domain"
)

// CacheStore is the keyed store of previously fetched upstream responses.
// Invalidation marks matching entries stale rather than deleting data; a
// stale entry reads as a miss so the next access refetches. Invalidation is
// idempotent, so overlapping sweeps from concurrent subscriptions are safe
// in any order.
type CacheStore interface {
	// Get returns the cached payload for key, or ok=false when the entry is
	// absent or stale.
	Get(ctx context.Context, key domain.CacheKey) (payload []byte, ok bool, err error)

	// Set stores the payload under key, replacing any previous entry and
	// clearing its stale mark.
	Set(ctx context.Context, key domain.CacheKey, payload []byte) error

	// Invalidate marks every entry whose key matches the predicate as stale
	// and returns the number of entries swept.
	Invalidate(ctx context.Context, pred domain.InvalidationPredicate) (int, error)

	// Ping reports whether the store is usable.
	Ping(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}

// UpstreamClient fetches work-order data from the upstream server's REST API.
type UpstreamClient interface {
	ListWorkOrders(ctx context.Context, projectID int64) ([]domain.WorkOrder, error)
	GetWorkOrder(ctx context.Context, projectID, workOrderID int64) (*domain.WorkOrder, error)
	ListProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error)
	ListWorkOrderFiles(ctx context.Context, projectID, workOrderID int64) ([]domain.ProjectFile, error)
}
