package ports

import (
	"context"

	"github.com/fieldops/workorder-agent/internal/core/domain"
)

// EventHandler consumes one decoded change event. Implementations must not
// block: the stream client calls the handler inline from its read loop, so a
// frame is fully processed before the next one is read.
type EventHandler func(event domain.ChangeEvent)

// EventStream owns one push connection to a scoped event endpoint and manages
// its connect/error/reconnect lifecycle. Connect and Disconnect are
// idempotent. A transport failure never surfaces to the caller; the stream
// retries on a fixed delay until Disconnect is called.
type EventStream interface {
	// Connect establishes the push connection for the scope. It does not
	// block; the Open (or Reconnecting) transition happens asynchronously.
	Connect(scope domain.Scope)

	// Disconnect tears the connection down, cancels any pending retry, and
	// is the only way out of the retry loop.
	Disconnect()

	// State returns the connection's current lifecycle state.
	State() domain.ConnectionState
}

// EventStreamFactory creates one stream per subscription, with the handler
// that subscription's events are delivered to.
type EventStreamFactory func(handler EventHandler) EventStream

// RouteResult is the outcome of routing one change event: the cache sweeps
// to apply, plus the work order to report as updated (nil when none).
type RouteResult struct {
	Predicates         []domain.InvalidationPredicate
	UpdatedWorkOrderID *int64
}

// Empty reports whether the event produced no work at all.
func (r RouteResult) Empty() bool {
	return len(r.Predicates) == 0 && r.UpdatedWorkOrderID == nil
}

// EventRouter maps a decoded event to invalidation predicates. Route is pure
// and total: unknown event types and events without a project ID yield an
// empty result, never an error.
type EventRouter interface {
	Route(event domain.ChangeEvent, scope domain.ScopeKind) RouteResult
}

// WorkOrderReader serves work-order reads through the cache, refetching from
// upstream on a miss.
type WorkOrderReader interface {
	ListWorkOrders(ctx context.Context, projectID int64) ([]domain.WorkOrder, error)
	GetWorkOrder(ctx context.Context, projectID, workOrderID int64) (*domain.WorkOrder, error)
	ListProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error)
	ListWorkOrderFiles(ctx context.Context, projectID, workOrderID int64) ([]domain.ProjectFile, error)
}
