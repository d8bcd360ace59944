package services

import (
	"strconv"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

// EventRouter maps change events to cache invalidation predicates. It is
// stateless and side-effect free; the subscription manager applies the
// result to the cache store.
type EventRouter struct{}

var _ ports.EventRouter = (*EventRouter)(nil)

// NewEventRouter creates a new event router.
func NewEventRouter() *EventRouter {
	return &EventRouter{}
}

// Route computes the invalidation predicates for one event under the given
// subscription scope. Events without a project ID and events of unrecognized
// types yield an empty result; unknown types are expected as the server adds
// event kinds, so they must never be treated as errors.
func (r *EventRouter) Route(event domain.ChangeEvent, scope domain.ScopeKind) ports.RouteResult {
	if event.ProjectID == nil {
		return ports.RouteResult{}
	}
	projectID := strconv.FormatInt(*event.ProjectID, 10)

	switch {
	case event.IsWorkOrderEvent():
		return r.routeWorkOrderEvent(event, scope, projectID)
	case event.IsFileEvent():
		return r.routeFileEvent(event, projectID)
	default:
		return ports.RouteResult{}
	}
}

func (r *EventRouter) routeWorkOrderEvent(event domain.ChangeEvent, scope domain.ScopeKind, projectID string) ports.RouteResult {
	result := ports.RouteResult{
		Predicates: []domain.InvalidationPredicate{
			domain.PrefixPredicate("projects", projectID, "work-orders"),
		},
	}

	// A global subscription additionally sweeps the cross-project views that
	// aggregate work orders.
	if scope == domain.ScopeGlobal {
		result.Predicates = append(result.Predicates,
			domain.ContainsPredicate("dashboard"),
			domain.ContainsPredicate("stats"),
			domain.PrefixPredicate("search", "work-orders"),
		)
	}

	if event.Type == domain.EventWorkOrderUpdated && event.WorkOrderID != nil {
		result.UpdatedWorkOrderID = event.WorkOrderID
	}

	return result
}

func (r *EventRouter) routeFileEvent(event domain.ChangeEvent, projectID string) ports.RouteResult {
	predicates := []domain.InvalidationPredicate{
		domain.PrefixPredicate("projects", projectID, "files"),
	}

	if event.WorkOrderID != nil {
		workOrderID := strconv.FormatInt(*event.WorkOrderID, 10)
		predicates = append(predicates,
			domain.ContainsPredicate("work-orders", workOrderID, "files"),
		)
	}

	return ports.RouteResult{Predicates: predicates}
}
