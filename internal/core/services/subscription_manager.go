package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

// subscription binds one event stream to the scope it was opened for. The
// scope is captured at creation so events from a connection that outlives a
// scope switch can never be routed under the wrong rules.
type subscription struct {
	scope  domain.Scope
	stream ports.EventStream
}

// SubscriptionManager owns at most one subscription at a time and guarantees
// that teardown of the old subscription completes before a new connection is
// issued. All transitions run under one mutex, so there is no window with
// two live connections for the same slot.
type SubscriptionManager struct {
	newStream          ports.EventStreamFactory
	router             ports.EventRouter
	cache              ports.CacheStore
	onWorkOrderUpdated func(workOrderID int64)
	logger             *slog.Logger

	mu      sync.Mutex
	current *subscription
}

// NewSubscriptionManager creates a manager that routes events from its
// subscription into cache invalidations. onWorkOrderUpdated may be nil.
func NewSubscriptionManager(
	newStream ports.EventStreamFactory,
	router ports.EventRouter,
	cache ports.CacheStore,
	onWorkOrderUpdated func(workOrderID int64),
	logger *slog.Logger,
) *SubscriptionManager {
	return &SubscriptionManager{
		newStream:          newStream,
		router:             router,
		cache:              cache,
		onWorkOrderUpdated: onWorkOrderUpdated,
		logger:             logger.With("component", "subscription_manager"),
	}
}

// Activate switches the manager to the given scope. An existing subscription
// for a different scope is torn down first; activating the scope that is
// already active is a no-op. A none scope tears down without connecting.
func (m *SubscriptionManager) Activate(scope domain.Scope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		if m.current.scope == scope {
			return
		}
		m.teardownLocked()
	}

	if scope.IsNone() {
		return
	}

	sub := &subscription{scope: scope}
	sub.stream = m.newStream(func(event domain.ChangeEvent) {
		m.dispatch(sub.scope, event)
	})
	m.current = sub

	m.logger.Info("subscription activated", "scope", scope.String())
	sub.stream.Connect(scope)
}

// Deactivate tears down the current subscription. Safe to call when none
// exists.
func (m *SubscriptionManager) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
}

// Scope returns the currently active scope, or the none scope.
func (m *SubscriptionManager) Scope() domain.Scope {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.Scope{}
	}
	return m.current.scope
}

// State returns the current subscription's connection state, or StateIdle
// when no subscription exists.
func (m *SubscriptionManager) State() domain.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return domain.StateIdle
	}
	return m.current.stream.State()
}

// teardownLocked disconnects and drops the current subscription. Disconnect
// cancels any pending retry timer, so nothing can fire later and reconnect a
// subscription whose scope has changed.
func (m *SubscriptionManager) teardownLocked() {
	if m.current == nil {
		return
	}
	m.current.stream.Disconnect()
	m.logger.Info("subscription deactivated", "scope", m.current.scope.String())
	m.current = nil
}

// dispatch routes one event and applies the result. Invalidation failures
// are logged and swallowed: the worst case is a temporarily stale cache, and
// a storage hiccup must not disturb the connection.
func (m *SubscriptionManager) dispatch(scope domain.Scope, event domain.ChangeEvent) {
	result := m.router.Route(event, scope.Kind)
	if result.Empty() {
		m.logger.Debug("event produced no invalidations",
			"event_type", string(event.Type),
			"scope", scope.String(),
		)
		return
	}

	ctx := context.Background()
	swept := 0
	for _, pred := range result.Predicates {
		n, err := m.cache.Invalidate(ctx, pred)
		if err != nil {
			m.logger.Error("cache invalidation failed",
				"event_type", string(event.Type),
				"error", err,
			)
			continue
		}
		swept += n
	}

	m.logger.Debug("event routed",
		"event_type", string(event.Type),
		"scope", scope.String(),
		"predicates", len(result.Predicates),
		"entries_swept", swept,
	)

	if result.UpdatedWorkOrderID != nil && m.onWorkOrderUpdated != nil {
		m.onWorkOrderUpdated(*result.UpdatedWorkOrderID)
	}
}
