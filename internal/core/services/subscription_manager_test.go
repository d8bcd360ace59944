package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/workorder-agent/internal/adapters/secondary/cache"
	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/mocks"
	"github.com/fieldops/workorder-agent/internal/core/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T, onUpdated func(int64)) (*services.SubscriptionManager, *mocks.FakeStreamFactory, *cache.MemoryStore) {
	t.Helper()
	factory := mocks.NewFakeStreamFactory()
	store := cache.NewMemoryStore()
	manager := services.NewSubscriptionManager(
		factory.New,
		services.NewEventRouter(),
		store,
		onUpdated,
		discardLogger(),
	)
	return manager, factory, store
}

func TestSubscriptionManager_Activate(t *testing.T) {
	t.Run("opens one connection for the scope", func(t *testing.T) {
		manager, factory, _ := newManager(t, nil)

		manager.Activate(domain.ProjectScope(7))

		streams := factory.Streams()
		require.Len(t, streams, 1)
		assert.Equal(t, []domain.Scope{domain.ProjectScope(7)}, streams[0].Connects())
		assert.Equal(t, domain.StateOpen, manager.State())
		assert.Equal(t, domain.ProjectScope(7), manager.Scope())
	})

	t.Run("activating the active scope is a no-op", func(t *testing.T) {
		manager, factory, _ := newManager(t, nil)

		manager.Activate(domain.ProjectScope(7))
		manager.Activate(domain.ProjectScope(7))

		assert.Len(t, factory.Streams(), 1)
		assert.Equal(t, 0, factory.Streams()[0].Disconnects())
	})

	t.Run("scope change tears the old subscription down first", func(t *testing.T) {
		manager, factory, _ := newManager(t, nil)

		manager.Activate(domain.ProjectScope(7))
		manager.Activate(domain.ProjectScope(8))

		streams := factory.Streams()
		require.Len(t, streams, 2)
		assert.Equal(t, domain.StateClosed, streams[0].State())
		assert.Equal(t, 1, streams[0].Disconnects())
		assert.Equal(t, domain.StateOpen, streams[1].State())
	})

	t.Run("rapid scope flips leave at most one open connection", func(t *testing.T) {
		manager, factory, _ := newManager(t, nil)

		manager.Activate(domain.ProjectScope(1))
		manager.Activate(domain.ProjectScope(2))
		manager.Activate(domain.ProjectScope(1))

		streams := factory.Streams()
		require.Len(t, streams, 3)

		open := 0
		for _, stream := range streams {
			if stream.State() == domain.StateOpen {
				open++
			}
		}
		assert.Equal(t, 1, open)
		assert.Equal(t, domain.ProjectScope(1), manager.Scope())
	})

	t.Run("none scope tears down without connecting", func(t *testing.T) {
		manager, factory, _ := newManager(t, nil)

		manager.Activate(domain.ProjectScope(7))
		manager.Activate(domain.Scope{})

		streams := factory.Streams()
		require.Len(t, streams, 1)
		assert.Equal(t, 1, streams[0].Disconnects())
		assert.Equal(t, domain.StateIdle, manager.State())
		assert.True(t, manager.Scope().IsNone())
	})
}

func TestSubscriptionManager_Deactivate(t *testing.T) {
	t.Run("tears down the current subscription", func(t *testing.T) {
		manager, factory, _ := newManager(t, nil)

		manager.Activate(domain.GlobalScope())
		manager.Deactivate()

		assert.Equal(t, 1, factory.Streams()[0].Disconnects())
		assert.Equal(t, domain.StateIdle, manager.State())
	})

	t.Run("safe to call when none exists", func(t *testing.T) {
		manager, _, _ := newManager(t, nil)

		assert.NotPanics(t, func() {
			manager.Deactivate()
			manager.Deactivate()
		})
	})
}

func TestSubscriptionManager_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("events invalidate matching cache entries", func(t *testing.T) {
		manager, factory, store := newManager(t, nil)

		listKey := domain.WorkOrderListKey(7)
		detailKey := domain.WorkOrderKey(7, 42)
		otherKey := domain.WorkOrderListKey(8)
		require.NoError(t, store.Set(ctx, listKey, []byte(`[]`)))
		require.NoError(t, store.Set(ctx, detailKey, []byte(`{}`)))
		require.NoError(t, store.Set(ctx, otherKey, []byte(`[]`)))

		manager.Activate(domain.ProjectScope(7))
		factory.Streams()[0].Emit(domain.ChangeEvent{
			Type:        domain.EventWorkOrderUpdated,
			ProjectID:   int64Ptr(7),
			WorkOrderID: int64Ptr(42),
		})

		_, ok, _ := store.Get(ctx, listKey)
		assert.False(t, ok, "project 7 listing should be swept")
		_, ok, _ = store.Get(ctx, detailKey)
		assert.False(t, ok, "work order 42 detail should be swept")
		_, ok, _ = store.Get(ctx, otherKey)
		assert.True(t, ok, "project 8 listing must survive")
	})

	t.Run("update callback fires exactly once per qualifying event", func(t *testing.T) {
		var updated []int64
		manager, factory, _ := newManager(t, func(id int64) {
			updated = append(updated, id)
		})

		manager.Activate(domain.ProjectScope(7))
		stream := factory.Streams()[0]

		stream.Emit(domain.ChangeEvent{
			Type:        domain.EventWorkOrderUpdated,
			ProjectID:   int64Ptr(7),
			WorkOrderID: int64Ptr(42),
		})
		stream.Emit(domain.ChangeEvent{
			Type:      domain.EventWorkOrderCreated,
			ProjectID: int64Ptr(7),
		})
		stream.Emit(domain.ChangeEvent{
			Type:        domain.EventFileAdded,
			ProjectID:   int64Ptr(7),
			WorkOrderID: int64Ptr(42),
		})

		assert.Equal(t, []int64{42}, updated)
	})

	t.Run("unroutable events are dropped silently", func(t *testing.T) {
		called := false
		manager, factory, store := newManager(t, func(int64) { called = true })

		require.NoError(t, store.Set(ctx, domain.WorkOrderListKey(7), []byte(`[]`)))
		manager.Activate(domain.GlobalScope())
		stream := factory.Streams()[0]

		assert.NotPanics(t, func() {
			stream.Emit(domain.ChangeEvent{Type: domain.EventWorkOrderUpdated}) // no projectId
			stream.Emit(domain.ChangeEvent{Type: domain.EventType("unknown_future_type"), ProjectID: int64Ptr(7)})
		})

		_, ok, _ := store.Get(ctx, domain.WorkOrderListKey(7))
		assert.True(t, ok, "nothing should have been invalidated")
		assert.False(t, called)
	})

	t.Run("events are routed under the scope they were subscribed with", func(t *testing.T) {
		manager, factory, store := newManager(t, nil)

		dashboardKey := domain.NewCacheKey("dashboard", "recent")
		require.NoError(t, store.Set(ctx, dashboardKey, []byte(`{}`)))

		manager.Activate(domain.GlobalScope())
		globalStream := factory.Streams()[0]
		manager.Activate(domain.ProjectScope(7))

		// An event still draining from the torn-down global connection must
		// not be routed with the new project scope's rules, and vice versa.
		globalStream.Emit(domain.ChangeEvent{
			Type:      domain.EventWorkOrderCreated,
			ProjectID: int64Ptr(7),
		})

		_, ok, _ := store.Get(ctx, dashboardKey)
		assert.False(t, ok, "global-scope event should sweep the dashboard")
	})
}
