package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/workorder-agent/internal/adapters/secondary/cache"
	"github.com/fieldops/workorder-agent/internal/core/domain"
	apperrors "github.com/fieldops/workorder-agent/internal/core/errors"
	"github.com/fieldops/workorder-agent/internal/core/mocks"
	"github.com/fieldops/workorder-agent/internal/core/services"
)

func TestWorkOrderService_ListWorkOrders(t *testing.T) {
	ctx := context.Background()
	orders := []domain.WorkOrder{
		{ID: 1, ProjectID: 7, Title: "Replace pump", Status: "open"},
		{ID: 2, ProjectID: 7, Title: "Inspect valve", Status: "closed"},
	}

	t.Run("miss fetches upstream and populates the cache", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		upstream.On("ListWorkOrders", ctx, int64(7)).Return(orders, nil).Once()

		got, err := svc.ListWorkOrders(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, orders, got)

		payload, ok, err := store.Get(ctx, domain.WorkOrderListKey(7))
		require.NoError(t, err)
		require.True(t, ok)

		var cached []domain.WorkOrder
		require.NoError(t, json.Unmarshal(payload, &cached))
		assert.Equal(t, orders, cached)
		upstream.AssertExpectations(t)
	})

	t.Run("hit serves from cache without touching upstream", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		payload, err := json.Marshal(orders)
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, domain.WorkOrderListKey(7), payload))

		got, err := svc.ListWorkOrders(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, orders, got)
		upstream.AssertNotCalled(t, "ListWorkOrders")
	})

	t.Run("invalidated entry refetches", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		stale, err := json.Marshal(orders[:1])
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, domain.WorkOrderListKey(7), stale))
		_, err = store.Invalidate(ctx, domain.PrefixPredicate("projects", "7", "work-orders"))
		require.NoError(t, err)

		upstream.On("ListWorkOrders", ctx, int64(7)).Return(orders, nil).Once()

		got, err := svc.ListWorkOrders(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, orders, got)
		upstream.AssertExpectations(t)
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		upstream.On("ListWorkOrders", ctx, int64(7)).Return(nil, apperrors.ErrUpstream)

		_, err := svc.ListWorkOrders(ctx, 7)
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("cache read failure degrades to upstream fetch", func(t *testing.T) {
		store := mocks.NewMockCacheStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		store.On("Get", ctx, domain.WorkOrderListKey(7)).Return(nil, false, errors.New("disk gone"))
		store.On("Set", ctx, domain.WorkOrderListKey(7), mock.Anything).Return(errors.New("disk gone"))
		upstream.On("ListWorkOrders", ctx, int64(7)).Return(orders, nil).Once()

		got, err := svc.ListWorkOrders(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, orders, got)
	})
}

func TestWorkOrderService_GetWorkOrder(t *testing.T) {
	ctx := context.Background()
	order := &domain.WorkOrder{ID: 42, ProjectID: 7, Title: "Replace pump", Status: "open"}

	t.Run("caches under the detail namespace", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		upstream.On("GetWorkOrder", ctx, int64(7), int64(42)).Return(order, nil).Once()

		got, err := svc.GetWorkOrder(ctx, 7, 42)
		require.NoError(t, err)
		assert.Equal(t, order, got)

		_, ok, _ := store.Get(ctx, domain.WorkOrderKey(7, 42))
		assert.True(t, ok)
	})

	t.Run("not found propagates", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		upstream.On("GetWorkOrder", ctx, int64(7), int64(42)).Return(nil, apperrors.ErrWorkOrderNotFound)

		_, err := svc.GetWorkOrder(ctx, 7, 42)
		assert.ErrorIs(t, err, apperrors.ErrWorkOrderNotFound)
	})
}

func TestWorkOrderService_Files(t *testing.T) {
	ctx := context.Background()
	files := []domain.ProjectFile{
		{ID: 1, ProjectID: 3, Name: "site-plan.pdf"},
		{ID: 2, ProjectID: 3, WorkOrderID: int64Ptr(9), Name: "photo.jpg"},
	}

	t.Run("project files cached under the files namespace", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		upstream.On("ListProjectFiles", ctx, int64(3)).Return(files, nil).Once()

		got, err := svc.ListProjectFiles(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, files, got)

		_, ok, _ := store.Get(ctx, domain.ProjectFilesKey(3))
		assert.True(t, ok)
	})

	t.Run("work order files swept by file events", func(t *testing.T) {
		store := cache.NewMemoryStore()
		upstream := mocks.NewMockUpstreamClient()
		svc := services.NewWorkOrderService(store, upstream, discardLogger())

		upstream.On("ListWorkOrderFiles", ctx, int64(3), int64(9)).Return(files[1:], nil).Twice()

		_, err := svc.ListWorkOrderFiles(ctx, 3, 9)
		require.NoError(t, err)

		// The router's file-event predicate must hit this entry.
		router := services.NewEventRouter()
		result := router.Route(domain.ChangeEvent{
			Type:        domain.EventFileAdded,
			ProjectID:   int64Ptr(3),
			WorkOrderID: int64Ptr(9),
		}, domain.ScopeProject)
		for _, pred := range result.Predicates {
			_, invErr := store.Invalidate(ctx, pred)
			require.NoError(t, invErr)
		}

		_, err = svc.ListWorkOrderFiles(ctx, 3, 9)
		require.NoError(t, err)
		upstream.AssertExpectations(t)
	})
}
