package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/fieldops/workorder-agent/internal/core/domain"
	"github.com/fieldops/workorder-agent/internal/core/ports"
)

// MockCacheStore is a mock implementation of ports.CacheStore.
type MockCacheStore struct {
	mock.Mock
}

func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{}
}

func (m *MockCacheStore) Get(ctx context.Context, key domain.CacheKey) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockCacheStore) Set(ctx context.Context, key domain.CacheKey, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *MockCacheStore) Invalidate(ctx context.Context, pred domain.InvalidationPredicate) (int, error) {
	args := m.Called(ctx, pred)
	return args.Int(0), args.Error(1)
}

func (m *MockCacheStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockUpstreamClient is a mock implementation of ports.UpstreamClient.
type MockUpstreamClient struct {
	mock.Mock
}

func NewMockUpstreamClient() *MockUpstreamClient {
	return &MockUpstreamClient{}
}

func (m *MockUpstreamClient) ListWorkOrders(ctx context.Context, projectID int64) ([]domain.WorkOrder, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WorkOrder), args.Error(1)
}

func (m *MockUpstreamClient) GetWorkOrder(ctx context.Context, projectID, workOrderID int64) (*domain.WorkOrder, error) {
	args := m.Called(ctx, projectID, workOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkOrder), args.Error(1)
}

func (m *MockUpstreamClient) ListProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProjectFile), args.Error(1)
}

func (m *MockUpstreamClient) ListWorkOrderFiles(ctx context.Context, projectID, workOrderID int64) ([]domain.ProjectFile, error) {
	args := m.Called(ctx, projectID, workOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProjectFile), args.Error(1)
}

// MockWorkOrderReader is a mock implementation of ports.WorkOrderReader.
type MockWorkOrderReader struct {
	mock.Mock
}

func NewMockWorkOrderReader() *MockWorkOrderReader {
	return &MockWorkOrderReader{}
}

func (m *MockWorkOrderReader) ListWorkOrders(ctx context.Context, projectID int64) ([]domain.WorkOrder, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderReader) GetWorkOrder(ctx context.Context, projectID, workOrderID int64) (*domain.WorkOrder, error) {
	args := m.Called(ctx, projectID, workOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkOrder), args.Error(1)
}

func (m *MockWorkOrderReader) ListProjectFiles(ctx context.Context, projectID int64) ([]domain.ProjectFile, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProjectFile), args.Error(1)
}

func (m *MockWorkOrderReader) ListWorkOrderFiles(ctx context.Context, projectID, workOrderID int64) ([]domain.ProjectFile, error) {
	args := m.Called(ctx, projectID, workOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProjectFile), args.Error(1)
}

// FakeEventStream is a controllable in-memory stand-in for ports.EventStream.
// Unlike the testify mocks above it keeps real state, because subscription
// manager tests need to assert call ordering and emit events through the
// registered handler.
type FakeEventStream struct {
	mu          sync.Mutex
	state       domain.ConnectionState
	scope       domain.Scope
	handler     ports.EventHandler
	connects    []domain.Scope
	disconnects int
}

func NewFakeEventStream(handler ports.EventHandler) *FakeEventStream {
	return &FakeEventStream{
		state:   domain.StateIdle,
		handler: handler,
	}
}

func (f *FakeEventStream) Connect(scope domain.Scope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scope = scope
	f.state = domain.StateOpen
	f.connects = append(f.connects, scope)
}

func (f *FakeEventStream) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = domain.StateClosed
	f.disconnects++
}

func (f *FakeEventStream) State() domain.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Emit delivers an event through the registered handler, as the read loop
// would.
func (f *FakeEventStream) Emit(event domain.ChangeEvent) {
	f.handler(event)
}

// Connects returns the scopes Connect was called with, in order.
func (f *FakeEventStream) Connects() []domain.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Scope(nil), f.connects...)
}

// Disconnects returns how many times Disconnect was called.
func (f *FakeEventStream) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

// FakeStreamFactory records every stream it creates.
type FakeStreamFactory struct {
	mu      sync.Mutex
	streams []*FakeEventStream
}

func NewFakeStreamFactory() *FakeStreamFactory {
	return &FakeStreamFactory{}
}

// New is a ports.EventStreamFactory.
func (f *FakeStreamFactory) New(handler ports.EventHandler) ports.EventStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	stream := NewFakeEventStream(handler)
	f.streams = append(f.streams, stream)
	return stream
}

// Streams returns every stream created so far, in creation order.
func (f *FakeStreamFactory) Streams() []*FakeEventStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeEventStream(nil), f.streams...)
}
