package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/infrastructure/cache"
)

type handlerMock struct {
	mock.Mock
}

func (m *handlerMock) Handle(ctx context.Context, event shared.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *handlerMock) EventTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

type storeMock struct {
	mock.Mock
}

func (m *storeMock) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *storeMock) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *storeMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type receiptReceivedStub struct {
	shared.BaseDomainEvent
}

func newReceiptReceivedStub() *receiptReceivedStub {
	return &receiptReceivedStub{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			"costing.receipt.received",
			"Receipt",
			uuid.New(),
		),
	}
}

// newMemoryBackedHandler wires a mock inner handler to a fresh in-memory
// store and closes the store when the test finishes.
func newMemoryBackedHandler(t *testing.T, inner shared.EventHandler, opts ...IdempotentHandlerOption) *IdempotentHandler {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { store.Close() })
	return NewIdempotentHandler(inner, store, zap.NewNop(), opts...)
}

func TestIdempotentHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("first delivery reaches the inner handler", func(t *testing.T) {
		inner := new(handlerMock)
		event := newReceiptReceivedStub()
		inner.On("Handle", mock.Anything, event).Return(nil)

		handler := newMemoryBackedHandler(t, inner)
		require.NoError(t, handler.Handle(ctx, event))

		inner.AssertExpectations(t)
		assert.Equal(t, int64(1), handler.metrics.EventsProcessed.Load())
		assert.Zero(t, handler.metrics.EventsDuplicate.Load())
	})

	t.Run("redeliveries are swallowed", func(t *testing.T) {
		inner := new(handlerMock)
		event := newReceiptReceivedStub()
		inner.On("Handle", mock.Anything, event).Return(nil).Once()

		handler := newMemoryBackedHandler(t, inner)
		for i := 0; i < 3; i++ {
			require.NoError(t, handler.Handle(ctx, event))
		}

		inner.AssertExpectations(t)
		assert.Equal(t, int64(1), handler.metrics.EventsProcessed.Load())
		assert.Equal(t, int64(2), handler.metrics.EventsDuplicate.Load())
	})

	t.Run("inner handler errors propagate", func(t *testing.T) {
		inner := new(handlerMock)
		event := newReceiptReceivedStub()
		innerErr := errors.New("expense fact write failed")
		inner.On("Handle", mock.Anything, event).Return(innerErr)

		handler := newMemoryBackedHandler(t, inner)
		err := handler.Handle(ctx, event)

		require.ErrorIs(t, err, innerErr)
		assert.Zero(t, handler.metrics.EventsProcessed.Load())
		assert.Equal(t, int64(1), handler.metrics.EventsFailed.Load())
	})

	t.Run("store failure does not drop the event", func(t *testing.T) {
		store := new(storeMock)
		inner := new(handlerMock)
		event := newReceiptReceivedStub()

		store.On("MarkProcessed", mock.Anything, event.EventID().String(), mock.Anything).
			Return(false, errors.New("redis unreachable"))
		inner.On("Handle", mock.Anything, event).Return(nil)

		handler := NewIdempotentHandler(inner, store, zap.NewNop())
		require.NoError(t, handler.Handle(ctx, event))

		store.AssertExpectations(t)
		inner.AssertExpectations(t)
	})

	t.Run("disabled config passes every delivery through", func(t *testing.T) {
		inner := new(handlerMock)
		event := newReceiptReceivedStub()
		inner.On("Handle", mock.Anything, event).Return(nil).Times(3)

		config := shared.DefaultIdempotencyConfig()
		config.Enabled = false
		handler := newMemoryBackedHandler(t, inner, WithIdempotencyConfig(config))

		for i := 0; i < 3; i++ {
			require.NoError(t, handler.Handle(ctx, event))
		}

		inner.AssertExpectations(t)
		// Disabled mode bypasses the counters entirely.
		assert.Zero(t, handler.metrics.EventsProcessed.Load())
		assert.Zero(t, handler.metrics.EventsDuplicate.Load())
	})

	t.Run("custom TTL is handed to the store", func(t *testing.T) {
		store := new(storeMock)
		inner := new(handlerMock)
		event := newReceiptReceivedStub()

		store.On("MarkProcessed", mock.Anything, event.EventID().String(), time.Hour).
			Return(true, nil)
		inner.On("Handle", mock.Anything, event).Return(nil)

		handler := NewIdempotentHandler(inner, store, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}),
		)
		require.NoError(t, handler.Handle(ctx, event))

		store.AssertExpectations(t)
	})
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	inner := new(handlerMock)
	subscribed := []string{"costing.receipt.received", "costing.stock.written_off"}
	inner.On("EventTypes").Return(subscribed)

	handler := newMemoryBackedHandler(t, inner)
	assert.Equal(t, subscribed, handler.EventTypes())
	inner.AssertExpectations(t)
}

func TestIdempotentHandler_SharedMetrics(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	shared1 := &IdempotencyMetrics{}
	innerA := new(handlerMock)
	innerB := new(handlerMock)
	eventA := newReceiptReceivedStub()
	eventB := newReceiptReceivedStub()
	innerA.On("Handle", mock.Anything, eventA).Return(nil)
	innerB.On("Handle", mock.Anything, eventB).Return(nil)

	handlerA := NewIdempotentHandler(innerA, store, zap.NewNop(), WithIdempotencyMetrics(shared1))
	handlerB := NewIdempotentHandler(innerB, store, zap.NewNop(), WithIdempotencyMetrics(shared1))

	require.NoError(t, handlerA.Handle(context.Background(), eventA))
	require.NoError(t, handlerB.Handle(context.Background(), eventB))

	assert.Equal(t, int64(2), shared1.EventsProcessed.Load())
	innerA.AssertExpectations(t)
	innerB.AssertExpectations(t)
}

func TestWrapHandlersWithIdempotency(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	handlers := []shared.EventHandler{new(handlerMock), new(handlerMock)}
	wrapped := WrapHandlersWithIdempotency(handlers, store, zap.NewNop())

	require.Len(t, wrapped, len(handlers))
	for _, h := range wrapped {
		_, ok := h.(*IdempotentHandler)
		assert.True(t, ok)
	}
}

func TestIdempotencyMetrics_Stats(t *testing.T) {
	metrics := &IdempotencyMetrics{}
	metrics.EventsProcessed.Add(10)
	metrics.EventsDuplicate.Add(5)
	metrics.EventsFailed.Add(2)

	stats := metrics.Stats()
	assert.Equal(t, int64(10), stats.EventsProcessed)
	assert.Equal(t, int64(5), stats.EventsDuplicate)
	assert.Equal(t, int64(2), stats.EventsFailed)
}

func TestIdempotentHandler_ConcurrentDeliveries(t *testing.T) {
	inner := new(handlerMock)
	event := newReceiptReceivedStub()
	inner.On("Handle", mock.Anything, event).Return(nil).Once()

	handler := newMemoryBackedHandler(t, inner)

	const deliveries = 50
	errCh := make(chan error, deliveries)
	for i := 0; i < deliveries; i++ {
		go func() {
			errCh <- handler.Handle(context.Background(), event)
		}()
	}
	for i := 0; i < deliveries; i++ {
		assert.NoError(t, <-errCh)
	}

	inner.AssertExpectations(t)
	assert.Equal(t, int64(1), handler.metrics.EventsProcessed.Load())
	assert.Equal(t, int64(deliveries-1), handler.metrics.EventsDuplicate.Load())
}
