package costing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
)

// MockEventPublisher collects published events for assertions
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// fakeLotRepo is an in-memory LotRepository
type fakeLotRepo struct {
	mu   sync.Mutex
	lots map[uuid.UUID]*costing.Lot
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[uuid.UUID]*costing.Lot)}
}

func (r *fakeLotRepo) FindByID(_ context.Context, id uuid.UUID) (*costing.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lot, ok := r.lots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return lot, nil
}

func (r *fakeLotRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]*costing.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*costing.Lot, 0)
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			result = append(result, lot)
		}
	}
	costing.SortLotsFIFO(result)
	return result, nil
}

func (r *fakeLotRepo) FindAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]*costing.Lot, error) {
	lots, _ := r.FindByProduct(ctx, productID)
	result := make([]*costing.Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.HasStock() {
			result = append(result, lot)
		}
	}
	return result, nil
}

func (r *fakeLotRepo) FindByReceiptItemIDs(_ context.Context, receiptItemIDs []uuid.UUID) ([]*costing.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(receiptItemIDs))
	for _, id := range receiptItemIDs {
		wanted[id] = true
	}
	result := make([]*costing.Lot, 0)
	for _, lot := range r.lots {
		if wanted[lot.ReceiptItemID] {
			result = append(result, lot)
		}
	}
	costing.SortLotsFIFO(result)
	return result, nil
}

func (r *fakeLotRepo) ListProductIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	result := make([]uuid.UUID, 0)
	for _, lot := range r.lots {
		if !seen[lot.ProductID] {
			seen[lot.ProductID] = true
			result = append(result, lot.ProductID)
		}
	}
	return result, nil
}

func (r *fakeLotRepo) Save(_ context.Context, lot *costing.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lots[lot.ID] = lot
	return nil
}

func (r *fakeLotRepo) SaveAll(ctx context.Context, lots []*costing.Lot) error {
	for _, lot := range lots {
		if err := r.Save(ctx, lot); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLotRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lots, id)
	return nil
}

// fakeAllocationRepo is an in-memory AllocationRepository
type fakeAllocationRepo struct {
	mu          sync.Mutex
	allocations map[uuid.UUID]*costing.Allocation
}

func newFakeAllocationRepo() *fakeAllocationRepo {
	return &fakeAllocationRepo{allocations: make(map[uuid.UUID]*costing.Allocation)}
}

func (r *fakeAllocationRepo) FindByID(_ context.Context, id uuid.UUID) (*costing.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.allocations[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r *fakeAllocationRepo) FindByConsumerRef(_ context.Context, consumerRef string) ([]*costing.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*costing.Allocation, 0)
	for _, a := range r.allocations {
		if a.ConsumerRef == consumerRef {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAllocationRepo) FindActiveByLotIDs(_ context.Context, lotIDs []uuid.UUID) ([]*costing.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(lotIDs))
	for _, id := range lotIDs {
		wanted[id] = true
	}
	result := make([]*costing.Allocation, 0)
	for _, a := range r.allocations {
		if a.IsActive() && wanted[a.LotID] {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAllocationRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]*costing.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*costing.Allocation, 0)
	for _, a := range r.allocations {
		if a.ProductID == productID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAllocationRepo) FindActiveInPeriod(_ context.Context, from, to time.Time) ([]*costing.Allocation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*costing.Allocation, 0)
	for _, a := range r.allocations {
		if a.IsActive() && !a.AllocatedAt.Before(from) && a.AllocatedAt.Before(to) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeAllocationRepo) Save(_ context.Context, allocation *costing.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocations[allocation.ID] = allocation
	return nil
}

func (r *fakeAllocationRepo) SaveAll(ctx context.Context, allocations []*costing.Allocation) error {
	for _, a := range allocations {
		if err := r.Save(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// fakeReceiptRepo is an in-memory ReceiptRepository
type fakeReceiptRepo struct {
	mu       sync.Mutex
	receipts map[uuid.UUID]*costing.Receipt
}

func newFakeReceiptRepo() *fakeReceiptRepo {
	return &fakeReceiptRepo{receipts: make(map[uuid.UUID]*costing.Receipt)}
}

func (r *fakeReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*costing.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt, ok := r.receipts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return receipt, nil
}

func (r *fakeReceiptRepo) FindByNumber(_ context.Context, number string) (*costing.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, receipt := range r.receipts {
		if receipt.Number == number {
			return receipt, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeReceiptRepo) FindAll(_ context.Context, filter shared.Filter) ([]costing.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]costing.Receipt, 0)
	for _, receipt := range r.receipts {
		if status, ok := filter.Filters["status"]; ok && receipt.Status.String() != status {
			continue
		}
		result = append(result, *receipt)
	}
	return result, nil
}

func (r *fakeReceiptRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	receipts, err := r.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(receipts)), nil
}

func (r *fakeReceiptRepo) Save(_ context.Context, receipt *costing.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts[receipt.ID] = receipt
	return nil
}

func (r *fakeReceiptRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.receipts, id)
	return nil
}

// testEnv bundles the fakes behind a NoOpTransactionScope
type testEnv struct {
	receiptRepo    *fakeReceiptRepo
	lotRepo        *fakeLotRepo
	allocationRepo *fakeAllocationRepo
	scope          *NoOpTransactionScope
	locks          *ProductLockRegistry
	publisher      *MockEventPublisher
}

func newTestEnv() *testEnv {
	receiptRepo := newFakeReceiptRepo()
	lotRepo := newFakeLotRepo()
	allocationRepo := newFakeAllocationRepo()
	return &testEnv{
		receiptRepo:    receiptRepo,
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
		scope:          NewNoOpTransactionScope(receiptRepo, lotRepo, allocationRepo),
		locks:          NewProductLockRegistry(),
		publisher:      NewMockEventPublisher(),
	}
}

var (
	_ costing.LotRepository        = (*fakeLotRepo)(nil)
	_ costing.AllocationRepository = (*fakeAllocationRepo)(nil)
	_ costing.ReceiptRepository    = (*fakeReceiptRepo)(nil)
	_ shared.EventPublisher        = (*MockEventPublisher)(nil)
)
