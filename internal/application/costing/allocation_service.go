package costing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// AllocationService handles FIFO stock consumption: allocations to
// consumers, reversals and write-offs. All mutations of a product's lots
// are serialized with a per-product lock and committed in one transaction.
type AllocationService struct {
	lotRepo        costing.LotRepository
	allocationRepo costing.AllocationRepository
	scope          TransactionScope
	engine         *costing.AllocationEngine
	locks          *ProductLockRegistry
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAllocationService creates a new AllocationService. The lock registry
// must be the same instance the ReceivingService uses, so allocations and
// unreceive serialize on the same per-product mutexes; a nil registry gets
// a private one, which is only safe when no other service mutates lots.
func NewAllocationService(
	lotRepo costing.LotRepository,
	allocationRepo costing.AllocationRepository,
	scope TransactionScope,
	locks *ProductLockRegistry,
	logger *zap.Logger,
) *AllocationService {
	if locks == nil {
		locks = NewProductLockRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
		scope:          scope,
		engine:         costing.NewAllocationEngine(),
		locks:          locks,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AllocationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *AllocationService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.Error(err))
	}
}

// Allocate consumes stock for a consumer in strict mode: the request is
// rejected with INSUFFICIENT_INVENTORY when the product's available
// quantity cannot cover it, and no lot is touched.
func (s *AllocationService) Allocate(ctx context.Context, req AllocateRequest) (*AllocationResultResponse, error) {
	return s.allocate(ctx, req, true)
}

// AllocatePartial consumes what is available and reports the shortfall
// instead of rejecting the request.
func (s *AllocationService) AllocatePartial(ctx context.Context, req AllocateRequest) (*AllocationResultResponse, error) {
	return s.allocate(ctx, req, false)
}

func (s *AllocationService) allocate(ctx context.Context, req AllocateRequest, strict bool) (*AllocationResultResponse, error) {
	unlock := s.locks.Lock(req.ProductID)
	defer unlock()

	var (
		plan        *costing.AllocationPlan
		allocations []*costing.Allocation
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.AllocationRepo().FindByConsumerRef(ctx, req.ConsumerRef)
		if err != nil {
			return err
		}
		for _, a := range existing {
			if a.IsActive() {
				return shared.NewDomainError("ALREADY_EXISTS",
					"Consumer reference already has an active allocation: "+req.ConsumerRef)
			}
		}

		lots, err := repos.LotRepo().FindAvailableByProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}
		plan, err = s.engine.Plan(lots, req.Quantity, strict)
		if err != nil {
			return err
		}
		allocations, err = s.engine.Apply(lots, plan, req.ProductID, req.ConsumerRef, time.Now())
		if err != nil {
			return err
		}

		touched := make([]*costing.Lot, 0, len(allocations))
		lotMap := make(map[uuid.UUID]*costing.Lot, len(lots))
		for _, lot := range lots {
			lotMap[lot.ID] = lot
		}
		for _, a := range allocations {
			touched = append(touched, lotMap[a.LotID])
		}
		if err := repos.LotRepo().SaveAll(ctx, touched); err != nil {
			return err
		}
		return repos.AllocationRepo().SaveAll(ctx, allocations)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Stock allocated",
		zap.String("product_id", req.ProductID.String()),
		zap.String("consumer_ref", req.ConsumerRef),
		zap.String("quantity", plan.TotalQuantity.String()),
		zap.String("total_cost", plan.TotalCost.String()),
		zap.String("shortfall", plan.Shortfall.String()))
	s.publish(ctx, costing.NewStockAllocatedEvent(
		req.ProductID, req.ConsumerRef, plan.TotalQuantity, plan.TotalCost, plan.Shortfall))

	return &AllocationResultResponse{
		ProductID:           req.ProductID,
		ConsumerRef:         req.ConsumerRef,
		Allocations:         ToAllocationResponses(allocations),
		TotalQuantity:       plan.TotalQuantity,
		TotalCost:           plan.TotalCost,
		WeightedAverageCost: plan.WeightedAverageCost,
		Shortfall:           plan.Shortfall,
		FullyFulfilled:      plan.FullyFulfilled,
	}, nil
}

// Reverse compensates all active allocations of a consumer reference and
// restores their quantity to the lots. Reversing a reference that is
// unknown or already reversed is a quiet no-op, so retries and redelivered
// compensation commands are safe.
func (s *AllocationService) Reverse(ctx context.Context, consumerRef string) (*ReverseResultResponse, error) {
	lookup, err := s.allocationRepo.FindByConsumerRef(ctx, consumerRef)
	if err != nil {
		return nil, err
	}
	if len(lookup) == 0 {
		return &ReverseResultResponse{
			ConsumerRef:      consumerRef,
			RestoredQuantity: decimal.Zero,
		}, nil
	}
	productID := lookup[0].ProductID

	unlock := s.locks.Lock(productID)
	defer unlock()

	restored := decimal.Zero
	reversedCount := 0
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		allocations, err := repos.AllocationRepo().FindByConsumerRef(ctx, consumerRef)
		if err != nil {
			return err
		}
		active := make([]*costing.Allocation, 0, len(allocations))
		for _, a := range allocations {
			if a.IsActive() {
				active = append(active, a)
			}
		}
		if len(active) == 0 {
			return nil
		}

		lots, err := repos.LotRepo().FindByProduct(ctx, productID)
		if err != nil {
			return err
		}
		restored, err = s.engine.Reverse(lots, active, time.Now())
		if err != nil {
			return err
		}
		reversedCount = len(active)

		touched := make([]*costing.Lot, 0, len(active))
		lotMap := make(map[uuid.UUID]*costing.Lot, len(lots))
		for _, lot := range lots {
			lotMap[lot.ID] = lot
		}
		seen := make(map[uuid.UUID]bool, len(active))
		for _, a := range active {
			if !seen[a.LotID] {
				seen[a.LotID] = true
				touched = append(touched, lotMap[a.LotID])
			}
		}
		if err := repos.LotRepo().SaveAll(ctx, touched); err != nil {
			return err
		}
		return repos.AllocationRepo().SaveAll(ctx, active)
	})
	if err != nil {
		return nil, err
	}

	if reversedCount > 0 {
		s.logger.Info("Allocation reversed",
			zap.String("product_id", productID.String()),
			zap.String("consumer_ref", consumerRef),
			zap.String("restored", restored.String()))
		s.publish(ctx, costing.NewAllocationReversedEvent(productID, consumerRef, restored))
	}

	return &ReverseResultResponse{
		ConsumerRef:      consumerRef,
		RestoredQuantity: restored,
		ReversedCount:    reversedCount,
	}, nil
}

// WriteOff consumes stock without a consumer: damaged, lost or disposed
// goods. The consumption is strict and leaves no allocation records; the
// written-off cost is reported through the emitted event.
func (s *AllocationService) WriteOff(ctx context.Context, req WriteOffRequest) (*WriteOffResultResponse, error) {
	unlock := s.locks.Lock(req.ProductID)
	defer unlock()

	var (
		plan     *costing.AllocationPlan
		currency = ""
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.LotRepo().FindAvailableByProduct(ctx, req.ProductID)
		if err != nil {
			return err
		}
		plan, err = s.engine.Plan(lots, req.Quantity, true)
		if err != nil {
			return err
		}
		if err := s.engine.ApplyWriteOff(lots, plan); err != nil {
			return err
		}

		lotMap := make(map[uuid.UUID]*costing.Lot, len(lots))
		for _, lot := range lots {
			lotMap[lot.ID] = lot
		}
		touched := make([]*costing.Lot, 0, len(plan.Draws))
		for _, draw := range plan.Draws {
			lot := lotMap[draw.LotID]
			touched = append(touched, lot)
			currency = string(lot.Currency)
		}
		return repos.LotRepo().SaveAll(ctx, touched)
	})
	if err != nil {
		return nil, err
	}

	writeOffID := uuid.New()
	s.logger.Info("Stock written off",
		zap.String("write_off_id", writeOffID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("reason", req.Reason),
		zap.String("quantity", plan.TotalQuantity.String()),
		zap.String("total_cost", plan.TotalCost.String()))
	s.publish(ctx, costing.NewStockWrittenOffEvent(
		writeOffID, req.ProductID, req.Reason,
		plan.TotalQuantity, plan.TotalCost, valueobject.Currency(currency)))

	return &WriteOffResultResponse{
		WriteOffID: writeOffID,
		ProductID:  req.ProductID,
		Quantity:   plan.TotalQuantity,
		TotalCost:  plan.TotalCost,
		Reason:     req.Reason,
	}, nil
}

// GetStockSummary returns the product's available quantity and weighted
// average cost across its lots
func (s *AllocationService) GetStockSummary(ctx context.Context, productID uuid.UUID) (*StockSummaryResponse, error) {
	lots, err := s.lotRepo.FindAvailableByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &StockSummaryResponse{
		ProductID:           productID,
		AvailableQuantity:   costing.AvailableQuantity(lots),
		WeightedAverageCost: costing.WeightedAverageCost(lots),
		LotCount:            len(lots),
	}, nil
}

// GetAllocations returns all allocations of a consumer reference
func (s *AllocationService) GetAllocations(ctx context.Context, consumerRef string) ([]AllocationResponse, error) {
	allocations, err := s.allocationRepo.FindByConsumerRef(ctx, consumerRef)
	if err != nil {
		return nil, err
	}
	return ToAllocationResponses(allocations), nil
}

// GetProductLots returns all lots of a product in FIFO order
func (s *AllocationService) GetProductLots(ctx context.Context, productID uuid.UUID) ([]LotResponse, error) {
	lots, err := s.lotRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToLotResponses(lots), nil
}
