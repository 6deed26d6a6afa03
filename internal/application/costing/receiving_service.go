package costing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ReceivingService handles the receipt lifecycle: drafting, receiving (which
// creates the lots), rolling back to draft and cancelling.
type ReceivingService struct {
	receiptRepo    costing.ReceiptRepository
	lotRepo        costing.LotRepository
	allocationRepo costing.AllocationRepository
	scope          TransactionScope
	locks          *ProductLockRegistry
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReceivingService creates a new ReceivingService. The lock registry
// must be the same instance the AllocationService uses: unreceive checks
// that no lot is consumed and then deletes the lots, and an allocation
// interleaving with that check-and-delete would end up referencing a
// deleted lot. A nil registry gets a private one, which is only safe when
// no other service mutates lots.
func NewReceivingService(
	receiptRepo costing.ReceiptRepository,
	lotRepo costing.LotRepository,
	allocationRepo costing.AllocationRepository,
	scope TransactionScope,
	locks *ProductLockRegistry,
	logger *zap.Logger,
) *ReceivingService {
	if locks == nil {
		locks = NewProductLockRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceivingService{
		receiptRepo:    receiptRepo,
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
		scope:          scope,
		locks:          locks,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReceivingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes the receipt's pending events after the
// transaction has committed. Publish errors are logged, not propagated.
func (s *ReceivingService) publishDomainEvents(ctx context.Context, receipt *costing.Receipt) {
	if s.eventPublisher == nil {
		return
	}
	events := receipt.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish receipt events",
			zap.String("receipt_id", receipt.ID.String()),
			zap.Error(err))
	}
	receipt.ClearDomainEvents()
}

// CreateReceipt creates a draft receipt with its items and shared costs
func (s *ReceivingService) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*ReceiptResponse, error) {
	existing, err := s.receiptRepo.FindByNumber(ctx, req.Number)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Receipt number already used: "+req.Number)
	}

	receipt, err := costing.NewReceipt(req.Number, req.Supplier, valueobject.Currency(req.Currency))
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if err := receipt.AddItem(
			item.ProductID,
			item.OrderedQty, item.PurchasePrice,
			item.DeclaredPrice, item.UnitVolume, item.UnitWeight, item.IndividualCost,
		); err != nil {
			return nil, err
		}
	}
	for _, sc := range req.SharedCosts {
		if err := receipt.AddSharedCost(sc.Name, sc.TotalAmount, costing.ApportionMethod(sc.Method)); err != nil {
			return nil, err
		}
	}

	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}
	s.logger.Info("Receipt created",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("number", receipt.Number),
		zap.Int("items", len(receipt.Items)))

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// GetReceipt retrieves a receipt by ID
func (s *ReceivingService) GetReceipt(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// GetReceiptByNumber retrieves a receipt by its business number
func (s *ReceivingService) GetReceiptByNumber(ctx context.Context, number string) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToReceiptResponse(receipt)
	return &response, nil
}

// ListReceipts retrieves receipts with filtering and pagination
func (s *ReceivingService) ListReceipts(ctx context.Context, filter ReceiptListFilter) ([]ReceiptResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Supplier != "" {
		domainFilter.Filters["supplier"] = filter.Supplier
	}

	receipts, err := s.receiptRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receiptRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToReceiptResponses(receipts), total, nil
}

// Receive fixes the receipt's unit costs and creates one lot per received
// line. The receipt update and the lot inserts commit atomically.
func (s *ReceivingService) Receive(ctx context.Context, receiptID uuid.UUID, req ReceiveRequest) (*ReceiptResponse, error) {
	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}
	receivedQtys := make(map[uuid.UUID]decimal.Decimal, len(req.Lines))
	for _, line := range req.Lines {
		receivedQtys[line.ItemID] = line.ReceivedQty
	}

	var receipt *costing.Receipt
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		receipt, err = repos.ReceiptRepo().FindByID(ctx, receiptID)
		if err != nil {
			return err
		}
		if err := receipt.Receive(receivedQtys, receivedAt); err != nil {
			return err
		}

		lots := make([]*costing.Lot, 0, len(receipt.Items))
		for _, item := range receipt.ReceivedItems() {
			lot, err := costing.NewLot(
				item.ProductID, item.ID,
				item.ReceivedQty, item.UnitCost,
				receipt.Currency, receivedAt,
			)
			if err != nil {
				return err
			}
			lots = append(lots, lot)
		}

		if err := repos.ReceiptRepo().Save(ctx, receipt); err != nil {
			return err
		}
		return repos.LotRepo().SaveAll(ctx, lots)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Receipt received",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("number", receipt.Number),
		zap.String("total_cost", receipt.TotalCost().String()))
	s.publishDomainEvents(ctx, receipt)

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// Unreceive rolls a received receipt back to draft and deletes its lots.
// Rejected with LOTS_IN_USE if any lot has been consumed or still has an
// active allocation.
func (s *ReceivingService) Unreceive(ctx context.Context, receiptID uuid.UUID) (*ReceiptResponse, error) {
	lookup, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	productIDs := make([]uuid.UUID, 0, len(lookup.Items))
	for i := range lookup.Items {
		productIDs = append(productIDs, lookup.Items[i].ProductID)
	}

	// The consumed-lot check and the lot deletion below must not interleave
	// with an allocation for any of the receipt's products.
	unlock := s.locks.LockAll(productIDs)
	defer unlock()

	var receipt *costing.Receipt
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		receipt, err = repos.ReceiptRepo().FindByID(ctx, receiptID)
		if err != nil {
			return err
		}
		if receipt.Status != costing.ReceiptStatusReceived {
			return costing.ErrInvalidReceiptState
		}

		itemIDs := make([]uuid.UUID, 0, len(receipt.Items))
		for i := range receipt.Items {
			itemIDs = append(itemIDs, receipt.Items[i].ID)
		}
		lots, err := repos.LotRepo().FindByReceiptItemIDs(ctx, itemIDs)
		if err != nil {
			return err
		}
		lotIDs := make([]uuid.UUID, 0, len(lots))
		for _, lot := range lots {
			if !lot.IsUntouched() {
				return costing.ErrLotsInUse
			}
			lotIDs = append(lotIDs, lot.ID)
		}
		active, err := repos.AllocationRepo().FindActiveByLotIDs(ctx, lotIDs)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return costing.ErrLotsInUse
		}

		if err := receipt.ResetToDraft(); err != nil {
			return err
		}
		for _, lot := range lots {
			if err := repos.LotRepo().Delete(ctx, lot.ID); err != nil {
				return err
			}
		}
		return repos.ReceiptRepo().Save(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Receipt rolled back to draft",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("number", receipt.Number))
	s.publishDomainEvents(ctx, receipt)

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// Cancel abandons a draft receipt
func (s *ReceivingService) Cancel(ctx context.Context, receiptID uuid.UUID) (*ReceiptResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if err := receipt.Cancel(); err != nil {
		return nil, err
	}
	if err := s.receiptRepo.Save(ctx, receipt); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, receipt)

	response := ToReceiptResponse(receipt)
	return &response, nil
}

// GetReceiptLots returns the lots created by a received receipt
func (s *ReceivingService) GetReceiptLots(ctx context.Context, receiptID uuid.UUID) ([]LotResponse, error) {
	receipt, err := s.receiptRepo.FindByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	itemIDs := make([]uuid.UUID, 0, len(receipt.Items))
	for i := range receipt.Items {
		itemIDs = append(itemIDs, receipt.Items[i].ID)
	}
	lots, err := s.lotRepo.FindByReceiptItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	return ToLotResponses(lots), nil
}
