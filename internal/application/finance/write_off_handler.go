package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/finance"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// StockWrittenOffHandler handles StockWrittenOffEvent and records a
// write-off expense fact for the destroyed stock value
type StockWrittenOffHandler struct {
	factRepo finance.ExpenseFactRepository
	logger   *zap.Logger
}

// NewStockWrittenOffHandler creates a new handler for stock write-off events
func NewStockWrittenOffHandler(
	factRepo finance.ExpenseFactRepository,
	logger *zap.Logger,
) *StockWrittenOffHandler {
	return &StockWrittenOffHandler{
		factRepo: factRepo,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *StockWrittenOffHandler) EventTypes() []string {
	return []string{costing.EventTypeStockWrittenOff}
}

// Handle processes a StockWrittenOffEvent by creating a write-off expense fact
func (h *StockWrittenOffHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	writeOffEvent, ok := event.(*costing.StockWrittenOffEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", costing.EventTypeStockWrittenOff),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			costing.EventTypeStockWrittenOff, event.EventType())
	}

	existing, err := h.factRepo.FindBySource(ctx, finance.SourceTypeWriteOff, writeOffEvent.WriteOffID)
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to check existing expense fact: %w", err)
	}
	if existing != nil {
		h.logger.Warn("expense fact already exists for write-off, skipping",
			zap.String("write_off_id", writeOffEvent.WriteOffID.String()),
			zap.String("fact_id", existing.ID.String()),
		)
		return nil
	}

	fact, err := finance.NewExpenseFact(
		finance.ExpenseCategoryWriteOff,
		finance.SourceTypeWriteOff,
		writeOffEvent.WriteOffID,
		writeOffEvent.TotalCost,
		writeOffEvent.Currency,
		writeOffEvent.Reason,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create expense fact: %w", err)
	}
	if err := h.factRepo.Save(ctx, fact); err != nil {
		return fmt.Errorf("failed to save expense fact: %w", err)
	}

	h.logger.Info("write-off expense fact created",
		zap.String("fact_id", fact.ID.String()),
		zap.String("write_off_id", writeOffEvent.WriteOffID.String()),
		zap.String("product_id", writeOffEvent.ProductID.String()),
		zap.String("amount", fact.Amount.String()),
		zap.String("reason", writeOffEvent.Reason),
	)
	return nil
}

// Ensure StockWrittenOffHandler implements shared.EventHandler
var _ shared.EventHandler = (*StockWrittenOffHandler)(nil)
