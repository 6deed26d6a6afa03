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

// ReceiptUnreceivedHandler handles ReceiptUnreceivedEvent and reverses the
// purchase expense fact recorded when the receipt was received
type ReceiptUnreceivedHandler struct {
	factRepo finance.ExpenseFactRepository
	logger   *zap.Logger
}

// NewReceiptUnreceivedHandler creates a new handler for receipt unreceived events
func NewReceiptUnreceivedHandler(
	factRepo finance.ExpenseFactRepository,
	logger *zap.Logger,
) *ReceiptUnreceivedHandler {
	return &ReceiptUnreceivedHandler{
		factRepo: factRepo,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReceiptUnreceivedHandler) EventTypes() []string {
	return []string{costing.EventTypeReceiptUnreceived}
}

// Handle processes a ReceiptUnreceivedEvent by reversing the purchase fact
func (h *ReceiptUnreceivedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	unreceivedEvent, ok := event.(*costing.ReceiptUnreceivedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", costing.EventTypeReceiptUnreceived),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			costing.EventTypeReceiptUnreceived, event.EventType())
	}

	fact, err := h.factRepo.FindBySource(ctx, finance.SourceTypeReceipt, unreceivedEvent.ReceiptID)
	if err != nil {
		if isNotFoundError(err) {
			// zero-cost receipts never produced a fact
			h.logger.Info("no expense fact for unreceived receipt, skipping",
				zap.String("receipt_id", unreceivedEvent.ReceiptID.String()),
			)
			return nil
		}
		return fmt.Errorf("failed to find expense fact: %w", err)
	}

	if !fact.IsActive() {
		h.logger.Warn("expense fact already reversed, skipping",
			zap.String("receipt_id", unreceivedEvent.ReceiptID.String()),
			zap.String("fact_id", fact.ID.String()),
		)
		return nil
	}

	if err := fact.Reverse(time.Now()); err != nil {
		return fmt.Errorf("failed to reverse expense fact: %w", err)
	}
	if err := h.factRepo.Save(ctx, fact); err != nil {
		return fmt.Errorf("failed to save expense fact: %w", err)
	}

	h.logger.Info("purchase expense fact reversed",
		zap.String("fact_id", fact.ID.String()),
		zap.String("receipt_id", unreceivedEvent.ReceiptID.String()),
		zap.String("amount", fact.Amount.String()),
	)
	return nil
}

// Ensure ReceiptUnreceivedHandler implements shared.EventHandler
var _ shared.EventHandler = (*ReceiptUnreceivedHandler)(nil)
