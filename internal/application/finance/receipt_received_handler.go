package finance

import (
	"context"
	"fmt"

	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/finance"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// ReceiptReceivedHandler handles ReceiptReceivedEvent and records a
// purchase expense fact for the received goods
type ReceiptReceivedHandler struct {
	factRepo finance.ExpenseFactRepository
	logger   *zap.Logger
}

// NewReceiptReceivedHandler creates a new handler for receipt received events
func NewReceiptReceivedHandler(
	factRepo finance.ExpenseFactRepository,
	logger *zap.Logger,
) *ReceiptReceivedHandler {
	return &ReceiptReceivedHandler{
		factRepo: factRepo,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReceiptReceivedHandler) EventTypes() []string {
	return []string{costing.EventTypeReceiptReceived}
}

// Handle processes a ReceiptReceivedEvent by creating a purchase expense fact
func (h *ReceiptReceivedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	receivedEvent, ok := event.(*costing.ReceiptReceivedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", costing.EventTypeReceiptReceived),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			costing.EventTypeReceiptReceived, event.EventType())
	}

	h.logger.Info("processing receipt received event for expense fact",
		zap.String("receipt_id", receivedEvent.ReceiptID.String()),
		zap.String("number", receivedEvent.Number),
		zap.String("total_cost", receivedEvent.TotalCost.String()),
	)

	if receivedEvent.TotalCost.IsZero() {
		h.logger.Info("skipping expense fact - receipt total is zero",
			zap.String("receipt_id", receivedEvent.ReceiptID.String()),
		)
		return nil
	}

	// One fact per receipt. An active fact means this event was already
	// processed; a reversed one means the receipt was unreceived and is
	// being received again, so the fact is reinstated with the new total.
	existing, err := h.factRepo.FindBySource(ctx, finance.SourceTypeReceipt, receivedEvent.ReceiptID)
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to check existing expense fact: %w", err)
	}
	if existing != nil {
		if existing.IsActive() {
			h.logger.Warn("expense fact already exists for receipt, skipping",
				zap.String("receipt_id", receivedEvent.ReceiptID.String()),
				zap.String("fact_id", existing.ID.String()),
			)
			return nil
		}
		if err := existing.Reinstate(receivedEvent.TotalCost, receivedEvent.ReceivedAt); err != nil {
			return fmt.Errorf("failed to reinstate expense fact: %w", err)
		}
		if err := h.factRepo.Save(ctx, existing); err != nil {
			return fmt.Errorf("failed to save expense fact: %w", err)
		}
		h.logger.Info("expense fact reinstated",
			zap.String("fact_id", existing.ID.String()),
			zap.String("receipt_id", receivedEvent.ReceiptID.String()),
			zap.String("amount", existing.Amount.String()),
		)
		return nil
	}

	fact, err := finance.NewExpenseFact(
		finance.ExpenseCategoryPurchase,
		finance.SourceTypeReceipt,
		receivedEvent.ReceiptID,
		receivedEvent.TotalCost,
		receivedEvent.Currency,
		receivedEvent.Number,
		receivedEvent.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense fact: %w", err)
	}
	if err := h.factRepo.Save(ctx, fact); err != nil {
		return fmt.Errorf("failed to save expense fact: %w", err)
	}

	h.logger.Info("purchase expense fact created",
		zap.String("fact_id", fact.ID.String()),
		zap.String("receipt_id", receivedEvent.ReceiptID.String()),
		zap.String("amount", fact.Amount.String()),
	)
	return nil
}

// isNotFoundError checks if the error is a "not found" error
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if domainErr, ok := err.(*shared.DomainError); ok {
		return domainErr.Code == "NOT_FOUND"
	}
	return false
}

// Ensure ReceiptReceivedHandler implements shared.EventHandler
var _ shared.EventHandler = (*ReceiptReceivedHandler)(nil)
