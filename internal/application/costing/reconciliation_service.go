package costing

import (
	"context"

	"github.com/google/uuid"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"go.uber.org/zap"
)

// ReconciliationService sweeps the lot ledger and cross-checks it against
// the allocation records. It never mutates anything; findings are returned
// for an operator to act on.
type ReconciliationService struct {
	lotRepo        costing.LotRepository
	allocationRepo costing.AllocationRepository
	logger         *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	lotRepo costing.LotRepository,
	allocationRepo costing.AllocationRepository,
	logger *zap.Logger,
) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
		logger:         logger,
	}
}

// CheckProduct reconciles one product's lots against its allocations
func (s *ReconciliationService) CheckProduct(ctx context.Context, productID uuid.UUID) (*ReconciliationResponse, error) {
	lots, err := s.lotRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.allocationRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	discrepancies := costing.CheckProduct(lots, allocations)
	return s.report(1, len(lots), discrepancies), nil
}

// CheckAll reconciles every product that has lots
func (s *ReconciliationService) CheckAll(ctx context.Context) (*ReconciliationResponse, error) {
	productIDs, err := s.lotRepo.ListProductIDs(ctx)
	if err != nil {
		return nil, err
	}

	checkedLots := 0
	all := make([]costing.Discrepancy, 0)
	for _, productID := range productIDs {
		lots, err := s.lotRepo.FindByProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		allocations, err := s.allocationRepo.FindByProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		checkedLots += len(lots)
		all = append(all, costing.CheckProduct(lots, allocations)...)
	}
	return s.report(len(productIDs), checkedLots, all), nil
}

func (s *ReconciliationService) report(products, lots int, discrepancies []costing.Discrepancy) *ReconciliationResponse {
	responses := make([]DiscrepancyResponse, 0, len(discrepancies))
	for _, d := range discrepancies {
		s.logger.Warn("Lot ledger discrepancy",
			zap.String("lot_id", d.LotID.String()),
			zap.String("product_id", d.ProductID.String()),
			zap.String("code", d.Code),
			zap.String("detail", d.Detail))
		responses = append(responses, DiscrepancyResponse{
			LotID:     d.LotID,
			ProductID: d.ProductID,
			Code:      d.Code,
			Expected:  d.Expected,
			Actual:    d.Actual,
			Detail:    d.Detail,
		})
	}
	return &ReconciliationResponse{
		CheckedProducts: products,
		CheckedLots:     lots,
		Discrepancies:   responses,
		Clean:           len(responses) == 0,
	}
}
