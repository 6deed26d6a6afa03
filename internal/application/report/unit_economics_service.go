package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/finance"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/report"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// UnitEconomicsService builds the per-product profitability report for a
// period. Revenue and fees come from the sales pipeline's facts, COGS from
// the allocation records, write-offs from the expense ledger.
type UnitEconomicsService struct {
	salesProvider  report.SalesFactProvider
	allocationRepo costing.AllocationRepository
	factRepo       finance.ExpenseFactRepository
	logger         *zap.Logger
}

// NewUnitEconomicsService creates a new UnitEconomicsService
func NewUnitEconomicsService(
	salesProvider report.SalesFactProvider,
	allocationRepo costing.AllocationRepository,
	factRepo finance.ExpenseFactRepository,
	logger *zap.Logger,
) *UnitEconomicsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitEconomicsService{
		salesProvider:  salesProvider,
		allocationRepo: allocationRepo,
		factRepo:       factRepo,
		logger:         logger,
	}
}

// GetReport builds the unit economics report for sales with sold_at in
// [from, to). COGS is matched to each sale through its consumer reference,
// regardless of when the allocation happened.
func (s *UnitEconomicsService) GetReport(ctx context.Context, from, to time.Time) (*report.UnitEconomicsReport, error) {
	if !to.After(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Report period end must be after its start")
	}

	sales, err := s.salesProvider.FindInPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	cogsByRef, err := s.costByConsumerRef(ctx, sales)
	if err != nil {
		return nil, err
	}

	rows := make(map[string]*report.ProductEconomics)
	for _, sale := range sales {
		// the provider filters cancelled sales already; guard here so a
		// permissive provider cannot leak them into the report
		if sale.Cancelled {
			continue
		}
		key := sale.ProductID.String()
		row, ok := rows[key]
		if !ok {
			row = &report.ProductEconomics{
				ProductID: sale.ProductID,
				UnitsSold: decimal.Zero,
				Revenue:   decimal.Zero,
				COGS:      decimal.Zero,
				Fees:      make(map[report.FeeType]decimal.Decimal),
				TotalFees: decimal.Zero,
			}
			rows[key] = row
		}
		row.UnitsSold = row.UnitsSold.Add(sale.Quantity)
		row.Revenue = row.Revenue.Add(sale.Revenue)
		row.COGS = row.COGS.Add(cogsByRef[sale.ConsumerRef])
		for i := range sale.Fees {
			fee := &sale.Fees[i]
			row.Fees[fee.Type] = row.Fees[fee.Type].Add(fee.Amount)
			row.TotalFees = row.TotalFees.Add(fee.Amount)
		}
	}

	products := make([]report.ProductEconomics, 0, len(rows))
	summary := report.ProfitLossSummary{
		From:    from,
		To:      to,
		Revenue: decimal.Zero,
		COGS:    decimal.Zero,
		Fees:    decimal.Zero,
	}
	for _, row := range rows {
		row.GrossProfit = valueobject.QuantizeAmount(row.Revenue.Sub(row.COGS).Sub(row.TotalFees))
		if row.Revenue.IsPositive() {
			row.MarginPct = row.GrossProfit.Div(row.Revenue).Mul(hundred).Round(2)
		}
		if row.UnitsSold.IsPositive() {
			row.ProfitPerSKU = valueobject.QuantizeAmount(row.GrossProfit.Div(row.UnitsSold))
		}
		summary.Revenue = summary.Revenue.Add(row.Revenue)
		summary.COGS = summary.COGS.Add(row.COGS)
		summary.Fees = summary.Fees.Add(row.TotalFees)
		products = append(products, *row)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].ProductID.String() < products[j].ProductID.String()
	})

	summary.WriteOffs, err = s.writeOffTotal(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.GrossProfit = valueobject.QuantizeAmount(summary.Revenue.Sub(summary.COGS).Sub(summary.Fees))
	summary.OperatingProfit = valueobject.QuantizeAmount(summary.GrossProfit.Sub(summary.WriteOffs))

	s.logger.Info("Unit economics report built",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("sales", len(sales)),
		zap.Int("products", len(products)))

	return &report.UnitEconomicsReport{
		Products: products,
		Summary:  summary,
	}, nil
}

// costByConsumerRef sums active allocation costs per consumer reference of
// the given sales
func (s *UnitEconomicsService) costByConsumerRef(ctx context.Context, sales []*report.SaleFact) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal)
	for _, sale := range sales {
		if _, done := result[sale.ConsumerRef]; done {
			continue
		}
		allocations, err := s.allocationRepo.FindByConsumerRef(ctx, sale.ConsumerRef)
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for _, a := range allocations {
			if a.IsActive() {
				total = total.Add(a.TotalCost)
			}
		}
		result[sale.ConsumerRef] = total
	}
	return result, nil
}

// writeOffTotal sums active write-off expense facts in the period
func (s *UnitEconomicsService) writeOffTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	facts, err := s.factRepo.FindActiveInPeriod(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, fact := range facts {
		if fact.Category == finance.ExpenseCategoryWriteOff {
			total = total.Add(fact.Amount)
		}
	}
	return total, nil
}
