package persistence

import (
	"context"
	"time"

	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/report"
	"gorm.io/gorm"
)

// GormSalesFactRepository reads the sale facts written by the sales
// pipeline. This module never writes them, so the repository is read-only.
type GormSalesFactRepository struct {
	db *gorm.DB
}

// NewGormSalesFactRepository creates a new GormSalesFactRepository
func NewGormSalesFactRepository(db *gorm.DB) *GormSalesFactRepository {
	return &GormSalesFactRepository{db: db}
}

// FindInPeriod finds non-cancelled sale facts with sold_at in [from, to)
func (r *GormSalesFactRepository) FindInPeriod(ctx context.Context, from, to time.Time) ([]*report.SaleFact, error) {
	var sales []*report.SaleFact
	if err := r.db.WithContext(ctx).
		Preload("Fees").
		Where("sold_at >= ? AND sold_at < ? AND cancelled = FALSE", from, to).
		Order("sold_at ASC, id ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// FindByConsumerRefs finds sale facts by their consumer references
func (r *GormSalesFactRepository) FindByConsumerRefs(ctx context.Context, consumerRefs []string) ([]*report.SaleFact, error) {
	if len(consumerRefs) == 0 {
		return nil, nil
	}
	var sales []*report.SaleFact
	if err := r.db.WithContext(ctx).
		Preload("Fees").
		Where("consumer_ref IN ? AND cancelled = FALSE", consumerRefs).
		Order("sold_at ASC, id ASC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

// Ensure GormSalesFactRepository implements SalesFactProvider
var _ report.SalesFactProvider = (*GormSalesFactRepository)(nil)
