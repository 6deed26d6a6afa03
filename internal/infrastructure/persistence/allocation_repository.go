package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAllocationRepository implements AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByID finds an allocation by its ID
func (r *GormAllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.Allocation, error) {
	var allocation costing.Allocation
	if err := r.db.WithContext(ctx).First(&allocation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &allocation, nil
}

// FindByConsumerRef finds all allocations for a consumer reference,
// active and reversed alike
func (r *GormAllocationRepository) FindByConsumerRef(ctx context.Context, consumerRef string) ([]*costing.Allocation, error) {
	var allocations []*costing.Allocation
	if err := r.db.WithContext(ctx).
		Where("consumer_ref = ?", consumerRef).
		Order("allocated_at ASC, id ASC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// FindActiveByLotIDs finds active allocations referencing any of the given lots
func (r *GormAllocationRepository) FindActiveByLotIDs(ctx context.Context, lotIDs []uuid.UUID) ([]*costing.Allocation, error) {
	if len(lotIDs) == 0 {
		return nil, nil
	}
	var allocations []*costing.Allocation
	if err := r.db.WithContext(ctx).
		Where("lot_id IN ? AND reversed = FALSE", lotIDs).
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// FindByProduct finds all allocations of a product
func (r *GormAllocationRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]*costing.Allocation, error) {
	var allocations []*costing.Allocation
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("allocated_at ASC, id ASC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// FindActiveInPeriod finds active allocations with allocated_at in [from, to)
func (r *GormAllocationRepository) FindActiveInPeriod(ctx context.Context, from, to time.Time) ([]*costing.Allocation, error) {
	var allocations []*costing.Allocation
	if err := r.db.WithContext(ctx).
		Where("reversed = FALSE AND allocated_at >= ? AND allocated_at < ?", from, to).
		Order("allocated_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

// Save creates or updates an allocation
func (r *GormAllocationRepository) Save(ctx context.Context, allocation *costing.Allocation) error {
	return r.db.WithContext(ctx).Save(allocation).Error
}

// SaveAll creates or updates multiple allocations
func (r *GormAllocationRepository) SaveAll(ctx context.Context, allocations []*costing.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&allocations).Error
}

// Ensure GormAllocationRepository implements AllocationRepository
var _ costing.AllocationRepository = (*GormAllocationRepository)(nil)
