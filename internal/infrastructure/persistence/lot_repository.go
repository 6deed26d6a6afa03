package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// fifoOrder is the canonical consumption order for lots. The ID tiebreak
// keeps the order deterministic for lots received at the same instant.
const fifoOrder = "received_at ASC, id ASC"

// GormLotRepository implements LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.Lot, error) {
	var lot costing.Lot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindByProduct finds all lots of a product in FIFO order
func (r *GormLotRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]*costing.Lot, error) {
	var lots []*costing.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order(fifoOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindAvailableByProduct finds the product's lots with remaining stock in FIFO order
func (r *GormLotRepository) FindAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]*costing.Lot, error) {
	var lots []*costing.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND remaining_qty > 0", productID).
		Order(fifoOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindByReceiptItemIDs finds the lots created from the given receipt items
func (r *GormLotRepository) FindByReceiptItemIDs(ctx context.Context, receiptItemIDs []uuid.UUID) ([]*costing.Lot, error) {
	if len(receiptItemIDs) == 0 {
		return nil, nil
	}
	var lots []*costing.Lot
	if err := r.db.WithContext(ctx).
		Where("receipt_item_id IN ?", receiptItemIDs).
		Order(fifoOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// ListProductIDs returns the distinct product IDs that have lots
func (r *GormLotRepository) ListProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&costing.Lot{}).
		Distinct("product_id").
		Order("product_id ASC").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates a lot
func (r *GormLotRepository) Save(ctx context.Context, lot *costing.Lot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// SaveAll creates or updates multiple lots
func (r *GormLotRepository) SaveAll(ctx context.Context, lots []*costing.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&lots).Error
}

// Delete removes a lot
func (r *GormLotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&costing.Lot{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLotRepository implements LotRepository
var _ costing.LotRepository = (*GormLotRepository)(nil)
