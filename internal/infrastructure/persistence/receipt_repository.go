package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReceiptRepository implements ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID loads a receipt with its items and shared costs
func (r *GormReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.Receipt, error) {
	var receipt costing.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("SharedCosts").
		First(&receipt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindByNumber loads a receipt by its business number
func (r *GormReceiptRepository) FindByNumber(ctx context.Context, number string) (*costing.Receipt, error) {
	var receipt costing.Receipt
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("SharedCosts").
		Where("number = ?", number).
		First(&receipt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

// FindAll returns receipts matching the filter
func (r *GormReceiptRepository) FindAll(ctx context.Context, filter shared.Filter) ([]costing.Receipt, error) {
	var receipts []costing.Receipt
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&costing.Receipt{}).
			Preload("Items").
			Preload("SharedCosts"),
		filter,
	)

	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

// Count counts receipts matching the filter
func (r *GormReceiptRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&costing.Receipt{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a receipt with its items and shared costs.
// Children removed from the aggregate are deleted.
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *costing.Receipt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "SharedCosts").Save(receipt).Error; err != nil {
			return err
		}

		itemIDs := make([]uuid.UUID, len(receipt.Items))
		for i := range receipt.Items {
			itemIDs[i] = receipt.Items[i].ID
		}
		if err := deleteOrphans(tx, &costing.ReceiptItem{}, receipt.ID, itemIDs); err != nil {
			return err
		}
		if len(receipt.Items) > 0 {
			if err := tx.Save(&receipt.Items).Error; err != nil {
				return err
			}
		}

		costIDs := make([]uuid.UUID, len(receipt.SharedCosts))
		for i := range receipt.SharedCosts {
			costIDs[i] = receipt.SharedCosts[i].ID
		}
		if err := deleteOrphans(tx, &costing.ReceiptSharedCost{}, receipt.ID, costIDs); err != nil {
			return err
		}
		if len(receipt.SharedCosts) > 0 {
			if err := tx.Save(&receipt.SharedCosts).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes a receipt with its items and shared costs
func (r *GormReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("receipt_id = ?", id).Delete(&costing.ReceiptItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("receipt_id = ?", id).Delete(&costing.ReceiptSharedCost{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&costing.Receipt{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// deleteOrphans removes child rows of a receipt that are no longer part of
// the aggregate
func deleteOrphans(tx *gorm.DB, model any, receiptID uuid.UUID, keepIDs []uuid.UUID) error {
	query := tx.Where("receipt_id = ?", receiptID)
	if len(keepIDs) > 0 {
		query = query.Where("id NOT IN ?", keepIDs)
	}
	return query.Delete(model).Error
}

// applyFilter applies conditions, pagination and ordering
func (r *GormReceiptRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ReceiptSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	return query
}

// applyConditions applies filter conditions without pagination
func (r *GormReceiptRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "supplier":
			if s, ok := value.(string); ok && s != "" {
				query = query.Where("supplier ILIKE ?", "%"+strings.TrimSpace(s)+"%")
			}
		}
	}
	return query
}

// Ensure GormReceiptRepository implements ReceiptRepository
var _ costing.ReceiptRepository = (*GormReceiptRepository)(nil)
