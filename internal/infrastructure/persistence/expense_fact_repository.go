package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/finance"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// GormExpenseFactRepository implements ExpenseFactRepository using GORM
type GormExpenseFactRepository struct {
	db *gorm.DB
}

// NewGormExpenseFactRepository creates a new GormExpenseFactRepository
func NewGormExpenseFactRepository(db *gorm.DB) *GormExpenseFactRepository {
	return &GormExpenseFactRepository{db: db}
}

// FindByID finds an expense fact by its ID
func (r *GormExpenseFactRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.ExpenseFact, error) {
	var fact finance.ExpenseFact
	if err := r.db.WithContext(ctx).First(&fact, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &fact, nil
}

// FindBySource finds the expense fact created for a source document.
// (source_type, source_id) is unique, so at most one row matches.
func (r *GormExpenseFactRepository) FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (*finance.ExpenseFact, error) {
	var fact finance.ExpenseFact
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		First(&fact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &fact, nil
}

// FindActiveInPeriod finds non-reversed expense facts with incurred_at in [from, to)
func (r *GormExpenseFactRepository) FindActiveInPeriod(ctx context.Context, from, to time.Time) ([]*finance.ExpenseFact, error) {
	var facts []*finance.ExpenseFact
	if err := r.db.WithContext(ctx).
		Where("reversed = FALSE AND incurred_at >= ? AND incurred_at < ?", from, to).
		Order("incurred_at ASC").
		Find(&facts).Error; err != nil {
		return nil, err
	}
	return facts, nil
}

// Save creates or updates an expense fact
func (r *GormExpenseFactRepository) Save(ctx context.Context, fact *finance.ExpenseFact) error {
	return r.db.WithContext(ctx).Save(fact).Error
}

// Ensure GormExpenseFactRepository implements ExpenseFactRepository
var _ finance.ExpenseFactRepository = (*GormExpenseFactRepository)(nil)
