package persistence

import (
	"context"

	appcosting "github.com/teploe-odealko/mp-flow-sub000/internal/application/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcosting.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides repositories scoped to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ReceiptRepo returns the receipt repository scoped to the current transaction
func (r *gormTransactionalRepositories) ReceiptRepo() costing.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

// LotRepo returns the lot repository scoped to the current transaction
func (r *gormTransactionalRepositories) LotRepo() costing.LotRepository {
	return NewGormLotRepository(r.tx)
}

// AllocationRepo returns the allocation repository scoped to the current transaction
func (r *gormTransactionalRepositories) AllocationRepo() costing.AllocationRepository {
	return NewGormAllocationRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appcosting.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appcosting.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
