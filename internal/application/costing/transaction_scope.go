package costing

import (
	"context"

	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
)

// TransactionScope provides transactional access to costing repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the costing repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - ReceiptRepo: the Receipt aggregate with its items and shared costs.
//   - LotRepo: lots are persisted independently of receipts because the
//     allocation hot path loads a product's lots without the aggregate.
//   - AllocationRepo: append-mostly allocation records; reversal updates
//     them in place.
type TransactionalRepositories interface {
	// ReceiptRepo returns the receipt repository scoped to the current transaction
	ReceiptRepo() costing.ReceiptRepository
	// LotRepo returns the lot repository scoped to the current transaction
	LotRepo() costing.LotRepository
	// AllocationRepo returns the allocation repository scoped to the current transaction
	AllocationRepo() costing.AllocationRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	receiptRepo    costing.ReceiptRepository
	lotRepo        costing.LotRepository
	allocationRepo costing.AllocationRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	receiptRepo costing.ReceiptRepository,
	lotRepo costing.LotRepository,
	allocationRepo costing.AllocationRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		receiptRepo:    receiptRepo,
		lotRepo:        lotRepo,
		allocationRepo: allocationRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ReceiptRepo returns the receipt repository.
func (s *NoOpTransactionScope) ReceiptRepo() costing.ReceiptRepository {
	return s.receiptRepo
}

// LotRepo returns the lot repository.
func (s *NoOpTransactionScope) LotRepo() costing.LotRepository {
	return s.lotRepo
}

// AllocationRepo returns the allocation repository.
func (s *NoOpTransactionScope) AllocationRepo() costing.AllocationRepository {
	return s.allocationRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
