package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/costing"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockReceiptRepository creates a GormReceiptRepository with a mocked SQL connection
func newMockReceiptRepository(t *testing.T) (*GormReceiptRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormReceiptRepository(gormDB), mock, mockDB
}

func receiptColumns() []string {
	return []string{"id", "created_at", "updated_at", "number", "supplier", "status", "currency", "received_at"}
}

func TestGormReceiptRepository_FindByID(t *testing.T) {
	t.Run("finds receipt with items and shared costs", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()
		itemID := uuid.New()
		costID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(receiptID, 1).
			WillReturnRows(sqlmock.NewRows(receiptColumns()).
				AddRow(receiptID, now, now, "RCV-001", "Acme Logistics", "DRAFT", "RUB", nil))

		mock.ExpectQuery(`SELECT \* FROM "receipt_items" WHERE "receipt_items"."receipt_id" = \$1`).
			WithArgs(receiptID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "receipt_id", "product_id", "ordered_qty", "purchase_price"}).
				AddRow(itemID, receiptID, uuid.New(), decimal.NewFromInt(10), decimal.NewFromInt(100)))

		mock.ExpectQuery(`SELECT \* FROM "receipt_shared_costs" WHERE "receipt_shared_costs"."receipt_id" = \$1`).
			WithArgs(receiptID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "receipt_id", "name", "total_amount", "method"}).
				AddRow(costID, receiptID, "delivery", decimal.NewFromInt(500), "BY_QUANTITY"))

		receipt, err := repo.FindByID(context.Background(), receiptID)

		assert.NoError(t, err)
		assert.NotNil(t, receipt)
		assert.Equal(t, "RCV-001", receipt.Number)
		assert.Len(t, receipt.Items, 1)
		assert.Len(t, receipt.SharedCosts, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent receipt", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(receiptID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		receipt, err := repo.FindByID(context.Background(), receiptID)

		assert.Error(t, err)
		assert.Nil(t, receipt)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_FindByNumber(t *testing.T) {
	t.Run("returns error for unknown number", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "receipts" WHERE number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("RCV-404", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		receipt, err := repo.FindByNumber(context.Background(), "RCV-404")

		assert.Error(t, err)
		assert.Nil(t, receipt)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_Count(t *testing.T) {
	t.Run("counts receipts with status filter", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "receipts" WHERE status = \$1`).
			WithArgs("RECEIVED").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		filter := shared.DefaultFilter()
		filter.Filters["status"] = "RECEIVED"

		count, err := repo.Count(context.Background(), filter)

		assert.NoError(t, err)
		assert.Equal(t, int64(3), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_Save(t *testing.T) {
	t.Run("saves receipt and prunes orphaned children", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receipt, err := costing.NewReceipt("RCV-002", "Acme Logistics", "RUB")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "receipts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "receipt_items" WHERE receipt_id = \$1`).
			WithArgs(receipt.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "receipt_shared_costs" WHERE receipt_id = \$1`).
			WithArgs(receipt.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err = repo.Save(context.Background(), receipt)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_Delete(t *testing.T) {
	t.Run("deletes receipt with children", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "receipt_items" WHERE receipt_id = \$1`).
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`DELETE FROM "receipt_shared_costs" WHERE receipt_id = \$1`).
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "receipts" WHERE id = \$1`).
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), receiptID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when receipt does not exist", func(t *testing.T) {
		repo, mock, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		receiptID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "receipt_items" WHERE receipt_id = \$1`).
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "receipt_shared_costs" WHERE receipt_id = \$1`).
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM "receipts" WHERE id = \$1`).
			WithArgs(receiptID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), receiptID)

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormReceiptRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements ReceiptRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockReceiptRepository(t)
		defer mockDB.Close()

		var _ costing.ReceiptRepository = repo
	})
}
