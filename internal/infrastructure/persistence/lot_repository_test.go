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

// newMockLotRepository creates a GormLotRepository with a mocked SQL connection
func newMockLotRepository(t *testing.T) (*GormLotRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormLotRepository(gormDB), mock, mockDB
}

func lotColumns() []string {
	return []string{
		"id", "created_at", "updated_at",
		"product_id", "receipt_item_id",
		"initial_qty", "remaining_qty", "written_off_qty",
		"cost_per_unit", "currency", "received_at",
	}
}

func TestNewGormLotRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormLotRepository_FindByID(t *testing.T) {
	t.Run("finds existing lot", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		lotID := uuid.New()
		productID := uuid.New()
		itemID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(lotColumns()).
			AddRow(lotID, now, now, productID, itemID,
				decimal.NewFromInt(100), decimal.NewFromInt(60), decimal.NewFromInt(5),
				decimal.NewFromFloat(12.5), "RUB", now)

		mock.ExpectQuery(`SELECT \* FROM "lots" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(lotID, 1).
			WillReturnRows(rows)

		lot, err := repo.FindByID(context.Background(), lotID)

		assert.NoError(t, err)
		assert.NotNil(t, lot)
		assert.Equal(t, lotID, lot.ID)
		assert.Equal(t, productID, lot.ProductID)
		assert.True(t, lot.RemainingQty.Equal(decimal.NewFromInt(60)))
		assert.True(t, lot.AllocatedQty().Equal(decimal.NewFromInt(35)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent lot", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		lotID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "lots" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(lotID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		lot, err := repo.FindByID(context.Background(), lotID)

		assert.Error(t, err)
		assert.Nil(t, lot)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLotRepository_FindAvailableByProduct(t *testing.T) {
	t.Run("returns lots with stock in consumption order", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		older := uuid.New()
		newer := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(lotColumns()).
			AddRow(older, now, now, productID, uuid.New(),
				decimal.NewFromInt(10), decimal.NewFromInt(4), decimal.Zero,
				decimal.NewFromInt(100), "RUB", now.Add(-48*time.Hour)).
			AddRow(newer, now, now, productID, uuid.New(),
				decimal.NewFromInt(20), decimal.NewFromInt(20), decimal.Zero,
				decimal.NewFromInt(110), "RUB", now)

		mock.ExpectQuery(`SELECT \* FROM "lots" WHERE product_id = \$1 AND remaining_qty > 0 ORDER BY received_at ASC, id ASC`).
			WithArgs(productID).
			WillReturnRows(rows)

		lots, err := repo.FindAvailableByProduct(context.Background(), productID)

		assert.NoError(t, err)
		assert.Len(t, lots, 2)
		assert.Equal(t, older, lots[0].ID)
		assert.Equal(t, newer, lots[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice when product has no stock", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "lots" WHERE product_id = \$1 AND remaining_qty > 0`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows(lotColumns()))

		lots, err := repo.FindAvailableByProduct(context.Background(), productID)

		assert.NoError(t, err)
		assert.Empty(t, lots)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLotRepository_FindByReceiptItemIDs(t *testing.T) {
	t.Run("finds lots for receipt items", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		itemID1 := uuid.New()
		itemID2 := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(lotColumns()).
			AddRow(uuid.New(), now, now, uuid.New(), itemID1,
				decimal.NewFromInt(10), decimal.NewFromInt(10), decimal.Zero,
				decimal.NewFromInt(50), "RUB", now).
			AddRow(uuid.New(), now, now, uuid.New(), itemID2,
				decimal.NewFromInt(5), decimal.NewFromInt(5), decimal.Zero,
				decimal.NewFromInt(70), "RUB", now)

		mock.ExpectQuery(`SELECT \* FROM "lots" WHERE receipt_item_id IN \(\$1,\$2\)`).
			WithArgs(itemID1, itemID2).
			WillReturnRows(rows)

		lots, err := repo.FindByReceiptItemIDs(context.Background(), []uuid.UUID{itemID1, itemID2})

		assert.NoError(t, err)
		assert.Len(t, lots, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for empty input", func(t *testing.T) {
		repo, _, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		lots, err := repo.FindByReceiptItemIDs(context.Background(), []uuid.UUID{})

		assert.NoError(t, err)
		assert.Nil(t, lots)
	})
}

func TestGormLotRepository_ListProductIDs(t *testing.T) {
	t.Run("lists distinct product IDs", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		id1 := uuid.New()
		id2 := uuid.New()

		mock.ExpectQuery(`SELECT DISTINCT "product_id" FROM "lots" ORDER BY product_id ASC`).
			WillReturnRows(sqlmock.NewRows([]string{"product_id"}).AddRow(id1).AddRow(id2))

		ids, err := repo.ListProductIDs(context.Background())

		assert.NoError(t, err)
		assert.Len(t, ids, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLotRepository_Save(t *testing.T) {
	t.Run("saves lot", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		lot, err := costing.NewLot(
			uuid.New(), uuid.New(),
			decimal.NewFromInt(100), decimal.NewFromFloat(12.5),
			"RUB", time.Now(),
		)
		require.NoError(t, err)

		mock.ExpectExec(`UPDATE "lots" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Save(context.Background(), lot)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLotRepository_SaveAll(t *testing.T) {
	t.Run("returns nil for empty slice", func(t *testing.T) {
		repo, _, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		err := repo.SaveAll(context.Background(), []*costing.Lot{})

		assert.NoError(t, err)
	})
}

func TestGormLotRepository_Delete(t *testing.T) {
	t.Run("deletes existing lot", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		lotID := uuid.New()

		mock.ExpectExec(`DELETE FROM "lots" WHERE id = \$1`).
			WithArgs(lotID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), lotID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns error for non-existent lot", func(t *testing.T) {
		repo, mock, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		lotID := uuid.New()

		mock.ExpectExec(`DELETE FROM "lots" WHERE id = \$1`).
			WithArgs(lotID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), lotID)

		assert.Error(t, err)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormLotRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements LotRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockLotRepository(t)
		defer mockDB.Close()

		var _ costing.LotRepository = repo
	})
}
