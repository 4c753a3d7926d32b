package products

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

func seedProduct(t *testing.T, conn *gorm.DB, stock int, price string) *models.Product {
	t.Helper()
	p := &models.Product{Label: "Widget", CountInPackage: 1, CountInWarehouse: stock, Price: decimal.RequireFromString(price)}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.CountInWarehouse
}

func TestReserveReturnsPriceSnapshot(t *testing.T) {
	conn := dbtest.Open(t)
	ledger := NewStockLedger(NewRepository(conn))
	p := seedProduct(t, conn, 10, "19.99")

	price, err := ledger.Reserve(context.Background(), p.ID, 4, 0)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, 6, stockOf(t, conn, p.ID))
}

func TestReserveExactStockThenShortfall(t *testing.T) {
	conn := dbtest.Open(t)
	ledger := NewStockLedger(NewRepository(conn))
	p := seedProduct(t, conn, 5, "1")
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, p.ID, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, conn, p.ID))

	_, err = ledger.Reserve(ctx, p.ID, 1, 3)
	shortfall, ok := pkgerrors.ShortfallFrom(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, pkgerrors.StockShortfall{ProductID: p.ID, Line: 3, Requested: 1, Available: 0}, shortfall)
	assert.Equal(t, 0, stockOf(t, conn, p.ID))
}

func TestReserveMissingProductAndBadQuantity(t *testing.T) {
	conn := dbtest.Open(t)
	ledger := NewStockLedger(NewRepository(conn))
	ctx := context.Background()

	_, err := ledger.Reserve(ctx, uuid.New(), 1, 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	p := seedProduct(t, conn, 5, "1")
	_, err = ledger.Reserve(ctx, p.ID, 0, 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 5, stockOf(t, conn, p.ID))
}

func TestReserveRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	ledger := NewStockLedger(NewRepository(conn))
	p := seedProduct(t, conn, 5, "1")

	err := conn.Transaction(func(tx *gorm.DB) error {
		if _, err := ledger.WithTx(tx).Reserve(context.Background(), p.ID, 2, 0); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInternal, "abort")
	})
	require.Error(t, err)
	assert.Equal(t, 5, stockOf(t, conn, p.ID))
}

func TestReserveConcurrentCallersNeverOversell(t *testing.T) {
	conn := dbtest.OpenDeferred(t)
	ledger := NewStockLedger(NewRepository(conn))
	p := seedProduct(t, conn, 10, "2.50")
	ctx := context.Background()

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		reserved  int
		shortages int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(line int) {
			defer wg.Done()
			<-start
			_, err := ledger.Reserve(ctx, p.ID, 1, line)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				reserved++
			case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientStock):
				shortages++
			default:
				other = append(other, err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 10, reserved)
	assert.Equal(t, callers-10, shortages)
	assert.Equal(t, 0, stockOf(t, conn, p.ID))
}
