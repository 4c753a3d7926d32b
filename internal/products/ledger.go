package products

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

// StockLedger owns every change to count_in_warehouse. It is bound to the
// caller's transaction and never reads through the cache.
type StockLedger struct {
	repo Repository
}

func NewStockLedger(repo Repository) *StockLedger {
	return &StockLedger{repo: repo}
}

// WithTx binds the ledger to tx.
func (l *StockLedger) WithTx(tx *gorm.DB) *StockLedger {
	return &StockLedger{repo: l.repo.WithTx(tx)}
}

// Reserve decrements quantity units of productID and returns the unit price
// snapshot read after the decrement, inside the same transaction. line is the
// caller's index of the request and is reported back on shortfall.
func (l *StockLedger) Reserve(ctx context.Context, productID uuid.UUID, quantity, line int) (decimal.Decimal, error) {
	if quantity < 1 {
		return decimal.Decimal{}, pkgerrors.OutOfRange("quantity", 1, nil, quantity)
	}

	rows, err := l.repo.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return decimal.Decimal{}, pkgerrors.Storage(err, "reserve stock")
	}
	if rows == 0 {
		return decimal.Decimal{}, l.shortfall(ctx, productID, quantity, line)
	}

	product, err := l.repo.FindByID(ctx, productID)
	if err != nil {
		return decimal.Decimal{}, db.Classify(err, entityName, productID, "read reserved price")
	}
	return product.Price, nil
}

// Adjust applies a signed delta and returns the new stock level.
func (l *StockLedger) Adjust(ctx context.Context, productID uuid.UUID, delta int) (int, error) {
	rows, err := l.repo.AddStock(ctx, productID, delta)
	if err != nil {
		return 0, pkgerrors.Storage(err, "adjust stock")
	}
	if rows == 0 {
		return 0, l.shortfall(ctx, productID, -delta, 0)
	}
	product, err := l.repo.FindByID(ctx, productID)
	if err != nil {
		return 0, db.Classify(err, entityName, productID, "read adjusted stock")
	}
	return product.CountInWarehouse, nil
}

// shortfall explains why a guarded update matched no row.
func (l *StockLedger) shortfall(ctx context.Context, productID uuid.UUID, requested, line int) error {
	product, err := l.repo.FindByID(ctx, productID)
	if err != nil {
		return db.Classify(err, entityName, productID, "load product stock")
	}
	return pkgerrors.InsufficientStock(pkgerrors.StockShortfall{
		ProductID: productID,
		Line:      line,
		Requested: requested,
		Available: product.CountInWarehouse,
	})
}
