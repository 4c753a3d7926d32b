package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

var filterColumns = map[string]string{
	"label":            "label",
	"price":            "price",
	"count_in_package": "count_in_package",
}

// Repository defines persistence operations for products and their stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filters db.Filters, params pagination.Params) ([]models.Product, error)
	ListLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	CountOrderItems(ctx context.Context, productID uuid.UUID) (int64, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int64, error)
	AddStock(ctx context.Context, id uuid.UUID, delta int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) List(ctx context.Context, filters db.Filters, params pagination.Params) ([]models.Product, error) {
	var list []models.Product
	q := db.ApplyFilters(r.db.WithContext(ctx).Model(&models.Product{}), filterColumns, filters)
	err := q.Order("created_at ASC").Order("id ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListLowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	var list []models.Product
	err := r.db.WithContext(ctx).
		Where("count_in_warehouse <= ?", threshold).
		Order("count_in_warehouse ASC").
		Order("label ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected, res.Error
}

func (r *repository) CountOrderItems(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

// DecrementStock subtracts quantity only while enough stock remains. The
// predicate and the write are one statement, so concurrent callers cannot both
// pass the check; zero rows affected means missing product or short stock.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND count_in_warehouse >= ?", id, quantity).
		Updates(map[string]any{
			"count_in_warehouse": gorm.Expr("count_in_warehouse - ?", quantity),
		})
	return res.RowsAffected, res.Error
}

// AddStock applies a signed delta unless the result would be negative.
func (r *repository) AddStock(ctx context.Context, id uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND count_in_warehouse + ? >= 0", id, delta).
		Updates(map[string]any{
			"count_in_warehouse": gorm.Expr("count_in_warehouse + ?", delta),
		})
	return res.RowsAffected, res.Error
}
