package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

var filterColumns = map[string]string{
	"user_id":    "user_id",
	"city":       "city",
	"country":    "country",
	"is_primary": "is_primary",
}

// Repository defines persistence operations for addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, address *models.Address) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	List(ctx context.Context, filters db.Filters, params pagination.Params) ([]models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID, primaryOnly bool) ([]models.Address, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	ClearPrimary(ctx context.Context, userID, exceptID uuid.UUID) ([]uuid.UUID, error)
	LockUser(ctx context.Context, userID uuid.UUID) error
	CountOrders(ctx context.Context, addressID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an address repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *repository) List(ctx context.Context, filters db.Filters, params pagination.Params) ([]models.Address, error) {
	var list []models.Address
	q := db.ApplyFilters(r.db.WithContext(ctx).Model(&models.Address{}), filterColumns, filters)
	err := q.Order("created_at ASC").Order("id ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListByUser returns the user's addresses with the primary one first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, primaryOnly bool) ([]models.Address, error) {
	var list []models.Address
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if primaryOnly {
		q = q.Where("is_primary = ?", true)
	}
	err := q.Order("is_primary DESC").Order("created_at ASC").Order("id ASC").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Address{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Address{})
	return res.RowsAffected, res.Error
}

// ClearPrimary unsets is_primary on every other address of the user and
// returns the ids it changed.
func (r *repository) ClearPrimary(ctx context.Context, userID, exceptID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ? AND is_primary = ?", userID, true)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Address{}).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_primary": false}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LockUser takes a row lock on the owning user so concurrent primary switches
// for the same user serialize. sqlite ignores the locking clause.
func (r *repository) LockUser(ctx context.Context, userID uuid.UUID) error {
	var user models.User
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&user, "id = ?", userID).Error
}

func (r *repository) CountOrders(ctx context.Context, addressID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("address_id = ?", addressID).Count(&count).Error
	return count, err
}
