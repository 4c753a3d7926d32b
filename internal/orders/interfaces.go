package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderdesk-backend/pkg/db"
	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filters db.Filters, params pagination.Params) ([]models.Order, error)
	UpdateAddress(ctx context.Context, id, addressID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindAddress(ctx context.Context, id uuid.UUID) (*models.Address, error)
}
