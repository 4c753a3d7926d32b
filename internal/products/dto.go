package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/money"
)

// ProductDTO is the transport shape of a product.
type ProductDTO struct {
	ID               uuid.UUID    `json:"id"`
	Label            string       `json:"label"`
	CountInPackage   int          `json:"count_in_package"`
	CountInWarehouse int          `json:"count_in_warehouse"`
	Price            money.Amount `json:"price"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// CreateProductInput holds the fields required to list a product.
type CreateProductInput struct {
	Label            string
	CountInPackage   int
	CountInWarehouse int
	Price            decimal.Decimal
}

// ProductUpdate lists the mutable fields. Nil means leave unchanged.
type ProductUpdate struct {
	Label            *string
	CountInPackage   *int
	CountInWarehouse *int
	Price            *decimal.Decimal
}

// StockLevel reports a product's stock after an adjustment.
type StockLevel struct {
	ProductID        uuid.UUID `json:"product_id"`
	CountInWarehouse int       `json:"count_in_warehouse"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:               p.ID,
		Label:            p.Label,
		CountInPackage:   p.CountInPackage,
		CountInWarehouse: p.CountInWarehouse,
		Price:            money.NewAmount(p.Price),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func FromModels(list []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
