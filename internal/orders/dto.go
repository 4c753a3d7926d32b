package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
	"github.com/angelmondragon/orderdesk-backend/pkg/money"
)

// LineInput is one requested (product, quantity) pair.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput carries a validated order request.
type CreateOrderInput struct {
	UserID    uuid.UUID
	AddressID uuid.UUID
	Items     []LineInput
}

// ProductSummary is the product as it is now, alongside the frozen unit price.
type ProductSummary struct {
	ID    uuid.UUID    `json:"id"`
	Label string       `json:"label"`
	Price money.Amount `json:"price"`
}

type AddressSummary struct {
	ID      uuid.UUID `json:"id"`
	Street  string    `json:"street"`
	City    string    `json:"city"`
	State   *string   `json:"state,omitempty"`
	ZipCode string    `json:"zip_code"`
	Country string    `json:"country"`
}

type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Product   *ProductSummary `json:"product,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice money.Amount    `json:"unit_price"`
	LineTotal money.Amount    `json:"line_total"`
}

// OrderDTO is a fully materialized order. Total is recomputed from the items.
type OrderDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	AddressID uuid.UUID       `json:"address_id"`
	User      *UserSummary    `json:"user,omitempty"`
	Address   *AddressSummary `json:"address,omitempty"`
	Items     []OrderItemDTO  `json:"items"`
	Total     money.Amount    `json:"total_amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Total sums quantity × unit price over items.
func Total(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return money.Normalize(total)
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:        o.ID,
		UserID:    o.UserID,
		AddressID: o.AddressID,
		Items:     make([]OrderItemDTO, 0, len(o.Items)),
		Total:     money.NewAmount(Total(o.Items)),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	if o.User != nil {
		dto.User = &UserSummary{ID: o.User.ID, Username: o.User.Username, Email: o.User.Email}
	}
	if o.Address != nil {
		dto.Address = &AddressSummary{
			ID:      o.Address.ID,
			Street:  o.Address.Street,
			City:    o.Address.City,
			State:   o.Address.State,
			ZipCode: o.Address.ZipCode,
			Country: o.Address.Country,
		}
	}
	for _, item := range o.Items {
		line := OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: money.NewAmount(item.UnitPrice),
			LineTotal: money.NewAmount(item.LineTotal()),
		}
		if item.Product != nil {
			line.Product = &ProductSummary{
				ID:    item.Product.ID,
				Label: item.Product.Label,
				Price: money.NewAmount(item.Product.Price),
			}
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}

func FromModels(list []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
