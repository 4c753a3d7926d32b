package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
)

// AddressDTO is the transport shape of an address.
type AddressDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     *string   `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `json:"country"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateAddressInput holds the fields required to add an address to a user.
type CreateAddressInput struct {
	UserID    uuid.UUID
	Street    string
	City      string
	State     *string
	ZipCode   string
	Country   string
	IsPrimary bool
}

// AddressUpdate lists the mutable fields. The owning user cannot change.
type AddressUpdate struct {
	Street    *string
	City      *string
	State     *string
	ZipCode   *string
	Country   *string
	IsPrimary *bool
}

func FromModel(a *models.Address) *AddressDTO {
	if a == nil {
		return nil
	}
	return &AddressDTO{
		ID:        a.ID,
		UserID:    a.UserID,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		IsPrimary: a.IsPrimary,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func FromModels(list []models.Address) []AddressDTO {
	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
