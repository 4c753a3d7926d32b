package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderdesk-backend/pkg/db/models"
)

// UserDTO is the transport shape of a user.
type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateUserInput holds the data required to register a user.
type CreateUserInput struct {
	Username    string
	Email       string
	Description *string
}

// UserUpdate lists the fields a caller may send. Nil means leave unchanged.
// Email is accepted only so a change attempt can be rejected explicitly.
type UserUpdate struct {
	Username    *string
	Description *string
	Email       *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Description: u.Description,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

func (c CreateUserInput) ToModel() *models.User {
	return &models.User{
		Username:    strings.TrimSpace(c.Username),
		Email:       strings.TrimSpace(c.Email),
		Description: c.Description,
	}
}
