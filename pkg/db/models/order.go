package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the aggregate root for a purchase; items are deleted with it.
type Order struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID   `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID uuid.UUID   `gorm:"column:address_id;type:uuid;not null;index"`
	User      *User       `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Address   *Address    `gorm:"foreignKey:AddressID;constraint:OnDelete:RESTRICT"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
