package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable item with its warehouse stock level.
type Product struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Label            string          `gorm:"column:label;not null"`
	CountInPackage   int             `gorm:"column:count_in_package;not null"`
	CountInWarehouse int             `gorm:"column:count_in_warehouse;not null;default:0;check:count_in_warehouse >= 0"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
