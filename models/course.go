package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Course is owned by the catalogue service; checkout only reads it.
type Course struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string              `gorm:"type:varchar(255);not null" json:"title"`
	Price     decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"price"`
	SalePrice decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"sale_price"`
	CreatedAt time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt      `gorm:"index" json:"-"`
}

// EffectivePrice is the sale price when one is set and positive, else the list price.
func (c *Course) EffectivePrice() decimal.Decimal {
	if c.SalePrice.Valid && c.SalePrice.Decimal.IsPositive() {
		return c.SalePrice.Decimal
	}
	return c.Price
}
