package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
)

// Product is a catalog entry: frames, lens types, lens materials,
// enhancements, contact lenses and exam services share one table.
type Product struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	SKU           string                `gorm:"column:sku;not null"`
	Name          string                `gorm:"column:name;not null"`
	Brand         *string               `gorm:"column:brand"`
	Category      enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	PriceCents    int64                 `gorm:"column:price_cents;not null"`
	Multiplier    decimal.NullDecimal   `gorm:"column:multiplier;type:numeric(6,3)"`
	FormularyTier *enums.FormularyTier  `gorm:"column:formulary_tier"`
	IsActive      bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
