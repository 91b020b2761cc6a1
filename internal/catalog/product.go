package catalog

import (
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Product is the priced view of a catalog row.
type Product struct {
	ID         string                `json:"id"`
	SKU        string                `json:"sku"`
	Name       string                `json:"name"`
	Brand      string                `json:"brand,omitempty"`
	Category   enums.ProductCategory `json:"category"`
	Price      decimal.Decimal       `json:"price"`
	Multiplier decimal.Decimal       `json:"multiplier,omitempty"`
	Tier       enums.FormularyTier   `json:"tier,omitempty"`
	Active     bool                  `json:"active"`
}

// Selection captures the product at its current price.
func (p Product) Selection() quote.Selection {
	return quote.Selection{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.Price,
		Tier:      p.Tier,
	}
}

// Material captures a lens material. A missing multiplier is treated as 1.
func (p Product) Material() quote.MaterialSelection {
	m := p.Multiplier
	if !m.IsPositive() {
		m = decimal.NewFromInt(1)
	}
	return quote.MaterialSelection{Selection: p.Selection(), Multiplier: m}
}

func fromModel(m models.Product) Product {
	p := Product{
		ID:       m.ID.String(),
		SKU:      m.SKU,
		Name:     m.Name,
		Category: m.Category,
		Price:    types.CentsToDollars(m.PriceCents),
		Active:   m.IsActive,
	}
	if m.Brand != nil {
		p.Brand = *m.Brand
	}
	if m.Multiplier.Valid {
		p.Multiplier = m.Multiplier.Decimal
	}
	if m.FormularyTier != nil {
		p.Tier = *m.FormularyTier
	}
	return p
}
