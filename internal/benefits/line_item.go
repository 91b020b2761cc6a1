package benefits

import (
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// LineItem is a priced unit the allocator can apply coverage to.
type LineItem struct {
	ID                string                `json:"id"`
	Category          enums.BenefitCategory `json:"category"`
	Description       string                `json:"description,omitempty"`
	UnitPrice         decimal.Decimal       `json:"unitPrice"`
	Quantity          int                   `json:"quantity"`
	InsuranceEligible bool                  `json:"insuranceEligible"`
	Tier              enums.FormularyTier   `json:"tier,omitempty"`
}

// Total is UnitPrice × Quantity. A zero quantity counts as one unit.
func (l LineItem) Total() decimal.Decimal {
	qty := l.Quantity
	if qty <= 0 {
		qty = 1
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
}
