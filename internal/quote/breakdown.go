package quote

import (
	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// LayerBreakdown is the priced outcome of one layer.
type LayerBreakdown struct {
	Layer                 enums.QuoteLayer `json:"layer"`
	Subtotal              decimal.Decimal  `json:"subtotal"`
	Discounts             decimal.Decimal  `json:"discounts"`
	DiscountedSubtotal    decimal.Decimal  `json:"discountedSubtotal"`
	Coverage              decimal.Decimal  `json:"coverage"`
	SecondPair            decimal.Decimal  `json:"secondPair"`
	PatientResponsibility decimal.Decimal  `json:"patientResponsibility"`
	Incomplete            bool             `json:"incomplete,omitempty"`
}

// DiscountApplication records one discount and what it removed.
type DiscountApplication struct {
	Kind   enums.DiscountKind `json:"kind"`
	Rank   int                `json:"rank"`
	Layer  enums.QuoteLayer   `json:"layer"`
	Amount decimal.Decimal    `json:"amount"`
	Label  string             `json:"label,omitempty"`
}

// Breakdown is the computed price of a quote. It is never edited by hand.
type Breakdown struct {
	Carrier               enums.Carrier           `json:"carrier"`
	Layers                []LayerBreakdown        `json:"layers"`
	Discounts             []DiscountApplication   `json:"discounts,omitempty"`
	Benefits              []benefits.BenefitUsage `json:"benefits,omitempty"`
	Subtotal              decimal.Decimal         `json:"subtotal"`
	TotalDiscounts        decimal.Decimal         `json:"totalDiscounts"`
	InsuranceCoverage     decimal.Decimal         `json:"insuranceCoverage"`
	PatientResponsibility decimal.Decimal         `json:"patientResponsibility"`
	TaxRate               decimal.Decimal         `json:"taxRate"`
	Tax                   decimal.Decimal         `json:"tax"`
	GrandTotal            decimal.Decimal         `json:"grandTotal"`
	Warnings              types.QuoteWarnings     `json:"warnings,omitempty"`
}

// Clone copies the breakdown so its slices are not shared.
func (b Breakdown) Clone() Breakdown {
	out := b
	if b.Layers != nil {
		out.Layers = append([]LayerBreakdown(nil), b.Layers...)
	}
	if b.Discounts != nil {
		out.Discounts = append([]DiscountApplication(nil), b.Discounts...)
	}
	if b.Benefits != nil {
		out.Benefits = append([]benefits.BenefitUsage(nil), b.Benefits...)
	}
	if b.Warnings != nil {
		out.Warnings = append(types.QuoteWarnings(nil), b.Warnings...)
	}
	return out
}

// Layer returns the breakdown of a single layer.
func (b Breakdown) Layer(layer enums.QuoteLayer) LayerBreakdown {
	for _, l := range b.Layers {
		if l.Layer == layer {
			return l
		}
	}
	return LayerBreakdown{Layer: layer}
}

// Display rounds every amount to cents. Layer responsibilities are rounded
// first and the totals are re-summed from the rounded parts so the displayed
// grand total always equals the displayed lines plus tax.
func (b Breakdown) Display() Breakdown {
	out := b
	out.Layers = make([]LayerBreakdown, len(b.Layers))
	responsibility := decimal.Zero
	for i, l := range b.Layers {
		l.Subtotal = cents(l.Subtotal)
		l.Discounts = cents(l.Discounts)
		l.DiscountedSubtotal = cents(l.DiscountedSubtotal)
		l.Coverage = cents(l.Coverage)
		l.SecondPair = cents(l.SecondPair)
		l.PatientResponsibility = cents(l.PatientResponsibility)
		responsibility = responsibility.Add(l.PatientResponsibility)
		out.Layers[i] = l
	}
	out.Discounts = make([]DiscountApplication, len(b.Discounts))
	for i, da := range b.Discounts {
		da.Amount = cents(da.Amount)
		out.Discounts[i] = da
	}
	out.Benefits = make([]benefits.BenefitUsage, len(b.Benefits))
	for i, u := range b.Benefits {
		u.ItemPrice = cents(u.ItemPrice)
		u.Allowance = cents(u.Allowance)
		u.Copay = cents(u.Copay)
		u.PriorUsage = cents(u.PriorUsage)
		u.Coverage = cents(u.Coverage)
		u.Remaining = cents(u.Remaining)
		out.Benefits[i] = u
	}
	out.Subtotal = cents(b.Subtotal)
	out.TotalDiscounts = cents(b.TotalDiscounts)
	out.InsuranceCoverage = cents(b.InsuranceCoverage)
	out.PatientResponsibility = responsibility
	out.Tax = cents(b.Tax)
	out.GrandTotal = responsibility.Add(out.Tax)
	return out
}

func cents(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
