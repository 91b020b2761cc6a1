package quote

import (
	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// LineItems derives the priced units of the quote at their raw (undiscounted)
// prices. Incomplete layers still contribute the selections they have.
// The second pair is not included; it is never insurance eligible and is
// priced separately.
func (q Quote) LineItems() []benefits.LineItem {
	items := make([]benefits.LineItem, 0, 8)
	for _, svc := range q.Exam.Services {
		items = append(items, benefits.LineItem{
			ID:                svc.ProductID,
			Category:          enums.BenefitExam,
			Description:       svc.Name,
			UnitPrice:         svc.Price,
			Quantity:          1,
			InsuranceEligible: true,
			Tier:              svc.Tier,
		})
	}
	items = append(items, q.Eyeglasses.LineItems()...)
	if item, ok := q.Contacts.LineItem(q.Contacts.SubtotalPerBox()); ok {
		items = append(items, item)
	}
	return items
}

// LineItems returns the frame, lens and enhancement items of the first pair.
func (l EyeglassesLayer) LineItems() []benefits.LineItem {
	var items []benefits.LineItem
	switch {
	case l.PatientOwnedFrame:
		items = append(items, benefits.LineItem{
			ID:          "patient-owned-frame",
			Category:    enums.BenefitFrame,
			Description: "Patient-owned frame service",
			UnitPrice:   l.POFFee,
			Quantity:    1,
		})
	case l.Frame != nil:
		items = append(items, benefits.LineItem{
			ID:                l.Frame.ProductID,
			Category:          enums.BenefitFrame,
			Description:       l.Frame.Name,
			UnitPrice:         l.Frame.Price,
			Quantity:          1,
			InsuranceEligible: true,
			Tier:              l.Frame.Tier,
		})
	}
	if l.LensType != nil {
		items = append(items, benefits.LineItem{
			ID:                l.LensType.ProductID,
			Category:          enums.BenefitLens,
			Description:       l.lensDescription(),
			UnitPrice:         l.LensPrice(),
			Quantity:          1,
			InsuranceEligible: true,
			Tier:              l.LensType.Tier,
		})
	}
	for _, e := range l.Enhancements {
		items = append(items, benefits.LineItem{
			ID:                e.ProductID,
			Category:          enums.BenefitEnhancement,
			Description:       e.Name,
			UnitPrice:         e.Price,
			Quantity:          1,
			InsuranceEligible: true,
			Tier:              e.Tier,
		})
	}
	return items
}

// LensPrice is the lens base price times the material multiplier. Without a
// material the multiplier is one.
func (l EyeglassesLayer) LensPrice() decimal.Decimal {
	if l.LensType == nil {
		return decimal.Zero
	}
	if l.Material == nil {
		return l.LensType.Price
	}
	return l.LensType.Price.Mul(l.Material.Multiplier)
}

func (l EyeglassesLayer) lensDescription() string {
	if l.Material == nil {
		return l.LensType.Name
	}
	return l.LensType.Name + " / " + l.Material.Name
}

// SubtotalPerBox returns the catalog price per box.
func (l ContactsLayer) SubtotalPerBox() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price
}

// LineItem returns the contacts item priced at unitPrice per box.
func (l ContactsLayer) LineItem(unitPrice decimal.Decimal) (benefits.LineItem, bool) {
	if l.Product == nil || l.Boxes <= 0 {
		return benefits.LineItem{}, false
	}
	return benefits.LineItem{
		ID:                l.Product.ProductID,
		Category:          enums.BenefitContacts,
		Description:       l.Product.Name,
		UnitPrice:         unitPrice,
		Quantity:          l.Boxes,
		InsuranceEligible: true,
		Tier:              l.Product.Tier,
	}, true
}
