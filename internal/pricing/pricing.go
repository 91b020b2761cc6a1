package pricing

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// DefaultAnnualSupplyRate is the contacts volume discount.
var DefaultAnnualSupplyRate = decimal.RequireFromString("0.15")

var hundred = decimal.NewFromInt(100)

// Options carries the external pricing inputs.
type Options struct {
	TaxRate decimal.Decimal
	// AnnualSupplyRate falls back to DefaultAnnualSupplyRate when nil. An
	// explicit zero disables the discount.
	AnnualSupplyRate *decimal.Decimal
	// SecondPairStandardLens prices the lens of a second pair when the pair
	// did not capture its own standard lens price.
	SecondPairStandardLens decimal.Decimal
}

func (o Options) annualSupplyRate() decimal.Decimal {
	if o.AnnualSupplyRate == nil {
		return DefaultAnnualSupplyRate
	}
	return *o.AnnualSupplyRate
}

type layerState struct {
	subtotal   decimal.Decimal
	discounts  decimal.Decimal
	items      []benefits.LineItem
	incomplete bool
}

// Compute prices a quote. It is a pure function of the quote and options:
// missing selections zero the affected layer and add a warning, nothing is
// ever returned as an error.
func Compute(q quote.Quote, opts Options) quote.Breakdown {
	var warnings types.QuoteWarnings
	var discounts []quote.DiscountApplication

	exam := examLayer(q.Exam)
	eyeglasses, w := eyeglassesLayer(q.Eyeglasses)
	warnings = append(warnings, w...)
	contacts, contactDiscounts, w := contactsLayer(q.Contacts, opts)
	warnings = append(warnings, w...)
	discounts = append(discounts, contactDiscounts...)

	plan := q.Insurance.EffectivePlan()
	items := make([]benefits.LineItem, 0, len(exam.items)+len(eyeglasses.items)+len(contacts.items))
	items = append(items, exam.items...)
	items = append(items, eyeglasses.items...)
	items = append(items, contacts.items...)
	allocation := benefits.Allocate(plan, items, q.Insurance.PriorUsage)
	warnings = append(warnings, allocation.Warnings...)

	secondPair, secondPairDiscount, w := secondPairAmount(q.Eyeglasses, opts)
	warnings = append(warnings, w...)
	if secondPairDiscount != nil {
		discounts = append(discounts, *secondPairDiscount)
	}

	states := map[enums.QuoteLayer]layerState{
		enums.LayerExam:       exam,
		enums.LayerEyeglasses: eyeglasses,
		enums.LayerContacts:   contacts,
	}

	out := quote.Breakdown{
		Carrier:   plan.Carrier,
		Layers:    make([]quote.LayerBreakdown, 0, len(enums.QuoteLayers)),
		Discounts: discounts,
		Benefits:  allocation.Usage,
		TaxRate:   opts.TaxRate,
		Warnings:  warnings,
	}
	out.Subtotal = decimal.Zero
	out.TotalDiscounts = decimal.Zero
	out.InsuranceCoverage = decimal.Zero
	out.PatientResponsibility = decimal.Zero

	for _, layer := range enums.QuoteLayers {
		st := states[layer]
		discounted := decimal.Max(st.subtotal.Sub(st.discounts), decimal.Zero)
		coverage := decimal.Zero
		for _, category := range layer.BenefitCategories() {
			coverage = coverage.Add(allocation.Coverage(category))
		}
		coverage = decimal.Min(coverage, discounted)
		lb := quote.LayerBreakdown{
			Layer:                 layer,
			Subtotal:              st.subtotal,
			Discounts:             st.discounts,
			DiscountedSubtotal:    discounted,
			Coverage:              coverage,
			SecondPair:            decimal.Zero,
			PatientResponsibility: decimal.Max(discounted.Sub(coverage), decimal.Zero),
			Incomplete:            st.incomplete,
		}
		if layer == enums.LayerEyeglasses {
			lb.SecondPair = secondPair
			lb.PatientResponsibility = lb.PatientResponsibility.Add(secondPair)
		}
		out.Layers = append(out.Layers, lb)
		out.Subtotal = out.Subtotal.Add(lb.Subtotal)
		out.TotalDiscounts = out.TotalDiscounts.Add(lb.Discounts)
		out.InsuranceCoverage = out.InsuranceCoverage.Add(lb.Coverage)
		out.PatientResponsibility = out.PatientResponsibility.Add(lb.PatientResponsibility)
	}
	if secondPairDiscount != nil {
		out.TotalDiscounts = out.TotalDiscounts.Add(secondPairDiscount.Amount)
	}

	out.Tax = out.PatientResponsibility.Mul(opts.TaxRate)
	out.GrandTotal = out.PatientResponsibility.Add(out.Tax)
	return out
}

func examLayer(l quote.ExamLayer) layerState {
	st := layerState{subtotal: decimal.Zero, discounts: decimal.Zero}
	for _, svc := range l.Services {
		st.subtotal = st.subtotal.Add(svc.Price)
		st.items = append(st.items, benefits.LineItem{
			ID:                svc.ProductID,
			Category:          enums.BenefitExam,
			Description:       svc.Name,
			UnitPrice:         svc.Price,
			Quantity:          1,
			InsuranceEligible: true,
			Tier:              svc.Tier,
		})
	}
	return st
}

func eyeglassesLayer(l quote.EyeglassesLayer) (layerState, types.QuoteWarnings) {
	st := layerState{subtotal: decimal.Zero, discounts: decimal.Zero}
	hasFirstPair := l.Frame != nil || l.PatientOwnedFrame || l.LensType != nil || l.Material != nil || len(l.Enhancements) > 0
	if !hasFirstPair {
		return st, nil
	}
	if missing := l.Missing(); len(missing) > 0 {
		st.incomplete = true
		return st, types.QuoteWarnings{incomplete(enums.LayerEyeglasses, missing)}
	}
	st.items = l.LineItems()
	for _, item := range st.items {
		st.subtotal = st.subtotal.Add(item.Total())
	}
	return st, nil
}

// contactsLayer applies the pre-insurance discounts: annual supply first,
// then the manufacturer rebate. The allocator sees the discounted price.
func contactsLayer(l quote.ContactsLayer, opts Options) (layerState, []quote.DiscountApplication, types.QuoteWarnings) {
	st := layerState{subtotal: decimal.Zero, discounts: decimal.Zero}
	if l.IsEmpty() {
		return st, nil, nil
	}
	if missing := l.Missing(); len(missing) > 0 {
		st.incomplete = true
		return st, nil, types.QuoteWarnings{incomplete(enums.LayerContacts, missing)}
	}

	base := l.Product.Price
	qty := decimal.NewFromInt(int64(l.Boxes))
	st.subtotal = base.Mul(qty)

	var applied []quote.DiscountApplication
	remaining := st.subtotal
	if rate := opts.annualSupplyRate(); l.AnnualSupply && rate.IsPositive() {
		amount := decimal.Min(base.Mul(qty).Mul(rate), remaining)
		remaining = remaining.Sub(amount)
		applied = append(applied, discount(enums.DiscountAnnualSupply, enums.LayerContacts, amount, "Annual supply"))
	}
	if l.ManufacturerRebate.IsPositive() {
		amount := decimal.Min(l.ManufacturerRebate, remaining)
		remaining = remaining.Sub(amount)
		applied = append(applied, discount(enums.DiscountManufacturerRebate, enums.LayerContacts, amount, "Manufacturer rebate"))
	}
	st.discounts = st.subtotal.Sub(remaining)

	// One unit at the discounted subtotal; a per-box price could leave a
	// division remainder.
	if item, ok := l.LineItem(remaining); ok {
		item.Quantity = 1
		st.items = append(st.items, item)
	}
	return st, applied, nil
}

// secondPairAmount prices the second pair on its own subtotal. Insurance is
// never applied to it.
func secondPairAmount(l quote.EyeglassesLayer, opts Options) (decimal.Decimal, *quote.DiscountApplication, types.QuoteWarnings) {
	sp := l.SecondPair
	if sp == nil {
		return decimal.Zero, nil, nil
	}
	if sp.Frame == nil {
		return decimal.Zero, nil, types.QuoteWarnings{incomplete(enums.LayerEyeglasses, []string{"second pair frame"})}
	}
	lens := sp.StandardLensPrice
	if lens.IsZero() {
		lens = opts.SecondPairStandardLens
	}
	subtotal := sp.Frame.Price.Add(lens)
	percent := decimal.Min(decimal.Max(sp.DiscountPercent, decimal.Zero), hundred)
	if !percent.IsPositive() {
		return subtotal, nil, nil
	}
	amount := subtotal.Mul(percent).Div(hundred)
	da := discount(enums.DiscountSecondPair, enums.LayerEyeglasses, amount, fmt.Sprintf("Second pair %s%% off", percent.String()))
	return subtotal.Sub(amount), &da, nil
}

func discount(kind enums.DiscountKind, layer enums.QuoteLayer, amount decimal.Decimal, label string) quote.DiscountApplication {
	return quote.DiscountApplication{Kind: kind, Rank: kind.Rank(), Layer: layer, Amount: amount, Label: label}
}

func incomplete(layer enums.QuoteLayer, missing []string) types.QuoteWarning {
	w := types.NewQuoteWarning(enums.QuoteWarningIncompleteSelection,
		fmt.Sprintf("%s layer is missing %s", layer, strings.Join(missing, ", ")))
	w.Layer = layer.String()
	return w
}
