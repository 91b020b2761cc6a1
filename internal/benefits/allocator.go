package benefits

import (
	"fmt"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// BenefitUsage is the outcome of applying one category's benefit.
type BenefitUsage struct {
	Category   enums.BenefitCategory `json:"category"`
	ItemPrice  decimal.Decimal       `json:"itemPrice"`
	Allowance  decimal.Decimal       `json:"allowance"`
	Copay      decimal.Decimal       `json:"copay"`
	PriorUsage decimal.Decimal       `json:"priorUsage"`
	Coverage   decimal.Decimal       `json:"coverage"`
	Remaining  decimal.Decimal       `json:"remaining"`
}

// PatientPays is the part of the category price insurance leaves behind.
func (u BenefitUsage) PatientPays() decimal.Decimal {
	return decimal.Max(u.ItemPrice.Sub(u.Coverage), decimal.Zero)
}

// Allocation is the full result of one allocation pass.
type Allocation struct {
	Usage    []BenefitUsage      `json:"usage"`
	Warnings types.QuoteWarnings `json:"warnings,omitempty"`
}

// Coverage returns the covered amount for a category.
func (a Allocation) Coverage(category enums.BenefitCategory) decimal.Decimal {
	for _, u := range a.Usage {
		if u.Category == category {
			return u.Coverage
		}
	}
	return decimal.Zero
}

// TotalCoverage sums coverage across every category.
func (a Allocation) TotalCoverage() decimal.Decimal {
	total := decimal.Zero
	for _, u := range a.Usage {
		total = total.Add(u.Coverage)
	}
	return total
}

// Allocate applies plan benefits to the eligible line items. It never fails:
// categories the plan does not list are uncovered and reported as warnings.
func Allocate(plan InsurancePlan, items []LineItem, prior PriorUsage) Allocation {
	prices := eligiblePrices(plan, items)

	usage := make([]BenefitUsage, 0, len(enums.BenefitCategories))
	var warnings types.QuoteWarnings
	for _, category := range enums.BenefitCategories {
		price := prices[category]
		u := BenefitUsage{
			Category:   category,
			ItemPrice:  price,
			PriorUsage: prior.of(category),
			Coverage:   decimal.Zero,
		}

		if plan.IsCashPay() {
			usage = append(usage, u)
			continue
		}

		benefit, listed := plan.Benefit(category)
		if !listed {
			if price.IsPositive() {
				w := types.NewQuoteWarning(enums.QuoteWarningUnknownBenefitCategory,
					fmt.Sprintf("%s plan %q has no %s benefit", plan.Carrier, plan.PlanName, category))
				w.Category = category.String()
				warnings = append(warnings, w)
			}
			usage = append(usage, u)
			continue
		}

		u.Allowance = benefit.Allowance
		u.Copay = benefit.Copay
		if category == enums.BenefitExam {
			u.Coverage, u.Remaining = examCoverage(price, benefit, u.PriorUsage)
		} else {
			u.Coverage, u.Remaining = allowanceCoverage(price, benefit.Allowance, u.PriorUsage)
		}
		usage = append(usage, u)
	}

	return Allocation{Usage: usage, Warnings: warnings}
}

func eligiblePrices(plan InsurancePlan, items []LineItem) map[enums.BenefitCategory]decimal.Decimal {
	prices := make(map[enums.BenefitCategory]decimal.Decimal, len(enums.BenefitCategories))
	for _, category := range enums.BenefitCategories {
		prices[category] = decimal.Zero
	}
	for _, item := range items {
		if !item.InsuranceEligible || !item.Category.IsValid() {
			continue
		}
		if !plan.CoversTier(item.Tier) {
			continue
		}
		total := item.Total()
		if total.IsNegative() {
			continue
		}
		prices[item.Category] = prices[item.Category].Add(total)
	}
	return prices
}

func allowanceCoverage(price, allowance, prior decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	remaining := decimal.Max(allowance.Sub(prior), decimal.Zero)
	coverage := decimal.Min(price, remaining)
	return coverage, remaining.Sub(coverage)
}

// examCoverage: the patient pays the copay, the plan pays the rest, never
// more than the price and never more than a non-zero exam allowance.
func examCoverage(price decimal.Decimal, benefit CategoryBenefit, prior decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if !price.IsPositive() {
		return decimal.Zero, decimal.Max(benefit.Allowance.Sub(prior), decimal.Zero)
	}
	coverage := clamp(price.Sub(benefit.Copay), decimal.Zero, price)
	if !benefit.Allowance.IsPositive() {
		return coverage, decimal.Zero
	}
	remaining := decimal.Max(benefit.Allowance.Sub(prior), decimal.Zero)
	coverage = decimal.Min(coverage, remaining)
	return coverage, remaining.Sub(coverage)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}
