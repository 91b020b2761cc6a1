package benefits

import (
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CategoryBenefit is what a plan pays toward one benefit category.
// Exam uses Copay; the other categories use Allowance. A zero exam Allowance
// means the exam coverage is uncapped.
type CategoryBenefit struct {
	Allowance decimal.Decimal `json:"allowance"`
	Copay     decimal.Decimal `json:"copay"`
}

// InsurancePlan is carrier reference data loaded once per quote.
type InsurancePlan struct {
	Carrier      enums.Carrier                             `json:"carrier"`
	PlanName     string                                    `json:"planName"`
	Benefits     map[enums.BenefitCategory]CategoryBenefit `json:"benefits"`
	Frequency    enums.BenefitFrequency                    `json:"frequency"`
	CoveredTiers []enums.FormularyTier                     `json:"coveredTiers,omitempty"`
}

// CashPay is the plan used when the patient has no insurance.
func CashPay() InsurancePlan {
	return InsurancePlan{Carrier: enums.CarrierNone, Frequency: enums.BenefitFrequencyAnnual}
}

// Clone copies the plan including its benefit map and tier list.
func (p InsurancePlan) Clone() InsurancePlan {
	out := p
	if p.Benefits != nil {
		out.Benefits = make(map[enums.BenefitCategory]CategoryBenefit, len(p.Benefits))
		for k, v := range p.Benefits {
			out.Benefits[k] = v
		}
	}
	if p.CoveredTiers != nil {
		out.CoveredTiers = append([]enums.FormularyTier(nil), p.CoveredTiers...)
	}
	return out
}

// IsCashPay reports whether the plan carries no coverage at all.
func (p InsurancePlan) IsCashPay() bool {
	return p.Carrier.IsCashPay()
}

// Benefit returns the plan terms for a category and whether the plan lists it.
func (p InsurancePlan) Benefit(category enums.BenefitCategory) (CategoryBenefit, bool) {
	if p.Benefits == nil {
		return CategoryBenefit{}, false
	}
	b, ok := p.Benefits[category]
	return b, ok
}

// CoversTier reports whether products of the given formulary tier are
// eligible. Plans without a tier list cover every tier, and untiered
// products are always eligible.
func (p InsurancePlan) CoversTier(tier enums.FormularyTier) bool {
	if tier == "" || len(p.CoveredTiers) == 0 {
		return true
	}
	for _, covered := range p.CoveredTiers {
		if covered == tier {
			return true
		}
	}
	return false
}

// PriorUsage is the allowance already consumed this benefit period, per
// category. Missing categories count as zero.
type PriorUsage map[enums.BenefitCategory]decimal.Decimal

func (u PriorUsage) of(category enums.BenefitCategory) decimal.Decimal {
	if u == nil {
		return decimal.Zero
	}
	if v, ok := u[category]; ok && v.IsPositive() {
		return v
	}
	return decimal.Zero
}
