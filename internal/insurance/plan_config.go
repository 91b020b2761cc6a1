package insurance

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// planConfig is the JSON stored in insurance_plans.config:
//
//	{"benefits": {"frame": {"allowance": "150"}, "exam": {"copay": "10"}}}
type planConfig struct {
	Benefits map[string]struct {
		Allowance decimal.Decimal `json:"allowance"`
		Copay     decimal.Decimal `json:"copay"`
	} `json:"benefits"`
}

// droppedEntry is a config key or tier code the plan was loaded without.
type droppedEntry struct {
	Field string
	Value string
}

// toPlan maps a stored row to plan terms. Unknown benefit categories and
// unmapped tier codes are dropped and reported so the remaining terms still
// apply; malformed JSON and negative terms fail the plan.
func toPlan(row models.InsurancePlan) (benefits.InsurancePlan, []droppedEntry, error) {
	var cfg planConfig
	if len(row.Config) > 0 {
		if err := json.Unmarshal(row.Config, &cfg); err != nil {
			return benefits.InsurancePlan{}, nil, fmt.Errorf("decode plan config: %w", err)
		}
	}

	plan := benefits.InsurancePlan{
		Carrier:   row.Carrier,
		PlanName:  row.PlanName,
		Frequency: row.Frequency,
		Benefits:  make(map[enums.BenefitCategory]benefits.CategoryBenefit, len(cfg.Benefits)),
	}
	if !plan.Frequency.IsValid() {
		plan.Frequency = enums.BenefitFrequencyAnnual
	}

	var dropped []droppedEntry
	for key, terms := range cfg.Benefits {
		category, err := enums.ParseBenefitCategory(key)
		if err != nil {
			dropped = append(dropped, droppedEntry{Field: "benefit_category", Value: key})
			continue
		}
		if terms.Allowance.IsNegative() || terms.Copay.IsNegative() {
			return benefits.InsurancePlan{}, nil, fmt.Errorf("plan %s/%s: negative terms for %s", row.Carrier, row.PlanName, key)
		}
		plan.Benefits[category] = benefits.CategoryBenefit{Allowance: terms.Allowance, Copay: terms.Copay}
	}

	for _, code := range row.CoveredTiers {
		tier, err := enums.ParseCarrierTier(row.Carrier, code)
		if err != nil {
			dropped = append(dropped, droppedEntry{Field: "tier_code", Value: code})
			continue
		}
		plan.CoveredTiers = append(plan.CoveredTiers, tier)
	}
	sort.Slice(dropped, func(i, j int) bool {
		if dropped[i].Field != dropped[j].Field {
			return dropped[i].Field < dropped[j].Field
		}
		return dropped[i].Value < dropped[j].Value
	})
	return plan, dropped, nil
}
