package enums

import "fmt"

// BenefitCategory groups line items under a single insurance allowance.
type BenefitCategory string

const (
	BenefitFrame       BenefitCategory = "frame"
	BenefitLens        BenefitCategory = "lens"
	BenefitEnhancement BenefitCategory = "enhancement"
	BenefitExam        BenefitCategory = "exam"
	BenefitContacts    BenefitCategory = "contacts"
)

// BenefitCategories lists every category in allocation order.
var BenefitCategories = []BenefitCategory{
	BenefitFrame,
	BenefitLens,
	BenefitEnhancement,
	BenefitExam,
	BenefitContacts,
}

// String implements fmt.Stringer.
func (c BenefitCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BenefitCategory.
func (c BenefitCategory) IsValid() bool {
	for _, candidate := range BenefitCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBenefitCategory converts raw input into a BenefitCategory.
func ParseBenefitCategory(value string) (BenefitCategory, error) {
	for _, candidate := range BenefitCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid benefit category %q", value)
}

// BenefitFrequency describes how often plan allowances renew.
type BenefitFrequency string

const (
	BenefitFrequencyAnnual   BenefitFrequency = "annual"
	BenefitFrequencyBiennial BenefitFrequency = "biennial"
)

var validBenefitFrequencies = []BenefitFrequency{
	BenefitFrequencyAnnual,
	BenefitFrequencyBiennial,
}

// IsValid reports whether the value is a known BenefitFrequency.
func (f BenefitFrequency) IsValid() bool {
	for _, candidate := range validBenefitFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseBenefitFrequency converts raw input into a BenefitFrequency. Empty input
// defaults to annual.
func ParseBenefitFrequency(value string) (BenefitFrequency, error) {
	if value == "" {
		return BenefitFrequencyAnnual, nil
	}
	for _, candidate := range validBenefitFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid benefit frequency %q", value)
}
