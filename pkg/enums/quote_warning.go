package enums

import "fmt"

// QuoteWarningType enumerates the soft conditions reported alongside pricing
// and lifecycle results. None of them abort the operation.
type QuoteWarningType string

const (
	QuoteWarningIncompleteSelection    QuoteWarningType = "INCOMPLETE_SELECTION"
	QuoteWarningUnknownBenefitCategory QuoteWarningType = "UNKNOWN_BENEFIT_CATEGORY"
	QuoteWarningUnknownFormularyTier   QuoteWarningType = "UNKNOWN_FORMULARY_TIER"
	QuoteWarningInsuranceUnavailable   QuoteWarningType = "INSURANCE_UNAVAILABLE"
	QuoteWarningExternalServiceFailure QuoteWarningType = "EXTERNAL_SERVICE_FAILURE"
)

var validQuoteWarningTypes = []QuoteWarningType{
	QuoteWarningIncompleteSelection,
	QuoteWarningUnknownBenefitCategory,
	QuoteWarningUnknownFormularyTier,
	QuoteWarningInsuranceUnavailable,
	QuoteWarningExternalServiceFailure,
}

// String implements fmt.Stringer.
func (w QuoteWarningType) String() string {
	return string(w)
}

// IsValid reports whether the value is known.
func (w QuoteWarningType) IsValid() bool {
	for _, candidate := range validQuoteWarningTypes {
		if candidate == w {
			return true
		}
	}
	return false
}

// Retryable reports whether the caller may retry the underlying operation.
func (w QuoteWarningType) Retryable() bool {
	return w == QuoteWarningExternalServiceFailure || w == QuoteWarningInsuranceUnavailable
}

// ParseQuoteWarningType converts raw input into a QuoteWarningType.
func ParseQuoteWarningType(value string) (QuoteWarningType, error) {
	for _, candidate := range validQuoteWarningTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote warning type %q", value)
}
