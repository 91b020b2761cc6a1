package enums

import "fmt"

// QuoteLayer names a priced section of a quote.
type QuoteLayer string

const (
	LayerExam       QuoteLayer = "exam"
	LayerEyeglasses QuoteLayer = "eyeglasses"
	LayerContacts   QuoteLayer = "contacts"
)

// QuoteLayers lists the priced layers in display order.
var QuoteLayers = []QuoteLayer{LayerExam, LayerEyeglasses, LayerContacts}

// String implements fmt.Stringer.
func (l QuoteLayer) String() string {
	return string(l)
}

// IsValid reports whether the value is known.
func (l QuoteLayer) IsValid() bool {
	for _, candidate := range QuoteLayers {
		if candidate == l {
			return true
		}
	}
	return false
}

// BenefitCategories returns the insurance categories a layer draws from.
func (l QuoteLayer) BenefitCategories() []BenefitCategory {
	switch l {
	case LayerExam:
		return []BenefitCategory{BenefitExam}
	case LayerEyeglasses:
		return []BenefitCategory{BenefitFrame, BenefitLens, BenefitEnhancement}
	case LayerContacts:
		return []BenefitCategory{BenefitContacts}
	default:
		return nil
	}
}

// ParseQuoteLayer converts raw input into a QuoteLayer.
func ParseQuoteLayer(value string) (QuoteLayer, error) {
	for _, candidate := range QuoteLayers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote layer %q", value)
}
