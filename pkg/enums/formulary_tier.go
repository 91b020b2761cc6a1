package enums

import (
	"fmt"
	"strings"
)

// FormularyTier is the carrier-neutral price level of a lens option or coating.
type FormularyTier string

const (
	FormularyTier1 FormularyTier = "tier_1"
	FormularyTier2 FormularyTier = "tier_2"
	FormularyTier3 FormularyTier = "tier_3"
	FormularyTier4 FormularyTier = "tier_4"
)

var validFormularyTiers = []FormularyTier{
	FormularyTier1,
	FormularyTier2,
	FormularyTier3,
	FormularyTier4,
}

// carrierTierCodes maps each carrier's own tier vocabulary onto canonical tiers.
var carrierTierCodes = map[Carrier]map[string]FormularyTier{
	CarrierVSP: {
		"tier1": FormularyTier1,
		"tier2": FormularyTier2,
		"tier3": FormularyTier3,
		"tier4": FormularyTier4,
	},
	CarrierEyeMed: {
		"cat1": FormularyTier1,
		"cat2": FormularyTier2,
		"cat3": FormularyTier3,
		"cat4": FormularyTier4,
	},
	CarrierSpectera: {
		"level1": FormularyTier1,
		"level2": FormularyTier2,
		"level3": FormularyTier3,
		"level4": FormularyTier4,
	},
}

// IsValid reports whether the value is a known FormularyTier.
func (t FormularyTier) IsValid() bool {
	for _, candidate := range validFormularyTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseFormularyTier converts a canonical tier value.
func ParseFormularyTier(value string) (FormularyTier, error) {
	for _, candidate := range validFormularyTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid formulary tier %q", value)
}

// ParseCarrierTier resolves a carrier-specific tier code ("tier2", "cat3", ...).
// Canonical values are accepted for every carrier.
func ParseCarrierTier(carrier Carrier, code string) (FormularyTier, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if tier, err := ParseFormularyTier(normalized); err == nil {
		return tier, nil
	}
	table, ok := carrierTierCodes[carrier]
	if !ok {
		return "", fmt.Errorf("carrier %q has no tier table", carrier)
	}
	tier, ok := table[normalized]
	if !ok {
		return "", fmt.Errorf("unknown %s tier code %q", carrier, code)
	}
	return tier, nil
}
