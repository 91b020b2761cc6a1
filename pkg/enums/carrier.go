package enums

import (
	"fmt"
	"strings"
)

// Carrier identifies the vision insurance carrier backing a plan.
type Carrier string

const (
	CarrierNone     Carrier = "none"
	CarrierVSP      Carrier = "vsp"
	CarrierEyeMed   Carrier = "eyemed"
	CarrierSpectera Carrier = "spectera"
)

var validCarriers = []Carrier{
	CarrierNone,
	CarrierVSP,
	CarrierEyeMed,
	CarrierSpectera,
}

// String implements fmt.Stringer.
func (c Carrier) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Carrier.
func (c Carrier) IsValid() bool {
	for _, candidate := range validCarriers {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsCashPay reports whether the carrier represents self-pay.
func (c Carrier) IsCashPay() bool {
	return c == "" || c == CarrierNone
}

// ParseCarrier converts raw input into a Carrier. Matching is case-insensitive
// and an empty value maps to CarrierNone.
func ParseCarrier(value string) (Carrier, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return CarrierNone, nil
	}
	for _, candidate := range validCarriers {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid carrier %q", value)
}
