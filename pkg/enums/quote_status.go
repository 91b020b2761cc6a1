package enums

import "fmt"

// QuoteStatus tracks where a quote sits in its lifecycle.
type QuoteStatus string

const (
	QuoteStatusBuilding  QuoteStatus = "building"
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusPresented QuoteStatus = "presented"
	QuoteStatusSigned    QuoteStatus = "signed"
	QuoteStatusCompleted QuoteStatus = "completed"
	QuoteStatusCancelled QuoteStatus = "cancelled"
	QuoteStatusExpired   QuoteStatus = "expired"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusBuilding,
	QuoteStatusDraft,
	QuoteStatusPresented,
	QuoteStatusSigned,
	QuoteStatusCompleted,
	QuoteStatusCancelled,
	QuoteStatusExpired,
}

// String implements fmt.Stringer.
func (s QuoteStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known QuoteStatus.
func (s QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s QuoteStatus) IsTerminal() bool {
	switch s {
	case QuoteStatusCompleted, QuoteStatusCancelled, QuoteStatusExpired:
		return true
	}
	return false
}

// IsEditable reports whether layer selections may still change.
func (s QuoteStatus) IsEditable() bool {
	return s == QuoteStatusBuilding || s == QuoteStatusDraft
}

// IsPricingFrozen reports whether the pricing snapshot is immutable.
func (s QuoteStatus) IsPricingFrozen() bool {
	switch s {
	case QuoteStatusPresented, QuoteStatusSigned, QuoteStatusCompleted:
		return true
	}
	return false
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}
