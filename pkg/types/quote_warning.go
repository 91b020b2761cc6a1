package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
)

// QuoteWarning is a non-fatal condition raised while pricing or transitioning
// a quote.
type QuoteWarning struct {
	Type      enums.QuoteWarningType `json:"type"`
	Message   string                 `json:"message"`
	Layer     string                 `json:"layer,omitempty"`
	Category  string                 `json:"category,omitempty"`
	Retryable bool                   `json:"retryable,omitempty"`
}

// NewQuoteWarning builds a warning with Retryable derived from its type.
func NewQuoteWarning(kind enums.QuoteWarningType, message string) QuoteWarning {
	return QuoteWarning{Type: kind, Message: message, Retryable: kind.Retryable()}
}

// QuoteWarnings is a slice marshaled as JSONB.
type QuoteWarnings []QuoteWarning

// Has reports whether a warning of the given type is present.
func (w QuoteWarnings) Has(kind enums.QuoteWarningType) bool {
	for _, warning := range w {
		if warning.Type == kind {
			return true
		}
	}
	return false
}

// Value serializes the warnings to JSON.
func (w QuoteWarnings) Value() (driver.Value, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(w)
}

// Scan decodes JSONB into the warning slice.
func (w *QuoteWarnings) Scan(value interface{}) error {
	if value == nil {
		*w = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded QuoteWarnings
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*w = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
