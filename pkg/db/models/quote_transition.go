package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
)

// QuoteTransition is the append-only status history with the pricing
// snapshot taken at each transition.
type QuoteTransition struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	QuoteID    uuid.UUID         `gorm:"column:quote_id;type:uuid;not null"`
	FromStatus enums.QuoteStatus `gorm:"column:from_status;type:quote_status;not null"`
	ToStatus   enums.QuoteStatus `gorm:"column:to_status;type:quote_status;not null"`
	Actor      *string           `gorm:"column:actor"`
	Reason     *string           `gorm:"column:reason"`
	Pricing    json.RawMessage   `gorm:"column:pricing;type:jsonb;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
}

func (QuoteTransition) TableName() string { return "quote_transitions" }
