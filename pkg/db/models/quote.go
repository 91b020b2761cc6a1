package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
)

// Quote persists the quote aggregate. Layers, signatures and the pricing
// snapshot are stored as JSONB sub-documents so each layer update replaces
// one column.
type Quote struct {
	ID                 uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	Status             enums.QuoteStatus         `gorm:"column:status;type:quote_status;not null"`
	Version            int                       `gorm:"column:version;not null;default:1"`
	StaffID            *string                   `gorm:"column:staff_id"`
	PatientFirstName   string                    `gorm:"column:patient_first_name;not null;default:''"`
	PatientLastName    string                    `gorm:"column:patient_last_name;not null;default:''"`
	PatientEmail       *string                   `gorm:"column:patient_email"`
	Patient            json.RawMessage           `gorm:"column:patient;type:jsonb;not null"`
	Carrier            enums.Carrier             `gorm:"column:carrier;not null;default:'none'"`
	PlanName           *string                   `gorm:"column:plan_name"`
	Insurance          json.RawMessage           `gorm:"column:insurance;type:jsonb;not null"`
	Exam               json.RawMessage           `gorm:"column:exam;type:jsonb;not null"`
	Eyeglasses         json.RawMessage           `gorm:"column:eyeglasses;type:jsonb;not null"`
	Contacts           json.RawMessage           `gorm:"column:contacts;type:jsonb;not null"`
	PresentationMethod *enums.PresentationMethod `gorm:"column:presentation_method"`
	Signatures         json.RawMessage           `gorm:"column:signatures;type:jsonb"`
	CancellationReason *string                   `gorm:"column:cancellation_reason"`
	Pricing            json.RawMessage           `gorm:"column:pricing;type:jsonb"`
	GrandTotalCents    *int64                    `gorm:"column:grand_total_cents"`
	ExpiresAt          *time.Time                `gorm:"column:expires_at"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (Quote) TableName() string { return "quotes" }
