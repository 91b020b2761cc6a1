package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
)

// InsurancePlan is carrier reference data. Config holds the per-category
// allowance and copay amounts as a JSON blob; CoveredTiers holds
// carrier-specific codes ("tier1", "cat2", "level3").
type InsurancePlan struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Carrier      enums.Carrier          `gorm:"column:carrier;not null"`
	PlanName     string                 `gorm:"column:plan_name;not null"`
	Frequency    enums.BenefitFrequency `gorm:"column:frequency;not null;default:'annual'"`
	CoveredTiers pq.StringArray         `gorm:"column:covered_tiers;type:text[]"`
	Config       json.RawMessage        `gorm:"column:config;type:jsonb;not null"`
	IsActive     bool                   `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (InsurancePlan) TableName() string { return "insurance_plans" }
