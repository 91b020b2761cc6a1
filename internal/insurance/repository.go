package insurance

import (
	"context"

	"github.com/angelmondragon/opticalquote-backend/internal/repo"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository reads insurance plan reference data.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindActive loads the active plan for a carrier by name (case-insensitive).
func (r *Repository) FindActive(ctx context.Context, carrier enums.Carrier, planName string) (*models.InsurancePlan, error) {
	var plan models.InsurancePlan
	err := r.DB(ctx).
		Where("carrier = ? AND LOWER(plan_name) = LOWER(?) AND is_active = ?", carrier, planName, true).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListActive returns every active plan of a carrier.
func (r *Repository) ListActive(ctx context.Context, carrier enums.Carrier) ([]models.InsurancePlan, error) {
	var plans []models.InsurancePlan
	err := r.DB(ctx).
		Where("carrier = ? AND is_active = ?", carrier, true).
		Order("plan_name ASC").
		Find(&plans).Error
	return plans, err
}
