package quotes

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// errStaleVersion is returned by Save when the row moved past the expected
// version.
var errStaleVersion = errors.New("quote version is stale")

// Repository persists quotes and their transition history.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, q *models.Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var q models.Quote
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// Save writes every mutable column when the stored version still equals
// expectedVersion. The caller sets q.Version to the next version.
func (r *Repository) Save(ctx context.Context, q *models.Quote, expectedVersion int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("id = ? AND version = ?", q.ID, expectedVersion).
		Updates(map[string]any{
			"status":              q.Status,
			"version":             q.Version,
			"staff_id":            q.StaffID,
			"patient_first_name":  q.PatientFirstName,
			"patient_last_name":   q.PatientLastName,
			"patient_email":       q.PatientEmail,
			"patient":             q.Patient,
			"carrier":             q.Carrier,
			"plan_name":           q.PlanName,
			"insurance":           q.Insurance,
			"exam":                q.Exam,
			"eyeglasses":          q.Eyeglasses,
			"contacts":            q.Contacts,
			"presentation_method": q.PresentationMethod,
			"signatures":          q.Signatures,
			"cancellation_reason": q.CancellationReason,
			"pricing":             q.Pricing,
			"grand_total_cents":   q.GrandTotalCents,
			"expires_at":          q.ExpiresAt,
			"updated_at":          q.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStaleVersion
	}
	return nil
}

func (r *Repository) InsertTransition(ctx context.Context, t *models.QuoteTransition) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListTransitions returns the status history oldest first.
func (r *Repository) ListTransitions(ctx context.Context, quoteID uuid.UUID) ([]models.QuoteTransition, error) {
	var rows []models.QuoteTransition
	err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListExpirable returns ids of draft or presented quotes whose expiresAt is
// at or before now.
func (r *Repository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	q := r.db.WithContext(ctx).
		Model(&models.Quote{}).
		Where("status IN ?", []enums.QuoteStatus{enums.QuoteStatusDraft, enums.QuoteStatusPresented}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Order("expires_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
