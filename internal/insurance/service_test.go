package insurance

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/opticalquote-backend/pkg/db/dbtest"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryCache struct {
	data map[string]string
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	}
	return nil
}

func (c *memoryCache) CacheKey(parts ...string) string {
	return "oq:cache:" + strings.Join(parts, ":")
}

func seedPlan(t *testing.T, db *gorm.DB, carrier enums.Carrier, name string, tiers []string, config string) {
	t.Helper()
	row := models.InsurancePlan{
		ID:           uuid.New(),
		Carrier:      carrier,
		PlanName:     name,
		Frequency:    enums.BenefitFrequencyAnnual,
		CoveredTiers: pq.StringArray(tiers),
		Config:       json.RawMessage(config),
		IsActive:     true,
	}
	require.NoError(t, db.Create(&row).Error)
}

func newService(t *testing.T, cache PlanCache) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	svc, err := NewService(ServiceParams{Repo: NewRepository(db), Cache: cache})
	require.NoError(t, err)
	return svc, db
}

func TestGetPlanMapsConfigAndCarrierTiers(t *testing.T) {
	svc, db := newService(t, nil)
	seedPlan(t, db, enums.CarrierEyeMed, "Access", []string{"cat1", "cat2"},
		`{"benefits":{"frame":{"allowance":"130"},"exam":{"copay":"10"},"contacts":{"allowance":130}}}`)

	plan, err := svc.GetPlan(context.Background(), enums.CarrierEyeMed, "access")
	require.NoError(t, err)
	require.Equal(t, "Access", plan.PlanName)
	require.Equal(t, []enums.FormularyTier{enums.FormularyTier1, enums.FormularyTier2}, plan.CoveredTiers)

	frame, ok := plan.Benefit(enums.BenefitFrame)
	require.True(t, ok)
	require.True(t, frame.Allowance.Equal(decimal.NewFromInt(130)))

	exam, ok := plan.Benefit(enums.BenefitExam)
	require.True(t, ok)
	require.True(t, exam.Copay.Equal(decimal.NewFromInt(10)))
	require.True(t, plan.CoversTier(enums.FormularyTier2))
	require.False(t, plan.CoversTier(enums.FormularyTier3))
}

func TestGetPlanCashPaySkipsStorage(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: failingReader{}})
	require.NoError(t, err)

	plan, err := svc.GetPlan(context.Background(), enums.CarrierNone, "")
	require.NoError(t, err)
	require.True(t, plan.IsCashPay())
}

func TestGetPlanNotFound(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.GetPlan(context.Background(), enums.CarrierVSP, "Choice")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGetPlanDropsUnknownEntries(t *testing.T) {
	var logs bytes.Buffer
	db := dbtest.Open(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Logger: logger.New(logger.Options{Output: &logs, Format: "json"}),
	})
	require.NoError(t, err)
	seedPlan(t, db, enums.CarrierVSP, "Choice", []string{"tier1", "cat2"},
		`{"benefits":{"frame":{"allowance":"200"},"sunglasses":{"allowance":"50"}}}`)

	plan, err := svc.GetPlan(context.Background(), enums.CarrierVSP, "Choice")
	require.NoError(t, err)
	frame, ok := plan.Benefit(enums.BenefitFrame)
	require.True(t, ok)
	require.True(t, frame.Allowance.Equal(decimal.NewFromInt(200)))
	require.Len(t, plan.Benefits, 1)
	require.Equal(t, []enums.FormularyTier{enums.FormularyTier1}, plan.CoveredTiers)

	require.Contains(t, logs.String(), "ignoring unknown insurance plan entry")
	require.Contains(t, logs.String(), `"value":"sunglasses"`)
	require.Contains(t, logs.String(), `"value":"cat2"`)
}

func TestGetPlanRejectsMalformedConfig(t *testing.T) {
	svc, db := newService(t, nil)
	seedPlan(t, db, enums.CarrierVSP, "Broken", nil, `{"benefits":{"frame":{"allowance":"-5"}}}`)

	_, err := svc.GetPlan(context.Background(), enums.CarrierVSP, "Broken")
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestGetPlanUsesCache(t *testing.T) {
	cache := newMemoryCache()
	svc, db := newService(t, cache)
	seedPlan(t, db, enums.CarrierVSP, "Choice", []string{"tier1"}, `{"benefits":{"frame":{"allowance":"150"}}}`)

	first, err := svc.GetPlan(context.Background(), enums.CarrierVSP, "Choice")
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	require.NoError(t, db.Exec("DELETE FROM insurance_plans").Error)

	second, err := svc.GetPlan(context.Background(), enums.CarrierVSP, "Choice")
	require.NoError(t, err)
	require.Equal(t, first.PlanName, second.PlanName)
	frame, _ := second.Benefit(enums.BenefitFrame)
	require.True(t, frame.Allowance.Equal(decimal.NewFromInt(150)))
	require.Equal(t, []enums.FormularyTier{enums.FormularyTier1}, second.CoveredTiers)
}

func TestListPlansSkipsInvalidRows(t *testing.T) {
	svc, db := newService(t, nil)
	seedPlan(t, db, enums.CarrierSpectera, "Vision Plus", []string{"level2"}, `{"benefits":{"lens":{"allowance":"100"}}}`)
	seedPlan(t, db, enums.CarrierSpectera, "Broken", nil, `not json`)

	plans, err := svc.ListPlans(context.Background(), enums.CarrierSpectera)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, "Vision Plus", plans[0].PlanName)
}

type failingReader struct{}

func (failingReader) FindActive(context.Context, enums.Carrier, string) (*models.InsurancePlan, error) {
	panic("storage must not be used")
}

func (failingReader) ListActive(context.Context, enums.Carrier) ([]models.InsurancePlan, error) {
	panic("storage must not be used")
}
