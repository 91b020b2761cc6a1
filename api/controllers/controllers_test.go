package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/internal/catalog"
	"github.com/angelmondragon/opticalquote-backend/pkg/config"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), map[string]Pinger{"db": ok, "redis": ok})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, logger.Nop(), map[string]Pinger{"db": ok, "redis": down})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(&config.Config{App: config.AppConfig{Env: "prod"}})(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

type stubCatalog struct {
	category enums.ProductCategory
}

func (s *stubCatalog) List(_ context.Context, category enums.ProductCategory) ([]catalog.Product, error) {
	s.category = category
	return []catalog.Product{{ID: "p-1", Name: "Aviator", Category: category, Price: decimal.NewFromInt(150), Active: true}}, nil
}

func TestCatalogProducts(t *testing.T) {
	svc := &stubCatalog{}
	rec := httptest.NewRecorder()
	CatalogProducts(svc, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?category=frame", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.ProductCategoryFrame, svc.category)

	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "150", body.Data[0]["price"])

	rec = httptest.NewRecorder()
	CatalogProducts(svc, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?category=hats", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubPlans struct{}

func (stubPlans) ListPlans(_ context.Context, carrier enums.Carrier) ([]benefits.InsurancePlan, error) {
	return []benefits.InsurancePlan{{Carrier: carrier, PlanName: "Choice", Frequency: enums.BenefitFrequencyAnnual}}, nil
}

func TestInsurancePlansRequiresCarrier(t *testing.T) {
	rec := httptest.NewRecorder()
	InsurancePlans(stubPlans{}, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/insurance/plans", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	InsurancePlans(stubPlans{}, logger.Nop())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/insurance/plans?carrier=eyemed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
