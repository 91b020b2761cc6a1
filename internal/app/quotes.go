// Package app assembles the quote service graph shared by the binaries.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/opticalquote-backend/internal/catalog"
	"github.com/angelmondragon/opticalquote-backend/internal/insurance"
	"github.com/angelmondragon/opticalquote-backend/internal/pricing"
	"github.com/angelmondragon/opticalquote-backend/internal/quotes"
	"github.com/angelmondragon/opticalquote-backend/pkg/config"
	"github.com/angelmondragon/opticalquote-backend/pkg/db"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/metrics"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox"
	"github.com/angelmondragon/opticalquote-backend/pkg/redis"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
)

type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Registry prometheus.Registerer
}

// QuoteStack is the wired quote service and the collaborators the API
// exposes directly.
type QuoteStack struct {
	Quotes  *quotes.Service
	Catalog *catalog.Service
	Plans   *insurance.Service
	Outbox  *outbox.Repository
}

// PricingOptions maps the pricing config onto the engine's options.
func PricingOptions(cfg config.PricingConfig) pricing.Options {
	annualSupply := cfg.AnnualSupplyRateDecimal()
	return pricing.Options{
		TaxRate:                cfg.TaxRateDecimal(),
		AnnualSupplyRate:       &annualSupply,
		SecondPairStandardLens: types.CentsToDollars(cfg.SecondPairLensCents),
	}
}

func NewQuoteStack(deps Deps) (*QuoteStack, error) {
	if deps.Config == nil || deps.Logger == nil || deps.DB == nil {
		return nil, fmt.Errorf("config, logger and db are required")
	}
	cfg := deps.Config

	catalogSvc, err := catalog.NewService(catalog.NewRepository(deps.DB.DB()))
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	planParams := insurance.ServiceParams{
		Repo:   insurance.NewRepository(deps.DB.DB()),
		TTL:    cfg.Quotes.PlanTTL,
		Logger: deps.Logger,
	}
	if deps.Redis != nil {
		planParams.Cache = deps.Redis
	}
	planSvc, err := insurance.NewService(planParams)
	if err != nil {
		return nil, fmt.Errorf("insurance service: %w", err)
	}

	outboxRepo := outbox.NewRepository(deps.DB.DB())
	params := quotes.ServiceParams{
		Tx:      deps.DB,
		Repo:    quotes.NewRepository(deps.DB.DB()),
		Catalog: catalogSvc,
		Plans:   planSvc,
		Outbox:  outbox.NewService(outboxRepo, deps.Logger),
		Pricing: PricingOptions(cfg.Pricing),
		POFFee:  types.CentsToDollars(cfg.Pricing.POFFeeCents),
		TTL:     cfg.Quotes.TTL,
		LockTTL: cfg.Quotes.LockTTL,
		Logger:  deps.Logger,
		Metrics: metrics.NewQuoteMetrics(deps.Registry),
	}
	if deps.Redis != nil {
		params.Locks = deps.Redis
	}
	quoteSvc, err := quotes.NewService(params)
	if err != nil {
		return nil, fmt.Errorf("quote service: %w", err)
	}

	return &QuoteStack{
		Quotes:  quoteSvc,
		Catalog: catalogSvc,
		Plans:   planSvc,
		Outbox:  outboxRepo,
	}, nil
}
