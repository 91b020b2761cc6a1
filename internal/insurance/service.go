package insurance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/pkg/db"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/redis"
)

type planReader interface {
	FindActive(ctx context.Context, carrier enums.Carrier, planName string) (*models.InsurancePlan, error)
	ListActive(ctx context.Context, carrier enums.Carrier) ([]models.InsurancePlan, error)
}

// PlanCache is the subset of pkg/redis.Client used for plan caching.
type PlanCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

type ServiceParams struct {
	Repo   planReader
	Cache  PlanCache
	TTL    time.Duration
	Logger *logger.Logger
}

// Service resolves carrier plans. A nil cache disables caching.
type Service struct {
	repo   planReader
	cache  PlanCache
	ttl    time.Duration
	logger *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("insurance plan repository required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.TTL <= 0 {
		params.TTL = 15 * time.Minute
	}
	return &Service{
		repo:   params.Repo,
		cache:  params.Cache,
		ttl:    params.TTL,
		logger: params.Logger,
	}, nil
}

// GetPlan returns the plan terms for a carrier and plan name. Cash pay
// carriers resolve to the empty plan without touching storage.
func (s *Service) GetPlan(ctx context.Context, carrier enums.Carrier, planName string) (benefits.InsurancePlan, error) {
	if carrier.IsCashPay() {
		return benefits.CashPay(), nil
	}
	name := strings.TrimSpace(planName)
	if name == "" {
		return benefits.InsurancePlan{}, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
	}

	key := ""
	if s.cache != nil {
		key = s.cache.CacheKey("plan", string(carrier), strings.ToLower(name))
		if plan, ok := s.fromCache(ctx, key); ok {
			return plan, nil
		}
	}

	row, err := s.repo.FindActive(ctx, carrier, name)
	if err != nil {
		if db.IsNotFound(err) {
			return benefits.InsurancePlan{}, pkgerrors.New(pkgerrors.CodeNotFound, "insurance plan not found").
				WithDetails(map[string]any{"carrier": carrier, "planName": name})
		}
		return benefits.InsurancePlan{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load insurance plan")
	}
	plan, err := s.loadPlan(ctx, *row)
	if err != nil {
		return benefits.InsurancePlan{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid insurance plan config")
	}

	if s.cache != nil {
		s.toCache(ctx, key, plan)
	}
	return plan, nil
}

// ListPlans returns the active plans of a carrier.
func (s *Service) ListPlans(ctx context.Context, carrier enums.Carrier) ([]benefits.InsurancePlan, error) {
	if carrier.IsCashPay() {
		return []benefits.InsurancePlan{}, nil
	}
	rows, err := s.repo.ListActive(ctx, carrier)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list insurance plans")
	}
	out := make([]benefits.InsurancePlan, 0, len(rows))
	for _, row := range rows {
		plan, err := s.loadPlan(ctx, row)
		if err != nil {
			s.logger.Error(ctx, "skipping insurance plan with invalid config", err)
			continue
		}
		out = append(out, plan)
	}
	return out, nil
}

func (s *Service) loadPlan(ctx context.Context, row models.InsurancePlan) (benefits.InsurancePlan, error) {
	plan, dropped, err := toPlan(row)
	if err != nil {
		return benefits.InsurancePlan{}, err
	}
	for _, entry := range dropped {
		s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
			"carrier": string(row.Carrier),
			"plan":    row.PlanName,
			"field":   entry.Field,
			"value":   entry.Value,
		}), "ignoring unknown insurance plan entry")
	}
	return plan, nil
}

func (s *Service) fromCache(ctx context.Context, key string) (benefits.InsurancePlan, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn(s.logger.WithField(ctx, "cache_key", key), "plan cache read failed")
		}
		return benefits.InsurancePlan{}, false
	}
	var plan benefits.InsurancePlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return benefits.InsurancePlan{}, false
	}
	return plan, true
}

func (s *Service) toCache(ctx context.Context, key string, plan benefits.InsurancePlan) {
	payload, err := json.Marshal(plan)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn(s.logger.WithField(ctx, "cache_key", key), "plan cache write failed")
	}
}
