package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/opticalquote-backend/internal/benefits"
	"github.com/angelmondragon/opticalquote-backend/internal/catalog"
	"github.com/angelmondragon/opticalquote-backend/internal/lifecycle"
	"github.com/angelmondragon/opticalquote-backend/internal/pricing"
	"github.com/angelmondragon/opticalquote-backend/internal/quote"
	"github.com/angelmondragon/opticalquote-backend/pkg/db"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/opticalquote-backend/pkg/errors"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/metrics"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/opticalquote-backend/pkg/redis"
	"github.com/angelmondragon/opticalquote-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const lockScope = "quote"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogResolver interface {
	Resolve(ctx context.Context, id string, want enums.ProductCategory) (catalog.Product, error)
}

type planResolver interface {
	GetPlan(ctx context.Context, carrier enums.Carrier, planName string) (benefits.InsurancePlan, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type lockClient interface {
	redis.LockStore
	LockKey(scope, id string) string
}

type ServiceParams struct {
	Tx      txRunner
	Repo    *Repository
	Catalog catalogResolver
	Plans   planResolver
	Outbox  eventEmitter
	// Locks is optional; without it writes rely on the version check alone.
	Locks   lockClient
	Pricing pricing.Options
	POFFee  decimal.Decimal
	TTL     time.Duration
	LockTTL time.Duration
	Logger  *logger.Logger
	Metrics *metrics.QuoteMetrics
	Now     func() time.Time
}

// Service is the stateful shell around the pure pricing and lifecycle code:
// it loads quotes, serializes writers, persists results and queues events.
type Service struct {
	tx      txRunner
	repo    *Repository
	catalog catalogResolver
	plans   planResolver
	outbox  eventEmitter
	locks   lockClient
	manager lifecycle.Manager
	pricing pricing.Options
	pofFee  decimal.Decimal
	ttl     time.Duration
	lockTTL time.Duration
	logg    *logger.Logger
	metrics *metrics.QuoteMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("quote repository required")
	case params.Catalog == nil:
		return nil, fmt.Errorf("catalog resolver required")
	case params.Plans == nil:
		return nil, fmt.Errorf("plan resolver required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.LockTTL <= 0 {
		params.LockTTL = 10 * time.Second
	}
	if params.Now == nil {
		params.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		tx:      params.Tx,
		repo:    params.Repo,
		catalog: params.Catalog,
		plans:   params.Plans,
		outbox:  params.Outbox,
		locks:   params.Locks,
		manager: lifecycle.NewManager(params.Pricing),
		pricing: params.Pricing,
		pofFee:  params.POFFee,
		ttl:     params.TTL,
		lockTTL: params.LockTTL,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     params.Now,
	}, nil
}

// Create starts a quote in the building state.
func (s *Service) Create(ctx context.Context, in CreateInput) (Result, error) {
	q := quote.New(uuid.New(), in.StaffID, s.now(), s.ttl)
	q.Patient = in.Patient

	row, err := toModel(q)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode quote")
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &row); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteCreated,
			AggregateType: enums.AggregateQuote,
			AggregateID:   q.ID,
			Actor:         actorRef(in.StaffID),
			OccurredAt:    q.CreatedAt,
			Data: payloads.QuoteCreatedEvent{
				QuoteID:   q.ID,
				StaffID:   in.StaffID,
				ExpiresAt: q.ExpiresAt,
			},
		})
	})
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quote")
	}

	ctx = s.logg.WithQuoteID(ctx, q.ID.String())
	s.logg.Info(ctx, "quote created")
	return s.result(ctx, q, nil), nil
}

// Get loads a quote with its current pricing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Result, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return s.result(ctx, q, nil), nil
}

// Preview prices the quote without changing it. Frozen quotes return their
// snapshot.
func (s *Service) Preview(ctx context.Context, id uuid.UUID) (Result, error) {
	return s.Get(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, version int, p quote.Patient) (Result, error) {
	return s.edit(ctx, id, version, func(q quote.Quote, now time.Time) (quote.Quote, types.QuoteWarnings, error) {
		next, err := q.ReplacePatient(p, now)
		return next, nil, err
	})
}

// UpdateInsurance replaces the coverage and resolves the carrier plan. A plan
// that cannot be loaded leaves the quote priced as cash pay with a warning.
func (s *Service) UpdateInsurance(ctx context.Context, id uuid.UUID, version int, in InsuranceInput) (Result, error) {
	ins := quote.Insurance{
		Carrier:    in.Carrier,
		PlanName:   in.PlanName,
		MemberID:   in.MemberID,
		PriorUsage: in.PriorUsage,
	}
	if ins.Carrier == "" {
		ins.Carrier = enums.CarrierNone
	}
	var warnings types.QuoteWarnings
	if ins.Carrier.IsCashPay() {
		ins.PlanName = ""
		ins.PriorUsage = nil
	} else {
		plan, warning := s.resolvePlan(ctx, ins.Carrier, ins.PlanName)
		ins.Plan = plan
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}
	return s.edit(ctx, id, version, func(q quote.Quote, now time.Time) (quote.Quote, types.QuoteWarnings, error) {
		next, err := q.ReplaceInsurance(ins, now)
		return next, warnings, err
	})
}

func (s *Service) UpdateExam(ctx context.Context, id uuid.UUID, version int, in ExamInput) (Result, error) {
	layer, err := s.buildExam(ctx, in)
	if err != nil {
		return Result{}, err
	}
	return s.edit(ctx, id, version, func(q quote.Quote, now time.Time) (quote.Quote, types.QuoteWarnings, error) {
		next, err := q.ReplaceExam(layer, now)
		return next, nil, err
	})
}

func (s *Service) UpdateEyeglasses(ctx context.Context, id uuid.UUID, version int, in EyeglassesInput) (Result, error) {
	layer, err := s.buildEyeglasses(ctx, in)
	if err != nil {
		return Result{}, err
	}
	return s.edit(ctx, id, version, func(q quote.Quote, now time.Time) (quote.Quote, types.QuoteWarnings, error) {
		next, err := q.ReplaceEyeglasses(layer, now)
		return next, nil, err
	})
}

func (s *Service) UpdateContacts(ctx context.Context, id uuid.UUID, version int, in ContactsInput) (Result, error) {
	layer, err := s.buildContacts(ctx, in)
	if err != nil {
		return Result{}, err
	}
	return s.edit(ctx, id, version, func(q quote.Quote, now time.Time) (quote.Quote, types.QuoteWarnings, error) {
		next, err := q.ReplaceContacts(layer, now)
		return next, nil, err
	})
}

// Transition applies a user-requested status change. Guard failures return
// INVALID_TRANSITION and leave the stored quote untouched. When the
// transition is valid but cannot be stored, the transitioned quote is still
// returned together with a retryable EXTERNAL_SERVICE_FAILURE warning.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, in TransitionInput) (Result, error) {
	var result Result
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := checkVersion(current, in.Version); err != nil {
			return err
		}

		prepared := current
		var warnings types.QuoteWarnings
		if current.Status.IsEditable() {
			prepared, warnings = s.ensurePlan(ctx, current)
		}

		next, err := s.manager.Transition(prepared, lifecycle.Request{
			To:                 in.To,
			Actor:              in.Actor,
			At:                 s.now(),
			PresentationMethod: in.PresentationMethod,
			CustomerSignature:  in.CustomerSignature,
			StaffSignature:     in.StaffSignature,
			Reason:             in.Reason,
		})
		if err != nil {
			s.metrics.IncRejected(string(current.Status), string(in.To))
			return err
		}
		next.Version = current.Version + 1

		if err := s.persist(ctx, current, next, s.transitionEvents(current, next, in.Actor)); err != nil {
			if errors.Is(err, errStaleVersion) {
				return staleError(id)
			}
			s.logg.Error(ctx, "quote transition not persisted", err)
			next.Version = current.Version
			warnings = append(warnings, types.NewQuoteWarning(
				enums.QuoteWarningExternalServiceFailure,
				"the transition was applied but could not be saved; retry the request",
			))
		} else {
			s.metrics.IncTransition(string(current.Status), string(next.Status))
		}

		result = s.result(ctx, next, warnings)
		return nil
	})
	return result, err
}

// ExpireDue expires up to limit draft or presented quotes whose expiresAt
// has passed. Per-quote failures are collected and do not stop the sweep.
func (s *Service) ExpireDue(ctx context.Context, now time.Time, limit int) (ExpirySummary, error) {
	ids, err := s.repo.ListExpirable(ctx, now, limit)
	if err != nil {
		return ExpirySummary{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expirable quotes")
	}

	summary := ExpirySummary{Scanned: len(ids)}
	var errs error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, multierr.Append(errs, err)
		}
		expired, err := s.expireOne(ctx, id, now)
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("expire quote %s: %w", id, err))
		case expired:
			summary.Expired++
		default:
			summary.Skipped++
		}
	}
	return summary, errs
}

func (s *Service) expireOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	expired := false
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		next, err := s.manager.Expire(current, now)
		if err != nil {
			// Status or expiry moved since the scan.
			return nil
		}
		next.Version = current.Version + 1

		events := s.transitionEvents(current, next, lifecycle.SystemActor)
		events = append(events, outbox.DomainEvent{
			EventType:     enums.EventQuoteExpired,
			AggregateType: enums.AggregateQuote,
			AggregateID:   next.ID,
			Actor:         actorRef(lifecycle.SystemActor),
			OccurredAt:    now,
			Data: payloads.QuoteExpiredEvent{
				QuoteID:   next.ID,
				From:      current.Status,
				ExpiredAt: now,
			},
			Unique: true,
		})
		if err := s.persist(ctx, current, next, events); err != nil {
			return err
		}
		s.metrics.IncTransition(string(current.Status), string(next.Status))
		expired = true
		return nil
	})
	if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeConflict {
		// Someone else holds the quote; the next sweep retries it.
		return false, nil
	}
	return expired, err
}

func (s *Service) edit(ctx context.Context, id uuid.UUID, version int, apply func(quote.Quote, time.Time) (quote.Quote, types.QuoteWarnings, error)) (Result, error) {
	var result Result
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		current, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := checkVersion(current, version); err != nil {
			return err
		}
		next, warnings, err := apply(current, s.now())
		if err != nil {
			return err
		}
		next.Version = current.Version + 1
		if err := s.persist(ctx, current, next, nil); err != nil {
			if errors.Is(err, errStaleVersion) {
				return staleError(id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save quote")
		}
		result = s.result(ctx, next, warnings)
		return nil
	})
	return result, err
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (quote.Quote, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return quote.Quote{}, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found").
				WithDetails(map[string]any{"quoteId": id})
		}
		return quote.Quote{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote")
	}
	history, err := s.repo.ListTransitions(ctx, id)
	if err != nil {
		return quote.Quote{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load quote history")
	}
	q, err := fromModel(*row, history)
	if err != nil {
		return quote.Quote{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode quote")
	}
	return q, nil
}

// persist writes next over current, appends the new history entries and
// queues events, all in one transaction.
func (s *Service) persist(ctx context.Context, current, next quote.Quote, events []outbox.DomainEvent) error {
	row, err := toModel(next)
	if err != nil {
		return err
	}
	var added []quote.Transition
	if len(next.History) > len(current.History) {
		added = next.History[len(current.History):]
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Save(ctx, &row, current.Version); err != nil {
			return err
		}
		for _, t := range added {
			entry, err := transitionModel(next.ID, t)
			if err != nil {
				return err
			}
			if err := repo.InsertTransition(ctx, &entry); err != nil {
				return err
			}
		}
		for _, event := range events {
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) transitionEvents(current, next quote.Quote, actor string) []outbox.DomainEvent {
	if next.Pricing == nil {
		return nil
	}
	display := next.Pricing.Display()
	at := next.UpdatedAt
	events := []outbox.DomainEvent{{
		EventType:     enums.EventQuoteStatusChanged,
		AggregateType: enums.AggregateQuote,
		AggregateID:   next.ID,
		Actor:         actorRef(actor),
		OccurredAt:    at,
		Data: payloads.QuoteStatusChangedEvent{
			QuoteID:         next.ID,
			From:            current.Status,
			To:              next.Status,
			Actor:           actor,
			Reason:          next.CancellationReason,
			GrandTotalCents: types.DollarsToCents(display.GrandTotal),
			OccurredAt:      at,
		},
	}}

	if next.Status == enums.QuoteStatusPresented {
		pricingJSON, err := json.Marshal(display)
		if err != nil {
			pricingJSON = []byte("null")
		}
		events = append(events, outbox.DomainEvent{
			EventType:     enums.EventQuotePresented,
			AggregateType: enums.AggregateQuote,
			AggregateID:   next.ID,
			Actor:         actorRef(actor),
			OccurredAt:    at,
			Data: payloads.QuotePresentedEvent{
				QuoteID:            next.ID,
				Status:             next.Status,
				RecipientEmail:     next.Patient.Email,
				PatientName:        next.Patient.FullName(),
				PresentationMethod: next.PresentationMethod,
				ExpiresAt:          next.ExpiresAt,
				Pricing:            pricingJSON,
			},
		})
	}
	return events
}

// ensurePlan fills in the carrier plan when it was not resolved at
// selection time. The returned quote prices as cash pay when it still
// cannot be resolved.
func (s *Service) ensurePlan(ctx context.Context, q quote.Quote) (quote.Quote, types.QuoteWarnings) {
	if q.Insurance.Carrier.IsCashPay() || q.Insurance.Plan != nil {
		return q, nil
	}
	plan, warning := s.resolvePlan(ctx, q.Insurance.Carrier, q.Insurance.PlanName)
	if warning != nil {
		return q, types.QuoteWarnings{*warning}
	}
	out := q.Clone()
	out.Insurance.Plan = plan
	return out, nil
}

func (s *Service) resolvePlan(ctx context.Context, carrier enums.Carrier, planName string) (*benefits.InsurancePlan, *types.QuoteWarning) {
	plan, err := s.plans.GetPlan(ctx, carrier, planName)
	if err != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"carrier":   carrier,
			"plan_name": planName,
		}), "insurance plan lookup failed", err)
		w := types.NewQuoteWarning(enums.QuoteWarningInsuranceUnavailable,
			fmt.Sprintf("%s plan %q is unavailable; priced as cash pay", carrier, planName))
		return nil, &w
	}
	return &plan, nil
}

func (s *Service) result(ctx context.Context, q quote.Quote, extra types.QuoteWarnings) Result {
	priced := q
	warnings := append(types.QuoteWarnings{}, extra...)
	if q.Status.IsEditable() && !extra.Has(enums.QuoteWarningInsuranceUnavailable) {
		var planWarnings types.QuoteWarnings
		priced, planWarnings = s.ensurePlan(ctx, q)
		warnings = append(warnings, planWarnings...)
	}

	started := time.Now()
	breakdown := s.manager.Price(priced).Display()
	s.metrics.ObservePricing(time.Since(started))

	warnings = append(warnings, breakdown.Warnings...)
	for _, w := range warnings {
		s.metrics.IncWarning(string(w.Type))
		if w.Type == enums.QuoteWarningUnknownBenefitCategory {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"quote_id": q.ID.String(),
				"carrier":  string(breakdown.Carrier),
				"category": w.Category,
			}), "plan does not list benefit category")
		}
	}
	return Result{Quote: q, Pricing: breakdown, Warnings: warnings}
}

func (s *Service) withLock(ctx context.Context, id uuid.UUID, fn func(context.Context) error) error {
	ctx = s.logg.WithQuoteID(ctx, id.String())
	if s.locks == nil {
		return fn(ctx)
	}
	lock, err := redis.NewLock(s.locks, s.locks.LockKey(lockScope, id.String()), s.lockTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build quote lock")
	}
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire quote lock")
	}
	if !acquired {
		return pkgerrors.New(pkgerrors.CodeConflict, "quote is being modified by another request").
			WithDetails(map[string]any{"quoteId": id})
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "release quote lock", err)
		}
	}()
	return fn(ctx)
}

func checkVersion(q quote.Quote, expected int) error {
	if expected <= 0 || expected == q.Version {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "quote was modified; reload and retry").
		WithDetails(map[string]any{"quoteId": q.ID, "expected": expected, "actual": q.Version})
}

func staleError(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "quote was modified; reload and retry").
		WithDetails(map[string]any{"quoteId": id})
}

func actorRef(actor string) *outbox.ActorRef {
	if actor == "" || actor == lifecycle.SystemActor {
		return &outbox.ActorRef{Kind: lifecycle.SystemActor}
	}
	return &outbox.ActorRef{StaffID: actor, Kind: "staff"}
}
