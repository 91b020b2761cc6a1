package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/opticalquote-backend/api/controllers"
	quotecontrollers "github.com/angelmondragon/opticalquote-backend/api/controllers/quotes"
	"github.com/angelmondragon/opticalquote-backend/api/middleware"
	"github.com/angelmondragon/opticalquote-backend/pkg/config"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/redis"
)

// Deps carries everything the router hands to controllers. Metrics is
// optional; when nil /metrics is not mounted.
type Deps struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Quotes      quotecontrollers.Service
	Catalog     controllers.CatalogLister
	Plans       controllers.PlanLister
	Metrics     http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	limiters := middleware.NewStaffLimiters(cfg.HTTP.StaffRateLimit, cfg.HTTP.StaffRateBurst)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.StaffContext(logg))
		r.Use(middleware.StaffRateLimit(limiters, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Get("/ping", controllers.StaffPing())
		r.Get("/catalog/products", controllers.CatalogProducts(deps.Catalog, logg))
		r.Get("/insurance/plans", controllers.InsurancePlans(deps.Plans, logg))

		r.Post("/quotes", quotecontrollers.Create(deps.Quotes, logg))
		r.Route("/quotes/{quoteId}", func(r chi.Router) {
			r.Get("/", quotecontrollers.Get(deps.Quotes, logg))
			r.Get("/pricing", quotecontrollers.Pricing(deps.Quotes, logg))
			r.Put("/patient", quotecontrollers.UpdatePatient(deps.Quotes, logg))
			r.Put("/insurance", quotecontrollers.UpdateInsurance(deps.Quotes, logg))
			r.Put("/exam", quotecontrollers.UpdateExam(deps.Quotes, logg))
			r.Put("/eyeglasses", quotecontrollers.UpdateEyeglasses(deps.Quotes, logg))
			r.Put("/contacts", quotecontrollers.UpdateContacts(deps.Quotes, logg))
			r.Post("/transition", quotecontrollers.Transition(deps.Quotes, logg))
		})
	})

	return r
}
