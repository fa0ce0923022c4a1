package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"origination-engine/internal/api/handler"
	mw "origination-engine/internal/api/middleware"
	"origination-engine/internal/config"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/dashboard"
	"origination-engine/internal/domain/document"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/rates"
	"origination-engine/internal/session"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Application application.ApplicationService
	Dashboard   dashboard.DashboardService
	Documents   document.DocumentService
	Rates       rates.RatesService
	Vesta       vesta.Client
	Sessions    *session.Manager
}

func SetupRouter(svcs Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupApplicationRoutes(router, svcs, logger)
	setupDashboardRoutes(router, svcs, logger)
	setupPublicRoutes(router, svcs, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupApplicationRoutes(router *chi.Mux, svcs Services, logger *slog.Logger) {
	h := handler.NewApplicationHandler(svcs.Application, logger)

	router.Route("/applications", func(r chi.Router) {
		r.Post("/draft", h.LoadDraft)
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", h.GetApplication)
			r.Patch("/fields", h.UpdateField)
			r.Post("/advance", h.AdvanceStep)
			r.Post("/step", h.GoToStep)
			r.Post("/save", h.SaveAndExit)
			r.Post("/submit", h.Submit)
			r.Get("/validate", h.Validate)
		})
	})
}

func setupDashboardRoutes(router *chi.Mux, svcs Services, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(svcs.Vesta, svcs.Sessions, logger)
	dashboardHandler := handler.NewDashboardHandler(svcs.Dashboard, svcs.Vesta, logger)
	documentHandler := handler.NewDocumentHandler(svcs.Documents, logger)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/borrower-login", authHandler.BorrowerLogin)
	})

	router.Route("/dashboard", func(r chi.Router) {
		r.Use(mw.SessionMiddleware(svcs.Sessions, logger))
		r.Route("/{loanID}", func(r chi.Router) {
			r.Get("/", dashboardHandler.GetDashboard)
			r.Get("/conditions", dashboardHandler.GetConditions)
		})
	})

	router.Route("/documents", func(r chi.Router) {
		r.Use(mw.SessionMiddleware(svcs.Sessions, logger))
		r.Post("/", documentHandler.Upload)
		r.Get("/{loanID}", documentHandler.ListByLoan)
	})
}

func setupPublicRoutes(router *chi.Mux, svcs Services, logger *slog.Logger) {
	applicationHandler := handler.NewApplicationHandler(svcs.Application, logger)
	questionHandler := handler.NewQuestionHandler(svcs.Vesta, logger)
	ratesHandler := handler.NewRatesHandler(svcs.Rates, logger)

	router.Get("/status/{viewToken}", applicationHandler.Status)
	router.Post("/questions", questionHandler.Submit)

	router.Route("/api", func(r chi.Router) {
		r.Get("/rates", ratesHandler.GetRates)
		r.Get("/market-data", ratesHandler.GetMarketData)
	})
}
