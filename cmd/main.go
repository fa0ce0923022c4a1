package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"origination-engine/internal/api"
	"origination-engine/internal/batch"
	"origination-engine/internal/config"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/domain/dashboard"
	"origination-engine/internal/domain/document"
	"origination-engine/internal/event"
	"origination-engine/internal/infrastructure/database/postgres"
	"origination-engine/internal/infrastructure/logging"
	"origination-engine/internal/integration/notification"
	"origination-engine/internal/integration/storage"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/postcommit"
	"origination-engine/internal/rates"
	"origination-engine/internal/session"
)

func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	svcs, ratesService := initializeServices(cfg, dbPool, logger)

	refreshJob := batch.NewRatesRefreshJob(ratesService, logger)
	cronScheduler := startBatchJobs(cfg, logger, refreshJob)
	router := api.SetupRouter(svcs, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func initializeServices(cfg *config.Config, dbPool *pgxpool.Pool, logger *slog.Logger) (api.Services, rates.RatesService) {
	logger.Info("Initializing application components...")

	loanRepo := postgres.NewLoanRepository(dbPool, logger)
	conditionRepo := postgres.NewConditionRepository(dbPool, logger)
	documentRepo := postgres.NewDocumentRepository(dbPool, logger)
	borrowerRepo := postgres.NewBorrowerRepository(dbPool, logger)

	vestaClient := vesta.NewClient(cfg.Vesta, logger)
	uploader := storage.NewUploader(cfg.Storage, logger)

	runner := postcommit.NewRunner(30*time.Second, logger)
	publisher := initializeEventPublisher(cfg, logger)
	hooks := []application.SubmitHook{
		notification.NewNotifier(cfg.Notification, logger),
		vesta.NewSubmissionSync(vestaClient),
	}
	if publisher != nil {
		hooks = append(hooks, event.NewSubmissionHook(publisher))
	}

	applicationService := application.NewApplicationService(
		loanRepo, borrowerRepo, runner, hooks, cfg.Autosave.QuietPeriod, logger)
	dashboardService := dashboard.NewDashboardService(loanRepo, conditionRepo, vestaClient, logger)
	documentService := document.NewDocumentService(documentRepo, conditionRepo, uploader, vestaClient, publisher, logger)

	ratesService, err := rates.NewRatesService(cfg.Rates, logger)
	if err != nil {
		logger.Error("Failed to initialize rates service", "error", err)
		os.Exit(1)
	}
	warmupCtx, cancel := context.WithTimeout(context.Background(), cfg.Rates.FetchTimeout)
	defer cancel()
	if err := ratesService.Refresh(warmupCtx); err != nil {
		// The placeholder sheet serves until the first scheduled refresh
		// succeeds, so a cold feed does not block startup.
		logger.Warn("Initial rate sheet fetch failed", "error", err)
	}

	return api.Services{
		Application: applicationService,
		Dashboard:   dashboardService,
		Documents:   documentService,
		Rates:       ratesService,
		Vesta:       vestaClient,
		Sessions:    session.NewManager(cfg.Server.Auth.JWTSecret, cfg.Server.Auth.SessionTTL),
	}, ratesService
}

// initializeEventPublisher returns nil when the broker is unreachable.
// Submission events are best-effort; the application must come up without
// RabbitMQ.
func initializeEventPublisher(cfg *config.Config, logger *slog.Logger) event.EventPublisher {
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, submission events disabled", "error", err)
		return nil
	}
	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Warn("Failed to set up event publisher, submission events disabled", "error", err)
		conn.Close()
		return nil
	}
	return publisher
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server graceful shutdown failed", "error", err)
		} else {
			logger.Info("HTTP server shutdown initiated.")
		}
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}
	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, refreshJob *batch.RatesRefreshJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New()

	scheduleSpec := cfg.Rates.RefreshSchedule
	if scheduleSpec == "" {
		scheduleSpec = "0 * * * *"
		logger.Warn("Rate refresh schedule not configured, using default", "schedule", scheduleSpec)
	}
	jobTimeout := cfg.Rates.FetchTimeout
	if jobTimeout <= 0 {
		jobTimeout = time.Minute
	}

	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "RatesRefresh")
		jobLogger.Info("Cron triggered: Running rate sheet refresh job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := refreshJob.Run(ctx); runErr != nil {
			jobLogger.Error("Rate sheet refresh job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Rate sheet refresh job finished successfully.")
		}
	}))

	if err != nil {
		logger.Error("Failed to schedule rate sheet refresh job", "schedule", scheduleSpec, slog.Any("error", err))
	} else {
		logger.Info("Scheduled rate sheet refresh job", "schedule", scheduleSpec, "job_id", jobID)
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
