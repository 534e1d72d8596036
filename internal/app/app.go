// Package app wires the engine's components from configuration. The server and the scheduler
// binaries build the same graph and differ only in what they start.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/client"
	"github.com/segyhp/claimant-engine/internal/config"
	"github.com/segyhp/claimant-engine/internal/entitlement"
	"github.com/segyhp/claimant-engine/internal/handler"
	"github.com/segyhp/claimant-engine/internal/lifecycle"
	"github.com/segyhp/claimant-engine/internal/lock"
	"github.com/segyhp/claimant-engine/internal/message"
	"github.com/segyhp/claimant-engine/internal/repository"
	"github.com/segyhp/claimant-engine/internal/repository/memory"
	"github.com/segyhp/claimant-engine/internal/scheduler"
	"github.com/segyhp/claimant-engine/internal/service"
	"github.com/segyhp/claimant-engine/pkg/response"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

const (
	MessageProcessorJob = "message-processor"
	PaymentCycleJob     = "payment-cycle-creator"
)

// Stores groups the repositories and the transactor that spans them.
type Stores struct {
	Claims        repository.ClaimRepository
	PaymentCycles repository.PaymentCycleRepository
	Payments      repository.PaymentRepository
	Messages      repository.MessageRepository
	Transactor    repository.Transactor
}

// MemoryStores returns stores backed by a single in-memory store.
func MemoryStores(store *memory.Store) Stores {
	return Stores{
		Claims:        store.Claims(),
		PaymentCycles: store.PaymentCycles(),
		Payments:      store.Payments(),
		Messages:      store.Messages(),
		Transactor:    store.Transactor(),
	}
}

// PostgresStores returns the sqlx-backed stores.
func PostgresStores(db *sqlx.DB) Stores {
	return Stores{
		Claims:        repository.NewClaimRepository(db),
		PaymentCycles: repository.NewPaymentCycleRepository(db),
		Payments:      repository.NewPaymentRepository(db),
		Messages:      repository.NewMessageRepository(db),
		Transactor:    repository.NewTransactor(db),
	}
}

type App struct {
	Config *config.Config
	Logger *zap.Logger
	Stores Stores
	Locker lock.Locker

	Dispatcher     *message.Dispatcher
	CycleScheduler *service.PaymentCycleScheduler
	MessageJob     *scheduler.LockedJob
	CycleJob       *scheduler.LockedJob

	db    *sqlx.DB
	redis redis.UniversalClient
}

// New connects to the configured store and lock backend and builds the application. With
// DATABASE_URL=memory:// everything stays in process and Redis is not used.
func New(cfg *config.Config, clock utils.Clock, logger *zap.Logger) (*App, error) {
	if cfg.UsesMemoryStore() {
		logger.Warn("using in-memory store, data is lost on restart")
		return Build(cfg, MemoryStores(memory.NewStore()), lock.NewMemoryLocker(clock), clock, logger)
	}

	db, err := initDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	redisClient := initRedis(cfg)

	a, err := Build(cfg, PostgresStores(db), lock.NewRedisLocker(redisClient), clock, logger)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}
	a.db = db
	a.redis = redisClient
	return a, nil
}

// Build wires every component on top of the given stores and locker.
func Build(cfg *config.Config, stores Stores, locker lock.Locker, clock utils.Clock, logger *zap.Logger) (*App, error) {
	timeout := cfg.GetClientTimeout()
	eligibilityClient := client.NewEligibilityClient(cfg.Clients.EligibilityBaseURI, timeout)
	cardClient := client.NewCardClient(cfg.Clients.CardBaseURI, timeout)
	reportingClient := client.NewReportingClient(cfg.Clients.ReportingBaseURI, timeout)
	emailClient := client.NewEmailClient(cfg.Clients.EmailBaseURI, timeout)

	queue := message.NewQueueSender(stores.Messages, clock)
	notifications := service.NewNotificationSender(queue)
	auditor := service.NewEventAuditor(logger)

	pregnancy := entitlement.NewPregnancyEntitlementCalculator(cfg.Entitlement.PregnancyGracePeriodInDays)
	calculator := entitlement.NewEntitlementCalculator(cfg.Entitlement, pregnancy)
	backdate := entitlement.NewBackdatePolicy(cfg.Entitlement.BackdatePolicy, calculator, cfg.Entitlement.EntitlementCalculationDurationInDays, clock)
	cycleCalculator := entitlement.NewCycleEntitlementCalculator(cfg.Entitlement, calculator, backdate, clock)

	cycleService := service.NewPaymentCycleService(stores.PaymentCycles, cfg.PaymentCycle, clock)
	eligibility := service.NewEligibilityAndEntitlementService(eligibilityClient, cycleCalculator, logger)
	decisions := lifecycle.NewEligibilityDecisionHandler(
		stores.Claims,
		stores.Transactor,
		cycleService,
		queue,
		notifications,
		service.NewClaimMessageSender(queue, clock),
		auditor,
		pregnancy,
		entitlement.NewChildDateOfBirthCalculator(),
		clock,
		logger,
	)

	registry, err := message.NewRegistry(
		service.NewDetermineEntitlementHandler(stores.Claims, stores.PaymentCycles, eligibility, decisions, logger),
		service.NewMakePaymentHandler(stores.Claims, stores.PaymentCycles, stores.Payments, stores.Transactor, cardClient, notifications, clock, logger),
		service.NewReportClaimHandler(reportingClient),
		service.NewSendEmailHandler(stores.Claims, emailClient, logger),
	)
	if err != nil {
		return nil, fmt.Errorf("building message registry: %w", err)
	}

	dispatcher := message.NewDispatcher(registry, stores.Messages, auditor, message.Options{
		BatchSize:     cfg.Messaging.BatchSize,
		RetryDelay:    cfg.GetRetryDelay(),
		RatePerSecond: cfg.Messaging.RatePerSecond,
	}, clock, logger)

	cycleScheduler := service.NewPaymentCycleScheduler(stores.Claims, stores.PaymentCycles, stores.Transactor, cycleService, queue, clock, logger)

	minHold, maxHold := cfg.GetMinLockTime(), cfg.GetMaxLockTime()
	createDueCycles := func(ctx context.Context) error {
		_, err := cycleScheduler.CreateDueCycles(ctx)
		return err
	}

	return &App{
		Config:         cfg,
		Logger:         logger,
		Stores:         stores,
		Locker:         locker,
		Dispatcher:     dispatcher,
		CycleScheduler: cycleScheduler,
		MessageJob:     scheduler.NewLockedJob(MessageProcessorJob, dispatcher.RunOnce, locker, minHold, maxHold, logger),
		CycleJob:       scheduler.NewLockedJob(PaymentCycleJob, createDueCycles, locker, minHold, maxHold, logger),
	}, nil
}

// Router serves the operator endpoints.
func (a *App) Router() *mux.Router {
	var checks []handler.Check
	if a.db != nil {
		checks = append(checks, handler.DatabaseCheck(a.db))
	}
	if a.redis != nil {
		checks = append(checks, handler.RedisCheck(a.redis))
	}
	healthHandler := handler.NewHealthHandler(a.Config.GetHealthTimeout(), checks...)
	messagesHandler := handler.NewMessagesHandler(a.MessageJob, a.Dispatcher, a.Logger)

	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(a.Logger))

	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/messages/process", messagesHandler.Process).Methods("POST")
	api.HandleFunc("/messages/pending", messagesHandler.Pending).Methods("GET")

	return router
}

// Schedule registers the message processor and payment cycle jobs.
func (a *App) Schedule(c *cron.Cron) error {
	if _, err := c.AddJob(a.Config.Scheduler.MessageProcessorCron, a.MessageJob); err != nil {
		return fmt.Errorf("scheduling %s: %w", MessageProcessorJob, err)
	}
	if _, err := c.AddJob(a.Config.Scheduler.PaymentCycleCron, a.CycleJob); err != nil {
		return fmt.Errorf("scheduling %s: %w", PaymentCycleJob, err)
	}
	return nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
