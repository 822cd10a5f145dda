package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/pharmily/pharmily-api/internal/config"
	"github.com/pharmily/pharmily-api/internal/email"
	authHandler "github.com/pharmily/pharmily-api/internal/handler/auth"
	"github.com/pharmily/pharmily-api/internal/handler/health"
	"github.com/pharmily/pharmily-api/internal/handler/hospital"
	prescriptionHandler "github.com/pharmily/pharmily-api/internal/handler/prescription"
	queueHandler "github.com/pharmily/pharmily-api/internal/handler/queue"
	"github.com/pharmily/pharmily-api/internal/middleware"
	"github.com/pharmily/pharmily-api/internal/model"
	"github.com/pharmily/pharmily-api/internal/repository"
	"github.com/pharmily/pharmily-api/internal/repository/sqlstore"
	"github.com/pharmily/pharmily-api/internal/router"
	eventService "github.com/pharmily/pharmily-api/internal/service/event"
	"github.com/pharmily/pharmily-api/internal/service/identity"
	"github.com/pharmily/pharmily-api/internal/service/notification"
	prescriptionService "github.com/pharmily/pharmily-api/internal/service/prescription"
	queueService "github.com/pharmily/pharmily-api/internal/service/queue"
	"github.com/pharmily/pharmily-api/pkg/auth"
	"github.com/pharmily/pharmily-api/pkg/logger"
	"github.com/pharmily/pharmily-api/pkg/messaging"
	"github.com/pharmily/pharmily-api/pkg/messaging/redis"
	"github.com/pharmily/pharmily-api/pkg/metrics"
	"github.com/pharmily/pharmily-api/pkg/pdf"
	"github.com/pharmily/pharmily-api/pkg/security"
	"github.com/pharmily/pharmily-api/pkg/validator"
	"github.com/pharmily/pharmily-api/pkg/worker"
)

// App owns the database and the services built on it. Both the API server
// and the outbox worker start from one.
type App struct {
	Config   *config.Config
	DB       *sqlx.DB
	Logger   *logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Clock    model.Clock

	Outbox        repository.OutboxRepository
	Identity      *identity.Service
	Queue         *queueService.Service
	Prescriptions *prescriptionService.Service
}

// New opens the database, applies the schema and wires the services.
func New(ctx context.Context, cfg *config.Config, l *logger.Logger) (*App, error) {
	clock, err := model.ClinicClock(cfg.Clinic.Timezone)
	if err != nil {
		return nil, err
	}

	db, err := sqlstore.NewDB(ctx, cfg.Database.ToStoreConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlstore.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:   cfg,
		DB:       db,
		Logger:   l,
		Registry: reg,
		Metrics:  metrics.NewMetrics(reg, "pharmily", ""),
		Clock:    clock,
	}
	a.wireServices()
	return a, nil
}

func (a *App) wireServices() {
	userRepo := sqlstore.NewUserRepository(a.DB)
	queueRepo := sqlstore.NewQueueRepository(a.DB)
	a.Outbox = sqlstore.NewOutboxRepository(a.DB)

	validate := validator.New()
	events := eventService.NewEventService(a.Outbox, a.Clock)
	notifier := notification.NewService(email.NewService(a.Config.Email.ToEmailConfig()), validate)

	a.Identity = identity.NewService(
		userRepo,
		security.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewJWTService(a.Config.JWT.Secret, a.Config.JWT.Expiry()),
		a.Config.Cache.DirectoryTTL,
	)
	a.Queue = queueService.NewService(queueRepo, userRepo, events, notifier, a.Metrics, a.Clock)
	a.Prescriptions = prescriptionService.NewService(
		sqlstore.NewPrescriptionRepository(a.DB),
		queueRepo,
		userRepo,
		prescriptionService.NewCompiler(validate),
		pdf.NewRenderer(),
		events,
		a.Metrics,
		a.Clock,
		a.Config.Storage.PrescriptionDir,
	)
}

// Router builds the HTTP routes over the wired services.
func (a *App) Router() (*router.Router, error) {
	jwtSvc := auth.NewJWTService(a.Config.JWT.Secret, a.Config.JWT.Expiry())

	r, err := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		router.Handlers{
			Auth:         authHandler.NewHandler(a.Identity),
			Hospital:     hospital.NewHandler(a.Identity),
			Queue:        queueHandler.NewHandler(a.Queue),
			Prescription: prescriptionHandler.NewHandler(a.Prescriptions),
			Health:       health.NewHandler(a.DB, a.Registry),
		},
		a.Config.ToRouterConfig(),
		a.Registry,
	)
	if err != nil {
		return nil, err
	}
	r.Setup()
	return r, nil
}

// Server returns an http.Server for the API; the caller runs and stops it.
func (a *App) Server() (*http.Server, error) {
	r, err := a.Router()
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}, nil
}

// Broker connects to Redis when a URL is configured, otherwise events stay in process.
func (a *App) Broker(ctx context.Context) (messaging.Broker, error) {
	if a.Config.Redis.URL == "" {
		log.Warn().Msg("No Redis URL configured, publishing outbox events in process")
		return messaging.NewMemoryBroker(), nil
	}
	return redis.NewRedisBroker(ctx, a.Config.Redis.ToBrokerConfig(), a.Logger.Zerolog())
}

func (a *App) OutboxProcessor(broker messaging.Broker) *worker.OutboxProcessor {
	return worker.NewOutboxProcessor(
		a.Outbox,
		broker,
		a.Config.Outbox.ToWorkerConfig(a.Config.Redis.Channel),
		a.Logger.WithFields(map[string]interface{}{"component": "outbox_processor"}),
		a.Metrics,
		a.Clock,
	)
}

func (a *App) CleanupWorker() *worker.OutboxCleanupWorker {
	return worker.NewOutboxCleanupWorker(
		a.Outbox,
		a.Config.Outbox.RetentionDays,
		a.Config.Outbox.CleanupInterval,
		a.Logger.WithFields(map[string]interface{}{"component": "outbox_cleanup"}),
		a.Clock,
	)
}

func (a *App) Close() error {
	return a.DB.Close()
}
