package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/saas-core/internal/cache"
	"github.com/magabrotheeeer/saas-core/internal/config"
	"github.com/magabrotheeeer/saas-core/internal/http/middlewarectx"
	"github.com/magabrotheeeer/saas-core/internal/lib/jwt"
	"github.com/magabrotheeeer/saas-core/internal/lib/password"
	"github.com/magabrotheeeer/saas-core/internal/lib/session"
	"github.com/magabrotheeeer/saas-core/internal/lib/sl"
	"github.com/magabrotheeeer/saas-core/internal/metrics"
	"github.com/magabrotheeeer/saas-core/internal/migrations"
	"github.com/magabrotheeeer/saas-core/internal/models"
	"github.com/magabrotheeeer/saas-core/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/saas-core/internal/services/auth"
	entitlementservice "github.com/magabrotheeeer/saas-core/internal/services/entitlement"
	planservice "github.com/magabrotheeeer/saas-core/internal/services/plan"
	subservice "github.com/magabrotheeeer/saas-core/internal/services/subscription"
	userservice "github.com/magabrotheeeer/saas-core/internal/services/user"
	"github.com/magabrotheeeer/saas-core/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP-сервис со всеми внешними соединениями.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher
}

// New подключается к PostgreSQL, Redis и RabbitMQ, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var publisher subservice.EventPublisher = rabbitmq.NoopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		if err = app.connectBroker(cfg.RabbitMQ); err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = app.publisher
	} else {
		logger.Warn("rabbitmq url is not set, subscription events are discarded")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	sessions := session.NewTransport(cfg.IsProduction(), jwt.SessionTTL)
	hasher := password.NewHasher(cfg.BcryptCost)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey)

	planService := planservice.NewPlanService(db, cacheRedis, cfg.PlanTTL, logger)
	lifecycle := subservice.NewLifecycle(db, planService, logger,
		subservice.WithPublisher(publisher),
		subservice.WithMetrics(m),
	)

	router := chi.NewRouter()
	RegisterRoutes(router, Dependencies{
		Logger:        logger,
		Registry:      registry,
		Metrics:       m,
		Limiter:       middlewarectx.NewIPRateLimiter(cfg.RPS, cfg.Burst),
		Sessions:      sessions,
		Auth:          authservice.NewAuthService(db, hasher, jwtMaker, m, logger),
		Users:         userservice.NewUserService(db, hasher, logger),
		Subscriptions: subservice.NewSubscriptionService(lifecycle, db, planService, logger),
		Plans:         planService,
		Entitlements:  entitlementservice.NewResolver(db, planService, logger),
		DB:            db,
		Cache:         cacheRedis,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// connectBroker открывает соединение, объявляет exchange и, если задана очередь,
// привязывает её ко всем событиям подписок.
func (a *App) connectBroker(cfg config.RabbitMQ) error {
	conn, err := rabbitmq.Connect(cfg.URL, cfg.Retries, cfg.Delay)
	if err != nil {
		return err
	}
	a.amqpConn = conn

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange)
	if err != nil {
		return err
	}
	if cfg.Queue != "" {
		queues := []rabbitmq.QueueConfig{
			{QueueName: cfg.Queue, RoutingKey: string(models.EventSubscriptionCreated)},
			{QueueName: cfg.Queue, RoutingKey: string(models.EventSubscriptionPlanChanged)},
			{QueueName: cfg.Queue, RoutingKey: string(models.EventSubscriptionCanceled)},
		}
		if err = rabbitmq.BindQueues(ch, cfg.Exchange, queues); err != nil {
			_ = ch.Close()
			return err
		}
	}
	a.publisher = rabbitmq.NewPublisher(ch, cfg.Exchange)
	a.logger.Info("connected to rabbitmq", slog.String("exchange", cfg.Exchange))
	return nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis client", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
