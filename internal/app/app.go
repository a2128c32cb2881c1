package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"withdrawal-service/internal/api/http/handler"
	"withdrawal-service/internal/api/http/route"
	"withdrawal-service/internal/apperrors"
	"withdrawal-service/internal/config"
	"withdrawal-service/internal/gateway"
	"withdrawal-service/internal/msg/inbox"
	"withdrawal-service/internal/msg/outbox"
	"withdrawal-service/internal/repository"
	"withdrawal-service/internal/service"
	"withdrawal-service/pkg/kafka"
	"withdrawal-service/pkg/postgres"
	"withdrawal-service/pkg/rabbitmq"
	"withdrawal-service/pkg/redis"
	"withdrawal-service/pkg/server"
)

const (
	consumerBufferSize = 1000
	shutdownTimeout    = 15 * time.Second
)

type Runner interface {
	Run(ctx context.Context)
}

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Repository *Repository
	Service    *Service
	Handler    *Handler
	DB         postgres.Postgres
	RDB        redis.Redis
	HTTPServer server.HTTPServer
	EBus       *EBus

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Repository struct {
	Transactor          *repository.Transactor
	HealthChecks        []service.HealthCheck
	WithdrawalRepo      *repository.WithdrawalRepository
	ScheduledRepo       *repository.ScheduledWithdrawalRepository
	OutboxRepository    *repository.OutboxRepository
	InboxRepository     *repository.InboxRepository
	UserRepository      *repository.UserRepository
	PaymentMethodRepo   *repository.PaymentMethodRepository
	PaymentMethodSource service.PaymentMethodRepository
}

type Service struct {
	HealthService     *service.HealthService
	UserService       *service.UserService
	WithdrawalService *service.WithdrawalService
	SettlementService *service.SettlementService
}

type Handler struct {
	HealthHandler     *handler.HealthHandler
	UserHandler       *handler.UserHandler
	WithdrawalHandler *handler.WithdrawalHandler
}

// EBus holds the background message plumbing. Subscriber and its consumer are nil
// when settlement consumption is disabled.
type EBus struct {
	Dispatcher Runner
	Subscriber Runner

	channel outbox.Channel
	closers []func() error
	// health is set when the outbox channel talks to a broker.
	health *service.HealthCheck
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := initDB(&cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	log.Debug("Database initialized")

	var rdb redis.Redis

	if cfg.Redis.Enable {
		rdb, err = initRedis(&cfg.Redis)
		if err != nil {
			db.Close()

			log.Error("Failed to initialize redis", zap.Error(err))
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}

		log.Debug("Redis initialized")
	}

	repo := initRepository(log, cfg, db, rdb)

	gw, err := initGateway(log, &cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gateway: %w", err)
	}

	eBus := &EBus{}

	if err := initChannel(log, cfg, eBus); err != nil {
		return nil, fmt.Errorf("failed to initialize outbox channel: %w", err)
	}

	if eBus.health != nil {
		repo.HealthChecks = append(repo.HealthChecks, *eBus.health)
	}

	svc := initService(log, cfg, repo, gw)

	hdl := initHandler(log, svc)

	httpServer := initHTTPServer(log, cfg, hdl)

	if err := initEBus(log, cfg, repo, svc, eBus); err != nil {
		return nil, fmt.Errorf("failed to initialize ebus: %w", err)
	}

	return &App{
		Cfg:        cfg,
		Log:        log,
		Repository: repo,
		Service:    svc,
		Handler:    hdl,
		DB:         db,
		RDB:        rdb,
		HTTPServer: httpServer,
		EBus:       eBus,
	}, nil
}

func MustNew(cfg *config.Config, log *zap.Logger) *App {
	app, err := New(cfg, log)
	if err != nil {
		panic(err)
	}
	return app
}

func (a *App) Run(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	errs := make(chan error, 1)

	go func() {
		if err := a.HTTPServer.Run(); err != nil {
			errs <- err
		}
	}()

	a.background(ctx, a.EBus.Dispatcher)
	a.background(ctx, a.Service.WithdrawalService)

	if a.EBus.Subscriber != nil {
		a.background(ctx, a.EBus.Subscriber)
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *App) background(ctx context.Context, r Runner) {
	a.wg.Add(1)

	go func() {
		defer a.wg.Done()

		r.Run(ctx)
	}()
}

func (a *App) Shutdown() error {
	var errs []error

	if err := a.HTTPServer.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown http server: %w", err))
	}

	a.Log.Debug("Http server shutdown")

	if a.cancel != nil {
		a.cancel()
	}

	a.wg.Wait()

	a.Log.Debug("Background loops stopped")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.Service.WithdrawalService.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to wait for withdrawal workers: %w", err))
	}

	a.Log.Debug("Withdrawal workers finished")

	for _, closeFn := range a.EBus.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close message client: %w", err))
		}
	}

	a.Log.Debug("Message clients closed")

	a.DB.Close()
	a.Log.Debug("Database closed")

	if a.RDB != nil {
		if err := a.RDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RDB: %w", err))
		}

		a.Log.Debug("Redis closed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrShutdown, errors.Join(errs...))
	}

	return nil
}

func initDB(cfg *config.Database) (postgres.Postgres, error) {
	postgresCfg := &postgres.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Name:     cfg.Name,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
		Migration: postgres.Migration{
			Path:      cfg.Migration.Path,
			AutoApply: cfg.Migration.AutoApply,
		},
	}

	db, err := postgres.New(postgresCfg)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func initRedis(cfg *config.Redis) (redis.Redis, error) {
	redisCfg := &redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	rdb, err := redis.New(redisCfg)
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func initGateway(log *zap.Logger, cfg *config.Gateway) (service.Gateway, error) {
	maxAmount := decimal.Zero

	if cfg.MaxAmount != "" {
		parsed, err := decimal.NewFromString(cfg.MaxAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid gateway max amount %q: %w", cfg.MaxAmount, err)
		}

		maxAmount = parsed
	}

	provider := gateway.NewSimulated(gateway.Config{
		MaxAmount: maxAmount,
		Latency:   cfg.Latency,
	})

	gw := gateway.NewBreaker(log, gateway.BreakerConfig{
		Name:             "payment-gateway",
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}, provider)

	log.Debug("Gateway initialized")

	return gw, nil
}

func initRepository(log *zap.Logger, cfg *config.Config, db postgres.Postgres, rdb redis.Redis) *Repository {
	transactor := repository.NewTransactor(db.Pool())

	healthChecks := []service.HealthCheck{
		{Name: "database", Repo: repository.NewDatabaseHealthRepository(db.Pool())},
	}

	if rdb != nil {
		healthChecks = append(healthChecks, service.HealthCheck{
			Name: "redis",
			Repo: repository.NewCacheHealthRepository(rdb.Client()),
		})
	}

	log.Debug("Health repositories initialized", zap.Int("checks", len(healthChecks)))

	withdrawalRepo := repository.NewWithdrawalRepository(db.Pool())
	log.Debug("Withdrawal repository initialized")

	scheduledRepo := repository.NewScheduledWithdrawalRepository(db.Pool())
	log.Debug("Scheduled withdrawal repository initialized")

	outboxRepo := repository.NewOutboxRepository(db.Pool())
	log.Debug("Outbox repository initialized")

	inboxRepo := repository.NewInboxRepository(db.Pool())
	log.Debug("Inbox repository initialized")

	userRepo := repository.NewUserRepository(db.Pool())
	log.Debug("User repository initialized")

	paymentMethodRepo := repository.NewPaymentMethodRepository(db.Pool())
	log.Debug("Payment method repository initialized")

	var paymentMethodSource service.PaymentMethodRepository = paymentMethodRepo

	if rdb != nil {
		paymentMethodSource = repository.NewPaymentMethodCache(log, rdb.Client(), paymentMethodRepo, cfg.Redis.PaymentMethodTTL)
		log.Debug("Payment method cache initialized")
	}

	return &Repository{
		Transactor:          transactor,
		HealthChecks:        healthChecks,
		WithdrawalRepo:      withdrawalRepo,
		ScheduledRepo:       scheduledRepo,
		OutboxRepository:    outboxRepo,
		InboxRepository:     inboxRepo,
		UserRepository:      userRepo,
		PaymentMethodRepo:   paymentMethodRepo,
		PaymentMethodSource: paymentMethodSource,
	}
}

func initService(log *zap.Logger, cfg *config.Config, repo *Repository, gw service.Gateway) *Service {
	healthSvc := service.NewHealthService(log, repo.HealthChecks...)
	log.Debug("Health service initialized")

	userSvc := service.NewUserService(log, repo.UserRepository, repo.PaymentMethodRepo)
	log.Debug("User service initialized")

	recorder := service.NewEventRecorder(log, repo.OutboxRepository)

	withdrawalSvc := service.NewWithdrawalService(
		log,
		service.WithdrawalConfig{
			PollInterval:   cfg.Withdrawal.PollInterval,
			ProcessTimeout: cfg.Withdrawal.ProcessTimeout,
			PersistTimeout: cfg.Withdrawal.PersistTimeout,
			RecoverPending: cfg.Withdrawal.RecoverPending,
		},
		repo.Transactor,
		repo.WithdrawalRepo,
		repo.ScheduledRepo,
		repo.UserRepository,
		repo.PaymentMethodSource,
		gw,
		recorder,
		repo.OutboxRepository,
	)
	log.Debug("Withdrawal service initialized")

	settlementSvc := service.NewSettlementService(
		log,
		repo.Transactor,
		repo.InboxRepository,
		repo.WithdrawalRepo,
		repo.ScheduledRepo,
		recorder,
	)
	log.Debug("Settlement service initialized")

	return &Service{
		HealthService:     healthSvc,
		UserService:       userSvc,
		WithdrawalService: withdrawalSvc,
		SettlementService: settlementSvc,
	}
}

func initHandler(log *zap.Logger, svc *Service) *Handler {
	healthHandler := handler.NewHealthHandler(log, svc.HealthService)
	log.Debug("Health handler initialized")

	userHandler := handler.NewUserHandler(log, svc.UserService)
	log.Debug("User handler initialized")

	withdrawalHandler := handler.NewWithdrawalHandler(log, svc.WithdrawalService)
	log.Debug("Withdrawal handler initialized")

	return &Handler{
		HealthHandler:     healthHandler,
		UserHandler:       userHandler,
		WithdrawalHandler: withdrawalHandler,
	}
}

func initHTTPServer(log *zap.Logger, cfg *config.Config, hdl *Handler) server.HTTPServer {
	router := route.SetupRouter(
		log,
		cfg,
		hdl.HealthHandler,
		hdl.WithdrawalHandler,
		hdl.UserHandler,
	)

	httpServer := server.NewHTTPServer(
		server.WithAddr(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		server.WithTimeout(cfg.HTTPServer.Timeout.Read, cfg.HTTPServer.Timeout.Write, cfg.HTTPServer.Timeout.Idle),
		server.WithHandler(router),
	)

	return httpServer
}

func initEBus(log *zap.Logger, cfg *config.Config, repo *Repository, svc *Service, eBus *EBus) error {
	dispatcher, err := outbox.NewDispatcher(
		log,
		outbox.Config{
			Name:              cfg.Outbox.Channel,
			MaxRetries:        cfg.Outbox.MaxRetries,
			PollInterval:      cfg.Outbox.PollInterval,
			BatchSize:         cfg.Outbox.BatchSize,
			WorkerCount:       cfg.Outbox.WorkerCount,
			PublishTimeout:    cfg.Outbox.PublishTimeout,
			ProcessingTimeout: cfg.Outbox.ProcessingTimeout,
		},
		repo.OutboxRepository,
		eBus.channel,
		otel.GetMeterProvider(),
	)
	if err != nil {
		return fmt.Errorf("failed to init outbox dispatcher: %w", err)
	}

	eBus.Dispatcher = dispatcher

	log.Debug("Outbox dispatcher initialized", zap.String("channel", cfg.Outbox.Channel))

	if !cfg.Kafka.Subscriber.Enable {
		return nil
	}

	consumerGroup, err := kafka.NewConsumerGroupRunner(
		cfg.Kafka.Brokers,
		cfg.Kafka.Subscriber.GroupID,
		[]string{cfg.Kafka.Subscriber.Topic},
		consumerBufferSize,
		kafka.WithBalancerConsumer(kafka.RoundrobinBalanceStrategy),
	)
	if err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	eBus.closers = append(eBus.closers, consumerGroup.Shutdown)

	go func() {
		startAndRunningStr, ok := <-consumerGroup.Info()
		if ok {
			log.Info(startAndRunningStr)
		}
	}()

	eBus.Subscriber = inbox.NewSubscriber(
		log,
		inbox.Config{
			Name:        cfg.Kafka.Subscriber.Name,
			WorkerCount: cfg.Kafka.Subscriber.WorkerCount,
			Topic:       cfg.Kafka.Subscriber.Topic,
		},
		consumerGroup,
		svc.SettlementService,
	)

	log.Debug("Settlement subscriber initialized")

	return nil
}

// initChannel sets eBus.channel, and eBus.health when the channel needs a broker.
func initChannel(log *zap.Logger, cfg *config.Config, eBus *EBus) error {
	switch cfg.Outbox.Channel {
	case config.ChannelKafka:
		producer, err := kafka.NewProducer(
			cfg.Kafka.Brokers,
			kafka.WithBalancer(kafka.RoundRobin),
			kafka.WithRequiredAcks(kafka.RequireAll),
			kafka.WithMaxRetries(cfg.Kafka.Producer.MaxRetries),
		)
		if err != nil {
			return fmt.Errorf("failed to init kafka producer: %w", err)
		}

		eBus.closers = append(eBus.closers, producer.Close)
		eBus.channel = outbox.NewKafkaChannel(log, producer, cfg.Kafka.Producer.Topic)
		eBus.health = &service.HealthCheck{Name: "kafka", Repo: producer}

		log.Debug("Kafka producer initialized")

		return nil
	case config.ChannelRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(&rabbitmq.Config{
			URL:          cfg.RabbitMQ.URL,
			Queue:        cfg.RabbitMQ.Queue,
			DialAttempts: cfg.RabbitMQ.DialAttempts,
			DialBackoff:  cfg.RabbitMQ.DialBackoff,
		})
		if err != nil {
			return fmt.Errorf("failed to init rabbitmq publisher: %w", err)
		}

		eBus.closers = append(eBus.closers, publisher.Close)
		eBus.channel = outbox.NewRabbitMQChannel(publisher)
		eBus.health = &service.HealthCheck{Name: "rabbitmq", Repo: publisher}

		log.Debug("RabbitMQ publisher initialized")

		return nil
	case config.ChannelLog:
		eBus.channel = outbox.NewLogChannel(log)

		return nil
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownChannel, cfg.Outbox.Channel)
	}
}
