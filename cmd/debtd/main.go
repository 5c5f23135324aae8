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

	"github.com/bibbank/debt-service/internal/application/usecase"
	"github.com/bibbank/debt-service/internal/domain/service"
	"github.com/bibbank/debt-service/internal/infrastructure/cache"
	"github.com/bibbank/debt-service/internal/infrastructure/config"
	"github.com/bibbank/debt-service/internal/infrastructure/kafka"
	"github.com/bibbank/debt-service/internal/infrastructure/metrics"
	pgRepo "github.com/bibbank/debt-service/internal/infrastructure/persistence/postgres"
	"github.com/bibbank/debt-service/internal/infrastructure/scheduler"
	grpcPresentation "github.com/bibbank/debt-service/internal/presentation/grpc"
	"github.com/bibbank/debt-service/internal/presentation/rest"
	"github.com/bibbank/debt-service/pkg/auth"
	pkgkafka "github.com/bibbank/debt-service/pkg/kafka"
	"github.com/bibbank/debt-service/pkg/observability"
	pkgpostgres "github.com/bibbank/debt-service/pkg/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("debt-service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.ServiceName,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("starting debt-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Tracing and metrics.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracer(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck
	debtMetrics, err := metrics.NewOTelMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("create debt metrics: %w", err)
	}

	// Database.
	dbCfg := pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: cfg.DB.MaxConns,
	}
	pool, err := pkgpostgres.NewPool(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pkgpostgres.RunMigrations(dbCfg.DSN(), cfg.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Redis simulation cache.
	simCache := cache.NewRedisSimulationCache(cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer simCache.Close()

	// Kafka.
	kafkaCfg := pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		ClientID:      cfg.ServiceName,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLMechanism != "",
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
	}
	producer, err := pkgkafka.NewProducer(kafkaCfg)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()
	publisher := kafka.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic, logger)

	// Use cases.
	loanRepo := pgRepo.NewLoanRepo(pool)
	planner := service.NewPrepaymentPlanner()

	paymentUC := usecase.NewRecordPaymentUseCase(loanRepo, publisher, debtMetrics)
	overdueUC := usecase.NewMarkOverdueLoansUseCase(loanRepo, publisher, debtMetrics, logger)
	useCases := grpcPresentation.UseCases{
		Originate:   usecase.NewOriginateLoanUseCase(loanRepo, publisher, debtMetrics),
		Schedule:    usecase.NewBuildScheduleUseCase(loanRepo, publisher, debtMetrics),
		Payment:     paymentUC,
		Simulate:    usecase.NewSimulatePrepaymentUseCase(loanRepo, planner, simCache, cfg.Redis.SimulationTTL, logger),
		Prepay:      usecase.NewApplyPrepaymentUseCase(loanRepo, planner, publisher, debtMetrics),
		Restructure: usecase.NewRestructureDebtUseCase(loanRepo, publisher, debtMetrics),
		GetLoan:     usecase.NewGetLoanUseCase(loanRepo),
		ListLoans:   usecase.NewListLoansUseCase(loanRepo),
		MarkOverdue: overdueUC,
	}

	// Settled payments consumer.
	consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.PaymentsTopic, kafka.NewPaymentHandler(paymentUC, logger), logger)
	if err != nil {
		return fmt.Errorf("create payments consumer: %w", err)
	}
	defer consumer.Close()

	// Overdue sweep.
	var sweeper *scheduler.OverdueSweeper
	if cfg.Scheduler.OverdueSpec != "" {
		sweeper, err = scheduler.NewOverdueSweeper(cfg.Scheduler.OverdueSpec, cfg.Scheduler.Timezone, overdueUC, logger)
		if err != nil {
			return fmt.Errorf("create overdue sweeper: %w", err)
		}
	}

	// gRPC server.
	jwtSvc, err := newJWTService(cfg.JWT)
	if err != nil {
		return fmt.Errorf("initialize JWT service: %w", err)
	}
	grpcServer, err := grpcPresentation.NewServer(
		grpcPresentation.NewDebtHandler(useCases, logger),
		logger,
		jwtSvc,
		grpcPresentation.ServerOptions{
			TLSCertFile:     cfg.TLS.CertFile,
			TLSKeyFile:      cfg.TLS.KeyFile,
			TLSClientCAFile: cfg.TLS.CAFile,
			Reflection:      cfg.GRPCReflection,
		},
	)
	if err != nil {
		return fmt.Errorf("create gRPC server: %w", err)
	}

	// HTTP server (health checks and metrics).
	mux := http.NewServeMux()
	rest.NewHealthHandler(cfg.ServiceName, map[string]rest.Check{
		"postgres": func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
		"redis":    simCache.Ping,
	}, metricsHandler, logger).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start everything.
	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	go func() {
		if err := consumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("payments consumer error: %w", err)
		}
	}()

	if sweeper != nil {
		sweeper.Start()
		logger.Info("overdue sweep scheduled", "spec", cfg.Scheduler.OverdueSpec, "tz", cfg.Scheduler.Timezone)
	}

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("debt-service stopped")
	return runErr
}

// newJWTService builds a validation-only JWT service: public key preferred,
// shared secret as fallback.
func newJWTService(cfg config.JWTConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{
		Issuer: cfg.Issuer,
		Leeway: 30 * time.Second,
	}
	switch {
	case cfg.PublicKey != "":
		jwtCfg.PublicKeyPEM = cfg.PublicKey
	case cfg.PublicKeyFile != "":
		keyData, err := auth.LoadKeyFromFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	default:
		jwtCfg.Secret = cfg.Secret
	}
	return auth.NewJWTService(jwtCfg)
}
