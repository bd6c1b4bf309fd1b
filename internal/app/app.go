package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/visit-logger/internal/config"
	"github.com/jwalitptl/visit-logger/internal/email"
	authhandler "github.com/jwalitptl/visit-logger/internal/handler/auth"
	cataloghandler "github.com/jwalitptl/visit-logger/internal/handler/catalog"
	documenthandler "github.com/jwalitptl/visit-logger/internal/handler/document"
	"github.com/jwalitptl/visit-logger/internal/handler/health"
	patienthandler "github.com/jwalitptl/visit-logger/internal/handler/patient"
	promhandler "github.com/jwalitptl/visit-logger/internal/handler/prometheus"
	visithandler "github.com/jwalitptl/visit-logger/internal/handler/visit"
	"github.com/jwalitptl/visit-logger/internal/middleware"
	"github.com/jwalitptl/visit-logger/internal/repository"
	"github.com/jwalitptl/visit-logger/internal/repository/dynamodb"
	"github.com/jwalitptl/visit-logger/internal/repository/memory"
	"github.com/jwalitptl/visit-logger/internal/repository/postgres"
	"github.com/jwalitptl/visit-logger/internal/router"
	"github.com/jwalitptl/visit-logger/internal/seed"
	authsvc "github.com/jwalitptl/visit-logger/internal/service/auth"
	catalogsvc "github.com/jwalitptl/visit-logger/internal/service/catalog"
	documentsvc "github.com/jwalitptl/visit-logger/internal/service/document"
	eventsvc "github.com/jwalitptl/visit-logger/internal/service/event"
	patientsvc "github.com/jwalitptl/visit-logger/internal/service/patient"
	visitsvc "github.com/jwalitptl/visit-logger/internal/service/visit"
	jwtauth "github.com/jwalitptl/visit-logger/pkg/auth"
	"github.com/jwalitptl/visit-logger/pkg/messaging"
	"github.com/jwalitptl/visit-logger/pkg/messaging/redis"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
	"github.com/jwalitptl/visit-logger/pkg/security"
)

const serviceName = "visit-logger"

// App is a fully wired API: store, services, middleware and router.
type App struct {
	Config   *config.Config
	Repos    *repository.Set
	Events   *eventsvc.Service
	Registry *prometheus.Registry
	Hasher   security.PasswordHasher

	engine *gin.Engine
	broker messaging.Broker
}

// Options override the pieces tests and the CLI need to control.
type Options struct {
	// Repos replaces the configured backend.
	Repos *repository.Set
	// Broker replaces the configured event broker.
	Broker messaging.Broker
	// Mailer replaces the configured email sender.
	Mailer email.Service
	// Now is the clock the services use.
	Now func() time.Time
}

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	if cfg.JWT.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWT.Secret = secret
		logger.Warn().Msg("jwt.secret is empty; using a random secret, tokens will not survive a restart")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace, registry)

	repos := opts.Repos
	var check health.Checker
	if repos == nil {
		var err error
		repos, check, err = OpenStore(ctx, cfg, m)
		if err != nil {
			return nil, err
		}
	}

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	if cfg.Store.Backend == config.BackendMemory && opts.Repos == nil {
		if err := seed.Run(ctx, repos, hasher); err != nil {
			return nil, fmt.Errorf("seeding memory store: %w", err)
		}
	}

	broker := opts.Broker
	if broker == nil {
		var err error
		broker, err = OpenBroker(ctx, cfg.Redis, logger)
		if err != nil {
			closeRepos(repos, logger)
			return nil, err
		}
	}

	mailer := opts.Mailer
	if mailer == nil {
		mailer = openMailer(cfg.SMTP)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	events := eventsvc.NewService(broker, cfg.Redis.Channel, m)
	catalog := catalogsvc.NewService(repos.Catalog)
	patients := patientsvc.NewService(repos.Patients, repos.Visits, catalog, events, now)
	visits := visitsvc.NewService(repos.Visits, patients, catalog, events, now)
	documents := documentsvc.NewService(visits, repos.Patients, repos.Doctors, catalog, mailer)

	tokens := jwtauth.NewJWTManager(jwtauth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL(),
	})
	auth := authsvc.NewService(repos.Doctors, tokens, hasher, m, authsvc.Config{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockoutDuration:  time.Duration(cfg.Auth.LockoutMinutes) * time.Minute,
	})

	var httpMetrics *promhandler.Handler
	if cfg.Metrics.Enabled {
		httpMetrics = promhandler.New(cfg.Metrics.Namespace, registry)
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth),
		router.Handlers{
			Health:   health.NewHandler(serviceName, check),
			Auth:     authhandler.NewHandler(auth),
			Patient:  patienthandler.NewHandler(patients),
			Visit:    visithandler.NewHandler(visits),
			Catalog:  cataloghandler.NewHandler(catalog),
			Document: documenthandler.NewHandler(documents),
		},
		router.Config{
			Mode:           cfg.Server.Mode,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RateLimit: router.RateLimitConfig{
				Enabled: cfg.RateLimit.Enabled,
				RPS:     cfg.RateLimit.RequestsPerSecond,
				Burst:   cfg.RateLimit.Burst,
			},
			Timeout:   middleware.TimeoutConfig{Duration: cfg.Server.RequestTimeout()},
			SizeLimit: middleware.DefaultSizeLimitConfig(),
			Metrics:   httpMetrics,
		},
	)

	return &App{
		Config:   cfg,
		Repos:    repos,
		Events:   events,
		Registry: registry,
		Hasher:   hasher,
		engine:   r.Engine(),
		broker:   broker,
	}, nil
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}

// Close releases the broker and store connections.
func (a *App) Close() error {
	var errs []error
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	if a.Repos != nil && a.Repos.Close != nil {
		errs = append(errs, a.Repos.Close())
	}
	return errors.Join(errs...)
}

// OpenStore connects the configured backend. The returned checker backs
// the readiness probe and is nil for the memory store.
func OpenStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*repository.Set, health.Checker, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memory.NewStore().Set(), nil, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSet(db, m), db.PingContext, nil

	case config.BackendDynamoDB:
		client, err := dynamodb.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, nil, err
		}
		tables := dynamodb.TablesFromConfig(cfg.DynamoDB)
		check := func(ctx context.Context) error {
			_, err := client.DescribeTable(ctx, &awsdynamodb.DescribeTableInput{TableName: aws.String(tables.Doctors)})
			return err
		}
		return dynamodb.NewStore(client, tables, m).Set(), check, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// OpenBroker connects redis, or returns a no-op broker when it is disabled.
func OpenBroker(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (messaging.Broker, error) {
	if !cfg.Enabled {
		return messaging.NoopBroker{}, nil
	}
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	}, logger)
	if err != nil {
		return nil, err
	}
	return broker, nil
}

func openMailer(cfg config.SMTPConfig) email.Service {
	if !cfg.Enabled {
		return email.NewDisabledService()
	}
	return email.NewSMTPService(email.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

func closeRepos(repos *repository.Set, logger zerolog.Logger) {
	if repos.Close == nil {
		return
	}
	if err := repos.Close(); err != nil {
		logger.Error().Err(err).Msg("closing store")
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
