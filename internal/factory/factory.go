package factory

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"rewards-admin/internal/audit"
	"rewards-admin/internal/client"
	"rewards-admin/internal/config"
	"rewards-admin/internal/handler"
	"rewards-admin/internal/hashing"
	"rewards-admin/internal/repository"
	"rewards-admin/internal/repository/memory"
	"rewards-admin/internal/repository/postgres"
	redisrepo "rewards-admin/internal/repository/redis"
	"rewards-admin/internal/service"
	"rewards-admin/internal/tls"
	"rewards-admin/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.Manager

	// Clients
	pgClient      *postgres.Client
	redisClient   *client.RedisClient
	kafkaProducer *client.KafkaProducer

	// Repositories
	admins   repository.AdminRepository
	sessions repository.SessionRepository
	resets   repository.ResetRepository
	stats    repository.StatsRepository
	guests   repository.GuestSubmissionRepository

	// Managers and services
	hasher       *hashing.Hasher
	authService  *service.AuthService
	adminService *service.AdminService

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		factory.tlsManager = tls.NewManager(&tls.Config{
			EnableTLS:   cfg.Server.EnableTLS,
			AutoCert:    cfg.Server.AutoCert,
			Domain:      cfg.Server.Domain,
			CertFile:    cfg.Server.CertFile,
			KeyFile:     cfg.Server.KeyFile,
			AutoCertDir: cfg.Server.AutoCertDir,
			Email:       cfg.Server.Email,
			Environment: cfg.Environment,
		})
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeServices()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("storage_driver", cfg.Storage.Driver),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("redis_enabled", cfg.Redis.Enabled),
		util.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	return factory, nil
}

// initializeClients connects the storage backend plus the optional Redis
// and Kafka clients, with health checks.
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Storage backend
	switch f.config.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		f.admins = store.Admins
		f.sessions = store.Sessions
		f.resets = store.Resets
		f.stats = store.Stats
		f.guests = store.Guests
		util.Warn("Using in-memory storage; all data is lost on shutdown")
	default:
		pg, err := postgres.NewClient(f.config)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		f.pgClient = pg
		if err := pg.HealthCheck(ctx); err != nil {
			return fmt.Errorf("postgres health check: %w", err)
		}
		if f.config.Postgres.ApplySchema {
			if err := pg.ApplySchema(ctx); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		f.admins = postgres.NewAdminRepository(pg)
		f.sessions = postgres.NewSessionRepository(pg)
		f.resets = postgres.NewResetRepository(pg)
		f.stats = postgres.NewStatsRepository(pg)
		f.guests = postgres.NewGuestRepository(pg)
		util.Info("Postgres client initialized and healthy")
	}

	// Redis (optional session cache and attempt limiter)
	if f.config.Redis.Enabled {
		rc, err := client.NewRedisClient(f.config)
		if err != nil {
			if f.config.IsProduction() {
				return fmt.Errorf("redis: %w", err)
			}
			util.Warn("Redis initialization failed - proceeding without cache", util.ErrorField(err))
		} else {
			f.redisClient = rc
			if err := rc.HealthCheck(ctx); err != nil {
				util.Warn("Redis health check failed", util.ErrorField(err))
			} else {
				util.Info("Redis client initialized and healthy")
			}
		}
	}

	// Kafka (optional audit event stream)
	if f.config.Kafka.Enabled {
		producer, err := client.NewKafkaProducer(f.config)
		if err != nil {
			util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
		} else {
			f.kafkaProducer = producer
			util.Info("Kafka producer initialized")
		}
	}

	return nil
}

// initializeServices builds the hasher and the two services on top of
// the repositories and optional clients.
func (f *Factory) initializeServices() {
	f.hasher = hashing.NewHasher(f.config)

	var auditor audit.Publisher
	if f.kafkaProducer != nil {
		auditor = audit.NewKafkaPublisher(f.kafkaProducer)
	} else {
		auditor = audit.NewLogPublisher()
	}

	var cache *redisrepo.SessionCache
	var limiter *redisrepo.AttemptLimiter
	if f.redisClient != nil {
		cache = redisrepo.NewSessionCache(f.redisClient)
		limiter = redisrepo.NewAttemptLimiter(
			f.redisClient,
			f.config.Auth.MaxLoginAttempts,
			f.config.Auth.AttemptWindow,
		)
	}

	f.authService = service.NewAuthService(
		f.admins,
		f.sessions,
		f.resets,
		f.hasher,
		service.NewLogCodeSender(),
		auditor,
		cache,
		limiter,
		f.config,
	)
	f.adminService = service.NewAdminService(f.stats, f.guests, auditor)
}

// Router assembles the HTTP surface.
func (f *Factory) Router() http.Handler {
	authHandler := handler.NewAuthHandler(f.authService, f.config)
	adminHandler := handler.NewAdminHandler(f.authService, f.adminService, f.config)
	return handler.NewRouter(authHandler, adminHandler, f, util.Get())
}

// Healthy implements handler.HealthChecker.
func (f *Factory) Healthy(r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if f.pgClient != nil {
		if err := f.pgClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.pgClient != nil {
			if err := f.pgClient.Close(); err != nil {
				util.Error("Failed to close Postgres client", util.ErrorField(err))
			} else {
				util.Info("Postgres client closed")
			}
		}

		util.Sync()
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.Manager {
	return f.tlsManager
}

func (f *Factory) AuthService() *service.AuthService {
	return f.authService
}

func (f *Factory) AdminService() *service.AdminService {
	return f.adminService
}
