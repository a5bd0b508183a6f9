package di

import (
	"context"
	"fmt"
	"time"

	"maeum-toegeun/backend/ai"
	"maeum-toegeun/backend/internal/catalog"
	"maeum-toegeun/backend/internal/recommend"
	"maeum-toegeun/backend/internal/repository"
	"maeum-toegeun/backend/internal/service"
	"maeum-toegeun/backend/pkg/cache"
	"maeum-toegeun/backend/pkg/config"
	"maeum-toegeun/backend/pkg/events"
	"maeum-toegeun/backend/pkg/jwt"
	"maeum-toegeun/backend/pkg/kv"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/resilience"
	"maeum-toegeun/backend/pkg/seal"
	"maeum-toegeun/backend/pkg/secrets"
	"maeum-toegeun/backend/shared/observability"
	sharedredis "maeum-toegeun/backend/shared/redis"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	Backend kv.Backend
	Store   *repository.Store
	Catalog *catalog.Catalog
	Metrics *observability.Metrics

	JWTService *jwt.Service
	Publisher  events.Publisher
	Breaker    *resilience.CircuitBreaker
	AI         *ai.Client
	Users      *repository.UserRegistry

	ActivityService     *service.ActivityService
	AchievementService  *service.AchievementService
	MissionService      *service.MissionService
	EmotionService      *service.EmotionService
	ProfileService      *service.ProfileService
	CommunityService    *service.CommunityService
	FeedbackService     *service.FeedbackService
	RecoveryNoteService *service.RecoveryNoteService
	TopicService        *service.TopicService
	ChatService         *service.ChatService

	predictions *cache.Cache
	closers     []func() error
}

// Options holds what the container cannot build from configuration alone
type Options struct {
	// Backend overrides the configured store backend
	Backend kv.Backend
	// Registerer receives the service metrics; nil skips registration
	Registerer prometheus.Registerer
	// Secrets overrides the Vault/env secret source
	Secrets secrets.Manager
	Clock   service.Clock
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*Container, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	c := &Container{Config: cfg, Logger: log}

	source := opts.Secrets
	if source == nil {
		source = secretSource(cfg, log)
	}
	geminiKey := secrets.Resolve(ctx, source, "gemini-api.key", cfg.Gemini.APIKey)
	jwtSecret := secrets.Resolve(ctx, source, "jwt.secret", cfg.Security.JWTSecret)
	sealKey := secrets.Resolve(ctx, source, "note.seal-key", cfg.Notes.SealKey)
	if sealKey == "" {
		log.Warn("NOTE_SEAL_KEY is not set, deriving the note key from the JWT secret")
		sealKey = jwtSecret
	}

	backend := opts.Backend
	if backend == nil {
		var err error
		if backend, err = c.openBackend(ctx); err != nil {
			return nil, err
		}
	}
	c.Backend = backend
	log.Info("Store backend ready", "backend", backend.Name())

	var storeOpts []repository.Option
	if opts.Clock != nil {
		storeOpts = append(storeOpts, repository.WithClock(opts.Clock))
	}
	c.Store = repository.NewStore(backend, cfg.Store.KeyPrefix, log, storeOpts...)
	c.Catalog = catalog.Default()
	c.Metrics = observability.NewMetrics(opts.Registerer)
	c.JWTService = jwt.NewService(jwtSecret, cfg.Security.JWTExpiry)
	c.Users = repository.NewUserRegistry(c.Store)

	c.Publisher = events.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	c.closers = append(c.closers, c.Publisher.Close)

	breakerCfg := resilience.DefaultConfig("gemini")
	breakerCfg.OnStateChange = func(name string, to resilience.State) {
		c.Metrics.SetCircuit(name, to != resilience.StateClosed)
	}
	breakerCfg.IsSuccessful = ai.IsClientError
	c.Breaker = resilience.NewCircuitBreaker(breakerCfg, log)
	c.AI = ai.NewClient(ai.Config{
		APIKey:          geminiKey,
		BaseURL:         cfg.Gemini.BaseURL,
		Model:           cfg.Gemini.Model,
		Timeout:         cfg.Gemini.Timeout,
		Temperature:     cfg.Gemini.Temperature,
		TopK:            cfg.Gemini.TopK,
		TopP:            cfg.Gemini.TopP,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}, c.Breaker, c.Metrics, log)

	sealer, err := seal.New(sealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create note sealer: %w", err)
	}

	ttl := cfg.Cache.TTL
	if !cfg.Cache.Enabled {
		ttl = time.Nanosecond
	}
	c.predictions = cache.New(cache.Options{TTL: ttl, PurgeWindow: cfg.Cache.PurgeWindow, MaxItems: cfg.Cache.MaxSize})
	c.closers = append(c.closers, func() error { c.predictions.Close(); return nil })

	c.buildServices(sealer, opts.Clock)
	return c, nil
}

func (c *Container) buildServices(sealer *seal.Sealer, now service.Clock) {
	cfg, log := c.Config, c.Logger

	missionRepo := repository.NewMissionRepository(c.Store)
	emotionRepo := repository.NewEmotionRepository(c.Store)
	communityRepo := repository.NewCommunityRepository(c.Store)
	profileRepo := repository.NewProfileRepository(c.Store)

	c.ActivityService = service.NewActivityService(
		repository.NewActivityRepository(c.Store, cfg.Activity.MaxItems), c.Publisher, c.Metrics, log)
	c.AchievementService = service.NewAchievementService(c.Catalog, repository.NewBadgeRepository(c.Store),
		missionRepo, emotionRepo, communityRepo, c.ActivityService, now, log)
	c.MissionService = service.NewMissionService(c.Catalog, missionRepo, c.AchievementService,
		c.ActivityService, now, log, service.WithDailyCount(cfg.Missions.DailyCount))
	c.EmotionService = service.NewEmotionService(emotionRepo, profileRepo, c.ActivityService,
		c.AchievementService, c.predictions, now, log)
	c.ProfileService = service.NewProfileService(profileRepo)
	c.CommunityService = service.NewCommunityService(c.Catalog, communityRepo, c.ProfileService,
		c.ActivityService, c.AchievementService, service.ImageOptions{
			MaxPerPost: cfg.Images.MaxPerPost,
			MaxWidth:   cfg.Images.MaxWidth,
			TargetKB:   cfg.Images.MaxBytes / 1024,
		}, now, log)
	c.FeedbackService = service.NewFeedbackService(
		repository.NewFeedbackRepository(c.Store, cfg.Metrics.ResponseTimeCap), now, log)
	c.RecoveryNoteService = service.NewRecoveryNoteService(repository.NewRecoveryNoteRepository(c.Store), sealer, log)
	c.TopicService = service.NewTopicService(recommend.New(c.Catalog.Topics()), profileRepo)
	c.ChatService = service.NewChatService(c.AI, c.FeedbackService, c.ProfileService, c.Metrics, cfg.Stream.InactivityTimeout, log)
}

// openBackend connects the configured store
func (c *Container) openBackend(ctx context.Context) (kv.Backend, error) {
	cfg := c.Config
	switch cfg.Store.Backend {
	case config.StoreMemory, "":
		return kv.NewMemory(), nil

	case config.StoreRedis:
		client, err := sharedredis.Connect(ctx, sharedredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		return kv.NewRedis(client), nil

	case config.StorePostgres:
		db, err := config.NewDB(cfg, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { return closeDB(db) })
		store, err := kv.NewGorm(db)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare postgres store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// secretSource prefers Vault when it is enabled and reachable
func secretSource(cfg *config.Config, log *logger.Logger) secrets.Manager {
	if !cfg.Vault.Enabled {
		return secrets.EnvManager{}
	}
	m, err := secrets.NewVaultManager(secrets.VaultConfig{
		Address: cfg.Vault.Address,
		Token:   cfg.Vault.Token,
		Path:    cfg.Vault.Path,
	}, log)
	if err != nil {
		log.LogError(err, "Vault unavailable, reading secrets from the environment")
		return secrets.EnvManager{}
	}
	return m
}

// Close releases connections in reverse order of creation
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
