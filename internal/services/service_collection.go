// file: internal/services/service_collection.go
package services

import (
	"context"
	"fmt"
	"time"

	"hackspeech/internal/cache"
	"hackspeech/internal/config"
	"hackspeech/internal/database"
	"hackspeech/internal/detection"
	"hackspeech/internal/events"
	"hackspeech/internal/llm"
	"hackspeech/internal/repositories"
	"hackspeech/internal/storage"

	"go.uber.org/zap"
)

// ServiceCollection holds all services with their shared infrastructure
type ServiceCollection struct {
	// Core Services
	AuthService         AuthService
	UserService         UserService
	DetectionService    DetectionService
	ProgressionService  ProgressionService
	StatsService        StatsService
	GamificationService GamificationService
	GuardianService     GuardianService
	ChatService         ChatService

	// Shared components
	Tokens       *TokenManager
	Repositories *repositories.Collection
	Loader       *cache.Loader
	LLM          *llm.Client

	// Infrastructure Components
	Cache     cache.Cache
	EventBus  events.EventBus
	DBManager *database.Manager
	Config    *config.Config
	Logger    *zap.Logger
}

// NewServiceCollection wires repositories, collaborators and services.
// presence may be nil when no realtime hub is running.
func NewServiceCollection(
	dbManager *database.Manager,
	cacheBackend cache.Cache,
	eventBus events.EventBus,
	presence PresenceChecker,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if cacheBackend == nil || eventBus == nil {
		return nil, fmt.Errorf("cache and event bus are required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	sc := &ServiceCollection{
		Cache:     cacheBackend,
		EventBus:  eventBus,
		DBManager: dbManager,
		Config:    cfg,
		Logger:    logger,
	}

	repos, err := repositories.NewCollection(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository collection: %w", err)
	}
	sc.Repositories = repos
	sc.Loader = cache.NewLoader(cacheBackend, logger.Named("cache"))
	sc.Tokens = NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)

	if err := sc.initializeServices(presence); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := NewCacheInvalidator(sc.Loader).Subscribe(eventBus); err != nil {
		return nil, err
	}

	logger.Info("Service collection initialized",
		zap.Bool("llm_configured", sc.LLM.Configured()),
		zap.String("cache_provider", cfg.Cache.Provider),
	)
	return sc, nil
}

// ===============================
// INITIALIZATION
// ===============================

func (sc *ServiceCollection) initializeServices(presence PresenceChecker) error {
	cfg := sc.Config
	repos := sc.Repositories

	sc.LLM = llm.NewClient(cfg.LLM, sc.Logger.Named("llm"))

	seed := cfg.Gamification.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	classifier := detection.NewClassifier(detection.NewLockedRand(seed))
	reformulator := detection.NewReformulator(
		llm.NewGenerator(sc.LLM, cfg.LLM.ReformulateTemperature, 0),
		cfg.LLM.Timeout,
		sc.Logger.Named("reformulator"),
	)

	avatars, err := storage.NewCloudinaryStore(cfg.Cloudinary, sc.Logger.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to initialize avatar storage: %w", err)
	}

	profiles := newProfileBuilder(repos.Badge, repos.Guardian)

	sc.ProgressionService = NewProgressionService(repos, sc.EventBus, cfg.Gamification, sc.Logger.Named("progression"))

	sc.AuthService = NewAuthService(
		repos.User,
		profiles,
		sc.Tokens,
		sc.EventBus,
		cfg.Auth,
		cfg.IsProduction(),
		sc.Logger.Named("auth"),
	)

	sc.UserService = NewUserService(repos.User, profiles, avatars, sc.EventBus, sc.Logger.Named("users"))

	sc.DetectionService = NewDetectionService(
		classifier,
		reformulator,
		repos.Detection,
		sc.ProgressionService,
		sc.EventBus,
		sc.Logger.Named("detection"),
	)

	sc.StatsService = NewStatsService(repos, sc.Loader, cfg.Cache.DashboardTTL, sc.Logger.Named("stats"))

	sc.GamificationService = NewGamificationService(
		repos,
		sc.ProgressionService,
		sc.Loader,
		cfg.Cache,
		cfg.Gamification,
		sc.Logger.Named("gamification"),
	)

	sc.GuardianService = NewGuardianService(
		repos,
		sc.ProgressionService,
		presence,
		sc.Loader,
		cfg.Cache.DefaultTTL,
		sc.EventBus,
		sc.Logger.Named("guardian"),
	)

	sc.ChatService = NewChatService(
		repos.Chat,
		llm.NewGenerator(sc.LLM, cfg.LLM.ChatTemperature, cfg.LLM.ChatMaxTokens),
		cfg.LLM.Timeout,
		sc.EventBus,
		sc.Logger.Named("chat"),
	)

	return nil
}

// ===============================
// HEALTH
// ===============================

// HealthCheck reports repository and cache health alongside the LLM circuit state
func (sc *ServiceCollection) HealthCheck(ctx context.Context) map[string]interface{} {
	report := sc.Repositories.HealthCheck(ctx)

	if err := sc.Cache.Health(ctx); err != nil {
		report["cache"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	} else {
		report["cache"] = map[string]interface{}{"status": "healthy"}
	}

	report["llm"] = map[string]interface{}{
		"configured": sc.LLM.Configured(),
		"circuit":    sc.LLM.State(),
	}
	return report
}
