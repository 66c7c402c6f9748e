// file: internal/services/gamification_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"hackspeech/internal/cache"
	"hackspeech/internal/config"
	"hackspeech/internal/models"
	"hackspeech/internal/repositories"

	"go.uber.org/zap"
)

const (
	leaderboardDefaultLimit = 10
	leaderboardMaxLimit     = 100

	badgeCatalogCacheKey = "badges:catalog"
)

func LeaderboardCacheKey(limit int) string {
	return fmt.Sprintf("leaderboard:%d", limit)
}

// gamificationService implements GamificationService
type gamificationService struct {
	users       repositories.UserRepository
	challenges  repositories.ChallengeRepository
	badges      repositories.BadgeRepository
	progression ProgressionService
	loader      *cache.Loader
	cacheCfg    config.CacheConfig
	cfg         config.GamificationConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewGamificationService creates a new gamification service
func NewGamificationService(
	repos *repositories.Collection,
	progression ProgressionService,
	loader *cache.Loader,
	cacheCfg config.CacheConfig,
	cfg config.GamificationConfig,
	logger *zap.Logger,
) GamificationService {
	return &gamificationService{
		users:       repos.User,
		challenges:  repos.Challenge,
		badges:      repos.Badge,
		progression: progression,
		loader:      loader,
		cacheCfg:    cacheCfg,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// ===============================
// LEADERBOARD & BADGES
// ===============================

func (s *gamificationService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = leaderboardDefaultLimit
	}
	if limit > leaderboardMaxLimit {
		limit = leaderboardMaxLimit
	}

	return cache.Remember(ctx, s.loader, LeaderboardCacheKey(limit), s.cacheCfg.LeaderboardTTL, func(ctx context.Context) ([]models.LeaderboardEntry, error) {
		entries, err := s.users.Leaderboard(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to load leaderboard: %w", err)
		}
		if entries == nil {
			entries = []models.LeaderboardEntry{}
		}
		return entries, nil
	})
}

// Badges returns the whole catalog annotated with the caller's unlocks
func (s *gamificationService) Badges(ctx context.Context, userID int64) ([]*models.BadgeStatus, error) {
	catalog, err := cache.Remember(ctx, s.loader, badgeCatalogCacheKey, s.cacheCfg.DefaultTTL, func(ctx context.Context) ([]*models.Badge, error) {
		return s.badges.ListCatalog(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}

	owned, err := s.badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user badges: %w", err)
	}
	unlockedAt := make(map[int64]time.Time, len(owned))
	for _, ub := range owned {
		unlockedAt[ub.BadgeID] = ub.UnlockedAt
	}

	statuses := make([]*models.BadgeStatus, 0, len(catalog))
	for _, badge := range catalog {
		status := &models.BadgeStatus{
			ID:          badge.ID,
			Name:        badge.Name,
			Emoji:       badge.Emoji,
			Description: badge.Description,
			Requirement: badge.Requirement,
			Category:    badge.Category,
		}
		if at, ok := unlockedAt[badge.ID]; ok {
			at := at
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ===============================
// CHALLENGES
// ===============================

// CurrentChallenge returns the active challenge with the caller's progress,
// creating the progress row on first view.
func (s *gamificationService) CurrentChallenge(ctx context.Context, userID int64) (*CurrentChallengeResponse, error) {
	challenge, err := s.challenges.GetActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load active challenge: %w", err)
	}
	if challenge == nil {
		return &CurrentChallengeResponse{}, nil
	}

	uc, err := s.challenges.GetUserChallenge(ctx, userID, challenge.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load challenge progress: %w", err)
	}

	if uc == nil {
		if _, err := s.progression.EvaluateChallenge(ctx, userID); err != nil {
			return nil, err
		}
		uc, err = s.challenges.GetUserChallenge(ctx, userID, challenge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load challenge progress: %w", err)
		}
	}

	return &CurrentChallengeResponse{Challenge: models.NewChallengeView(challenge, uc)}, nil
}

// EnsureWeeklyChallenge creates the current ISO week's challenge when no
// active challenge covers now.
func (s *gamificationService) EnsureWeeklyChallenge(ctx context.Context, now time.Time) (*models.Challenge, error) {
	active, err := s.challenges.GetActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load active challenge: %w", err)
	}
	if active != nil {
		return active, nil
	}

	start, end := ISOWeekBounds(now)
	_, week := start.ISOWeek()

	challenge := &models.Challenge{
		Title:       fmt.Sprintf("Défi de la semaine %d", week),
		Description: fmt.Sprintf("Analyse %d messages avant dimanche soir", s.cfg.ChallengeTarget),
		Emoji:       "🎯",
		Type:        models.ChallengeTypeWeekly,
		Target:      s.cfg.ChallengeTarget,
		Reward:      s.cfg.ChallengeReward,
		StartDate:   start,
		EndDate:     end,
		IsActive:    true,
	}
	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create weekly challenge: %w", err)
	}

	s.logger.Info("Weekly challenge created",
		zap.Int64("challenge_id", challenge.ID),
		zap.Int("week", week),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return challenge, nil
}

// ISOWeekBounds returns Monday 00:00:00 and Sunday 23:59:59 UTC of t's ISO week.
func ISOWeekBounds(t time.Time) (time.Time, time.Time) {
	day := truncateDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	start := day.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 7).Add(-time.Second)
	return start, end
}
