// file: internal/services/stats_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"hackspeech/internal/cache"
	"hackspeech/internal/models"
	"hackspeech/internal/repositories"

	"go.uber.org/zap"
)

// DashboardCacheKey is invalidated whenever the user's detections or progress change.
func DashboardCacheKey(userID int64) string {
	return fmt.Sprintf("dashboard:%d", userID)
}

// statsService implements StatsService
type statsService struct {
	users      repositories.UserRepository
	detections repositories.DetectionRepository
	badges     repositories.BadgeRepository
	loader     *cache.Loader
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(repos *repositories.Collection, loader *cache.Loader, ttl time.Duration, logger *zap.Logger) StatsService {
	return &statsService{
		users:      repos.User,
		detections: repos.Detection,
		badges:     repos.Badge,
		loader:     loader,
		ttl:        ttl,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *statsService) Dashboard(ctx context.Context, userID int64) (*DashboardResponse, error) {
	return cache.Remember(ctx, s.loader, DashboardCacheKey(userID), s.ttl, func(ctx context.Context) (*DashboardResponse, error) {
		return s.buildDashboard(ctx, userID)
	})
}

func (s *statsService) buildDashboard(ctx context.Context, userID int64) (*DashboardResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError(msgUserNotFound)
	}

	total, err := s.detections.CountSince(ctx, userID, time.Time{}, models.DetectionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count detections: %w", err)
	}
	hate, err := s.detections.CountSince(ctx, userID, time.Time{}, models.DetectionFilter{HateOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to count hate detections: %w", err)
	}

	categories, err := s.detections.CategoryBreakdown(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category breakdown: %w", err)
	}
	if categories == nil {
		categories = []models.CategoryCount{}
	}

	weekly, err := s.detections.WeeklyCounts(ctx, userID, s.now().Add(-7*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly counts: %w", err)
	}

	badges, err := s.badges.UnlockedNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	if badges == nil {
		badges = []string{}
	}

	return &DashboardResponse{
		User: DashboardUser{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Avatar: user.Avatar,
			Points: user.Points,
			Level:  user.Level,
			Badges: badges,
		},
		Stats: DashboardStats{
			MessagesAnalyzed: max(total, user.TotalAnalyzed),
			MessagesImproved: max(hate, user.TotalTransformed),
			BadgesUnlocked:   len(badges),
			HarmonyScore:     HarmonyScore(total, hate),
			WeeklyData:       weekly,
			CategoryStats:    categories,
		},
	}, nil
}

// HarmonyScore is the rounded share of clean messages, 100 when there are none.
func HarmonyScore(total, hate int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(total-hate) / float64(total) * 100))
}
