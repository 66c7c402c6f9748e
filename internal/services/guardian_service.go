// file: internal/services/guardian_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"hackspeech/internal/cache"
	"hackspeech/internal/events"
	"hackspeech/internal/models"
	"hackspeech/internal/repositories"

	"go.uber.org/zap"
)

const (
	msgChildCodeRequired = "Code enfant requis"
	msgChildCodeInvalid  = "Code enfant invalide"
	msgSelfLink          = "Vous ne pouvez pas vous lier à vous-même"
	msgChildLinked       = "Enfant lié avec succès"
	msgChildNotFound     = "Enfant non trouvé"

	recentActivityLimit = 10
	activityTextRunes   = 50
)

func ChildStatsCacheKey(guardianID, childID int64) string {
	return fmt.Sprintf("guardian:%d:child:%d", guardianID, childID)
}

// guardianService implements GuardianService
type guardianService struct {
	users       repositories.UserRepository
	detections  repositories.DetectionRepository
	guardian    repositories.GuardianRepository
	progression ProgressionService
	presence    PresenceChecker
	loader      *cache.Loader
	ttl         time.Duration
	events      events.EventBus
	logger      *zap.Logger
	now         func() time.Time
}

// NewGuardianService creates a new guardian service
func NewGuardianService(
	repos *repositories.Collection,
	progression ProgressionService,
	presence PresenceChecker,
	loader *cache.Loader,
	ttl time.Duration,
	eventBus events.EventBus,
	logger *zap.Logger,
) GuardianService {
	return &guardianService{
		users:       repos.User,
		detections:  repos.Detection,
		guardian:    repos.Guardian,
		progression: progression,
		presence:    presence,
		loader:      loader,
		ttl:         ttl,
		events:      eventBus,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *guardianService) Children(ctx context.Context, guardianID int64) ([]*ChildOverview, error) {
	children, err := s.guardian.ListChildren(ctx, guardianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}

	overviews := make([]*ChildOverview, 0, len(children))
	for _, child := range children {
		total, hate, err := s.counts(ctx, child.ID)
		if err != nil {
			return nil, err
		}

		overviews = append(overviews, &ChildOverview{
			ID:       child.ID,
			Name:     child.Name,
			Avatar:   child.Avatar,
			Points:   child.Points,
			Level:    child.Level,
			IsOnline: s.presence != nil && s.presence.IsOnline(child.ID),
			Stats: ChildActivityStats{
				MessagesAnalyzed: total,
				HateDetected:     hate,
				SafetyScore:      HarmonyScore(total, hate),
			},
		})
	}
	return overviews, nil
}

// Link attaches the child owning code to the guardian. Linking twice is a no-op.
func (s *guardianService) Link(ctx context.Context, guardianID int64, req *LinkChildRequest) (*LinkChildResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.ChildCode))
	if code == "" {
		return nil, NewValidationError(msgChildCodeRequired, nil)
	}

	child, err := s.users.GetByLinkCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to find child: %w", err)
	}
	if child == nil {
		return nil, NewNotFoundError(msgChildCodeInvalid)
	}
	if child.ID == guardianID {
		return nil, NewValidationError(msgSelfLink, nil)
	}

	if err := s.guardian.Link(ctx, guardianID, child.ID); err != nil {
		return nil, fmt.Errorf("failed to link child: %w", err)
	}

	s.logger.Info("Child linked",
		zap.Int64("guardian_id", guardianID),
		zap.Int64("child_id", child.ID),
	)
	s.events.Publish(ctx, events.NewGuardianLinkedEvent(guardianID, child.ID, child.Name))

	if _, err := s.progression.EvaluateBadges(ctx, guardianID); err != nil {
		s.logger.Warn("Badge evaluation after link failed", zap.Int64("guardian_id", guardianID), zap.Error(err))
	}

	return &LinkChildResponse{Message: msgChildLinked, Child: child.Summary()}, nil
}

// ChildStats is only available for children linked to the guardian.
func (s *guardianService) ChildStats(ctx context.Context, guardianID, childID int64) (*ChildStatsResponse, error) {
	linked, err := s.guardian.IsLinked(ctx, guardianID, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to check guardian link: %w", err)
	}
	if !linked {
		return nil, NewNotFoundError(msgChildNotFound)
	}

	return cache.Remember(ctx, s.loader, ChildStatsCacheKey(guardianID, childID), s.ttl, func(ctx context.Context) (*ChildStatsResponse, error) {
		return s.buildChildStats(ctx, childID)
	})
}

func (s *guardianService) buildChildStats(ctx context.Context, childID int64) (*ChildStatsResponse, error) {
	child, err := s.users.GetByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load child: %w", err)
	}
	if child == nil {
		return nil, NewNotFoundError(msgChildNotFound)
	}

	total, hate, err := s.counts(ctx, childID)
	if err != nil {
		return nil, err
	}

	categories, err := s.detections.CategoryBreakdown(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category breakdown: %w", err)
	}
	if categories == nil {
		categories = []models.CategoryCount{}
	}

	recent, err := s.detections.RecentSince(ctx, childID, s.now().Add(-7*24*time.Hour), recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}

	activity := make([]models.ActivityItem, 0, len(recent))
	for _, d := range recent {
		activity = append(activity, models.ActivityItem{
			Text:         truncateRunes(d.OriginalText, activityTextRunes),
			IsHateSpeech: d.IsHateSpeech,
			Category:     d.Category,
			Date:         d.CreatedAt,
		})
	}

	return &ChildStatsResponse{
		Child: ChildProfile{
			ID:     child.ID,
			Name:   child.Name,
			Avatar: child.Avatar,
			Points: child.Points,
			Level:  child.Level,
		},
		Stats: ChildDetailStats{
			TotalDetections: total,
			HateDetections:  hate,
			SafetyScore:     HarmonyScore(total, hate),
			CategoryStats:   categories,
			RecentActivity:  activity,
		},
	}, nil
}

// LinkCode returns the code a guardian types to link this account.
func (s *guardianService) LinkCode(ctx context.Context, userID int64) (*LinkCodeResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, NewNotFoundError(msgUserNotFound)
	}
	return &LinkCodeResponse{Code: user.LinkCode}, nil
}

func (s *guardianService) counts(ctx context.Context, childID int64) (int, int, error) {
	total, err := s.detections.CountSince(ctx, childID, time.Time{}, models.DetectionFilter{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count detections: %w", err)
	}
	hate, err := s.detections.CountSince(ctx, childID, time.Time{}, models.DetectionFilter{HateOnly: true})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count hate detections: %w", err)
	}
	return total, hate, nil
}

// truncateRunes cuts s to n runes and marks the cut with "...".
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
