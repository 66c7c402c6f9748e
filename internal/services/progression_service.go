// file: internal/services/progression_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"hackspeech/internal/config"
	"hackspeech/internal/events"
	"hackspeech/internal/models"
	"hackspeech/internal/monitoring"
	"hackspeech/internal/repositories"

	"go.uber.org/zap"
)

// streakWindow bounds how far back active days are read.
const streakWindow = 60 * 24 * time.Hour

// progressionService implements ProgressionService. Each step is idempotent,
// so re-running it for the same activity changes nothing.
type progressionService struct {
	users      repositories.UserRepository
	detections repositories.DetectionRepository
	progress   repositories.ProgressRepository
	challenges repositories.ChallengeRepository
	badges     repositories.BadgeRepository
	guardian   repositories.GuardianRepository
	events     events.EventBus
	cfg        config.GamificationConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewProgressionService creates a new progression service
func NewProgressionService(
	repos *repositories.Collection,
	eventBus events.EventBus,
	cfg config.GamificationConfig,
	logger *zap.Logger,
) ProgressionService {
	return &progressionService{
		users:      repos.User,
		detections: repos.Detection,
		progress:   repos.Progress,
		challenges: repos.Challenge,
		badges:     repos.Badge,
		guardian:   repos.Guardian,
		events:     eventBus,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// OnDetection counts the detection, awards points for flagged text, then
// re-evaluates the active challenge and the badge catalog.
//
// A detection without an id is appended to the ledger in the same transaction
// as its delta, so a failure stores nothing and the request can be retried.
// A stored detection is credited through its idempotency key. Once the delta
// is committed the challenge and badge steps run detached from ctx; they are
// recomputed from counters, so a failure there is logged and caught up by the
// next activity.
func (s *progressionService) OnDetection(ctx context.Context, userID int64, det *models.Detection) (*ProgressionOutcome, error) {
	det.UserID = userID
	delta := models.ProgressDelta{Analyzed: 1}
	if det.IsHateSpeech {
		delta.Points = s.cfg.DetectionPoints
	}

	var (
		result *models.ProgressResult
		err    error
	)
	if det.ID == 0 {
		result, err = s.detections.Create(ctx, det, delta)
	} else {
		result, err = s.progress.ApplyEvent(ctx, userID, models.ProgressSourceDetection, det.ID, delta)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply detection progress: %w", err)
	}

	ctx = context.WithoutCancel(ctx)
	outcome := &ProgressionOutcome{Progress: result}
	if result.Applied {
		outcome.PointsEarned = delta.Points
		if delta.Points > 0 {
			s.events.Publish(ctx, events.NewPointsAwardedEvent(userID, delta.Points, result.Points, result.Level))
		}
	}

	if err := s.finish(ctx, userID, outcome); err != nil {
		s.logger.Warn("Progression follow-up failed",
			zap.Int64("user_id", userID),
			zap.Int64("detection_id", det.ID),
			zap.Error(err),
		)
	}
	return outcome, nil
}

// OnReformulation counts one transformed message per detection.
func (s *progressionService) OnReformulation(ctx context.Context, userID, detectionID int64) (*ProgressionOutcome, error) {
	result, err := s.progress.ApplyEvent(ctx, userID, models.ProgressSourceReformulation, detectionID, models.ProgressDelta{Transformed: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to apply reformulation progress: %w", err)
	}

	outcome := &ProgressionOutcome{Progress: result}
	if !result.Applied {
		return outcome, nil
	}

	badges, err := s.EvaluateBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	outcome.NewBadges = badges
	return outcome, nil
}

func (s *progressionService) finish(ctx context.Context, userID int64, outcome *ProgressionOutcome) error {
	completion, err := s.EvaluateChallenge(ctx, userID)
	if err != nil {
		return err
	}
	if completion != nil {
		outcome.ChallengeCompleted = completion
		outcome.PointsEarned += completion.Challenge.Reward
		outcome.Progress = &completion.Progress
	}

	badges, err := s.EvaluateBadges(ctx, userID)
	if err != nil {
		return err
	}
	outcome.NewBadges = badges
	return nil
}

// EvaluateChallenge refreshes the caller's progress on the active challenge
// and completes it on the first crossing of the target. Returns nil when
// nothing was completed.
func (s *progressionService) EvaluateChallenge(ctx context.Context, userID int64) (*models.ChallengeCompletion, error) {
	challenge, err := s.challenges.GetActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to load active challenge: %w", err)
	}
	if challenge == nil {
		return nil, nil
	}

	count, err := s.detections.CountSince(ctx, userID, challenge.StartDate, models.DetectionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to count challenge detections: %w", err)
	}

	uc, err := s.challenges.UpsertProgress(ctx, userID, challenge.ID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to update challenge progress: %w", err)
	}
	if uc.Completed || uc.Progress < challenge.Target {
		return nil, nil
	}

	completion, err := s.progress.CompleteChallenge(ctx, userID, challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to complete challenge: %w", err)
	}
	if completion == nil {
		return nil, nil
	}

	s.logger.Info("Challenge completed",
		zap.Int64("user_id", userID),
		zap.Int64("challenge_id", challenge.ID),
		zap.Int("reward", challenge.Reward),
	)
	monitoring.ChallengesCompletedTotal.Inc()
	s.events.Publish(ctx, events.NewChallengeCompletedEvent(userID, challenge))
	s.events.Publish(ctx, events.NewPointsAwardedEvent(userID, challenge.Reward, completion.Progress.Points, completion.Progress.Level))

	return completion, nil
}

// EvaluateBadges unlocks every catalog badge whose counter has reached its
// required value and returns the ones unlocked by this call.
func (s *progressionService) EvaluateBadges(ctx context.Context, userID int64) ([]*models.Badge, error) {
	catalog, err := s.badges.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load badge catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, nil
	}

	owned, err := s.badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user badges: %w", err)
	}
	have := make(map[int64]struct{}, len(owned))
	for _, ub := range owned {
		have[ub.BadgeID] = struct{}{}
	}

	counters, err := s.counters(ctx, userID)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		return nil, nil
	}

	var unlocked []*models.Badge
	for _, badge := range catalog {
		if _, ok := have[badge.ID]; ok {
			continue
		}
		if counters.ValueFor(badge.Category) < badge.RequiredValue {
			continue
		}

		isNew, err := s.badges.Unlock(ctx, userID, badge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to unlock badge %d: %w", badge.ID, err)
		}
		if !isNew {
			continue
		}

		unlocked = append(unlocked, badge)
		monitoring.BadgesUnlockedTotal.Inc()
		s.events.Publish(ctx, events.NewBadgeUnlockedEvent(userID, badge))
	}

	if len(unlocked) > 0 {
		s.logger.Info("Badges unlocked", zap.Int64("user_id", userID), zap.Int("count", len(unlocked)))
	}
	return unlocked, nil
}

func (s *progressionService) counters(ctx context.Context, userID int64) (*models.ProgressCounters, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	now := s.now().UTC()
	days, err := s.detections.ActiveDays(ctx, userID, now.Add(-streakWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load active days: %w", err)
	}

	children, err := s.guardian.CountChildren(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count linked children: %w", err)
	}

	return &models.ProgressCounters{
		TotalAnalyzed:    user.TotalAnalyzed,
		TotalTransformed: user.TotalTransformed,
		StreakDays:       StreakLength(days, now),
		LinkedChildren:   children,
		Points:           user.Points,
	}, nil
}

// StreakLength counts consecutive UTC days ending today or yesterday.
// days must be distinct dates, newest first.
func StreakLength(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}

	today := truncateDay(now)
	expected := truncateDay(days[0])
	if gap := today.Sub(expected); gap < 0 || gap > 24*time.Hour {
		return 0
	}

	streak := 0
	for _, d := range days {
		day := truncateDay(d)
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
