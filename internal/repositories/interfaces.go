package repositories

import (
	"context"
	"errors"
	"time"

	"hackspeech/internal/models"
)

var (
	// ErrDuplicateEmail is returned by Create when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// ===============================
// USER REPOSITORY
// ===============================

type UserRepository interface {
	// Create assigns the public id and link code and fills server defaults on user.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByLinkCode(ctx context.Context, code string) (*models.User, error)

	// UpdateProfile writes only the non-nil fields.
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*models.User, error)

	// MergeGoogleProfile sets google_id when empty, replaces the default name
	// and refreshes the avatar when one is given.
	MergeGoogleProfile(ctx context.Context, id int64, googleID, name string, avatar *string) (*models.User, error)

	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// ProfileUpdate holds optional profile fields.
type ProfileUpdate struct {
	Name     *string
	Avatar   *string
	Settings *models.Settings
}

// ===============================
// DETECTION LEDGER
// ===============================

// DetectionRepository is append-only. The single permitted update fills
// reformulated_text once.
type DetectionRepository interface {
	// Create appends the detection and applies its progress delta atomically.
	Create(ctx context.Context, detection *models.Detection, delta models.ProgressDelta) (*models.ProgressResult, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Detection, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Detection, error)
	CountSince(ctx context.Context, userID int64, since time.Time, filter models.DetectionFilter) (int, error)
	CategoryBreakdown(ctx context.Context, userID int64) ([]models.CategoryCount, error)

	// WeeklyCounts buckets detections since the given time by UTC weekday, 0 = Sunday.
	WeeklyCounts(ctx context.Context, userID int64, since time.Time) ([7]int, error)
	RecentSince(ctx context.Context, userID int64, since time.Time, limit int) ([]*models.Detection, error)

	// ActiveDays returns the distinct UTC dates with at least one detection, newest first.
	ActiveDays(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)

	// AttachReformulation fills reformulated_text if it is still NULL and
	// reports whether this call wrote it.
	AttachReformulation(ctx context.Context, userID, id int64, text string) (bool, error)
}

// ===============================
// PROGRESSION
// ===============================

type ProgressRepository interface {
	// ApplyEvent records (user, source, sourceID) and applies delta in one
	// transaction. A replayed event changes nothing.
	ApplyEvent(ctx context.Context, userID int64, source string, sourceID int64, delta models.ProgressDelta) (*models.ProgressResult, error)

	// CompleteChallenge flips the user's challenge to completed when progress
	// has reached the target and grants the reward once. Returns nil when
	// nothing changed.
	CompleteChallenge(ctx context.Context, userID int64, challenge *models.Challenge) (*models.ChallengeCompletion, error)
}

type ChallengeRepository interface {
	// GetActive returns the active challenge covering at, or nil.
	GetActive(ctx context.Context, at time.Time) (*models.Challenge, error)
	Create(ctx context.Context, challenge *models.Challenge) error

	GetUserChallenge(ctx context.Context, userID, challengeID int64) (*models.UserChallenge, error)

	// UpsertProgress creates the row if missing and raises progress, never lowering it.
	UpsertProgress(ctx context.Context, userID, challengeID int64, progress int) (*models.UserChallenge, error)
}

type BadgeRepository interface {
	// ListCatalog returns every badge ordered by category.
	ListCatalog(ctx context.Context) ([]*models.Badge, error)
	ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error)
	UnlockedNames(ctx context.Context, userID int64) ([]string, error)

	// Unlock inserts the user badge and reports whether it was new.
	Unlock(ctx context.Context, userID, badgeID int64) (bool, error)
}

// ===============================
// GUARDIAN & CHAT
// ===============================

type GuardianRepository interface {
	// Link is add-to-set; linking twice is not an error.
	Link(ctx context.Context, guardianID, childID int64) error
	IsLinked(ctx context.Context, guardianID, childID int64) (bool, error)
	ListChildren(ctx context.Context, guardianID int64) ([]*models.User, error)
	ChildIDs(ctx context.Context, guardianID int64) ([]int64, error)
	CountChildren(ctx context.Context, guardianID int64) (int, error)
}

type ChatRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error

	// ListRecent returns the newest limit messages in chronological order.
	ListRecent(ctx context.Context, userID int64, limit int) ([]*models.ChatMessage, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}
