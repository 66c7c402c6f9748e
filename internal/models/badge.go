package models

import "time"

// BadgeCategory decides which counter a badge's RequiredValue is compared to.
type BadgeCategory string

const (
	BadgeCategoryDetection     BadgeCategory = "detection"
	BadgeCategoryReformulation BadgeCategory = "reformulation"
	BadgeCategoryStreak        BadgeCategory = "streak"
	BadgeCategorySocial        BadgeCategory = "social"
	BadgeCategorySpecial       BadgeCategory = "special"
)

// Badge is a catalog entry.
type Badge struct {
	ID            int64         `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Emoji         string        `json:"emoji" db:"emoji"`
	Description   string        `json:"description" db:"description"`
	Requirement   string        `json:"requirement" db:"requirement"`
	RequiredValue int           `json:"requiredValue" db:"required_value"`
	Category      BadgeCategory `json:"category" db:"category"`
	CreatedAt     time.Time     `json:"-" db:"created_at"`
}

// UserBadge records an unlock. Rows are never deleted.
type UserBadge struct {
	UserID     int64     `json:"userId" db:"user_id"`
	BadgeID    int64     `json:"badgeId" db:"badge_id"`
	UnlockedAt time.Time `json:"unlockedAt" db:"unlocked_at"`
}

// BadgeStatus is a catalog entry annotated for one user.
type BadgeStatus struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Emoji       string        `json:"emoji"`
	Description string        `json:"description"`
	Requirement string        `json:"requirement"`
	Category    BadgeCategory `json:"category"`
	Unlocked    bool          `json:"unlocked"`
	UnlockedAt  *time.Time    `json:"unlockedAt"`
}

// ProgressCounters are the values badges are evaluated against.
type ProgressCounters struct {
	TotalAnalyzed    int
	TotalTransformed int
	StreakDays       int
	LinkedChildren   int
	Points           int
}

// ValueFor returns the counter matching a badge category.
func (c ProgressCounters) ValueFor(category BadgeCategory) int {
	switch category {
	case BadgeCategoryDetection:
		return c.TotalAnalyzed
	case BadgeCategoryReformulation:
		return c.TotalTransformed
	case BadgeCategoryStreak:
		return c.StreakDays
	case BadgeCategorySocial:
		return c.LinkedChildren
	case BadgeCategorySpecial:
		return c.Points
	default:
		return 0
	}
}
