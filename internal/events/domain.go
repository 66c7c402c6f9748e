package events

import "hackspeech/internal/models"

// Event types.
const (
	TypeUserRegistered     = "user.registered"
	TypeUserUpdated        = "user.updated"
	TypeDetectionRecorded  = "detection.recorded"
	TypeDetectionReformed  = "detection.reformulated"
	TypePointsAwarded      = "progress.points_awarded"
	TypeBadgeUnlocked      = "badge.unlocked"
	TypeChallengeCompleted = "challenge.completed"
	TypeGuardianLinked     = "guardian.linked"
	TypeChatCleared        = "chat.cleared"
)

// ===============================
// DOMAIN EVENTS
// ===============================

type UserRegisteredEvent struct {
	BaseEvent
	Provider string `json:"provider"`
}

func NewUserRegisteredEvent(userID int64, provider string) *UserRegisteredEvent {
	return &UserRegisteredEvent{BaseEvent: newBase(TypeUserRegistered, userID), Provider: provider}
}

// UserUpdatedEvent covers profile, avatar and settings changes.
type UserUpdatedEvent struct {
	BaseEvent
	Fields []string `json:"fields"`
}

func NewUserUpdatedEvent(userID int64, fields ...string) *UserUpdatedEvent {
	return &UserUpdatedEvent{BaseEvent: newBase(TypeUserUpdated, userID), Fields: fields}
}

type DetectionRecordedEvent struct {
	BaseEvent
	DetectionID  int64            `json:"detectionId"`
	IsHateSpeech bool             `json:"isHateSpeech"`
	Category     *models.Category `json:"category"`
	Confidence   float64          `json:"confidence"`
}

func NewDetectionRecordedEvent(d *models.Detection) *DetectionRecordedEvent {
	return &DetectionRecordedEvent{
		BaseEvent:    newBase(TypeDetectionRecorded, d.UserID),
		DetectionID:  d.ID,
		IsHateSpeech: d.IsHateSpeech,
		Category:     d.Category,
		Confidence:   d.Confidence,
	}
}

type DetectionReformulatedEvent struct {
	BaseEvent
	DetectionID int64  `json:"detectionId"`
	Source      string `json:"source"`
}

func NewDetectionReformulatedEvent(userID, detectionID int64, source string) *DetectionReformulatedEvent {
	return &DetectionReformulatedEvent{
		BaseEvent:   newBase(TypeDetectionReformed, userID),
		DetectionID: detectionID,
		Source:      source,
	}
}

type PointsAwardedEvent struct {
	BaseEvent
	Points      int `json:"points"`
	TotalPoints int `json:"totalPoints"`
	Level       int `json:"level"`
}

func NewPointsAwardedEvent(userID int64, points, total, level int) *PointsAwardedEvent {
	return &PointsAwardedEvent{
		BaseEvent:   newBase(TypePointsAwarded, userID),
		Points:      points,
		TotalPoints: total,
		Level:       level,
	}
}

type BadgeUnlockedEvent struct {
	BaseEvent
	BadgeID int64  `json:"badgeId"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
}

func NewBadgeUnlockedEvent(userID int64, badge *models.Badge) *BadgeUnlockedEvent {
	return &BadgeUnlockedEvent{
		BaseEvent: newBase(TypeBadgeUnlocked, userID),
		BadgeID:   badge.ID,
		Name:      badge.Name,
		Emoji:     badge.Emoji,
	}
}

type ChallengeCompletedEvent struct {
	BaseEvent
	ChallengeID int64  `json:"challengeId"`
	Title       string `json:"title"`
	Reward      int    `json:"reward"`
}

func NewChallengeCompletedEvent(userID int64, c *models.Challenge) *ChallengeCompletedEvent {
	return &ChallengeCompletedEvent{
		BaseEvent:   newBase(TypeChallengeCompleted, userID),
		ChallengeID: c.ID,
		Title:       c.Title,
		Reward:      c.Reward,
	}
}

// GuardianLinkedEvent is published for the guardian; ChildID names the linked account.
type GuardianLinkedEvent struct {
	BaseEvent
	ChildID   int64  `json:"childId"`
	ChildName string `json:"childName"`
}

func NewGuardianLinkedEvent(guardianID, childID int64, childName string) *GuardianLinkedEvent {
	return &GuardianLinkedEvent{
		BaseEvent: newBase(TypeGuardianLinked, guardianID),
		ChildID:   childID,
		ChildName: childName,
	}
}

type ChatClearedEvent struct {
	BaseEvent
	Deleted int64 `json:"deleted"`
}

func NewChatClearedEvent(userID, deleted int64) *ChatClearedEvent {
	return &ChatClearedEvent{BaseEvent: newBase(TypeChatCleared, userID), Deleted: deleted}
}
