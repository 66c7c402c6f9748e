package models

import "time"

const (
	ChallengeTypeDaily  = "daily"
	ChallengeTypeWeekly = "weekly"
)

// Progress event sources. A (user, source, source id) triple is applied once.
const (
	ProgressSourceDetection     = "detection"
	ProgressSourceChallenge     = "challenge"
	ProgressSourceReformulation = "reformulation"
)

// Challenge is a time-boxed goal counted in detections.
type Challenge struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Emoji       string    `json:"emoji" db:"emoji"`
	Type        string    `json:"type" db:"type"`
	Target      int       `json:"target" db:"target"`
	Reward      int       `json:"reward" db:"reward"`
	StartDate   time.Time `json:"startDate" db:"start_date"`
	EndDate     time.Time `json:"endDate" db:"end_date"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
}

// UserChallenge is one user's progress on a challenge.
type UserChallenge struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"userId" db:"user_id"`
	ChallengeID int64      `json:"challengeId" db:"challenge_id"`
	Progress    int        `json:"progress" db:"progress"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completedAt" db:"completed_at"`
	CreatedAt   time.Time  `json:"-" db:"created_at"`
}

// ChallengeView merges a challenge with the caller's progress.
type ChallengeView struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Emoji       string    `json:"emoji"`
	Type        string    `json:"type"`
	Target      int       `json:"target"`
	Reward      int       `json:"reward"`
	Progress    int       `json:"progress"`
	Completed   bool      `json:"completed"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

func NewChallengeView(c *Challenge, uc *UserChallenge) *ChallengeView {
	view := &ChallengeView{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Emoji:       c.Emoji,
		Type:        c.Type,
		Target:      c.Target,
		Reward:      c.Reward,
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
	}
	if uc != nil {
		view.Progress = uc.Progress
		view.Completed = uc.Completed
	}
	return view
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Points int     `json:"points"`
	Level  int     `json:"level"`
}
