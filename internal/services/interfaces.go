// file: internal/services/interfaces.go
package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"hackspeech/internal/detection"
	"hackspeech/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// AuthService handles account creation and login
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GoogleLogin(ctx context.Context, req *GoogleLoginRequest) (*AuthResponse, error)
	GoogleAuthURL(state string) (string, error)
}

// UserService manages the caller's own profile
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*models.UserProfile, error)
	UploadAvatar(ctx context.Context, userID int64, filename string, file io.Reader) (*models.UserProfile, error)
}

// DetectionService runs the analyze and reformulate pipeline
type DetectionService interface {
	Analyze(ctx context.Context, userID int64, req *AnalyzeRequest) (*AnalyzeResponse, error)
	Reformulate(ctx context.Context, userID int64, req *ReformulateRequest) (*detection.Reformulation, error)
	History(ctx context.Context, userID int64, limit int) ([]*models.Detection, error)
}

// ProgressionService applies the gamification side effects of user activity
type ProgressionService interface {
	// OnDetection appends an unsaved detection together with its credit.
	OnDetection(ctx context.Context, userID int64, det *models.Detection) (*ProgressionOutcome, error)
	OnReformulation(ctx context.Context, userID, detectionID int64) (*ProgressionOutcome, error)
	EvaluateChallenge(ctx context.Context, userID int64) (*models.ChallengeCompletion, error)
	EvaluateBadges(ctx context.Context, userID int64) ([]*models.Badge, error)
}

// StatsService builds the dashboard
type StatsService interface {
	Dashboard(ctx context.Context, userID int64) (*DashboardResponse, error)
}

// GamificationService exposes leaderboard, badges and challenges
type GamificationService interface {
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Badges(ctx context.Context, userID int64) ([]*models.BadgeStatus, error)
	CurrentChallenge(ctx context.Context, userID int64) (*CurrentChallengeResponse, error)
	EnsureWeeklyChallenge(ctx context.Context, now time.Time) (*models.Challenge, error)
}

// GuardianService lets a parent follow linked child accounts
type GuardianService interface {
	Children(ctx context.Context, guardianID int64) ([]*ChildOverview, error)
	Link(ctx context.Context, guardianID int64, req *LinkChildRequest) (*LinkChildResponse, error)
	ChildStats(ctx context.Context, guardianID, childID int64) (*ChildStatsResponse, error)
	LinkCode(ctx context.Context, userID int64) (*LinkCodeResponse, error)
}

// ChatService talks to the Mira assistant
type ChatService interface {
	SendMessage(ctx context.Context, userID int64, req *ChatMessageRequest) (*ChatExchange, error)
	History(ctx context.Context, userID int64, limit int) ([]*models.ChatMessage, error)
	Clear(ctx context.Context, userID int64) (*MessageResponse, error)
}

// PresenceChecker reports whether a user has an open realtime connection
type PresenceChecker interface {
	IsOnline(userID int64) bool
}

// ===============================
// REQUEST TYPES
// ===============================

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// GoogleLoginRequest accepts an authorization code, an ID token, or (outside
// production) the profile fields sent by the client.
type GoogleLoginRequest struct {
	Code     string  `json:"code,omitempty"`
	IDToken  string  `json:"idToken,omitempty"`
	Email    string  `json:"email,omitempty"`
	Name     string  `json:"name,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	GoogleID string  `json:"googleId,omitempty"`
}

type UpdateProfileRequest struct {
	Name     string          `json:"name,omitempty" validate:"omitempty,max=100"`
	Avatar   string          `json:"avatar,omitempty" validate:"omitempty,max=2048"`
	Settings json.RawMessage `json:"settings,omitempty" swaggertype:"object"`
}

type AnalyzeRequest struct {
	Text string `json:"text"`
}

type ReformulateRequest struct {
	Text        string `json:"text"`
	DetectionID *int64 `json:"detectionId,omitempty"`
}

type LinkChildRequest struct {
	ChildCode string `json:"childCode"`
}

type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ===============================
// RESPONSE TYPES
// ===============================

type AuthResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expiresAt"`
	User      *models.UserProfile `json:"user"`
}

type AnalyzeResponse struct {
	IsHateSpeech bool             `json:"isHateSpeech"`
	Confidence   float64          `json:"confidence"`
	Category     *models.Category `json:"category"`
	Explanation  string           `json:"explanation"`
	DetectionID  int64            `json:"detectionId"`
	PointsEarned int              `json:"pointsEarned"`
	NewBadges    []*models.Badge  `json:"newBadges,omitempty"`
}

// ProgressionOutcome summarizes what one activity changed.
type ProgressionOutcome struct {
	PointsEarned       int
	Progress           *models.ProgressResult
	ChallengeCompleted *models.ChallengeCompletion
	NewBadges          []*models.Badge
}

type DashboardUser struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Avatar *string  `json:"avatar"`
	Points int      `json:"points"`
	Level  int      `json:"level"`
	Badges []string `json:"badges"`
}

type DashboardStats struct {
	MessagesAnalyzed int                    `json:"messagesAnalyzed"`
	MessagesImproved int                    `json:"messagesImproved"`
	BadgesUnlocked   int                    `json:"badgesUnlocked"`
	HarmonyScore     int                    `json:"harmonyScore"`
	WeeklyData       [7]int                 `json:"weeklyData"`
	CategoryStats    []models.CategoryCount `json:"categoryStats"`
}

type DashboardResponse struct {
	User  DashboardUser  `json:"user"`
	Stats DashboardStats `json:"stats"`
}

type CurrentChallengeResponse struct {
	Challenge *models.ChallengeView `json:"challenge"`
}

type ChildActivityStats struct {
	MessagesAnalyzed int `json:"messagesAnalyzed"`
	HateDetected     int `json:"hateDetected"`
	SafetyScore      int `json:"safetyScore"`
}

type ChildOverview struct {
	ID       int64              `json:"id"`
	Name     string             `json:"name"`
	Avatar   *string            `json:"avatar"`
	Points   int                `json:"points"`
	Level    int                `json:"level"`
	IsOnline bool               `json:"isOnline"`
	Stats    ChildActivityStats `json:"stats"`
}

type LinkChildResponse struct {
	Message string             `json:"message"`
	Child   models.UserSummary `json:"child"`
}

type ChildProfile struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
	Points int     `json:"points"`
	Level  int     `json:"level"`
}

type ChildDetailStats struct {
	TotalDetections int                    `json:"totalDetections"`
	HateDetections  int                    `json:"hateDetections"`
	SafetyScore     int                    `json:"safetyScore"`
	CategoryStats   []models.CategoryCount `json:"categoryStats"`
	RecentActivity  []models.ActivityItem  `json:"recentActivity"`
}

type ChildStatsResponse struct {
	Child ChildProfile     `json:"child"`
	Stats ChildDetailStats `json:"stats"`
}

type LinkCodeResponse struct {
	Code string `json:"code"`
}

type ChatExchange struct {
	UserMessage  *models.ChatMessage `json:"userMessage"`
	MiraResponse *models.ChatMessage `json:"miraResponse"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
