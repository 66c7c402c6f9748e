package models

import (
	"strings"
	"time"
)

const (
	AuthProviderEmail  = "email"
	AuthProviderGoogle = "google"

	// DefaultUserName is assigned when a Google profile carries no name.
	DefaultUserName = "Utilisateur"
)

// User represents an account together with its progression counters.
type User struct {
	ID           int64   `json:"id" db:"id"`
	PublicID     string  `json:"-" db:"public_id"`
	LinkCode     string  `json:"-" db:"link_code"`
	Email        string  `json:"email" db:"email"`
	Name         string  `json:"name" db:"name"`
	PasswordHash *string `json:"-" db:"password_hash"`
	Avatar       *string `json:"avatar" db:"avatar"`
	GoogleID     *string `json:"-" db:"google_id"`
	AuthProvider string  `json:"authProvider" db:"auth_provider"`

	// Progression
	Points           int `json:"points" db:"points"`
	Level            int `json:"level" db:"level"`
	TotalAnalyzed    int `json:"-" db:"total_analyzed"`
	TotalTransformed int `json:"-" db:"total_transformed"`

	Settings Settings `json:"settings" db:"settings"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserStats is the legacy nested counters block. TotalPoints mirrors User.Points.
type UserStats struct {
	TotalAnalyzed    int `json:"totalAnalyzed"`
	TotalTransformed int `json:"totalTransformed"`
	TotalPoints      int `json:"totalPoints"`
}

// UserProfile is the public shape of a user, without credentials.
type UserProfile struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Avatar         *string   `json:"avatar"`
	AuthProvider   string    `json:"authProvider"`
	Points         int       `json:"points"`
	Level          int       `json:"level"`
	Badges         []string  `json:"badges"`
	LinkedChildren []int64   `json:"linkedChildren"`
	Stats          UserStats `json:"stats"`
	Settings       Settings  `json:"settings"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserSummary is the compact shape used in leaderboards and guardian views.
type UserSummary struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// Stats returns the nested counters block with the balance exposed as TotalPoints.
func (u *User) Stats() UserStats {
	return UserStats{
		TotalAnalyzed:    u.TotalAnalyzed,
		TotalTransformed: u.TotalTransformed,
		TotalPoints:      u.Points,
	}
}

// ToProfile builds the public profile. Nil slices are rendered as empty arrays.
func (u *User) ToProfile(badges []string, linkedChildren []int64) *UserProfile {
	if badges == nil {
		badges = []string{}
	}
	if linkedChildren == nil {
		linkedChildren = []int64{}
	}

	return &UserProfile{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Avatar:         u.Avatar,
		AuthProvider:   u.AuthProvider,
		Points:         u.Points,
		Level:          u.Level,
		Badges:         badges,
		LinkedChildren: linkedChildren,
		Stats:          u.Stats(),
		Settings:       u.Settings,
		CreatedAt:      u.CreatedAt,
	}
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// HasPassword reports whether the account can log in with email and password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// LinkCodeFromPublicID derives the 6-character guardian link code.
func LinkCodeFromPublicID(publicID string) string {
	hex := strings.ReplaceAll(publicID, "-", "")
	if len(hex) < 6 {
		return strings.ToUpper(hex)
	}
	return strings.ToUpper(hex[len(hex)-6:])
}

// NameFromEmail returns the local part of an email address.
func NameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
