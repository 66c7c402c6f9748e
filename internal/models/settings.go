package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	DetectionModeBlock       = "block"
	DetectionModeReformulate = "reformulate"

	ReformulationNeutralization = "neutralization"
	ReformulationInformative    = "informative"
	ReformulationDeEscalation   = "de_escalation"
	ReformulationEmpathy        = "empathy"
)

var (
	DetectionModes      = []string{DetectionModeBlock, DetectionModeReformulate}
	ReformulationStyles = []string{ReformulationNeutralization, ReformulationInformative, ReformulationDeEscalation, ReformulationEmpathy}
)

// NotificationMethods are the channels a user accepts notifications on.
type NotificationMethods struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Phone bool `json:"phone"`
	Push  bool `json:"push"`
}

// NotificationTypes are the kinds of notifications a user opted into.
type NotificationTypes struct {
	WeeklyDigest    bool `json:"weeklyDigest"`
	Gamification    bool `json:"gamification"`
	SecurityAlerts  bool `json:"securityAlerts"`
	EducationalTips bool `json:"educationalTips"`
}

type NotificationSettings struct {
	Methods NotificationMethods `json:"methods"`
	Types   NotificationTypes   `json:"types"`
}

// Settings is stored as JSONB on the users row.
type Settings struct {
	NotificationSettings NotificationSettings `json:"notificationSettings"`
	SoundEnabled         bool                 `json:"soundEnabled"`
	DarkModeEnabled      bool                 `json:"darkModeEnabled"`
	Language             string               `json:"language"`
	Sensitivity          string               `json:"sensitivity"`
	DetectionMode        string               `json:"detectionMode"`
	ReformulationStyle   string               `json:"reformulationStyle"`
	BlockedCategories    []string             `json:"blockedCategories"`
	CustomCategories     []string             `json:"customCategories"`
}

// DefaultSettings returns the settings a new account starts with
func DefaultSettings() Settings {
	return Settings{
		NotificationSettings: NotificationSettings{
			Methods: NotificationMethods{Email: true, SMS: false, Phone: false, Push: true},
			Types: NotificationTypes{
				WeeklyDigest:    true,
				Gamification:    true,
				SecurityAlerts:  true,
				EducationalTips: true,
			},
		},
		SoundEnabled:       true,
		DarkModeEnabled:    false,
		Language:           "Français",
		Sensitivity:        "Moyen",
		DetectionMode:      DetectionModeReformulate,
		ReformulationStyle: ReformulationNeutralization,
		BlockedCategories:  []string{"racisme", "sexisme", "religieux"},
		CustomCategories:   []string{},
	}
}

// Scan decodes the JSONB column on top of the defaults, so keys missing
// from older rows keep their default value.
func (s *Settings) Scan(value interface{}) error {
	*s = DefaultSettings()
	if value == nil {
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Settings", value)
	}

	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, s)
}

// Value encodes settings for the JSONB column
func (s Settings) Value() (driver.Value, error) {
	if s.BlockedCategories == nil {
		s.BlockedCategories = []string{}
	}
	if s.CustomCategories == nil {
		s.CustomCategories = []string{}
	}
	return json.Marshal(s)
}

// MergeSettings overlays a partial JSON document on the current settings.
func MergeSettings(current Settings, patch json.RawMessage) (Settings, error) {
	merged := current
	if len(patch) == 0 {
		return merged, nil
	}
	if err := json.Unmarshal(patch, &merged); err != nil {
		return current, fmt.Errorf("invalid settings payload: %w", err)
	}
	return merged, nil
}

// Validate checks the enum-valued settings.
func (s *Settings) Validate() ValidationErrors {
	var errors ValidationErrors

	if err := EnumValidator("detectionMode", s.DetectionMode, DetectionModes); err != nil {
		errors = append(errors, *err)
	}
	if err := EnumValidator("reformulationStyle", s.ReformulationStyle, ReformulationStyles); err != nil {
		errors = append(errors, *err)
	}

	return errors
}
