package models

import "time"

// Category is a hateful-content category. A detection without a hit has no category.
type Category string

const (
	CategoryRacism        Category = "racism"
	CategorySexism        Category = "sexism"
	CategoryReligious     Category = "religious"
	CategoryHomophobia    Category = "homophobia"
	CategoryAbleism       Category = "ableism"
	CategoryGeneralInsult Category = "general_insult"
)

// Detection is one immutable classification record.
// ReformulatedText is the only field written after insert, once.
type Detection struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"userId" db:"user_id"`
	OriginalText     string    `json:"originalText" db:"original_text"`
	IsHateSpeech     bool      `json:"isHateSpeech" db:"is_hate_speech"`
	Confidence       float64   `json:"confidence" db:"confidence"`
	Category         *Category `json:"category" db:"category"`
	Explanation      string    `json:"explanation" db:"explanation"`
	ReformulatedText *string   `json:"reformulatedText" db:"reformulated_text"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// CategoryCount is one row of a category breakdown.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// DetectionFilter narrows CountSince.
type DetectionFilter struct {
	HateOnly bool
}

// ActivityItem is a truncated detection shown to guardians.
type ActivityItem struct {
	Text         string    `json:"text"`
	IsHateSpeech bool      `json:"isHateSpeech"`
	Category     *Category `json:"category"`
	Date         time.Time `json:"date"`
}
