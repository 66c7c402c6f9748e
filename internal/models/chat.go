package models

import "time"

// ChatMessage is one turn of a conversation with Mira. IsUser is false for Mira's replies.
type ChatMessage struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"-" db:"user_id"`
	Text      string    `json:"text" db:"text"`
	IsUser    bool      `json:"isUser" db:"is_user"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
