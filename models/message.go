package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat bubble. Timestamp is unix milliseconds.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsUser    bool   `json:"isUser"`
	Timestamp int64  `json:"timestamp"`
}

func NewMessage(text string, isUser bool, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      text,
		IsUser:    isUser,
		Timestamp: now.UnixMilli(),
	}
}
