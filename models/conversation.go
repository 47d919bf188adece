package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session tells whether a conversation is bound to a remote thread.
// The zero value is Stateless.
type Session struct {
	ThreadID string
}

func Stateless() Session { return Session{} }

func Stateful(threadID string) Session { return Session{ThreadID: strings.TrimSpace(threadID)} }

func (s Session) IsStateful() bool { return s.ThreadID != "" }

// Conversation is the aggregate root stored in the conversation list.
type Conversation struct {
	ID             string            `json:"id"`
	Analyst        Analyst           `json:"analyst"`
	Messages       []Message         `json:"messages"`
	PreChatAnswers map[string]string `json:"preChatAnswers"`
	Timestamp      int64             `json:"timestamp"`
	ThreadID       string            `json:"threadId,omitempty"`
}

func NewConversation(analyst Analyst, answers map[string]string, now time.Time) *Conversation {
	if answers == nil {
		answers = map[string]string{}
	}
	return &Conversation{
		ID:             uuid.NewString(),
		Analyst:        analyst,
		PreChatAnswers: answers,
		Timestamp:      now.UnixMilli(),
	}
}

func (c *Conversation) Session() Session {
	return Stateful(c.ThreadID)
}

func (c *Conversation) Bind(s Session) {
	c.ThreadID = s.ThreadID
}

// Transcript returns the message texts in order, used to seed a fresh thread.
func (c *Conversation) Transcript() []string {
	out := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		out = append(out, m.Text)
	}
	return out
}

// FirstText is the text of the first message, used as the history preview.
func (c *Conversation) FirstText() string {
	if len(c.Messages) == 0 {
		return ""
	}
	return c.Messages[0].Text
}

// Contains reports whether the analyst name or any message mentions q, ignoring case.
func (c *Conversation) Contains(q string) bool {
	p := strings.ToLower(q)
	if strings.Contains(strings.ToLower(c.Analyst.Name), p) {
		return true
	}
	for _, m := range c.Messages {
		if strings.Contains(strings.ToLower(m.Text), p) {
			return true
		}
	}
	return false
}
