package models

import "strings"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps anything that is not "dark" to light.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// AppState is the bundle the client loads at start-up.
type AppState struct {
	Theme         Theme          `json:"theme"`
	Language      string         `json:"language"`
	Analysts      []Analyst      `json:"analysts"`
	Questions     []Question     `json:"preChatQuestions"`
	Conversations []Conversation `json:"conversations"`
}
