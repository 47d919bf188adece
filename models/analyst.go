package models

import (
	"errors"
	"strings"
)

var ErrFieldsRequired = errors.New("required fields are missing")

// Analyst is a persona used to steer the interpretation.
type Analyst struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	BadgeColor  string `json:"badgeColor" yaml:"badge_color" toml:"badge_color"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

// Validate mirrors the settings form: name and description are mandatory.
func (a Analyst) Validate() error {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Description) == "" {
		return ErrFieldsRequired
	}
	return nil
}

// FindAnalyst returns the analyst with the given id.
func FindAnalyst(list []Analyst, id string) (Analyst, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return Analyst{}, false
}
