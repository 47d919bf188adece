package models

import (
	"errors"
	"strings"
)

type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionDropdown QuestionType = "dropdown"
)

var ErrOptionsRequired = errors.New("dropdown question needs at least one option")

// Question is an optional pre-chat intake item.
type Question struct {
	ID      string       `json:"id" yaml:"id" toml:"id"`
	Label   string       `json:"label" yaml:"label" toml:"label"`
	Type    QuestionType `json:"type" yaml:"type" toml:"type"`
	Options []string     `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
}

func (q Question) Validate() error {
	if strings.TrimSpace(q.Label) == "" {
		return ErrFieldsRequired
	}
	switch q.Type {
	case QuestionText:
	case QuestionDropdown:
		n := 0
		for _, o := range q.Options {
			if strings.TrimSpace(o) != "" {
				n++
			}
		}
		if n == 0 {
			return ErrOptionsRequired
		}
	default:
		return ErrFieldsRequired
	}
	return nil
}
