package defaults

import (
	"slices"

	"DreamAI/models"
)

// Provider supplies the values returned when nothing is stored yet and the
// lists used by a settings reset.
type Provider interface {
	Analysts() []models.Analyst
	Questions() []models.Question
	DefaultLocale() string
}

// Set is a static Provider.
type Set struct {
	Locale       string            `yaml:"default_locale" toml:"default_locale"`
	AnalystList  []models.Analyst  `yaml:"analysts" toml:"analysts"`
	QuestionList []models.Question `yaml:"questions" toml:"questions"`
}

func (s *Set) Analysts() []models.Analyst { return slices.Clone(s.AnalystList) }

func (s *Set) Questions() []models.Question {
	out := make([]models.Question, len(s.QuestionList))
	for i, q := range s.QuestionList {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}

func (s *Set) DefaultLocale() string {
	if s.Locale == "" {
		return "en"
	}
	return s.Locale
}

// Builtin returns the analysts and intake questions the app ships with.
func Builtin() *Set {
	return &Set{
		Locale: "en",
		AnalystList: []models.Analyst{
			{
				ID:          "freud",
				Name:        "Sigmund Freud",
				BadgeColor:  "#FF6B6B",
				Description: "Father of Psychoanalysis - Focuses on unconscious desires and repressed memories",
			},
			{
				ID:          "jung",
				Name:        "Carl Jung",
				BadgeColor:  "#4ECDC4",
				Description: "Explores archetypal symbols and collective unconscious",
			},
			{
				ID:          "fromm",
				Name:        "Erich Fromm",
				BadgeColor:  "#45B7D1",
				Description: "Specializes in social psychology and human nature",
			},
		},
		QuestionList: []models.Question{
			{
				ID:      "dreamTime",
				Label:   "When did you have this dream?",
				Type:    models.QuestionDropdown,
				Options: []string{"Last night", "Few days ago", "Last week", "Longer ago"},
			},
			{
				ID:      "sleepQuality",
				Label:   "How well did you sleep?",
				Type:    models.QuestionDropdown,
				Options: []string{"Very well", "Okay", "Poorly", "Very poorly"},
			},
			{
				ID:    "emotions",
				Label: "What emotions did you feel during the dream?",
				Type:  models.QuestionText,
			},
		},
	}
}
