package i18n

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
)

var ErrUnsupportedLocale = errors.New("unsupported locale")

// Notice codes returned to clients instead of translated text.
const (
	NoticeAnalystMinimum   = "analyst_settings.minimum_required"
	NoticeQuestionMinimum  = "question_settings.minimum_required"
	NoticeFieldsRequired   = "settings.fill_required_fields"
	NoticeOptionsRequired  = "question_settings.options_required"
	NoticeEmptyInput       = "chat.empty_input"
	NoticeSelectAnalyst    = "chat.select_analyst"
	NoticeBusy             = "chat.waiting_for_response"
	NoticeInterpretFailed  = "chat.error"
	NoticeConversationGone = "chat_history.not_found"
)

// Locales resolves client language tags to one of the supported locales.
type Locales struct {
	supported []string
	matcher   language.Matcher
}

func New(supported []string, def string) *Locales {
	list := make([]string, 0, len(supported)+1)
	list = append(list, def)
	for _, s := range supported {
		if s != def {
			list = append(list, s)
		}
	}
	tags := make([]language.Tag, 0, len(list))
	for _, s := range list {
		tags = append(tags, language.Make(s))
	}
	return &Locales{supported: list, matcher: language.NewMatcher(tags)}
}

func (l *Locales) Default() string     { return l.supported[0] }
func (l *Locales) Supported() []string { return append([]string(nil), l.supported...) }

// Normalize maps "tr-TR" or "TR" to "tr". Unknown languages fail.
func (l *Locales) Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrUnsupportedLocale
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", ErrUnsupportedLocale
	}
	_, idx, conf := l.matcher.Match(tag)
	if conf < language.High {
		return "", ErrUnsupportedLocale
	}
	return l.supported[idx], nil
}

// Negotiate picks a locale from an Accept-Language header, falling back to
// the default.
func (l *Locales) Negotiate(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return l.Default()
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return l.Default()
	}
	return l.supported[idx]
}
