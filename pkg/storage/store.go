package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"DreamAI/models"
	"DreamAI/pkg/defaults"
	"DreamAI/pkg/logger"
)

const (
	KeyTheme         = "@theme"
	KeyLanguage      = "@language"
	KeyAnalysts      = "@analysts"
	KeyQuestions     = "@questions"
	KeyConversations = "@conversations"
	KeyPINHash       = "@pin"
)

var ErrMinimumRequired = errors.New("at least one item must remain")

// Store is the typed gateway over a Backend. Public reads never fail: a
// missing key, a stored null or a broken value yields the default. Writes
// that modify a list fail instead when the current list cannot be read.
// Read-modify-write operations are serialised by mu, which only holds
// within this process.
type Store struct {
	backend  Backend
	defaults defaults.Provider
	log      *logger.Logger

	mu sync.Mutex
}

func New(b Backend, p defaults.Provider, log *logger.Logger) *Store {
	if p == nil {
		p = defaults.Builtin()
	}
	return &Store{backend: b, defaults: p, log: logger.OrNop(log).With("component", "storage")}
}

func (s *Store) Defaults() defaults.Provider { return s.defaults }

func (s *Store) Close() error { return s.backend.Close() }

// loadJSON is the strict read: a missing key or a stored null yields def,
// anything else that goes wrong is returned.
func loadJSON[T any](ctx context.Context, s *Store, key string, def T) (T, error) {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("read %s: %w", key, err)
	}
	if strings.TrimSpace(raw) == "null" {
		return def, nil
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return def, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// getJSON masks every read problem with def.
func getJSON[T any](ctx context.Context, s *Store, key string, def T) T {
	out, err := loadJSON(ctx, s, key, def)
	if err != nil {
		s.log.Error("read failed, using default", "key", key, "error", err)
		return def
	}
	return out
}

func setJSON[T any](ctx context.Context, s *Store, key string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode failed", "key", key, "error", err)
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, string(b)); err != nil {
		s.log.Error("write failed", "key", key, "error", err)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// mutate runs a full read-modify-write of one key under the store lock.
// It reads strictly: a failed read aborts before anything is written, so a
// backend hiccup never replaces the stored list with the default.
func mutate[T any](ctx context.Context, s *Store, key string, def func() T, fn func(T) (T, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := loadJSON(ctx, s, key, def())
	if err != nil {
		s.log.Error("read failed, not writing", "key", key, "error", err)
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return setJSON(ctx, s, key, next)
}

func noConversations() []models.Conversation { return []models.Conversation{} }

// preferences

func (s *Store) Theme(ctx context.Context) models.Theme {
	return models.ParseTheme(string(getJSON(ctx, s, KeyTheme, models.ThemeLight)))
}

func (s *Store) SetTheme(ctx context.Context, t models.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s, KeyTheme, models.ParseTheme(string(t)))
}

func (s *Store) Language(ctx context.Context) string {
	return getJSON(ctx, s, KeyLanguage, s.defaults.DefaultLocale())
}

func (s *Store) SetLanguage(ctx context.Context, lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s, KeyLanguage, lang)
}

// analysts

func (s *Store) Analysts(ctx context.Context) []models.Analyst {
	return getJSON(ctx, s, KeyAnalysts, s.defaults.Analysts())
}

func (s *Store) SetAnalysts(ctx context.Context, list []models.Analyst) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s, KeyAnalysts, list)
}

func (s *Store) Analyst(ctx context.Context, id string) (models.Analyst, bool) {
	return models.FindAnalyst(s.Analysts(ctx), id)
}

// UpsertAnalyst replaces the analyst with the same id or appends a new one.
// An empty id gets a fresh one.
func (s *Store) UpsertAnalyst(ctx context.Context, a models.Analyst) (models.Analyst, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Description = strings.TrimSpace(a.Description)
	if err := a.Validate(); err != nil {
		return models.Analyst{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := mutate(ctx, s, KeyAnalysts, s.defaults.Analysts, func(list []models.Analyst) ([]models.Analyst, error) {
		i := slices.IndexFunc(list, func(x models.Analyst) bool { return x.ID == a.ID })
		if i >= 0 {
			list[i] = a
			return list, nil
		}
		return append(list, a), nil
	})
	return a, err
}

func (s *Store) DeleteAnalyst(ctx context.Context, id string) error {
	return mutate(ctx, s, KeyAnalysts, s.defaults.Analysts, func(list []models.Analyst) ([]models.Analyst, error) {
		i := slices.IndexFunc(list, func(x models.Analyst) bool { return x.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		if len(list) <= 1 {
			return nil, ErrMinimumRequired
		}
		return slices.Delete(list, i, i+1), nil
	})
}

func (s *Store) ResetAnalysts(ctx context.Context) ([]models.Analyst, error) {
	list := s.defaults.Analysts()
	return list, s.SetAnalysts(ctx, list)
}

// questions

func (s *Store) Questions(ctx context.Context) []models.Question {
	return getJSON(ctx, s, KeyQuestions, s.defaults.Questions())
}

func (s *Store) SetQuestions(ctx context.Context, list []models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s, KeyQuestions, list)
}

func (s *Store) Question(ctx context.Context, id string) (models.Question, bool) {
	list := s.Questions(ctx)
	i := slices.IndexFunc(list, func(x models.Question) bool { return x.ID == id })
	if i < 0 {
		return models.Question{}, false
	}
	return list[i], true
}

func (s *Store) UpsertQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	q.Label = strings.TrimSpace(q.Label)
	if q.Type == "" {
		q.Type = models.QuestionText
	}
	if q.Type == models.QuestionText {
		q.Options = nil
	} else {
		q.Options = slices.DeleteFunc(q.Options, func(o string) bool { return strings.TrimSpace(o) == "" })
	}
	if err := q.Validate(); err != nil {
		return models.Question{}, err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	err := mutate(ctx, s, KeyQuestions, s.defaults.Questions, func(list []models.Question) ([]models.Question, error) {
		i := slices.IndexFunc(list, func(x models.Question) bool { return x.ID == q.ID })
		if i >= 0 {
			list[i] = q
			return list, nil
		}
		return append(list, q), nil
	})
	return q, err
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return mutate(ctx, s, KeyQuestions, s.defaults.Questions, func(list []models.Question) ([]models.Question, error) {
		i := slices.IndexFunc(list, func(x models.Question) bool { return x.ID == id })
		if i < 0 {
			return nil, ErrNotFound
		}
		if len(list) <= 1 {
			return nil, ErrMinimumRequired
		}
		return slices.Delete(list, i, i+1), nil
	})
}

func (s *Store) ResetQuestions(ctx context.Context) ([]models.Question, error) {
	list := s.defaults.Questions()
	return list, s.SetQuestions(ctx, list)
}

// conversations, newest first

func (s *Store) Conversations(ctx context.Context) []models.Conversation {
	list := getJSON(ctx, s, KeyConversations, []models.Conversation{})
	if list == nil {
		list = []models.Conversation{}
	}
	return list
}

func (s *Store) SetConversations(ctx context.Context, list []models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s, KeyConversations, list)
}

func (s *Store) Conversation(ctx context.Context, id string) (models.Conversation, bool) {
	list := s.Conversations(ctx)
	i := slices.IndexFunc(list, func(c models.Conversation) bool { return c.ID == id })
	if i < 0 {
		return models.Conversation{}, false
	}
	return list[i], true
}

// AddConversation puts c at the front of the list.
func (s *Store) AddConversation(ctx context.Context, c models.Conversation) error {
	return mutate(ctx, s, KeyConversations, noConversations, func(list []models.Conversation) ([]models.Conversation, error) {
		return append([]models.Conversation{c}, list...), nil
	})
}

// UpdateConversation replaces c in place, keeping its position.
func (s *Store) UpdateConversation(ctx context.Context, c models.Conversation) error {
	return mutate(ctx, s, KeyConversations, noConversations, func(list []models.Conversation) ([]models.Conversation, error) {
		i := slices.IndexFunc(list, func(x models.Conversation) bool { return x.ID == c.ID })
		if i < 0 {
			return nil, ErrNotFound
		}
		list[i] = c
		return list, nil
	})
}

// SaveConversation updates c if it is already stored and adds it otherwise.
func (s *Store) SaveConversation(ctx context.Context, c models.Conversation) error {
	return mutate(ctx, s, KeyConversations, noConversations, func(list []models.Conversation) ([]models.Conversation, error) {
		i := slices.IndexFunc(list, func(x models.Conversation) bool { return x.ID == c.ID })
		if i < 0 {
			return append([]models.Conversation{c}, list...), nil
		}
		list[i] = c
		return list, nil
	})
}

// DeleteConversation drops the conversation with id. Unknown ids are a no-op.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	return mutate(ctx, s, KeyConversations, noConversations, func(list []models.Conversation) ([]models.Conversation, error) {
		return slices.DeleteFunc(list, func(c models.Conversation) bool { return c.ID == id }), nil
	})
}

func (s *Store) ClearConversations(ctx context.Context) error {
	return s.SetConversations(ctx, []models.Conversation{})
}

// app lock

func (s *Store) PINHash(ctx context.Context) string {
	return getJSON(ctx, s, KeyPINHash, "")
}

func (s *Store) SetPINHash(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setJSON(ctx, s, KeyPINHash, hash)
}

// InitialState loads the five app keys concurrently.
func (s *Store) InitialState(ctx context.Context) models.AppState {
	var (
		st models.AppState
		g  errgroup.Group
	)
	g.Go(func() error { st.Theme = s.Theme(ctx); return nil })
	g.Go(func() error { st.Language = s.Language(ctx); return nil })
	g.Go(func() error { st.Analysts = s.Analysts(ctx); return nil })
	g.Go(func() error { st.Questions = s.Questions(ctx); return nil })
	g.Go(func() error { st.Conversations = s.Conversations(ctx); return nil })
	_ = g.Wait()
	return st
}
