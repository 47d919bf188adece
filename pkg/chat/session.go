package chat

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"DreamAI/models"
	"DreamAI/pkg/logger"
	"DreamAI/pkg/services"
)

var (
	ErrEmptyInput           = errors.New("message is empty")
	ErrNoAnalyst            = errors.New("no analyst selected")
	ErrBusy                 = errors.New("waiting for the previous reply")
	ErrConversationStarted  = errors.New("conversation already started")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInterpretationFailed = errors.New("interpretation failed")
)

// Mode says whether a session starts a new conversation or resumes one.
// It is resolved once by Open.
type Mode interface{ isMode() }

// NewConversation starts fresh. AnalystID may be empty; the session then
// waits for SelectAnalyst.
type NewConversation struct {
	AnalystID string
}

type ResumeConversation struct {
	ID string
}

func (NewConversation) isMode()    {}
func (ResumeConversation) isMode() {}

// ModeFor maps an optional conversation id to a Mode.
func ModeFor(conversationID, analystID string) Mode {
	if id := strings.TrimSpace(conversationID); id != "" {
		return ResumeConversation{ID: id}
	}
	return NewConversation{AnalystID: strings.TrimSpace(analystID)}
}

type State int

const (
	AwaitingAnalystSelection State = iota
	Composing
	WaitingForResponse
	Idle
)

func (s State) String() string {
	switch s {
	case AwaitingAnalystSelection:
		return "awaiting_analyst"
	case Composing:
		return "composing"
	case WaitingForResponse:
		return "waiting"
	case Idle:
		return "idle"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// FirstTurn selects the call used before a conversation exists.
type FirstTurn string

const (
	FirstTurnCompletion FirstTurn = "completion"
	FirstTurnThread     FirstTurn = "thread"
)

// Store is the part of the persistence gateway a session needs.
type Store interface {
	Analyst(ctx context.Context, id string) (models.Analyst, bool)
	Conversation(ctx context.Context, id string) (models.Conversation, bool)
	SaveConversation(ctx context.Context, c models.Conversation) error
}

type Options struct {
	FirstTurn FirstTurn
	Log       *logger.Logger
	Now       func() time.Time
}

// Session is one chat screen: a working copy of the messages plus the
// state machine around a single in-flight request.
type Session struct {
	store  Store
	interp services.Interpreter
	opt    Options
	log    *logger.Logger

	mu       sync.Mutex
	state    State
	analyst  *models.Analyst
	answers  map[string]string
	conv     *models.Conversation
	messages []models.Message
}

// Open resolves mode and returns a ready session.
func Open(ctx context.Context, mode Mode, store Store, interp services.Interpreter, opt Options) (*Session, error) {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.FirstTurn == "" {
		opt.FirstTurn = FirstTurnCompletion
	}
	s := &Session{
		store:   store,
		interp:  interp,
		opt:     opt,
		log:     logger.OrNop(opt.Log).With("component", "chat"),
		answers: map[string]string{},
	}
	switch m := mode.(type) {
	case ResumeConversation:
		c, ok := store.Conversation(ctx, m.ID)
		if !ok {
			return nil, ErrConversationNotFound
		}
		a := c.Analyst
		s.analyst = &a
		s.conv = &c
		s.messages = slices.Clone(c.Messages)
		if c.PreChatAnswers != nil {
			s.answers = c.PreChatAnswers
		}
		s.state = Idle
	case NewConversation:
		s.state = AwaitingAnalystSelection
		if m.AnalystID != "" {
			a, ok := store.Analyst(ctx, m.AnalystID)
			if !ok {
				return nil, ErrNoAnalyst
			}
			s.analyst = &a
			s.state = Composing
		}
	default:
		return nil, errors.New("unknown chat mode")
	}
	return s, nil
}

// SelectAnalyst is only allowed before the conversation exists.
func (s *Session) SelectAnalyst(a models.Analyst) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == WaitingForResponse {
		return ErrBusy
	}
	if s.conv != nil {
		return ErrConversationStarted
	}
	s.analyst = &a
	if s.state == AwaitingAnalystSelection {
		s.state = Composing
	}
	return nil
}

// SetAnswers records the intake answers. They are fixed once the
// conversation exists.
func (s *Session) SetAnswers(answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == WaitingForResponse {
		return ErrBusy
	}
	if s.conv != nil {
		return ErrConversationStarted
	}
	s.answers = map[string]string{}
	for k, v := range answers {
		if v = strings.TrimSpace(v); v != "" {
			s.answers[k] = v
		}
	}
	return nil
}

// Turn is the outcome of one Send.
type Turn struct {
	User           models.Message  `json:"userMessage"`
	Reply          *models.Message `json:"aiMessage,omitempty"`
	Error          string          `json:"error,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	ThreadID       string          `json:"threadId,omitempty"`
	Saved          bool            `json:"saved"`
}

// Send appends the user's message and asks the interpreter for a reply.
// Validation errors leave the session untouched and make no call. A failed
// call keeps the user message in the working copy, adds no reply and
// persists nothing.
func (s *Session) Send(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	s.mu.Lock()
	if text == "" {
		s.mu.Unlock()
		return Turn{}, ErrEmptyInput
	}
	if s.state == WaitingForResponse {
		s.mu.Unlock()
		return Turn{}, ErrBusy
	}
	if s.analyst == nil {
		s.mu.Unlock()
		return Turn{}, ErrNoAnalyst
	}
	user := models.NewMessage(text, true, s.opt.Now())
	history := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		history = append(history, m.Text)
	}
	s.messages = append(s.messages, user)
	s.state = WaitingForResponse
	analyst := *s.analyst
	answers := s.answers
	first := s.conv == nil
	var threadID string
	if !first {
		threadID = s.conv.Session().ThreadID
	}
	s.mu.Unlock()

	log := s.log.With("analyst", analyst.ID, "first_turn", first)
	var resp services.ChatResponse
	switch {
	case !first:
		resp = s.interp.FollowUp(ctx, history, text, analyst.Name, threadID)
	case s.opt.FirstTurn == FirstTurnThread:
		resp = s.interp.InterpretDreamInThread(ctx, text, analyst.Name, answers)
	default:
		resp = s.interp.InterpretDream(ctx, text, analyst.Name, answers)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
	turn := Turn{User: user}
	if !resp.OK() {
		log.Warn("interpretation failed", "error", resp.Error)
		turn.Error = resp.Error
		if s.conv != nil {
			turn.ConversationID = s.conv.ID
		}
		return turn, ErrInterpretationFailed
	}

	now := s.opt.Now()
	reply := models.NewMessage(resp.Text, false, now)
	s.messages = append(s.messages, reply)
	if s.conv == nil {
		s.conv = models.NewConversation(analyst, answers, now)
	}
	s.conv.Messages = slices.Clone(s.messages)
	if resp.ThreadID != "" {
		s.conv.Bind(models.Stateful(resp.ThreadID))
	}
	turn.Reply = &reply
	turn.ConversationID = s.conv.ID
	turn.ThreadID = s.conv.ThreadID

	if err := s.store.SaveConversation(ctx, *s.conv); err != nil {
		log.Error("conversation not saved", "conversation", s.conv.ID, "error", err)
		return turn, nil
	}
	turn.Saved = true
	log.Info("turn saved", "conversation", s.conv.ID, "messages", len(s.conv.Messages))
	return turn, nil
}

// View is a read-only snapshot of the session.
type View struct {
	State          State             `json:"state"`
	Analyst        *models.Analyst   `json:"analyst,omitempty"`
	Answers        map[string]string `json:"preChatAnswers"`
	Messages       []models.Message  `json:"messages"`
	ConversationID string            `json:"conversationId,omitempty"`
	ThreadID       string            `json:"threadId,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		State:    s.state,
		Answers:  make(map[string]string, len(s.answers)),
		Messages: slices.Clone(s.messages),
	}
	if v.Messages == nil {
		v.Messages = []models.Message{}
	}
	for k, val := range s.answers {
		v.Answers[k] = val
	}
	if s.analyst != nil {
		a := *s.analyst
		v.Analyst = &a
	}
	if s.conv != nil {
		v.ConversationID = s.conv.ID
		v.ThreadID = s.conv.ThreadID
	}
	return v
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
