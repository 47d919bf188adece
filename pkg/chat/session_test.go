package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"DreamAI/models"
	"DreamAI/pkg/defaults"
	"DreamAI/pkg/services"
	"DreamAI/pkg/storage"
)

type call struct {
	kind     string
	text     string
	analyst  string
	threadID string
	history  []string
}

type fakeInterpreter struct {
	mu     sync.Mutex
	calls  []call
	next   []services.ChatResponse
	block  chan struct{}
	called chan struct{}
}

func (f *fakeInterpreter) respond(c call) services.ChatResponse {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	block, called := f.block, f.called
	var r services.ChatResponse
	if len(f.next) > 0 {
		r = f.next[0]
		f.next = f.next[1:]
	} else {
		r = services.ChatResponse{Text: "reply to " + c.text}
	}
	f.mu.Unlock()
	if called != nil {
		called <- struct{}{}
	}
	if block != nil {
		<-block
	}
	return r
}

func (f *fakeInterpreter) InterpretDream(_ context.Context, dream, analyst string, _ map[string]string) services.ChatResponse {
	return f.respond(call{kind: "dream", text: dream, analyst: analyst})
}

func (f *fakeInterpreter) InterpretDreamInThread(_ context.Context, dream, analyst string, _ map[string]string) services.ChatResponse {
	return f.respond(call{kind: "thread", text: dream, analyst: analyst})
}

func (f *fakeInterpreter) FollowUp(_ context.Context, history []string, q, analyst, threadID string) services.ChatResponse {
	return f.respond(call{kind: "followup", text: q, analyst: analyst, threadID: threadID, history: history})
}

func (f *fakeInterpreter) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newEnv(t *testing.T) (*storage.Store, *fakeInterpreter) {
	t.Helper()
	return storage.New(storage.NewMemory(), defaults.Builtin(), nil), &fakeInterpreter{}
}

func TestOpenNewWithoutAnalystAwaitsSelection(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	s, err := Open(ctx, NewConversation{}, st, fi, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.State() != AwaitingAnalystSelection {
		t.Fatalf("expected awaiting selection, got %s", s.State())
	}
	if _, err := s.Send(ctx, "I was flying"); !errors.Is(err, ErrNoAnalyst) {
		t.Fatalf("expected ErrNoAnalyst, got %v", err)
	}
	if len(fi.Calls()) != 0 {
		t.Fatalf("client must not be called without analyst")
	}
	if len(s.View().Messages) != 0 {
		t.Fatalf("rejected send must not append a message")
	}
	jung, _ := st.Analyst(ctx, "jung")
	if err := s.SelectAnalyst(jung); err != nil || s.State() != Composing {
		t.Fatalf("select: %v state=%s", err, s.State())
	}
}

func TestEmptyInputMakesNoCall(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	s, _ := Open(ctx, NewConversation{AnalystID: "jung"}, st, fi, Options{})
	if _, err := s.Send(ctx, "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if len(fi.Calls()) != 0 {
		t.Fatalf("client must not be called for empty input")
	}
}

func TestOpenUnknownAnalyst(t *testing.T) {
	st, fi := newEnv(t)
	if _, err := Open(context.Background(), NewConversation{AnalystID: "nobody"}, st, fi, Options{}); !errors.Is(err, ErrNoAnalyst) {
		t.Fatalf("expected ErrNoAnalyst, got %v", err)
	}
}

func TestFirstTurnCreatesConversation(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	fi.next = []services.ChatResponse{{Text: "Flight symbolizes..."}}
	s, _ := Open(ctx, NewConversation{AnalystID: "jung"}, st, fi, Options{})
	_ = s.SetAnswers(map[string]string{"sleepQuality": "Okay", "emotions": " "})

	turn, err := s.Send(ctx, "I was flying")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	calls := fi.Calls()
	if len(calls) != 1 || calls[0].kind != "dream" || calls[0].analyst != "Carl Jung" || calls[0].text != "I was flying" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if turn.Reply == nil || turn.Reply.Text != "Flight symbolizes..." || !turn.Saved {
		t.Fatalf("unexpected turn %+v", turn)
	}
	if s.State() != Idle {
		t.Fatalf("expected idle, got %s", s.State())
	}
	list := st.Conversations(ctx)
	if len(list) != 1 || list[0].ID != turn.ConversationID {
		t.Fatalf("expected one stored conversation, got %+v", list)
	}
	c := list[0]
	if len(c.Messages) != 2 || !c.Messages[0].IsUser || c.Messages[1].IsUser {
		t.Fatalf("unexpected messages %+v", c.Messages)
	}
	if c.Analyst.ID != "jung" || c.PreChatAnswers["sleepQuality"] != "Okay" {
		t.Fatalf("unexpected conversation %+v", c)
	}
	if _, ok := c.PreChatAnswers["emotions"]; ok {
		t.Fatalf("blank answers should be dropped")
	}
	if c.Session().IsStateful() {
		t.Fatalf("single-shot first turn must not bind a thread")
	}
}

func TestFailedTurnPersistsNothing(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	fi.next = []services.ChatResponse{{Error: "HTTP error! status: 500"}}
	s, _ := Open(ctx, NewConversation{AnalystID: "freud"}, st, fi, Options{})

	turn, err := s.Send(ctx, "I lost my teeth")
	if !errors.Is(err, ErrInterpretationFailed) {
		t.Fatalf("expected ErrInterpretationFailed, got %v", err)
	}
	if turn.Error != "HTTP error! status: 500" || turn.Reply != nil {
		t.Fatalf("unexpected turn %+v", turn)
	}
	v := s.View()
	if len(v.Messages) != 1 || !v.Messages[0].IsUser || v.Messages[0].Text != "I lost my teeth" {
		t.Fatalf("user message should stay visible, got %+v", v.Messages)
	}
	if v.State != Idle {
		t.Fatalf("expected idle after failure, got %s", v.State)
	}
	if n := len(st.Conversations(ctx)); n != 0 {
		t.Fatalf("nothing should be persisted, found %d", n)
	}

	// the unanswered message is saved together with the next successful turn
	if _, err := s.Send(ctx, "I lost my teeth again"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	list := st.Conversations(ctx)
	if len(list) != 1 || len(list[0].Messages) != 3 {
		t.Fatalf("expected 3 stored messages, got %+v", list)
	}
}

func TestThreadIDIsReused(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	fi.next = []services.ChatResponse{{Text: "first", ThreadID: "thread_1"}, {Text: "second", ThreadID: "thread_1"}}
	s, _ := Open(ctx, NewConversation{AnalystID: "fromm"}, st, fi, Options{FirstTurn: FirstTurnThread})

	if _, err := s.Send(ctx, "A dream about a tower"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := s.Send(ctx, "Why a tower?"); err != nil {
		t.Fatalf("second: %v", err)
	}
	calls := fi.Calls()
	if calls[0].kind != "thread" || calls[1].kind != "followup" || calls[1].threadID != "thread_1" {
		t.Fatalf("unexpected calls %+v", calls)
	}
	if len(calls[1].history) != 2 || calls[1].history[0] != "A dream about a tower" {
		t.Fatalf("unexpected history %q", calls[1].history)
	}
	c := st.Conversations(ctx)[0]
	if c.ThreadID != "thread_1" || len(c.Messages) != 4 {
		t.Fatalf("unexpected stored conversation %+v", c)
	}
}

func TestFollowUpBindsNewThread(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	fi.next = []services.ChatResponse{{Text: "reading"}, {Text: "more", ThreadID: "thread_new"}}
	s, _ := Open(ctx, NewConversation{AnalystID: "jung"}, st, fi, Options{})
	_, _ = s.Send(ctx, "dream")
	turn, err := s.Send(ctx, "question")
	if err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	if fi.Calls()[1].threadID != "" {
		t.Fatalf("first follow-up should have no thread")
	}
	if turn.ThreadID != "thread_new" || st.Conversations(ctx)[0].ThreadID != "thread_new" {
		t.Fatalf("thread id not stored")
	}
}

func TestResumeConversation(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	jung, _ := st.Analyst(ctx, "jung")
	now := time.UnixMilli(1_700_000_000_000)
	older := models.NewConversation(jung, nil, now)
	older.Messages = []models.Message{models.NewMessage("dream", true, now), models.NewMessage("reading", false, now)}
	older.Bind(models.Stateful("thread_7"))
	_ = st.AddConversation(ctx, *older)
	_ = st.AddConversation(ctx, *models.NewConversation(jung, nil, now))

	s, err := Open(ctx, ModeFor(older.ID, ""), st, fi, Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.State() != Idle || len(s.View().Messages) != 2 {
		t.Fatalf("unexpected resumed view %+v", s.View())
	}
	if err := s.SelectAnalyst(models.Analyst{ID: "freud", Name: "Sigmund Freud"}); !errors.Is(err, ErrConversationStarted) {
		t.Fatalf("analyst must be fixed, got %v", err)
	}
	if _, err := s.Send(ctx, "what now?"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if c := fi.Calls()[0]; c.kind != "followup" || c.threadID != "thread_7" {
		t.Fatalf("unexpected call %+v", c)
	}
	list := st.Conversations(ctx)
	if list[1].ID != older.ID || len(list[1].Messages) != 4 {
		t.Fatalf("resumed conversation should be updated in place, got %+v", list)
	}
}

func TestResumeUnknown(t *testing.T) {
	st, fi := newEnv(t)
	if _, err := Open(context.Background(), ResumeConversation{ID: "missing"}, st, fi, Options{}); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestSendWhileWaitingIsBusy(t *testing.T) {
	ctx := context.Background()
	st, fi := newEnv(t)
	fi.block = make(chan struct{})
	fi.called = make(chan struct{}, 1)
	s, _ := Open(ctx, NewConversation{AnalystID: "jung"}, st, fi, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := s.Send(ctx, "first")
		done <- err
	}()
	<-fi.called
	if s.State() != WaitingForResponse {
		t.Fatalf("expected waiting, got %s", s.State())
	}
	if _, err := s.Send(ctx, "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(fi.block)
	if err := <-done; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if n := len(fi.Calls()); n != 1 {
		t.Fatalf("expected a single call, got %d", n)
	}
}

func TestModeFor(t *testing.T) {
	if _, ok := ModeFor(" ", "jung").(NewConversation); !ok {
		t.Fatalf("blank id should start a new conversation")
	}
	if m, ok := ModeFor("c1", "").(ResumeConversation); !ok || m.ID != "c1" {
		t.Fatalf("expected resume mode")
	}
}
