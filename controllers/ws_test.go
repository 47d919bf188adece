package controllers

import (
	"DreamAI/pkg/i18n"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type wsEvent struct {
	Type           string         `json:"type"`
	Error          string         `json:"error"`
	Notice         string         `json:"notice"`
	ConversationID string         `json:"conversationId"`
	Saved          bool           `json:"saved"`
	Message        map[string]any `json:"message"`
	View           map[string]any `json:"view"`
}

func dialChat(t *testing.T, env *Env) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newRouter(env))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev wsEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

// readUntil skips events until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) wsEvent {
	t.Helper()
	for i := 0; i < 10; i++ {
		if ev := readEvent(t, conn); ev.Type == typ {
			return ev
		}
	}
	t.Fatalf("no %q event", typ)
	return wsEvent{}
}

func TestChatWSFlow(t *testing.T) {
	env, interp := newTestEnv(t)
	conn := dialChat(t, env)

	if err := conn.WriteJSON(map[string]any{"type": "open"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ev := readEvent(t, conn)
	if ev.Type != "state" || ev.View["state"] != "awaiting_analyst" {
		t.Fatalf("unexpected open event %+v", ev)
	}

	_ = conn.WriteJSON(map[string]any{"type": "send", "text": "I was flying"})
	ev = readUntil(t, conn, "error")
	if ev.Notice != i18n.NoticeSelectAnalyst {
		t.Fatalf("expected select analyst notice, got %+v", ev)
	}
	readUntil(t, conn, "state")

	_ = conn.WriteJSON(map[string]any{"type": "select_analyst", "analystId": "jung"})
	ev = readUntil(t, conn, "state")
	if ev.View["state"] != "composing" {
		t.Fatalf("unexpected state %+v", ev.View)
	}

	_ = conn.WriteJSON(map[string]any{"type": "send", "text": "   "})
	if ev := readEvent(t, conn); ev.Type != "notice" || ev.Notice != i18n.NoticeEmptyInput {
		t.Fatalf("expected empty input notice, got %+v", ev)
	}

	_ = conn.WriteJSON(map[string]any{"type": "send", "text": "I was flying"})
	if ev := readEvent(t, conn); ev.Type != "user_message" || ev.Message["text"] != "I was flying" {
		t.Fatalf("expected user message, got %+v", ev)
	}
	ev = readEvent(t, conn)
	if ev.Type != "ai_message" || !ev.Saved || ev.ConversationID == "" {
		t.Fatalf("expected saved ai message, got %+v", ev)
	}
	convID := ev.ConversationID
	if ev := readEvent(t, conn); ev.Type != "state" || ev.View["state"] != "idle" {
		t.Fatalf("expected idle state, got %+v", ev)
	}

	// analyst is fixed once the conversation exists
	_ = conn.WriteJSON(map[string]any{"type": "select_analyst", "analystId": "freud"})
	if ev := readEvent(t, conn); ev.Type != "error" {
		t.Fatalf("expected error, got %+v", ev)
	}

	conv, ok := env.Store.Conversation(context.Background(), convID)
	if !ok || len(conv.Messages) != 2 || conv.Analyst.ID != "jung" {
		t.Fatalf("conversation not stored: %+v", conv)
	}
	if interp.callCount() != 1 {
		t.Fatalf("expected one interpreter call, got %d", interp.callCount())
	}
}

func TestChatWSFailureKeepsDraft(t *testing.T) {
	env, interp := newTestEnv(t)
	conn := dialChat(t, env)

	_ = conn.WriteJSON(map[string]any{"type": "open", "analystId": "freud"})
	readUntil(t, conn, "state")

	interp.setFail("HTTP error! status: 500")
	_ = conn.WriteJSON(map[string]any{"type": "send", "text": "Teeth falling out"})
	readUntil(t, conn, "user_message")
	ev := readEvent(t, conn)
	if ev.Type != "error" || ev.Error != "HTTP error! status: 500" || ev.Notice != i18n.NoticeInterpretFailed {
		t.Fatalf("unexpected failure event %+v", ev)
	}
	ev = readEvent(t, conn)
	if msgs, _ := ev.View["messages"].([]any); ev.Type != "state" || len(msgs) != 1 {
		t.Fatalf("user message should stay in the session: %+v", ev)
	}
	if n := len(env.Store.Conversations(context.Background())); n != 0 {
		t.Fatalf("failed turn must not persist, got %d conversations", n)
	}

	interp.setFail("")
	_ = conn.WriteJSON(map[string]any{"type": "send", "text": "Teeth falling out again"})
	ev = readUntil(t, conn, "ai_message")
	conv, ok := env.Store.Conversation(context.Background(), ev.ConversationID)
	if !ok || len(conv.Messages) != 3 {
		t.Fatalf("expected 3 persisted messages, got %+v", conv)
	}
}

func TestChatWSStopEndsPendingTurn(t *testing.T) {
	env, interp := newTestEnv(t)
	conn := dialChat(t, env)

	_ = conn.WriteJSON(map[string]any{"type": "open", "analystId": "jung"})
	readUntil(t, conn, "state")

	entered := interp.holdTurns()
	_ = conn.WriteJSON(map[string]any{"type": "send", "text": "A house with no doors"})
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("interpreter was not called")
	}

	// still waiting: a second message is refused
	_ = conn.WriteJSON(map[string]any{"type": "send", "text": "Are you there?"})
	if ev := readEvent(t, conn); ev.Type != "notice" || ev.Notice != i18n.NoticeBusy {
		t.Fatalf("expected busy notice, got %+v", ev)
	}

	_ = conn.WriteJSON(map[string]any{"type": "stop"})
	readUntil(t, conn, "user_message")
	ev := readEvent(t, conn)
	if ev.Type != "error" || ev.Error != context.Canceled.Error() {
		t.Fatalf("expected cancelled turn, got %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Type != "state" || ev.View["state"] != "idle" {
		t.Fatalf("expected session released, got %+v", ev)
	}
	if n := len(env.Store.Conversations(context.Background())); n != 0 {
		t.Fatalf("stopped turn must not persist, got %d conversations", n)
	}
}
