package controllers

import (
	"DreamAI/middleware"
	"DreamAI/pkg/chat"
	"DreamAI/pkg/i18n"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

const wsReadTimeout = 60 * time.Second

type wsCommand struct {
	Type           string            `json:"type"`
	ConversationID string            `json:"conversationId"`
	AnalystID      string            `json:"analystId"`
	Answers        map[string]string `json:"answers"`
	Text           string            `json:"text"`
}

// wsConn serialises writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) send(v any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteJSON(v)
}

func (w *wsConn) sendError(err error, notice string) {
	msg := gin.H{"type": "error", "error": err.Error()}
	if notice != "" {
		msg["notice"] = notice
	}
	w.send(msg)
}

// ChatWS keeps one chat session per connection.
// Client protocol (JSON messages):
//
//	-> {type: "open", conversationId?: string, analystId?: string}
//	-> {type: "select_analyst", analystId: string}
//	-> {type: "answers", answers: {questionId: answer}}
//	-> {type: "send", text: string}
//	-> {type: "stop"}
//	<- {type: "state", view: {...}}
//	<- {type: "user_message", message: {...}}
//	<- {type: "ai_message", message: {...}, conversationId, saved}
//	<- {type: "notice", notice: string}
//	<- {type: "error", error: string, notice?: string}
func ChatWS(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(middleware.ContextSubjectKey)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			env.Log.Warn("ws upgrade failed", "error", err)
			return
		}
		defer conn.Close()
		ws := &wsConn{conn: conn}
		log := env.Log.With("component", "ws", "subject", subject)

		conn.SetReadLimit(1 << 20) // 1MB
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		})

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		var (
			sess       *chat.Session
			wg         sync.WaitGroup
			turnMu     sync.Mutex
			cancelTurn context.CancelFunc = func() {}
		)
		defer func() {
			cancel()
			wg.Wait()
		}()

		for {
			if err := conn.SetReadDeadline(time.Now().Add(wsReadTimeout)); err != nil {
				return
			}
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("ws read", "error", err)
				}
				turnMu.Lock()
				cancelTurn()
				turnMu.Unlock()
				return
			}
			if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
				continue
			}
			var cmd wsCommand
			if err := json.Unmarshal(msg, &cmd); err != nil {
				ws.sendError(errors.New("invalid payload"), "")
				continue
			}

			switch strings.ToLower(strings.TrimSpace(cmd.Type)) {
			case "open":
				if sess != nil && sess.State() == chat.WaitingForResponse {
					ws.sendError(chat.ErrBusy, i18n.NoticeBusy)
					continue
				}
				s, err := chat.Open(ctx, chat.ModeFor(cmd.ConversationID, cmd.AnalystID), env.Store, env.Interp, env.chatOptions())
				if err != nil {
					ws.sendError(err, noticeOf(err))
					continue
				}
				sess = s
				ws.send(gin.H{"type": "state", "view": sess.View()})

			case "select_analyst":
				if sess == nil {
					ws.sendError(errors.New("no open session"), "")
					continue
				}
				a, ok := env.Store.Analyst(ctx, cmd.AnalystID)
				if !ok {
					ws.sendError(chat.ErrNoAnalyst, i18n.NoticeSelectAnalyst)
					continue
				}
				if err := sess.SelectAnalyst(a); err != nil {
					ws.sendError(err, noticeOf(err))
					continue
				}
				ws.send(gin.H{"type": "state", "view": sess.View()})

			case "answers":
				if sess == nil {
					ws.sendError(errors.New("no open session"), "")
					continue
				}
				if err := sess.SetAnswers(cmd.Answers); err != nil {
					ws.sendError(err, noticeOf(err))
					continue
				}
				ws.send(gin.H{"type": "state", "view": sess.View()})

			case "send":
				if sess == nil {
					ws.sendError(errors.New("no open session"), "")
					continue
				}
				text := strings.TrimSpace(cmd.Text)
				if text == "" {
					ws.send(gin.H{"type": "notice", "notice": i18n.NoticeEmptyInput})
					continue
				}
				if sess.State() == chat.WaitingForResponse {
					ws.send(gin.H{"type": "notice", "notice": i18n.NoticeBusy})
					continue
				}
				if !middleware.DuplicateGuard(subject+"/ws/"+sess.View().ConversationID, text) {
					ws.send(gin.H{"type": "notice", "notice": i18n.NoticeBusy})
					continue
				}
				// a turn waits as long as the interpreter needs; only stop or
				// a closed connection ends it early
				turnCtx, stop := context.WithCancel(ctx)
				turnMu.Lock()
				cancelTurn = stop
				turnMu.Unlock()

				s := sess
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer stop()
					runTurn(turnCtx, ws, s, text)
				}()

			case "stop":
				turnMu.Lock()
				cancelTurn()
				turnMu.Unlock()

			default:
				ws.sendError(errors.New("unknown command"), "")
			}
		}
	}
}

func runTurn(ctx context.Context, ws *wsConn, sess *chat.Session, text string) {
	turn, err := sess.Send(ctx, text)
	switch {
	case err == nil:
		ws.send(gin.H{"type": "user_message", "message": turn.User})
		ws.send(gin.H{
			"type":           "ai_message",
			"message":        turn.Reply,
			"conversationId": turn.ConversationID,
			"threadId":       turn.ThreadID,
			"saved":          turn.Saved,
		})
	case turn.Error != "":
		ws.send(gin.H{"type": "user_message", "message": turn.User})
		ws.send(gin.H{"type": "error", "error": turn.Error, "notice": i18n.NoticeInterpretFailed})
	default:
		ws.sendError(err, noticeOf(err))
	}
	ws.send(gin.H{"type": "state", "view": sess.View()})
}
