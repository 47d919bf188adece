package controllers

import (
	"DreamAI/middleware"
	"DreamAI/models"
	"DreamAI/pkg/chat"
	"DreamAI/pkg/i18n"
	utils "DreamAI/pkg/utills"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

const previewLength = 100

type conversationSummary struct {
	ID           string         `json:"id"`
	Analyst      models.Analyst `json:"analyst"`
	Preview      string         `json:"preview"`
	MessageCount int            `json:"messageCount"`
	Timestamp    int64          `json:"timestamp"`
	ThreadID     string         `json:"threadId,omitempty"`
}

// SendMessage runs one chat turn. Without conversationId it starts a new
// conversation with analystId and the optional pre-chat answers.
func SendMessage(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ConversationID string            `json:"conversationId"`
			AnalystID      string            `json:"analystId"`
			PreChatAnswers map[string]string `json:"preChatAnswers"`
			Text           string            `json:"text"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		text := strings.TrimSpace(body.Text)
		if text == "" {
			respondError(c, chat.ErrEmptyInput, "")
			return
		}

		ctx := c.Request.Context()
		mode := chat.ModeFor(body.ConversationID, body.AnalystID)
		sess, err := chat.Open(ctx, mode, env.Store, env.Interp, env.chatOptions())
		if err != nil {
			respondError(c, err, "")
			return
		}

		slotKey := middleware.ClientKey(c)
		if m, ok := mode.(chat.ResumeConversation); ok {
			release, ok := middleware.AcquireConversationSlot(m.ID)
			if !ok {
				respondError(c, chat.ErrBusy, "")
				return
			}
			defer release()
			slotKey += "/" + m.ID
		} else if len(body.PreChatAnswers) > 0 {
			if err := sess.SetAnswers(body.PreChatAnswers); err != nil {
				respondError(c, err, "")
				return
			}
		}

		if !middleware.DuplicateGuard(slotKey, text) {
			c.JSON(http.StatusConflict, gin.H{"msg": "duplicate message", "notice": i18n.NoticeBusy})
			return
		}

		turn, err := sess.Send(ctx, text)
		if err != nil {
			if turn.Error != "" {
				c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
					"msg":    turn.Error,
					"notice": i18n.NoticeInterpretFailed,
					"turn":   turn,
				})
				return
			}
			respondError(c, err, "")
			return
		}

		v := sess.View()
		c.JSON(http.StatusCreated, gin.H{
			"turn":    turn,
			"session": v,
		})
	}
}

// ListConversations returns summaries, newest first, optionally filtered by q.
func ListConversations(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		convs := env.Store.Conversations(c.Request.Context())

		filtered := convs[:0]
		if q == "" {
			filtered = convs
		} else {
			for _, conv := range convs {
				if conv.Contains(q) {
					filtered = append(filtered, conv)
				}
			}
		}

		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Timestamp > filtered[j].Timestamp
		})

		result := make([]conversationSummary, 0, len(filtered))
		for _, conv := range filtered {
			result = append(result, conversationSummary{
				ID:           conv.ID,
				Analyst:      conv.Analyst,
				Preview:      utils.Truncate(conv.FirstText(), previewLength),
				MessageCount: len(conv.Messages),
				Timestamp:    conv.Timestamp,
				ThreadID:     conv.ThreadID,
			})
		}
		c.JSON(http.StatusOK, result)
	}
}

func GetConversation(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		conv, ok := env.Store.Conversation(c.Request.Context(), c.Param("conversation_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found", "notice": i18n.NoticeConversationGone})
			return
		}
		c.JSON(http.StatusOK, conv)
	}
}

func DeleteConversation(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("conversation_id")
		if _, ok := env.Store.Conversation(ctx, id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found", "notice": i18n.NoticeConversationGone})
			return
		}
		if err := env.Store.DeleteConversation(ctx, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to delete conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "conversation deleted"})
	}
}

func DeleteAllConversations(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := env.Store.ClearConversations(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to delete conversations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "all conversations deleted"})
	}
}
