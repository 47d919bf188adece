package controllers

import (
	"DreamAI/models"
	"DreamAI/pkg/chat"
	"DreamAI/pkg/i18n"
	"DreamAI/pkg/logger"
	svc "DreamAI/pkg/services"
	"DreamAI/pkg/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Env carries what the handlers close over.
type Env struct {
	Store     *storage.Store
	Interp    svc.Interpreter
	Locales   *i18n.Locales
	Log       *logger.Logger
	FirstTurn chat.FirstTurn
}

func (e *Env) chatOptions() chat.Options {
	return chat.Options{FirstTurn: e.FirstTurn, Log: e.Log}
}

// classify maps domain errors to an HTTP status and a notice code.
func classify(err error) (status int, code string) {
	status = http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrFieldsRequired):
		status, code = http.StatusBadRequest, i18n.NoticeFieldsRequired
	case errors.Is(err, models.ErrOptionsRequired):
		status, code = http.StatusBadRequest, i18n.NoticeOptionsRequired
	case errors.Is(err, storage.ErrMinimumRequired):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, chat.ErrEmptyInput):
		status, code = http.StatusBadRequest, i18n.NoticeEmptyInput
	case errors.Is(err, chat.ErrNoAnalyst):
		status, code = http.StatusBadRequest, i18n.NoticeSelectAnalyst
	case errors.Is(err, chat.ErrBusy):
		status, code = http.StatusConflict, i18n.NoticeBusy
	case errors.Is(err, chat.ErrConversationStarted):
		status = http.StatusConflict
	case errors.Is(err, chat.ErrConversationNotFound):
		status, code = http.StatusNotFound, i18n.NoticeConversationGone
	case errors.Is(err, chat.ErrInterpretationFailed):
		status, code = http.StatusBadGateway, i18n.NoticeInterpretFailed
	case errors.Is(err, i18n.ErrUnsupportedLocale):
		status = http.StatusBadRequest
	}
	return status, code
}

func noticeOf(err error) string {
	_, code := classify(err)
	return code
}

// respondError writes the classified error. notice overrides the code when
// non-empty.
func respondError(c *gin.Context, err error, notice string) {
	status, code := classify(err)
	if notice != "" {
		code = notice
	}
	body := gin.H{"msg": err.Error()}
	if code != "" {
		body["notice"] = code
	}
	c.AbortWithStatusJSON(status, body)
}
