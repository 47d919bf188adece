package controllers

import (
	"DreamAI/models"
	"DreamAI/pkg/i18n"
	"DreamAI/pkg/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ListQuestions(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, env.Store.Questions(c.Request.Context()))
	}
}

func GetQuestion(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, ok := env.Store.Question(c.Request.Context(), c.Param("question_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "question not found"})
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

func CreateQuestion(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.Question
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		body.ID = ""
		q, err := env.Store.UpsertQuestion(c.Request.Context(), body)
		if err != nil {
			respondError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, q)
	}
}

func UpdateQuestion(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("question_id")
		if _, ok := env.Store.Question(ctx, id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "question not found"})
			return
		}
		var body models.Question
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		body.ID = id
		q, err := env.Store.UpsertQuestion(ctx, body)
		if err != nil {
			respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

func DeleteQuestion(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := env.Store.DeleteQuestion(c.Request.Context(), c.Param("question_id")); err != nil {
			respondError(c, err, noticeFor(err, i18n.NoticeQuestionMinimum))
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "question deleted"})
	}
}

func ResetQuestions(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := env.Store.ResetQuestions(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to reset questions"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// noticeFor returns minimum when err is the minimum-required error.
func noticeFor(err error, minimum string) string {
	if errors.Is(err, storage.ErrMinimumRequired) {
		return minimum
	}
	return ""
}
