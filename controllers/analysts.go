package controllers

import (
	"DreamAI/models"
	"DreamAI/pkg/i18n"
	"net/http"

	"github.com/gin-gonic/gin"
)

func ListAnalysts(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, env.Store.Analysts(c.Request.Context()))
	}
}

func GetAnalyst(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := env.Store.Analyst(c.Request.Context(), c.Param("analyst_id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "analyst not found"})
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// CreateAnalyst always assigns a fresh id.
func CreateAnalyst(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body models.Analyst
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		body.ID = ""
		a, err := env.Store.UpsertAnalyst(c.Request.Context(), body)
		if err != nil {
			respondError(c, err, "")
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

func UpdateAnalyst(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("analyst_id")
		if _, ok := env.Store.Analyst(ctx, id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"msg": "analyst not found"})
			return
		}
		var body models.Analyst
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		body.ID = id
		a, err := env.Store.UpsertAnalyst(ctx, body)
		if err != nil {
			respondError(c, err, "")
			return
		}
		c.JSON(http.StatusOK, a)
	}
}

// DeleteAnalyst refuses to remove the last analyst.
func DeleteAnalyst(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := env.Store.DeleteAnalyst(c.Request.Context(), c.Param("analyst_id")); err != nil {
			respondError(c, err, noticeFor(err, i18n.NoticeAnalystMinimum))
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "analyst deleted"})
	}
}

func ResetAnalysts(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := env.Store.ResetAnalysts(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to reset analysts"})
			return
		}
		c.JSON(http.StatusOK, list)
	}
}
