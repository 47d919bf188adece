package controllers

import (
	"DreamAI/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

// InitialState returns everything the app loads on start-up in one call.
func InitialState(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := env.Store.InitialState(c.Request.Context())
		c.JSON(http.StatusOK, struct {
			models.AppState
			SupportedLocales  []string `json:"supportedLocales"`
			SuggestedLanguage string   `json:"suggestedLanguage"`
		}{
			AppState:          st,
			SupportedLocales:  env.Locales.Supported(),
			SuggestedLanguage: env.Locales.Negotiate(c.GetHeader("Accept-Language")),
		})
	}
}
