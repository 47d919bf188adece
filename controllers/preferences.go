package controllers

import (
	"DreamAI/models"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func Preferences(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if c.Request.Method == http.MethodGet {
			c.JSON(http.StatusOK, gin.H{
				"theme":    env.Store.Theme(ctx),
				"language": env.Store.Language(ctx),
			})
			return
		}

		// PUT
		var body struct {
			Theme    *string `json:"theme"`
			Language *string `json:"language"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}

		var lang string
		if body.Language != nil {
			l, err := env.Locales.Normalize(*body.Language)
			if err != nil {
				respondError(c, err, "preferences.unsupported_language")
				return
			}
			lang = l
		}
		if body.Theme != nil {
			t := strings.ToLower(strings.TrimSpace(*body.Theme))
			if t != string(models.ThemeLight) && t != string(models.ThemeDark) {
				c.JSON(http.StatusBadRequest, gin.H{"msg": "theme must be light or dark"})
				return
			}
			if err := env.Store.SetTheme(ctx, models.Theme(t)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to save theme"})
				return
			}
		}
		if lang != "" {
			if err := env.Store.SetLanguage(ctx, lang); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to save language"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"theme":    env.Store.Theme(ctx),
			"language": env.Store.Language(ctx),
		})
	}
}
