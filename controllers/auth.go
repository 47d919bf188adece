package controllers

import (
	"DreamAI/middleware"
	tokenstore "DreamAI/pkg/token"
	utils "DreamAI/pkg/utills"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const unlockTTL = 24 * time.Hour

// SetPIN sets or changes the app lock PIN. Changing it needs the current one.
func SetPIN(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			PIN        string `json:"pin"`
			CurrentPIN string `json:"currentPin"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		pin := strings.TrimSpace(body.PIN)
		if !utils.ValidPIN(pin) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "PIN must be 4 to 8 digits"})
			return
		}

		ctx := c.Request.Context()
		if existing := env.Store.PINHash(ctx); existing != "" {
			if bcrypt.CompareHashAndPassword([]byte(existing), []byte(body.CurrentPIN)) != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"msg": "current PIN is incorrect"})
				return
			}
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set PIN"})
			return
		}
		if err := env.Store.SetPINHash(ctx, string(hash)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to set PIN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "PIN updated"})
	}
}

// Unlock exchanges the PIN for a token valid for a day.
func Unlock(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			PIN    string `json:"pin"`
			Device string `json:"device"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid request"})
			return
		}
		hash := env.Store.PINHash(c.Request.Context())
		if hash == "" {
			c.JSON(http.StatusConflict, gin.H{"msg": "no PIN has been set"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(body.PIN))) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Invalid PIN"})
			return
		}

		device := strings.TrimSpace(body.Device)
		if device == "" {
			device = "device"
		}
		tokenStr, cl, err := middleware.IssueToken(device, unlockTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": tokenStr, "expires_at": cl.Expires.Unix()})
	}
}

// Logout revokes the caller's token until it would have expired.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		jti := c.GetString(middleware.ContextJTIKey)
		if jti != "" {
			exp, _ := c.Get(middleware.ContextExpKey)
			t, _ := exp.(time.Time)
			tokenstore.RevokeToken(jti, t)
		}
		c.JSON(http.StatusOK, gin.H{"msg": "logged out"})
	}
}
