package auth

import (
	"DreamAI/controllers"
	"DreamAI/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterPublic registers the unlock route.
func RegisterPublic(r *gin.Engine, env *controllers.Env) {
	r.POST("/auth/token", middleware.RateLimit(), controllers.Unlock(env))
}

// RegisterProtected registers PIN management and logout.
func RegisterProtected(g *gin.RouterGroup, env *controllers.Env) {
	g.POST("/auth/pin", middleware.RateLimit(), controllers.SetPIN(env))
	g.POST("/logout", controllers.Logout())
}
