package routes

import (
	"DreamAI/controllers"
	"DreamAI/middleware"
	"net/http"

	"github.com/gin-gonic/gin"

	analystRoutes "DreamAI/routes/analysts"
	authRoutes "DreamAI/routes/auth"
	convRoutes "DreamAI/routes/conversation"
	prefRoutes "DreamAI/routes/preferences"
	questionRoutes "DreamAI/routes/questions"
	stateRoutes "DreamAI/routes/state"
	websocketRoutes "DreamAI/routes/websocket"
)

func RegisterRoutes(r *gin.Engine, env *controllers.Env) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "dream interpretation backend running"})
	})

	authRoutes.RegisterPublic(r, env)

	// open unless the app lock is enabled and a PIN exists
	protected := r.Group("/")
	protected.Use(middleware.AppLock(env.Store))
	authRoutes.RegisterProtected(protected, env)
	stateRoutes.Register(protected, env)
	prefRoutes.Register(protected, env)
	analystRoutes.Register(protected, env)
	questionRoutes.Register(protected, env)
	convRoutes.Register(protected, env)
	websocketRoutes.Register(protected, env)
}
