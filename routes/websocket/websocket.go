package websocket

import (
	"DreamAI/controllers"
	"DreamAI/middleware"

	"github.com/gin-gonic/gin"
)

func Register(g *gin.RouterGroup, env *controllers.Env) {
	g.GET("/ws/chat", middleware.RateLimit(), controllers.ChatWS(env))
}
