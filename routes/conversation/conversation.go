package conversation

import (
	"DreamAI/controllers"
	"DreamAI/middleware"

	"github.com/gin-gonic/gin"
)

// Register registers conversation routes (protected)
func Register(g *gin.RouterGroup, env *controllers.Env) {
	// rate limit the endpoint that reaches the AI provider
	g.POST("/conversations/messages", middleware.RateLimit(), controllers.SendMessage(env))
	g.GET("/conversations", controllers.ListConversations(env))
	g.GET("/conversations/:conversation_id", controllers.GetConversation(env))
	g.DELETE("/conversations/:conversation_id", controllers.DeleteConversation(env))
	g.DELETE("/conversations", controllers.DeleteAllConversations(env))
}
