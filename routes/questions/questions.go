package questions

import (
	"DreamAI/controllers"

	"github.com/gin-gonic/gin"
)

// Register registers pre-chat question routes.
func Register(g *gin.RouterGroup, env *controllers.Env) {
	g.GET("/questions", controllers.ListQuestions(env))
	g.POST("/questions", controllers.CreateQuestion(env))
	g.POST("/questions/reset", controllers.ResetQuestions(env))
	g.GET("/questions/:question_id", controllers.GetQuestion(env))
	g.PUT("/questions/:question_id", controllers.UpdateQuestion(env))
	g.DELETE("/questions/:question_id", controllers.DeleteQuestion(env))
}
