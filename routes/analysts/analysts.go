package analysts

import (
	"DreamAI/controllers"

	"github.com/gin-gonic/gin"
)

// Register registers analyst settings routes.
func Register(g *gin.RouterGroup, env *controllers.Env) {
	g.GET("/analysts", controllers.ListAnalysts(env))
	g.POST("/analysts", controllers.CreateAnalyst(env))
	g.POST("/analysts/reset", controllers.ResetAnalysts(env))
	g.GET("/analysts/:analyst_id", controllers.GetAnalyst(env))
	g.PUT("/analysts/:analyst_id", controllers.UpdateAnalyst(env))
	g.DELETE("/analysts/:analyst_id", controllers.DeleteAnalyst(env))
}
