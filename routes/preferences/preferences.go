package preferences

import (
	"DreamAI/controllers"

	"github.com/gin-gonic/gin"
)

func Register(g *gin.RouterGroup, env *controllers.Env) {
	h := controllers.Preferences(env)
	g.GET("/preferences", h)
	g.PUT("/preferences", h)
}
