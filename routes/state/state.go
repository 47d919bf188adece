package state

import (
	"DreamAI/controllers"

	"github.com/gin-gonic/gin"
)

func Register(g *gin.RouterGroup, env *controllers.Env) {
	g.GET("/state", controllers.InitialState(env))
}
