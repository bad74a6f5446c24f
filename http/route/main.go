package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/easycollege/feedback-orchestrator/http/controller"
	middlewares "github.com/easycollege/feedback-orchestrator/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	// Engine-level so preflight OPTIONS requests are answered; group
	// middleware never sees requests that match no registered route.
	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api")
	{
		apiRoutes.POST("/run-feedback", ctrl.RunFeedback)
		apiRoutes.GET("/status/:task_id", ctrl.GetStatus)
		apiRoutes.GET("/health", ctrl.HealthCheck)
		apiRoutes.GET("/keep-alive", ctrl.KeepAlive)
		apiRoutes.GET("/queue-stats", ctrl.QueueStats)
	}
	return r
}
