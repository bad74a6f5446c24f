package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/easycollege/feedback-orchestrator/http/controller"
)

type Middlewares struct {
	CORSMiddleware gin.HandlerFunc
}

func NewMiddlewares(ctrl *controller.Controller) (*Middlewares, error) {
	cors := CORSMiddleware(ctrl.Config.EnvConfig)
	return &Middlewares{
		CORSMiddleware: cors,
	}, nil
}
