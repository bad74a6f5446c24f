package controller

import (
	"github.com/easycollege/feedback-orchestrator/backend"
	"github.com/easycollege/feedback-orchestrator/config"
	"github.com/easycollege/feedback-orchestrator/infra"
	"github.com/easycollege/feedback-orchestrator/store"
)

type Controller struct {
	Config  *config.Config
	Infra   *infra.Infra
	Store   store.Store
	Backend backend.Backend
}

func NewController(cfg *config.Config, infra *infra.Infra, st store.Store, be backend.Backend) *Controller {
	if st == nil || be == nil {
		panic("Controller requires a store and an execution backend")
	}
	return &Controller{
		Config:  cfg,
		Infra:   infra,
		Store:   st,
		Backend: be,
	}
}
