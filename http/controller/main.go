package controller

import (
	"github.com/blobgate/blobgate/config"
	"github.com/blobgate/blobgate/infra"
	"github.com/blobgate/blobgate/provider"
	"github.com/blobgate/blobgate/repository"
)

type Controller struct {
	Config     *config.Config
	Infra      *infra.Infra
	Repository *repository.Repository
	Provider   *provider.Provider
}

func NewController(cfg *config.Config, infra *infra.Infra, repo *repository.Repository, prov *provider.Provider) *Controller {
	return &Controller{
		Config:     cfg,
		Infra:      infra,
		Repository: repo,
		Provider:   prov,
	}
}
