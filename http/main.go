package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/blobgate/blobgate/config"
	"github.com/blobgate/blobgate/http/controller"
	routes "github.com/blobgate/blobgate/http/route"
	infraPkg "github.com/blobgate/blobgate/infra"
	"github.com/blobgate/blobgate/provider"
	"github.com/blobgate/blobgate/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := infra.TelemetryShutdown(ctx); err != nil {
			log.Printf("Telemetry shutdown failed: %v", err)
		}
	}()
	defer infra.RabbitMQ.Close()

	repo := repository.InitRepository(infra)
	prov := provider.InitProvider(cfg, infra.Storage)

	ctrl := controller.NewController(cfg, infra, repo, prov)

	router := routes.SetupRouter(ctrl)

	addr := ":" + cfg.EnvConfig.HTTP.Port
	log.Println("HTTP Server started on", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
