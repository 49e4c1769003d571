package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blobgate/blobgate/config"
	"github.com/blobgate/blobgate/consumer/worker"
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
	repo := repository.InitRepository(infra)
	prov := provider.InitProvider(cfg, infra.Storage)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start Bucket Consumer
	bucketConsumer := worker.NewBucketConsumer(infra.RabbitMQ.Channel, infra, repo, prov)
	if err := bucketConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Bucket consumer: %v", err)
		log.Fatalf("Failed to start Bucket consumer: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel() // Cancel context to stop consumers

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")

	infra.RabbitMQ.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := infra.TelemetryShutdown(shutdownCtx); err != nil {
		log.Printf("Telemetry shutdown failed: %v", err)
	}
}
