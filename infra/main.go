package infra

import (
	"context"

	"github.com/blobgate/blobgate/config"
	"github.com/blobgate/blobgate/infra/produce"
	"github.com/blobgate/blobgate/infra/storage"
)

type Infra struct {
	Redis             *RedisClient
	Postgres          *PostgresClient
	Logger            *LoggerClient
	RabbitMQ          *RabbitMQClient
	Produce           *produce.Produce
	Storage           storage.Backend
	TelemetryShutdown func(context.Context) error
}

var infraInstance *Infra

func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	// Telemetry first so the logger can attach to the OTLP pipeline.
	telemetryShutdown := InitTelemetry(cfg.EnvConfig)

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	redis := InitRedisClient(cfg.EnvConfig)
	if redis == nil {
		panic("Failed to initialize Redis service")
	}

	postgres := InitPostgresClient(cfg.EnvConfig)
	if postgres == nil {
		panic("Failed to initialize Postgres service")
	}

	rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
	if rabbitMQ == nil {
		panic("Failed to initialize RabbitMQ service")
	}

	produceService := produce.InitProduce(rabbitMQ.Channel)
	if produceService == nil {
		panic("Failed to initialize Produce service")
	}

	backend := InitStorageBackend(cfg.EnvConfig)
	if backend == nil {
		panic("Failed to initialize Storage backend")
	}

	infraInstance = &Infra{
		Redis:             redis,
		Postgres:          postgres,
		Logger:            logger,
		RabbitMQ:          rabbitMQ,
		Produce:           produceService,
		Storage:           backend,
		TelemetryShutdown: telemetryShutdown,
	}

	return infraInstance
}

// InitStorageBackend selects the object-store adapter by driver name.
// The memory driver exists for local development and tests only.
func InitStorageBackend(cfg *config.EnvConfig) storage.Backend {
	switch cfg.Storage.Driver {
	case "minio", "":
		return storage.InitMinioBackend(cfg)
	case "s3":
		return storage.InitS3Backend(cfg)
	case "memory":
		return storage.NewMemoryBackend()
	default:
		panic("Unknown storage driver: " + cfg.Storage.Driver)
	}
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
