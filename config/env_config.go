package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	JWT struct {
		SecretKey string
	}
	CORS struct {
		AllowDomains string
	}
	Redis struct {
		Password string
		Database int
		Host     string
		Port     string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Storage struct {
		Driver    string // minio | s3 | memory
		Endpoint  string
		AccessKey string
		SecretKey string
		Region    string
		UseSSL    bool
		AdminAPI  bool // MinIO admin API reachable, enables fast bucket stats
	}
	Upload struct {
		AllowedTypes []string
		MaxSizeBytes int64
		Timeout      time.Duration
	}
	Delete struct {
		Timeout time.Duration
	}
	Presign struct {
		Expiry    time.Duration
		MaxExpiry time.Duration
	}
	Listing struct {
		DefaultPageSize int
		MaxPageSize     int
	}
	StatsCache struct {
		TTL time.Duration
	}
	HTTP struct {
		Port string
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode  string
		Group string
	}
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = os.Getenv("PGPOOL_HOST")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = os.Getenv("PGPOOL_PORT")

	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")

	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")

	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.Host = os.Getenv("REDIS_HOST")
	config.Redis.Port = os.Getenv("REDIS_PORT")

	// RabbitMQ
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	if config.RabbitMQ.Host == "" {
		config.RabbitMQ.Host = "localhost"
	}
	config.RabbitMQ.Port = os.Getenv("RABBITMQ_PORT")
	if config.RabbitMQ.Port == "" {
		config.RabbitMQ.Port = "5672"
	}
	config.RabbitMQ.Username = os.Getenv("RABBITMQ_USER")
	if config.RabbitMQ.Username == "" {
		config.RabbitMQ.Username = "guest"
	}
	config.RabbitMQ.Password = os.Getenv("RABBITMQ_PASSWORD")
	if config.RabbitMQ.Password == "" {
		config.RabbitMQ.Password = "guest"
	}

	// Object storage backend
	config.Storage.Driver = os.Getenv("STORAGE_DRIVER")
	if config.Storage.Driver == "" {
		config.Storage.Driver = "minio"
	}
	config.Storage.Endpoint = os.Getenv("STORAGE_ENDPOINT")
	if config.Storage.Endpoint == "" {
		config.Storage.Endpoint = "localhost:9000"
	}
	config.Storage.AccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	config.Storage.SecretKey = os.Getenv("STORAGE_SECRET_KEY")
	config.Storage.Region = os.Getenv("STORAGE_REGION")
	if config.Storage.Region == "" {
		config.Storage.Region = "us-east-1"
	}
	config.Storage.UseSSL = envBool("STORAGE_USE_SSL", false)
	config.Storage.AdminAPI = envBool("STORAGE_ADMIN_API", false)

	// Upload policy
	allowed := os.Getenv("UPLOAD_ALLOWED_TYPES")
	if allowed == "" {
		allowed = "image/jpeg,image/png,image/webp,application/pdf"
	}
	for _, t := range strings.Split(allowed, ",") {
		if t = strings.TrimSpace(t); t != "" {
			config.Upload.AllowedTypes = append(config.Upload.AllowedTypes, t)
		}
	}
	config.Upload.MaxSizeBytes = envInt64("UPLOAD_MAX_SIZE_BYTES", 52428800) // 50MB
	config.Upload.Timeout = envDuration("UPLOAD_TIMEOUT", 60*time.Second)

	config.Delete.Timeout = envDuration("DELETE_TIMEOUT", 5*time.Second)

	config.Presign.Expiry = envDuration("PRESIGN_EXPIRY", 15*time.Minute)
	config.Presign.MaxExpiry = envDuration("PRESIGN_MAX_EXPIRY", 7*24*time.Hour)

	config.Listing.DefaultPageSize = envInt("LISTING_DEFAULT_PAGE_SIZE", 100)
	config.Listing.MaxPageSize = envInt("LISTING_MAX_PAGE_SIZE", 1000)

	config.StatsCache.TTL = envDuration("STATS_CACHE_TTL", 30*time.Second)

	config.HTTP.Port = os.Getenv("HTTP_PORT")
	if config.HTTP.Port == "" {
		config.HTTP.Port = "8080"
	}

	// Grafana/OpenTelemetry
	grafanaEndpoint := os.Getenv("GRAFANA_OTLP_ENDPOINT")
	if grafanaEndpoint == "" {
		grafanaEndpoint = "localhost:4318"
	}
	// Remove protocol for OpenTelemetry client to avoid duplicate protocols
	if strings.HasPrefix(grafanaEndpoint, "https://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "https://")
	} else if strings.HasPrefix(grafanaEndpoint, "http://") {
		config.Grafana.OTLPEndpoint = strings.TrimPrefix(grafanaEndpoint, "http://")
	} else {
		config.Grafana.OTLPEndpoint = grafanaEndpoint
	}
	config.Grafana.ServiceName = os.Getenv("SERVICE_NAME")
	if config.Grafana.ServiceName == "" {
		config.Grafana.ServiceName = "blobgate"
	}

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}

	config.Environment.Group = os.Getenv("GROUP_NAME")
	if config.Environment.Group == "" {
		config.Environment.Group = "local"
	}

	return &config
}

func envBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
