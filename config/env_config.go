package config

import (
	"os"
	"strconv"
	"time"
)

type EnvConfig struct {
	Server struct {
		Port        string
		MetricsPort string
	}
	CORS struct {
		AllowedOrigin string
	}
	Redis struct {
		URL      string
		Host     string
		Port     string
		Password string
		Database int
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Queue struct {
		Driver     string // "redis" | "rabbitmq" | "inprocess"
		Name       string
		JobTimeout time.Duration
		ResultTTL  time.Duration
		FailureTTL time.Duration
	}
	Pool struct {
		Workers  int
		Capacity int
	}
	Portal struct {
		BaseURL string
	}
	Grafana struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode string
	}
}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	config.Server.Port = os.Getenv("PORT")
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	config.Server.MetricsPort = os.Getenv("METRICS_PORT")
	if config.Server.MetricsPort == "" {
		config.Server.MetricsPort = "2113"
	}

	config.CORS.AllowedOrigin = os.Getenv("ALLOWED_ORIGIN")
	if config.CORS.AllowedOrigin == "" {
		config.CORS.AllowedOrigin = "https://easy-college.vercel.app"
	}

	// UPSTASH_REDIS_URL takes precedence; host/port pairs are for local runs.
	config.Redis.URL = os.Getenv("UPSTASH_REDIS_URL")
	config.Redis.Host = os.Getenv("REDIS_HOST")
	config.Redis.Port = os.Getenv("REDIS_PORT")
	if config.Redis.Port == "" {
		config.Redis.Port = "6379"
	}
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

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

	config.Queue.Driver = os.Getenv("QUEUE_DRIVER")
	if config.Queue.Driver == "" {
		if config.Redis.URL != "" || config.Redis.Host != "" {
			config.Queue.Driver = "redis"
		} else {
			config.Queue.Driver = "inprocess"
		}
	}
	config.Queue.Name = os.Getenv("QUEUE_NAME")
	if config.Queue.Name == "" {
		config.Queue.Name = "feedback"
	}
	config.Queue.JobTimeout = envSeconds("JOB_TIMEOUT_SECONDS", 600)
	config.Queue.ResultTTL = envSeconds("RESULT_TTL_SECONDS", 3600)
	config.Queue.FailureTTL = envSeconds("FAILURE_TTL_SECONDS", 3600)

	config.Pool.Workers = envInt("POOL_WORKERS", 2)
	config.Pool.Capacity = envInt("POOL_CAPACITY", 16)

	config.Portal.BaseURL = os.Getenv("PORTAL_BASE_URL")
	if config.Portal.BaseURL == "" {
		config.Portal.BaseURL = "https://ecampus.psgtech.ac.in/studzone"
	}

	config.Grafana.OTLPEndpoint = os.Getenv("GRAFANA_OTLP_ENDPOINT")
	config.Grafana.ServiceName = os.Getenv("SERVICE_NAME")
	if config.Grafana.ServiceName == "" {
		config.Grafana.ServiceName = "feedback-orchestrator"
	}

	config.Environment.Mode = os.Getenv("DEPLOY_ENV")
	if config.Environment.Mode == "" {
		config.Environment.Mode = "development"
	}

	return &config
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}
