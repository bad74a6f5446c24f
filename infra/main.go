package infra

import (
	"github.com/easycollege/feedback-orchestrator/config"
)

type Infra struct {
	Redis     *RedisClient
	RabbitMQ  *RabbitMQClient
	Logger    *LoggerClient
	Telemetry *Telemetry
}

var infraInstance *Infra

// InitInfra wires the external clients the selected queue driver needs.
// Broker connectivity is a fatal startup error for the durable variants;
// the in-process variant runs with no broker at all.
func InitInfra(cfg *config.Config) *Infra {
	if infraInstance != nil {
		return infraInstance
	}

	telemetry := InitTelemetry(cfg.EnvConfig)

	logger := InitLoggerClient(cfg.EnvConfig)
	if logger == nil {
		panic("Failed to initialize Logger service")
	}

	inst := &Infra{
		Logger:    logger,
		Telemetry: telemetry,
	}

	switch cfg.EnvConfig.Queue.Driver {
	case "redis":
		redis := InitRedisClient(cfg.EnvConfig)
		if redis == nil {
			panic("Failed to initialize Redis service")
		}
		inst.Redis = redis
	case "rabbitmq":
		redis := InitRedisClient(cfg.EnvConfig)
		if redis == nil {
			panic("Failed to initialize Redis service")
		}
		inst.Redis = redis

		rabbitMQ := InitRabbitMQClient(cfg.EnvConfig)
		if rabbitMQ == nil {
			panic("Failed to initialize RabbitMQ service")
		}
		inst.RabbitMQ = rabbitMQ
	}

	infraInstance = inst
	return infraInstance
}

func GetClient() *Infra {
	if infraInstance == nil {
		panic("Infra not initialized. Call InitInfra() first.")
	}
	return infraInstance
}
