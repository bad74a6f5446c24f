package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/easycollege/feedback-orchestrator/automation"
	backendPkg "github.com/easycollege/feedback-orchestrator/backend"
	"github.com/easycollege/feedback-orchestrator/config"
	"github.com/easycollege/feedback-orchestrator/http/controller"
	routes "github.com/easycollege/feedback-orchestrator/http/route"
	infraPkg "github.com/easycollege/feedback-orchestrator/infra"
	"github.com/easycollege/feedback-orchestrator/queue"
	"github.com/easycollege/feedback-orchestrator/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer infra.Telemetry.Shutdown(context.Background())

	env := cfg.EnvConfig
	var (
		st store.Store
		be backendPkg.Backend
	)

	switch env.Queue.Driver {
	case "redis":
		st = store.NewRedisStore(infra.Redis.Client, store.RedisStoreOptions{
			QueueName:  env.Queue.Name,
			ResultTTL:  env.Queue.ResultTTL,
			FailureTTL: env.Queue.FailureTTL,
		})
		broker := queue.NewRedisBroker(infra.Redis.Client, env.Queue.Name, env.Queue.ResultTTL)
		be = backendPkg.NewQueueBackend(broker)

	case "rabbitmq":
		st = store.NewRedisStore(infra.Redis.Client, store.RedisStoreOptions{
			QueueName:  env.Queue.Name,
			ResultTTL:  env.Queue.ResultTTL,
			FailureTTL: env.Queue.FailureTTL,
		})
		broker, err := queue.NewAMQPBroker(infra.RabbitMQ.Conn, infra.RabbitMQ.Channel, env.Queue.Name)
		if err != nil {
			log.Fatalf("Failed to set up AMQP broker: %v", err)
		}
		be = backendPkg.NewQueueBackend(broker)

	default:
		// Broker-less mode: bounded pool in this process. Job records and
		// queued work do not survive a restart.
		log.Println("No broker configured; running jobs in-process (state is not durable)")
		memStore := store.NewMemoryStore(env.Queue.ResultTTL)
		memStore.StartJanitor(ctx, time.Minute)
		executor := &backendPkg.Executor{
			Store:   memStore,
			Runner:  automation.NewChromeRunner(env.Portal.BaseURL),
			Timeout: env.Queue.JobTimeout,
			Logger:  infra.Logger,
		}
		pool := backendPkg.NewInProcessBackend(executor, env.Pool.Workers, env.Pool.Capacity, infra.Logger)
		pool.Start(ctx)
		st = memStore
		be = pool
	}

	ctrl := controller.NewController(cfg, infra, st, be)
	router := routes.SetupRouter(ctrl)

	log.Println("HTTP Server started on :" + env.Server.Port)
	if err := router.Run(":" + env.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
