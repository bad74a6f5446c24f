package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/easycollege/feedback-orchestrator/automation"
	backendPkg "github.com/easycollege/feedback-orchestrator/backend"
	"github.com/easycollege/feedback-orchestrator/config"
	"github.com/easycollege/feedback-orchestrator/consumer/worker"
	"github.com/easycollege/feedback-orchestrator/entity"
	infraPkg "github.com/easycollege/feedback-orchestrator/infra"
	"github.com/easycollege/feedback-orchestrator/metrics"
	"github.com/easycollege/feedback-orchestrator/queue"
	"github.com/easycollege/feedback-orchestrator/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	env := cfg.EnvConfig
	if env.Queue.Driver != "redis" && env.Queue.Driver != "rabbitmq" {
		log.Fatalf("Worker requires a broker; set UPSTASH_REDIS_URL/REDIS_HOST or QUEUE_DRIVER=rabbitmq")
	}

	infra := infraPkg.InitInfra(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer infra.Telemetry.Shutdown(context.Background())

	st := store.NewRedisStore(infra.Redis.Client, store.RedisStoreOptions{
		QueueName:  env.Queue.Name,
		ResultTTL:  env.Queue.ResultTTL,
		FailureTTL: env.Queue.FailureTTL,
	})

	var broker queue.Broker
	if env.Queue.Driver == "rabbitmq" {
		b, err := queue.NewAMQPBroker(infra.RabbitMQ.Conn, infra.RabbitMQ.Channel, env.Queue.Name)
		if err != nil {
			log.Fatalf("Failed to set up AMQP broker: %v", err)
		}
		broker = b
	} else {
		rb := queue.NewRedisBroker(infra.Redis.Client, env.Queue.Name, env.Queue.ResultTTL)
		rb.OnExpired = func(ctx context.Context, jobID string) {
			err := st.MarkFailed(ctx, jobID, entity.ErrKindTimeout, "job expired before a worker picked it up")
			if err != nil {
				infra.Logger.WarningWithContextf(ctx, "[Consumer] Could not fail expired job %s: %v", jobID, err)
			}
		}
		broker = rb
	}

	metrics.Register()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Println("Metrics server started on :" + env.Server.MetricsPort + "/metrics")
		if err := http.ListenAndServe(":"+env.Server.MetricsPort, mux); err != nil {
			log.Printf("Failed to start metrics server: %v", err)
		}
	}()
	go reportQueueDepth(ctx, st)

	executor := &backendPkg.Executor{
		Store:   st,
		Runner:  automation.NewChromeRunner(env.Portal.BaseURL),
		Timeout: env.Queue.JobTimeout,
		Logger:  infra.Logger,
	}

	consumer := worker.NewFeedbackConsumer(broker, executor, infra)
	if err := consumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start feedback consumer: %v", err)
		log.Fatalf("Failed to start feedback consumer: %v", err)
	}

	<-ctx.Done()
	infra.Logger.InfoWithContextf(context.Background(), "Consumer exited properly")
}

func reportQueueDepth(ctx context.Context, st *store.RedisStore) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := st.Stats(ctx)
			if err != nil {
				continue
			}
			metrics.QueueDepth.Set(float64(stats.Queued))
		}
	}
}
