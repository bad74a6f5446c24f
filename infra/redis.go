package infra

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/easycollege/feedback-orchestrator/config"
)

type RedisClient struct {
	Client *redis.Client
}

// InitRedisClient prefers the single connection URL (Upstash style); the
// host/port pair is the local fallback. An unparsable URL is fatal: a
// durable backend with no store is misconfiguration, not a degraded mode.
func InitRedisClient(cfg *config.EnvConfig) *RedisClient {
	var opts *redis.Options
	if cfg.Redis.URL != "" {
		parsed, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Invalid UPSTASH_REDIS_URL: %v", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}

	log.Println("Connected to Redis:", opts.Addr)
	return &RedisClient{Client: client}
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}
