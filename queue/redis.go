package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easycollege/feedback-orchestrator/entity"
)

const msgKeyPrefix = "feedback:msg:"

// RedisBroker is a list-backed queue: job ids are LPUSHed onto the queue
// list and workers BRPOP them. The message payload (the only place
// credentials exist) lives in a separate key that is deleted the moment a
// worker picks the job up.
type RedisBroker struct {
	client   *redis.Client
	queueKey string
	// payloadTTL bounds how long credentials can sit in the broker if no
	// worker ever picks the job up.
	payloadTTL time.Duration

	// OnExpired is invoked with the job id when a dequeued job's payload
	// no longer exists (it outlived payloadTTL before any worker got to
	// it). Consumers use it to record a terminal failure so the job does
	// not sit in queued forever. Optional.
	OnExpired func(ctx context.Context, jobID string)
}

func NewRedisBroker(client *redis.Client, queueName string, payloadTTL time.Duration) *RedisBroker {
	if queueName == "" {
		queueName = "feedback"
	}
	if payloadTTL <= 0 {
		payloadTTL = time.Hour
	}
	return &RedisBroker{
		client:     client,
		queueKey:   "feedback:queue:" + queueName,
		payloadTTL: payloadTTL,
	}
}

func (b *RedisBroker) Publish(ctx context.Context, msg entity.JobMessage) error {
	msg.EnqueuedAt = time.Now().Unix()
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal job message: %w", err)
	}
	if err := b.client.Set(ctx, msgKeyPrefix+msg.JobID, data, b.payloadTTL).Err(); err != nil {
		return fmt.Errorf("store job message: %w", err)
	}
	if err := b.client.LPush(ctx, b.queueKey, msg.JobID).Err(); err != nil {
		// Do not leave orphaned credentials behind a failed enqueue.
		_ = b.client.Del(ctx, msgKeyPrefix+msg.JobID).Err()
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

func (b *RedisBroker) Consume(ctx context.Context) (<-chan Delivery, error) {
	deliveries := make(chan Delivery)
	go func() {
		defer close(deliveries)
		for {
			if ctx.Err() != nil {
				return
			}
			res, err := b.client.BRPop(ctx, 2*time.Second, b.queueKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				// Transient broker error; back off and retry.
				time.Sleep(time.Second)
				continue
			}
			if len(res) != 2 {
				continue
			}
			jobID := res[1]
			data, err := b.client.GetDel(ctx, msgKeyPrefix+jobID).Bytes()
			if errors.Is(err, redis.Nil) {
				// Payload expired or already claimed; there is nothing
				// to run, so settle the job instead of dropping it.
				if b.OnExpired != nil {
					b.OnExpired(ctx, jobID)
				}
				continue
			}
			if err != nil {
				// Transient read failure: put the id back so another
				// attempt can claim the still-live payload.
				_ = b.client.RPush(ctx, b.queueKey, jobID).Err()
				time.Sleep(time.Second)
				continue
			}
			var msg entity.JobMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			select {
			case deliveries <- Delivery{Message: msg, Ack: noopAck, Nack: noopNack}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return deliveries, nil
}

func (b *RedisBroker) Position(ctx context.Context, jobID string) (*int, error) {
	pos, err := b.client.LPos(ctx, b.queueKey, jobID, redis.LPosArgs{}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	length, err := b.client.LLen(ctx, b.queueKey).Result()
	if err != nil {
		return nil, err
	}
	// BRPOP consumes from the tail, so index 0 is the back of the queue.
	position := int(length - pos)
	return &position, nil
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
