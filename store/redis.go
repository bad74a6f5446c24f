package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easycollege/feedback-orchestrator/entity"
)

const (
	jobKeyPrefix     = "feedback:job:"
	startedRegistry  = "feedback:registry:started"
	finishedRegistry = "feedback:registry:finished"
	failedRegistry   = "feedback:registry:failed"
)

// RedisStore keeps one JSON document per job key. Whole-document writes are
// what give pollers torn-read-free snapshots: a Get observes exactly one
// prior Set. Terminal records carry a TTL so expired handles report
// not-found instead of stale state.
type RedisStore struct {
	client     *redis.Client
	queueKey   string
	resultTTL  time.Duration
	failureTTL time.Duration
	pendingTTL time.Duration
}

type RedisStoreOptions struct {
	QueueName  string
	ResultTTL  time.Duration
	FailureTTL time.Duration
	// PendingTTL bounds how long a non-terminal record may exist. Every
	// write of an active job refreshes it, so only jobs nothing is working
	// on ever hit this limit.
	PendingTTL time.Duration
}

func NewRedisStore(client *redis.Client, opts RedisStoreOptions) *RedisStore {
	if opts.QueueName == "" {
		opts.QueueName = "feedback"
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = time.Hour
	}
	if opts.FailureTTL <= 0 {
		opts.FailureTTL = time.Hour
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 24 * time.Hour
	}
	return &RedisStore{
		client:     client,
		queueKey:   "feedback:queue:" + opts.QueueName,
		resultTTL:  opts.ResultTTL,
		failureTTL: opts.FailureTTL,
		pendingTTL: opts.PendingTTL,
	}
}

func (s *RedisStore) Create(ctx context.Context, job *entity.Job) error {
	return s.write(ctx, job, s.pendingTTL)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*entity.Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	var job entity.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisStore) MarkRunning(ctx context.Context, id string, message string) error {
	job, err := s.mutable(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	job.State = entity.StateRunning
	job.StartedAt = &now
	if message != "" {
		job.Message = message
	}
	if err := s.write(ctx, job, s.pendingTTL); err != nil {
		return err
	}
	return s.client.SAdd(ctx, startedRegistry, id).Err()
}

func (s *RedisStore) RecordCheckpoint(ctx context.Context, id string, cp entity.Checkpoint) error {
	job, err := s.mutable(ctx, id)
	if err != nil {
		return err
	}
	if cp.Progress > job.Progress {
		job.Progress = clampProgress(cp.Progress)
	}
	if cp.Message != "" {
		job.Message = cp.Message
	}
	return s.write(ctx, job, s.pendingTTL)
}

func (s *RedisStore) MarkSucceeded(ctx context.Context, id string, result *entity.Result) error {
	job, err := s.mutable(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	job.State = entity.StateSucceeded
	job.Progress = 100
	job.Message = "Feedback submitted successfully!"
	job.Result = result
	job.EndedAt = &now
	if err := s.write(ctx, job, s.resultTTL); err != nil {
		return err
	}
	return s.finalizeRegistries(ctx, id, finishedRegistry, s.resultTTL)
}

func (s *RedisStore) MarkFailed(ctx context.Context, id string, kind entity.ErrorKind, message string) error {
	job, err := s.mutable(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	job.State = entity.StateFailed
	job.ErrorKind = kind
	job.Error = message
	job.Message = "Task failed: " + message
	job.EndedAt = &now
	if err := s.write(ctx, job, s.failureTTL); err != nil {
		return err
	}
	return s.finalizeRegistries(ctx, id, failedRegistry, s.failureTTL)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, jobKeyPrefix+id).Err()
}

func (s *RedisStore) Stats(ctx context.Context) (entity.QueueStats, error) {
	var stats entity.QueueStats
	now := float64(time.Now().Unix())

	queued, err := s.client.LLen(ctx, s.queueKey).Result()
	if err != nil {
		return stats, err
	}
	stats.Queued = queued

	started, err := s.client.SCard(ctx, startedRegistry).Result()
	if err != nil {
		return stats, err
	}
	stats.Started = started

	for _, reg := range []struct {
		key  string
		dest *int64
	}{
		{finishedRegistry, &stats.Finished},
		{failedRegistry, &stats.Failed},
	} {
		// Registry members score their expiry time; trim before counting.
		if err := s.client.ZRemRangeByScore(ctx, reg.key, "-inf", formatScore(now)).Err(); err != nil {
			return stats, err
		}
		n, err := s.client.ZCard(ctx, reg.key).Result()
		if err != nil {
			return stats, err
		}
		*reg.dest = n
	}
	return stats, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) mutable(ctx context.Context, id string) (*entity.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.State.IsTerminal() {
		return nil, entity.ErrTerminal
	}
	return job, nil
}

func (s *RedisStore) write(ctx context.Context, job *entity.Job, ttl time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, jobKeyPrefix+job.ID, data, ttl).Err()
}

func (s *RedisStore) finalizeRegistries(ctx context.Context, id, registry string, ttl time.Duration) error {
	if err := s.client.SRem(ctx, startedRegistry, id).Err(); err != nil {
		return err
	}
	expiry := float64(time.Now().Add(ttl).Unix())
	return s.client.ZAdd(ctx, registry, redis.Z{Score: expiry, Member: id}).Err()
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 0, 64)
}
