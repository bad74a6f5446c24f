package store

import (
	"context"
	"sync"
	"time"

	"github.com/easycollege/feedback-orchestrator/entity"
)

// MemoryStore keeps job records in process memory. It backs the in-process
// execution variant and tests; records do not survive a restart, which is the
// documented degraded behavior of that variant.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*entity.Job
	expiresAt map[string]time.Time
	retention time.Duration

	finished int64
	failed   int64
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention <= 0 {
		retention = time.Hour
	}
	return &MemoryStore{
		jobs:      make(map[string]*entity.Job),
		expiresAt: make(map[string]time.Time),
		retention: retention,
	}
}

// StartJanitor evicts expired terminal records until ctx is cancelled.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.evict(now)
			}
		}
	}()
}

func (s *MemoryStore) evict(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)
}

func (s *MemoryStore) evictLocked(now time.Time) {
	for id, deadline := range s.expiresAt {
		if !now.After(deadline) {
			continue
		}
		if job, ok := s.jobs[id]; ok {
			switch job.State {
			case entity.StateSucceeded:
				s.finished--
			case entity.StateFailed:
				s.failed--
			}
		}
		delete(s.jobs, id)
		delete(s.expiresAt, id)
	}
}

func (s *MemoryStore) Create(_ context.Context, job *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*entity.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	if deadline, ok := s.expiresAt[id]; ok && time.Now().After(deadline) {
		return nil, entity.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *MemoryStore) MarkRunning(_ context.Context, id string, message string) error {
	return s.mutate(id, func(job *entity.Job) {
		now := time.Now().UTC()
		job.State = entity.StateRunning
		job.StartedAt = &now
		if message != "" {
			job.Message = message
		}
	})
}

func (s *MemoryStore) RecordCheckpoint(_ context.Context, id string, cp entity.Checkpoint) error {
	return s.mutate(id, func(job *entity.Job) {
		if cp.Progress > job.Progress {
			job.Progress = clampProgress(cp.Progress)
		}
		if cp.Message != "" {
			job.Message = cp.Message
		}
	})
}

func (s *MemoryStore) MarkSucceeded(_ context.Context, id string, result *entity.Result) error {
	err := s.mutate(id, func(job *entity.Job) {
		now := time.Now().UTC()
		job.State = entity.StateSucceeded
		job.Progress = 100
		job.Message = "Feedback submitted successfully!"
		job.Result = result
		job.EndedAt = &now
	})
	if err == nil {
		s.mu.Lock()
		s.finished++
		s.expiresAt[id] = time.Now().Add(s.retention)
		s.mu.Unlock()
	}
	return err
}

func (s *MemoryStore) MarkFailed(_ context.Context, id string, kind entity.ErrorKind, message string) error {
	err := s.mutate(id, func(job *entity.Job) {
		now := time.Now().UTC()
		job.State = entity.StateFailed
		job.ErrorKind = kind
		job.Error = message
		job.Message = "Task failed: " + message
		job.EndedAt = &now
	})
	if err == nil {
		s.mu.Lock()
		s.failed++
		s.expiresAt[id] = time.Now().Add(s.retention)
		s.mu.Unlock()
	}
	return err
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	delete(s.expiresAt, id)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (entity.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Expired terminal records leave the counts, matching how the durable
	// store trims its registries before counting.
	s.evictLocked(time.Now())
	var stats entity.QueueStats
	for _, job := range s.jobs {
		switch job.State {
		case entity.StateQueued:
			stats.Queued++
		case entity.StateRunning:
			stats.Started++
		}
	}
	stats.Finished = s.finished
	stats.Failed = s.failed
	return stats, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Len reports live record count; used by tests to verify rejected
// submissions create nothing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryStore) mutate(id string, fn func(*entity.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return entity.ErrNotFound
	}
	if job.State.IsTerminal() {
		return entity.ErrTerminal
	}
	fn(job)
	return nil
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
