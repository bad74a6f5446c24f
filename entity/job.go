package entity

import (
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle state of a feedback job. The values are the wire
// strings the status endpoint reports, so they are part of the frontend
// contract.
type JobState string

const (
	StateQueued    JobState = "queued"
	StateRunning   JobState = "running"
	StateSucceeded JobState = "done"
	StateFailed    JobState = "error"
	// StatePending is reported for jobs a broker has accepted but not yet
	// listed in its queue. It never appears in stored records.
	StatePending JobState = "pending"
)

// IsTerminal reports whether no further transitions are permitted.
func (s JobState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// IsActive reports whether the job is still waiting or executing.
func (s JobState) IsActive() bool {
	return s == StateQueued || s == StateRunning || s == StatePending
}

// FeedbackKind selects which feedback form the automation fills in.
// Wire values match the original frontend: 0 end-semester, 1 intermediate.
type FeedbackKind int

const (
	KindEndOfSemester FeedbackKind = 0
	KindIntermediate  FeedbackKind = 1
)

func (k FeedbackKind) Valid() bool {
	return k == KindEndOfSemester || k == KindIntermediate
}

func (k FeedbackKind) String() string {
	switch k {
	case KindEndOfSemester:
		return "end-semester"
	case KindIntermediate:
		return "intermediate"
	default:
		return "unknown"
	}
}

// Credentials are the portal login pair. They travel inside queue messages
// only and are never written to the status store or any log.
type Credentials struct {
	RollNo   string `json:"rollno"`
	Password string `json:"password"`
}

// Result is the payload of a successful run.
type Result struct {
	Submitted bool   `json:"submitted"`
	Message   string `json:"message,omitempty"`
}

// Job is the stored status record. Credentials are deliberately absent.
type Job struct {
	ID        string       `json:"id"`
	Kind      FeedbackKind `json:"kind"`
	State     JobState     `json:"state"`
	Progress  int          `json:"progress"`
	Message   string       `json:"message"`
	Result    *Result      `json:"result,omitempty"`
	ErrorKind ErrorKind    `json:"error_kind,omitempty"`
	Error     string       `json:"error,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// NewJob allocates a queued job with a fresh handle.
func NewJob(kind FeedbackKind) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		State:     StateQueued,
		Progress:  0,
		Message:   "Waiting in queue",
		CreatedAt: time.Now().UTC(),
	}
}

// Snapshot is the point-in-time view a poller receives.
type Snapshot struct {
	TaskID        string       `json:"task_id"`
	Status        JobState     `json:"status"`
	Progress      int          `json:"progress"`
	Message       string       `json:"message"`
	Result        *Result      `json:"result,omitempty"`
	ErrorKind     ErrorKind    `json:"error_kind,omitempty"`
	Error         string       `json:"error,omitempty"`
	QueuePosition *int         `json:"queue_position,omitempty"`
	Kind          FeedbackKind `json:"feedback_type"`
}

// Snapshot builds the poller view from the stored record.
func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		TaskID:    j.ID,
		Status:    j.State,
		Progress:  j.Progress,
		Message:   j.Message,
		Result:    j.Result,
		ErrorKind: j.ErrorKind,
		Error:     j.Error,
		Kind:      j.Kind,
	}
}

// Checkpoint is one intermediate progress report emitted by a run.
type Checkpoint struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// JobMessage is what the submitter hands to a broker. This is the only place
// credentials are serialized, and broker storage of them is transient.
type JobMessage struct {
	JobID       string       `json:"job_id"`
	Kind        FeedbackKind `json:"feedback_type"`
	Credentials Credentials  `json:"credentials"`
	EnqueuedAt  int64        `json:"enqueued_at"`
}

// QueueStats mirrors the queue registries of the broker.
type QueueStats struct {
	Queued   int64 `json:"queued_jobs"`
	Failed   int64 `json:"failed_jobs"`
	Finished int64 `json:"finished_jobs"`
	Started  int64 `json:"started_jobs"`
}
