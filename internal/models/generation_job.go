package models

import "time"

// JobStatus captures the optimizer job lifecycle.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further status change will happen.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether the status is known.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// GenerationJob is a tracked request for the optimizer to produce patterns.
type GenerationJob struct {
	ID            string     `db:"id" json:"id"`
	YearMonth     string     `db:"year_month" json:"year_month"`
	Status        JobStatus  `db:"status" json:"status"`
	PatternCount  int        `db:"pattern_count" json:"pattern_count"`
	Progress      int        `db:"progress" json:"progress"`
	StatusMessage *string    `db:"status_message" json:"status_message"`
	ErrorMessage  *string    `db:"error_message" json:"error_message"`
	StartedAt     *time.Time `db:"started_at" json:"started_at"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// JobSnapshot is the session's view of a job: the backend state plus the
// locally estimated progress shown to the reviewer.
type JobSnapshot struct {
	Job             GenerationJob `json:"job"`
	Progress        int           `json:"progress"`
	BackendProgress int           `json:"backend_progress"`
	ElapsedSeconds  float64       `json:"elapsed_seconds"`
	Polling         bool          `json:"polling"`
	PatternsLoaded  bool          `json:"patterns_loaded"`
	Error           *LoopError    `json:"error,omitempty"`
	ObservedAt      time.Time     `json:"observed_at"`
}

// LoopError records why a poll loop stopped abnormally.
type LoopError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
