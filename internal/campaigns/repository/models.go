package repository

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle status of a scheduled campaign job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCancelled JobStatus = "cancelled"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// IsFinished reports whether the job can no longer be cancelled.
func (s JobStatus) IsFinished() bool {
	switch s {
	case JobCancelled, JobCompleted, JobFailed:
		return true
	}
	return false
}

// Job is one scheduled campaign dispatch. The job id doubles as the
// dispatch task id, so the durable row and the armed timer always refer
// to the same work.
type Job struct {
	ID             uuid.UUID
	AgentID        string
	Tag            string
	FromNumber     string
	ScheduledTime  time.Time
	Status         JobStatus
	ShouldContinue bool
	ContactIDs     []uuid.UUID
	ContactCount   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateJobParams holds the fields for a new pending job.
type CreateJobParams struct {
	ID            uuid.UUID
	AgentID       string
	Tag           string
	FromNumber    string
	ScheduledTime time.Time
	ContactIDs    []uuid.UUID
}
