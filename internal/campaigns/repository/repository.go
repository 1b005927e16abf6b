// Package repository provides Postgres persistence for campaign jobs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcampaign_backend/platform/apperr"
)

const jobNotFoundMessage = "job not found"

// Repository defines the job registry persistence operations.
type Repository interface {
	Create(ctx context.Context, params CreateJobParams) (Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (Job, error)
	ListByAgent(ctx context.Context, agentID string) ([]Job, error)
	ListAll(ctx context.Context, limit int) ([]Job, error)

	SetStatus(ctx context.Context, id uuid.UUID, status JobStatus) error

	// StopProcessing flips the durable cancellation flag and marks the
	// job cancelled in one statement.
	StopProcessing(ctx context.Context, id uuid.UUID) error

	// ShouldContinue is the cancellation token read: the dispatch loop
	// re-reads the durable flag before every dial.
	ShouldContinue(ctx context.Context, id uuid.UUID) (bool, error)

	// LastScheduledTime returns the most recent job's scheduled time, or
	// apperr.NotFound when no job was ever scheduled.
	LastScheduledTime(ctx context.Context) (time.Time, error)
}

// Repo implements the job registry repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new job repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const jobColumns = `id, agent_id, tag, from_number, scheduled_time, status,
	should_continue_processing, contact_ids, contact_count, created_at, updated_at`

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(
		&j.ID, &j.AgentID, &j.Tag, &j.FromNumber, &j.ScheduledTime, &j.Status,
		&j.ShouldContinue, &j.ContactIDs, &j.ContactCount, &j.CreatedAt, &j.UpdatedAt,
	)
	return j, err
}

// Create inserts a new pending job.
func (r *Repo) Create(ctx context.Context, params CreateJobParams) (Job, error) {
	query := fmt.Sprintf(`
		INSERT INTO jobs (id, agent_id, tag, from_number, scheduled_time, status,
			should_continue_processing, contact_ids, contact_count)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7, $8)
		RETURNING %s`, jobColumns)

	job, err := scanJob(r.pool.QueryRow(ctx, query,
		params.ID, params.AgentID, params.Tag, params.FromNumber, params.ScheduledTime,
		JobPending, params.ContactIDs, len(params.ContactIDs),
	))
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// GetByID retrieves one job.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1`, jobColumns)
	job, err := scanJob(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Job{}, apperr.NotFound(jobNotFoundMessage)
		}
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListByAgent lists the agent's jobs, newest first.
func (r *Repo) ListByAgent(ctx context.Context, agentID string) ([]Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE agent_id = $1 ORDER BY scheduled_time DESC`, jobColumns)
	return r.queryJobs(ctx, query, agentID)
}

// ListAll lists recent jobs across agents, newest first.
func (r *Repo) ListAll(ctx context.Context, limit int) ([]Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs ORDER BY scheduled_time DESC LIMIT $1`, jobColumns)
	return r.queryJobs(ctx, query, limit)
}

func (r *Repo) queryJobs(ctx context.Context, query string, args ...interface{}) ([]Job, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// SetStatus updates the job status.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status JobStatus) error {
	query := `UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(jobNotFoundMessage)
	}
	return nil
}

// StopProcessing flips the cancellation flag and marks the job cancelled.
func (r *Repo) StopProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET should_continue_processing = false, status = $2, updated_at = now()
		WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, JobCancelled)
	if err != nil {
		return fmt.Errorf("stop job processing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(jobNotFoundMessage)
	}
	return nil
}

// ShouldContinue reads the durable cancellation flag.
func (r *Repo) ShouldContinue(ctx context.Context, id uuid.UUID) (bool, error) {
	var cont bool
	err := r.pool.QueryRow(ctx, `SELECT should_continue_processing FROM jobs WHERE id = $1`, id).Scan(&cont)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperr.NotFound(jobNotFoundMessage)
		}
		return false, fmt.Errorf("read cancellation flag: %w", err)
	}
	return cont, nil
}

// LastScheduledTime returns the most recent job's scheduled time.
func (r *Repo) LastScheduledTime(ctx context.Context) (time.Time, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx, `SELECT scheduled_time FROM jobs ORDER BY scheduled_time DESC LIMIT 1`).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, apperr.NotFound("no jobs have been scheduled")
		}
		return time.Time{}, fmt.Errorf("last scheduled time: %w", err)
	}
	return at, nil
}
