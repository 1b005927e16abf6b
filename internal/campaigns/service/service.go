// Package service implements campaign scheduling and the dispatch loop.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"callcampaign_backend/internal/calls/provider"
	"callcampaign_backend/internal/campaigns/repository"
	"callcampaign_backend/internal/campaigns/transport"
	contactsrepo "callcampaign_backend/internal/contacts/repository"
	"callcampaign_backend/platform/apperr"
	"callcampaign_backend/platform/logger"
)

// Dispatch is a scheduled one-shot timer handle.
type Dispatch struct {
	JobID string
	At    time.Time
}

// DispatchScheduler arms, revokes and lists one-shot dispatch timers.
// The production implementation is the task queue client; tests use an
// in-memory fake.
type DispatchScheduler interface {
	ScheduleAt(ctx context.Context, jobID string, at time.Time) error
	Cancel(ctx context.Context, jobID string) error
	List(ctx context.Context) ([]Dispatch, error)
}

// Service provides campaign scheduling business logic.
type Service struct {
	jobs       repository.Repository
	contacts   contactsrepo.Repository
	dispatcher DispatchScheduler
	dialer     provider.Dialer
	limiter    *rate.Limiter
	loc        *time.Location
	log        *logger.Logger
}

// New creates a new campaign service. dialsPerSecond paces the outbound
// dial loop.
func New(jobs repository.Repository, contacts contactsrepo.Repository, dispatcher DispatchScheduler, dialer provider.Dialer, dialsPerSecond float64, loc *time.Location, log *logger.Logger) *Service {
	if dialsPerSecond <= 0 {
		dialsPerSecond = 1
	}
	return &Service{
		jobs:       jobs,
		contacts:   contacts,
		dispatcher: dispatcher,
		dialer:     dialer,
		limiter:    rate.NewLimiter(rate.Limit(dialsPerSecond), 1),
		loc:        loc,
		log:        log,
	}
}

// NextRunTime resolves hour:minute in the campaign time zone for today;
// a time that has already elapsed rolls to the same time tomorrow.
func NextRunTime(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	at := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !at.After(local) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

// Schedule selects a batch of callable contacts, persists a pending job
// and arms its one-shot dispatch timer.
func (s *Service) Schedule(ctx context.Context, req transport.ScheduleRequest) (transport.ScheduleResponse, error) {
	tag := strings.ToLower(strings.TrimSpace(req.Tag))
	if tag == "" {
		return transport.ScheduleResponse{}, apperr.Validation("tag is required")
	}

	scheduledTime := NextRunTime(time.Now(), req.Hour, req.Minute, s.loc)

	contacts, err := s.contacts.SelectForDispatch(ctx, req.AgentID, tag, req.Limit)
	if err != nil {
		return transport.ScheduleResponse{}, err
	}
	if len(contacts) == 0 {
		return transport.ScheduleResponse{}, apperr.NotFound("no callable contacts for this agent and tag")
	}

	contactIDs := make([]uuid.UUID, 0, len(contacts))
	for _, contact := range contacts {
		contactIDs = append(contactIDs, contact.ID)
	}

	job, err := s.jobs.Create(ctx, repository.CreateJobParams{
		ID:            uuid.New(),
		AgentID:       req.AgentID,
		Tag:           tag,
		FromNumber:    req.FromNumber,
		ScheduledTime: scheduledTime,
		ContactIDs:    contactIDs,
	})
	if err != nil {
		return transport.ScheduleResponse{}, err
	}

	if err := s.dispatcher.ScheduleAt(ctx, job.ID.String(), scheduledTime); err != nil {
		// The durable row exists but no timer is armed; mark it failed so
		// the registry never shows a pending job that will not fire.
		if statusErr := s.jobs.SetStatus(ctx, job.ID, repository.JobFailed); statusErr != nil {
			s.log.Error("failed to mark unarmed job failed", "job_id", job.ID, "error", statusErr)
		}
		return transport.ScheduleResponse{}, err
	}

	s.log.Info("campaign scheduled",
		"job_id", job.ID, "agent_id", req.AgentID, "tag", tag,
		"contacts", len(contactIDs), "scheduled_time", scheduledTime)

	return transport.ScheduleResponse{
		JobID:         job.ID,
		ScheduledTime: scheduledTime.Format(time.RFC3339),
		ContactCount:  len(contactIDs),
		ContactIDs:    contactIDs,
	}, nil
}

// Run executes one dispatch batch. It is invoked by the worker when the
// job's timer fires. The durable cancellation flag is re-read before
// every dial, so a cancel lands after at most one more dial completes.
func (s *Service) Run(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != repository.JobPending {
		s.log.Info("dispatch skipped", "job_id", jobID, "status", string(job.Status))
		return nil
	}

	if err := s.jobs.SetStatus(ctx, jobID, repository.JobRunning); err != nil {
		return err
	}
	s.log.DispatchEvent(jobID.String(), "started", 0, len(job.ContactIDs))

	dialed := 0
	for _, contactID := range job.ContactIDs {
		cont, err := s.jobs.ShouldContinue(ctx, jobID)
		if err != nil {
			return s.failJob(ctx, jobID, err)
		}
		if !cont {
			s.log.DispatchEvent(jobID.String(), "cancelled", dialed, len(job.ContactIDs))
			return s.jobs.SetStatus(ctx, jobID, repository.JobCancelled)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return s.failJob(ctx, jobID, err)
		}

		contact, err := s.contacts.GetByID(ctx, contactID)
		if err != nil {
			// Deleted since the snapshot was taken; skip it.
			s.log.Warn("contact skipped", "job_id", jobID, "contact_id", contactID, "error", err)
			continue
		}
		if contact.Status != contactsrepo.StatusNotCalled {
			continue
		}

		// The provider wants the agent leg registered before each dial. The
		// dial below returns the call id that the webhooks will carry.
		if _, err := s.dialer.RegisterCall(ctx, job.AgentID); err != nil {
			s.log.Warn("call registration failed", "job_id", jobID, "contact_id", contactID, "error", err)
			continue
		}

		callID, err := s.dialer.PlaceCall(ctx, job.FromNumber, contact.Phone, job.AgentID, map[string]string{
			"first_name": contact.FirstName,
			"last_name":  contact.LastName,
		})
		if err != nil {
			// One refused dial does not abort the batch.
			s.log.Warn("dial failed", "job_id", jobID, "contact_id", contactID, "error", err)
			continue
		}

		if err := s.contacts.SetDialing(ctx, contactID, callID); err != nil {
			s.log.Warn("failed to mark contact dialing", "job_id", jobID, "contact_id", contactID, "error", err)
			continue
		}
		dialed++
	}

	s.log.DispatchEvent(jobID.String(), "completed", dialed, len(job.ContactIDs))
	return s.jobs.SetStatus(ctx, jobID, repository.JobCompleted)
}

func (s *Service) failJob(ctx context.Context, jobID uuid.UUID, cause error) error {
	if err := s.jobs.SetStatus(ctx, jobID, repository.JobFailed); err != nil {
		s.log.Error("failed to mark job failed", "job_id", jobID, "error", err)
	}
	return cause
}

// Cancel revokes a pending job's timer, or flips the cancellation flag of
// a running one so the dispatch loop stops at its next iteration.
func (s *Service) Cancel(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	switch {
	case job.Status == repository.JobPending:
		if err := s.dispatcher.Cancel(ctx, jobID.String()); err != nil {
			s.log.Warn("failed to revoke dispatch timer", "job_id", jobID, "error", err)
		}
		if err := s.jobs.StopProcessing(ctx, jobID); err != nil {
			return err
		}
		s.log.Info("pending campaign cancelled", "job_id", jobID)
		return nil

	case job.Status == repository.JobRunning:
		if err := s.jobs.StopProcessing(ctx, jobID); err != nil {
			return err
		}
		s.log.Info("running campaign cancelled", "job_id", jobID)
		return nil
	}

	return apperr.Conflict("job already finished")
}

// ListScheduled returns the live timer handles with their next fire times.
func (s *Service) ListScheduled(ctx context.Context) (transport.ScheduledListResponse, error) {
	dispatches, err := s.dispatcher.List(ctx)
	if err != nil {
		return transport.ScheduledListResponse{}, err
	}

	items := make([]transport.ScheduledDispatch, 0, len(dispatches))
	for _, d := range dispatches {
		items = append(items, transport.ScheduledDispatch{
			JobID:        d.JobID,
			NextFireTime: d.At.Format(time.RFC3339),
		})
	}
	return transport.ScheduledListResponse{Items: items}, nil
}

// Get retrieves one job.
func (s *Service) Get(ctx context.Context, jobID uuid.UUID) (transport.JobResponse, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return transport.JobResponse{}, err
	}
	return toJobResponse(job), nil
}

// ListByAgent lists the agent's jobs.
func (s *Service) ListByAgent(ctx context.Context, agentID string) (transport.JobListResponse, error) {
	jobs, err := s.jobs.ListByAgent(ctx, agentID)
	if err != nil {
		return transport.JobListResponse{}, err
	}
	return toJobListResponse(jobs), nil
}

// ListAll lists recent jobs across agents.
func (s *Service) ListAll(ctx context.Context) (transport.JobListResponse, error) {
	jobs, err := s.jobs.ListAll(ctx, 200)
	if err != nil {
		return transport.JobListResponse{}, err
	}
	return toJobListResponse(jobs), nil
}

func toJobResponse(job repository.Job) transport.JobResponse {
	ids := job.ContactIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return transport.JobResponse{
		ID:             job.ID,
		AgentID:        job.AgentID,
		Tag:            job.Tag,
		FromNumber:     job.FromNumber,
		ScheduledTime:  job.ScheduledTime.Format(time.RFC3339),
		Status:         string(job.Status),
		ShouldContinue: job.ShouldContinue,
		ContactIDs:     ids,
		ContactCount:   job.ContactCount,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}
}

func toJobListResponse(jobs []repository.Job) transport.JobListResponse {
	items := make([]transport.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, toJobResponse(job))
	}
	return transport.JobListResponse{Items: items}
}
