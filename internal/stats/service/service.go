// Package service aggregates daily call statistics and contact inventory.
package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	contactsrepo "callcampaign_backend/internal/contacts/repository"
	contactssvc "callcampaign_backend/internal/contacts/service"
	"callcampaign_backend/internal/stats/repository"
	"callcampaign_backend/internal/stats/transport"
	"callcampaign_backend/platform/logger"
)

// LastScheduleSource resolves the most recent job's scheduled time.
// Implemented by the campaign job registry; returns apperr.NotFound when
// no job was ever scheduled.
type LastScheduleSource interface {
	LastScheduledTime(ctx context.Context) (time.Time, error)
}

// Service provides statistics reporting.
type Service struct {
	repo     repository.Repository
	contacts contactsrepo.Repository
	contactQ *contactssvc.Service
	jobs     LastScheduleSource
	loc      *time.Location
	log      *logger.Logger
}

// New creates a new statistics service.
func New(repo repository.Repository, contacts contactsrepo.Repository, contactQ *contactssvc.Service, jobs LastScheduleSource, loc *time.Location, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		contacts: contacts,
		contactQ: contactQ,
		jobs:     jobs,
		loc:      loc,
		log:      log,
	}
}

// IncrementDaily applies counter deltas for one agent and day.
func (s *Service) IncrementDaily(ctx context.Context, day, agentID string, deltas repository.Deltas) error {
	return s.repo.IncrementDaily(ctx, day, agentID, deltas)
}

// Today returns the current day in the campaign time zone.
func (s *Service) Today() string {
	return time.Now().In(s.loc).Format(DayFormat)
}

// Query resolves the date preset, sums the matching daily counters and
// returns the per-agent contact inventory alongside a contact page. The
// per-agent counts run concurrently; one failing query fails the report.
func (s *Service) Query(ctx context.Context, req transport.StatsRequest) (transport.StatsResponse, error) {
	dayRange, err := s.resolveRange(ctx, req.DateFilter)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	totals, err := s.repo.SumRange(ctx, req.AgentIDs, dayRange.From, dayRange.To)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	// Each goroutine writes its own slice slot, so no locking is needed.
	agents := make([]transport.AgentCounts, len(req.AgentIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, agentID := range req.AgentIDs {
		g.Go(func() error {
			total, notCalled, answered, err := s.contacts.CountByAgent(gctx, agentID)
			if err != nil {
				return err
			}
			agents[i] = transport.AgentCounts{
				AgentID:   agentID,
				Total:     total,
				NotCalled: notCalled,
				Answered:  answered,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return transport.StatsResponse{}, err
	}

	page, err := s.contactQ.ListForAgents(ctx, req.AgentIDs, req.Page, req.Limit)
	if err != nil {
		return transport.StatsResponse{}, err
	}

	return transport.StatsResponse{
		From:     dayRange.From,
		To:       dayRange.To,
		Totals:   totals,
		Agents:   agents,
		Contacts: page,
	}, nil
}

func (s *Service) resolveRange(ctx context.Context, preset string) (DayRange, error) {
	if preset == PresetLastSchedule {
		at, err := s.jobs.LastScheduledTime(ctx)
		if err != nil {
			return DayRange{}, err
		}
		day := at.In(s.loc).Format(DayFormat)
		return DayRange{From: day, To: day}, nil
	}
	return ResolvePreset(preset, time.Now(), s.loc)
}
