// Package service reconciles asynchronous call-lifecycle webhooks into
// contact status, call events and daily statistics.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"callcampaign_backend/internal/calls/repository"
	"callcampaign_backend/internal/calls/transport"
	contactsrepo "callcampaign_backend/internal/contacts/repository"
	statsrepo "callcampaign_backend/internal/stats/repository"
	"callcampaign_backend/platform/ai"
	"callcampaign_backend/platform/idempotency"
	"callcampaign_backend/platform/logger"
)

// Provider lifecycle event names.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// StatsRecorder applies counter increments for one agent and day.
// Implemented by the stats service.
type StatsRecorder interface {
	IncrementDaily(ctx context.Context, day, agentID string, deltas statsrepo.Deltas) error
	Today() string
}

// Service is the webhook reconciler.
type Service struct {
	guard      idempotency.Guard
	lockTTL    time.Duration
	contacts   contactsrepo.Repository
	events     repository.Repository
	stats      StatsRecorder
	classifier ai.Classifier
	log        *logger.Logger
}

// New creates a new reconciler service.
func New(guard idempotency.Guard, lockTTL time.Duration, contacts contactsrepo.Repository, events repository.Repository, stats StatsRecorder, classifier ai.Classifier, log *logger.Logger) *Service {
	return &Service{
		guard:      guard,
		lockTTL:    lockTTL,
		contacts:   contacts,
		events:     events,
		stats:      stats,
		classifier: classifier,
		log:        log,
	}
}

// HandleEvent reconciles one webhook delivery. The returned error is for
// logging only; the transport layer acknowledges every delivery regardless.
func (s *Service) HandleEvent(ctx context.Context, req transport.WebhookRequest) error {
	if req.Call.CallID == "" {
		return fmt.Errorf("webhook payload missing call_id")
	}

	key := req.Event + ":" + req.Call.CallID
	acquired, err := s.guard.TryAcquire(ctx, key, s.lockTTL)
	if err != nil {
		return fmt.Errorf("idempotency guard: %w", err)
	}
	if !acquired {
		s.log.WebhookEvent(req.Event, req.Call.CallID, true)
		return nil
	}
	s.log.WebhookEvent(req.Event, req.Call.CallID, false)

	switch req.Event {
	case EventCallStarted:
		return s.handleCallStarted(ctx, req.Call)
	case EventCallEnded:
		return s.releaseOnSuccess(ctx, key, s.handleCallEnded(ctx, req.Call))
	case EventCallAnalyzed:
		return s.releaseOnSuccess(ctx, key, s.handleCallAnalyzed(ctx, req.Call))
	}

	s.log.Warn("unknown webhook event ignored", "event", req.Event, "call_id", req.Call.CallID)
	return nil
}

// releaseOnSuccess frees the guard key after successful processing. A
// failed delivery keeps the lock so retries inside the TTL are dropped
// rather than replayed against half-applied state.
func (s *Service) releaseOnSuccess(ctx context.Context, key string, err error) error {
	if err != nil {
		return err
	}
	if releaseErr := s.guard.Release(ctx, key); releaseErr != nil {
		s.log.Warn("failed to release webhook lock", "key", key, "error", releaseErr)
	}
	return nil
}

func (s *Service) handleCallStarted(ctx context.Context, call transport.WebhookCall) error {
	applied, err := s.contacts.SetStatusByCallID(ctx, call.CallID, call.AgentID, contactsrepo.StatusInProgress)
	if err != nil {
		return err
	}
	if !applied {
		// Late delivery after the call already finished; the terminal
		// status wins.
		s.log.Info("call_started ignored for settled contact", "call_id", call.CallID)
	}
	return nil
}

func (s *Service) handleCallEnded(ctx context.Context, call transport.WebhookCall) error {
	event, err := s.events.UpsertOutcome(ctx, repository.UpsertOutcomeParams{
		CallID:              call.CallID,
		Transcript:          call.Transcript,
		RecordingURL:        call.RecordingURL,
		DisconnectionReason: call.DisconnectionReason,
	})
	if err != nil {
		return err
	}

	deltas := statsrepo.Deltas{TotalCalls: 1}
	status, bucketed := classifyDisconnection(call.DisconnectionReason, &deltas)
	today := s.stats.Today()

	if bucketed {
		if err := s.contacts.RecordCallOutcome(ctx, call.CallID, call.AgentID, status, today, event.ID); err != nil {
			return err
		}
	} else {
		// No bucket for this reason, but the call still happened: record
		// the attempt so the contact's call history stays complete.
		s.log.Warn("unclassified disconnection reason",
			"call_id", call.CallID, "reason", call.DisconnectionReason)
		if err := s.contacts.RecordCallAttempt(ctx, call.CallID, call.AgentID, today, event.ID); err != nil {
			return err
		}
	}

	return s.stats.IncrementDaily(ctx, today, call.AgentID, deltas)
}

func (s *Service) handleCallAnalyzed(ctx context.Context, call transport.WebhookCall) error {
	analysis := call.CallAnalysis
	if analysis == nil {
		analysis = &transport.CallAnalysis{}
	}

	if analysis.InVoicemail {
		applied, err := s.contacts.MarkVoicemail(ctx, call.CallID, call.AgentID)
		if err != nil {
			return err
		}
		if applied {
			if err := s.stats.IncrementDaily(ctx, s.stats.Today(), call.AgentID,
				statsrepo.Deltas{TotalAnsweredByVM: 1}); err != nil {
				return err
			}
		}
	}

	transcript := call.Transcript
	if transcript == "" {
		if event, err := s.events.GetByCallID(ctx, call.CallID); err == nil {
			transcript = event.Transcript
		}
	}

	label, err := s.classifier.Classify(ctx, transcript)
	if err != nil {
		s.log.Warn("transcript classification failed", "call_id", call.CallID, "error", err)
		label = ai.LabelIncomplete
	}

	_, err = s.events.UpsertAnalysis(ctx, repository.UpsertAnalysisParams{
		CallID:             call.CallID,
		AnalyzedTranscript: label,
		CallSummary:        analysis.CallSummary,
		UserSentiment:      analysis.UserSentiment,
		AgentSentiment:     analysis.AgentSentiment,
	})
	return err
}

// classifyDisconnection maps a provider disconnection reason onto a
// contact status and its counter bucket. Precedence: voicemail, then
// dial_failed, then call_transfer, then dial_no_answer, then hangups.
func classifyDisconnection(reason string, deltas *statsrepo.Deltas) (contactsrepo.CallStatus, bool) {
	switch {
	case strings.Contains(reason, "voicemail"):
		deltas.TotalAnsweredByVM = 1
		return contactsrepo.StatusVoicemail, true
	case reason == "dial_failed":
		deltas.TotalFailed = 1
		return contactsrepo.StatusFailed, true
	case reason == "call_transfer":
		deltas.TotalTransferred = 1
		return contactsrepo.StatusTransferred, true
	case reason == "dial_no_answer":
		return contactsrepo.StatusNoAnswer, true
	case reason == "user_hangup", reason == "agent_hangup":
		deltas.TotalCallAnswered = 1
		return contactsrepo.StatusCalled, true
	}
	return "", false
}

// GetCallEvent exposes one stored call event for inspection endpoints.
func (s *Service) GetCallEvent(ctx context.Context, callID string) (transport.CallEventResponse, error) {
	event, err := s.events.GetByCallID(ctx, callID)
	if err != nil {
		return transport.CallEventResponse{}, err
	}
	return transport.CallEventResponse{
		CallID:              event.CallID,
		Transcript:          event.Transcript,
		RecordingURL:        event.RecordingURL,
		DisconnectionReason: event.DisconnectionReason,
		AnalyzedTranscript:  event.AnalyzedTranscript,
		CallSummary:         event.CallSummary,
		UserSentiment:       event.UserSentiment,
		AgentSentiment:      event.AgentSentiment,
		CreatedAt:           event.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           event.UpdatedAt.Format(time.RFC3339),
	}, nil
}
