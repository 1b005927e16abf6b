package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"callcampaign_backend/internal/calls/repository"
	"callcampaign_backend/internal/calls/transport"
	contactsrepo "callcampaign_backend/internal/contacts/repository"
	statsrepo "callcampaign_backend/internal/stats/repository"
	"callcampaign_backend/platform/ai"
	"callcampaign_backend/platform/logger"
)

// memGuard is an in-memory idempotency guard.
type memGuard struct {
	keys map[string]struct{}
}

func newMemGuard() *memGuard {
	return &memGuard{keys: make(map[string]struct{})}
}

func (g *memGuard) TryAcquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if _, ok := g.keys[key]; ok {
		return false, nil
	}
	g.keys[key] = struct{}{}
	return true, nil
}

func (g *memGuard) Release(_ context.Context, key string) error {
	delete(g.keys, key)
	return nil
}

// outcome records one RecordCallOutcome call.
type outcome struct {
	callID string
	status contactsrepo.CallStatus
	day    string
}

// attempt records one RecordCallAttempt call.
type attempt struct {
	callID string
	day    string
}

// fakeContacts implements the contact repository for reconciliation tests.
type fakeContacts struct {
	contactsrepo.Repository

	statusSets []contactsrepo.CallStatus
	outcomes   []outcome
	attempts   []attempt
	voicemails int
}

func (f *fakeContacts) SetStatusByCallID(_ context.Context, _, _ string, status contactsrepo.CallStatus) (bool, error) {
	f.statusSets = append(f.statusSets, status)
	return true, nil
}

func (f *fakeContacts) RecordCallOutcome(_ context.Context, callID, _ string, status contactsrepo.CallStatus, day string, _ uuid.UUID) error {
	f.outcomes = append(f.outcomes, outcome{callID: callID, status: status, day: day})
	return nil
}

func (f *fakeContacts) RecordCallAttempt(_ context.Context, callID, _, day string, _ uuid.UUID) error {
	f.attempts = append(f.attempts, attempt{callID: callID, day: day})
	return nil
}

func (f *fakeContacts) MarkVoicemail(_ context.Context, _, _ string) (bool, error) {
	f.voicemails++
	return f.voicemails == 1, nil
}

// fakeEvents implements the call event repository in memory.
type fakeEvents struct {
	byCallID map[string]repository.CallEvent
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{byCallID: make(map[string]repository.CallEvent)}
}

func (f *fakeEvents) UpsertOutcome(_ context.Context, params repository.UpsertOutcomeParams) (repository.CallEvent, error) {
	event, ok := f.byCallID[params.CallID]
	if !ok {
		event = repository.CallEvent{ID: uuid.New(), CallID: params.CallID}
	}
	event.Transcript = params.Transcript
	event.RecordingURL = params.RecordingURL
	event.DisconnectionReason = params.DisconnectionReason
	f.byCallID[params.CallID] = event
	return event, nil
}

func (f *fakeEvents) UpsertAnalysis(_ context.Context, params repository.UpsertAnalysisParams) (repository.CallEvent, error) {
	event, ok := f.byCallID[params.CallID]
	if !ok {
		event = repository.CallEvent{ID: uuid.New(), CallID: params.CallID}
	}
	event.AnalyzedTranscript = params.AnalyzedTranscript
	event.CallSummary = params.CallSummary
	event.UserSentiment = params.UserSentiment
	event.AgentSentiment = params.AgentSentiment
	f.byCallID[params.CallID] = event
	return event, nil
}

func (f *fakeEvents) GetByCallID(_ context.Context, callID string) (repository.CallEvent, error) {
	event, ok := f.byCallID[callID]
	if !ok {
		return repository.CallEvent{}, errors.New("not found")
	}
	return event, nil
}

// fakeStats records increments and can be told to fail.
type fakeStats struct {
	increments []statsrepo.Deltas
	failNext   bool
}

func (f *fakeStats) IncrementDaily(_ context.Context, _, _ string, deltas statsrepo.Deltas) error {
	if f.failNext {
		f.failNext = false
		return errors.New("stats unavailable")
	}
	f.increments = append(f.increments, deltas)
	return nil
}

func (f *fakeStats) Today() string { return "2026-03-11" }

type fixture struct {
	svc      *Service
	guard    *memGuard
	contacts *fakeContacts
	events   *fakeEvents
	stats    *fakeStats
}

func newFixture() *fixture {
	guard := newMemGuard()
	contacts := &fakeContacts{}
	events := newFakeEvents()
	stats := &fakeStats{}
	svc := New(guard, time.Minute, contacts, events, stats, ai.NoopClassifier{}, logger.New("test"))
	return &fixture{svc: svc, guard: guard, contacts: contacts, events: events, stats: stats}
}

func endedEvent(callID, reason string) transport.WebhookRequest {
	return transport.WebhookRequest{
		Event: EventCallEnded,
		Call: transport.WebhookCall{
			CallID:              callID,
			AgentID:             "agent-1",
			Transcript:          "hello",
			DisconnectionReason: reason,
		},
	}
}

func TestCallEndedDialFailedBucket(t *testing.T) {
	f := newFixture()

	if err := f.svc.HandleEvent(context.Background(), endedEvent("c1", "dial_failed")); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(f.contacts.outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(f.contacts.outcomes))
	}
	if f.contacts.outcomes[0].status != contactsrepo.StatusFailed {
		t.Errorf("status = %s, want failed", f.contacts.outcomes[0].status)
	}
	if len(f.stats.increments) != 1 {
		t.Fatalf("increments = %d, want 1", len(f.stats.increments))
	}
	d := f.stats.increments[0]
	if d.TotalCalls != 1 || d.TotalFailed != 1 {
		t.Errorf("deltas = %+v, want total_calls=1 total_failed=1", d)
	}
	if d.TotalCallAnswered != 0 {
		t.Errorf("dial_failed must never count as answered, got %+v", d)
	}
}

func TestCallEndedVoicemailPrecedence(t *testing.T) {
	f := newFixture()

	if err := f.svc.HandleEvent(context.Background(), endedEvent("c1", "voicemail_reached")); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if f.contacts.outcomes[0].status != contactsrepo.StatusVoicemail {
		t.Errorf("status = %s, want voicemail", f.contacts.outcomes[0].status)
	}
	if f.stats.increments[0].TotalAnsweredByVM != 1 {
		t.Errorf("deltas = %+v, want total_answered_by_vm=1", f.stats.increments[0])
	}
}

func TestCallEndedHangupCountsAsAnswered(t *testing.T) {
	f := newFixture()

	if err := f.svc.HandleEvent(context.Background(), endedEvent("c1", "user_hangup")); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if f.contacts.outcomes[0].status != contactsrepo.StatusCalled {
		t.Errorf("status = %s, want called", f.contacts.outcomes[0].status)
	}
	if f.stats.increments[0].TotalCallAnswered != 1 {
		t.Errorf("deltas = %+v, want total_call_answered=1", f.stats.increments[0])
	}
}

func TestCallEndedUnknownReasonStillCountsCall(t *testing.T) {
	f := newFixture()

	if err := f.svc.HandleEvent(context.Background(), endedEvent("c1", "machine_detected_weird")); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if len(f.contacts.outcomes) != 0 {
		t.Errorf("no outcome expected for unclassified reason, got %+v", f.contacts.outcomes)
	}
	// The status stays put, but the call history is still recorded.
	if len(f.contacts.attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(f.contacts.attempts))
	}
	if f.contacts.attempts[0].day != f.stats.Today() {
		t.Errorf("attempt day = %q, want %q", f.contacts.attempts[0].day, f.stats.Today())
	}
	d := f.stats.increments[0]
	if d.TotalCalls != 1 || d != (statsrepo.Deltas{TotalCalls: 1}) {
		t.Errorf("deltas = %+v, want only total_calls=1", d)
	}
}

func TestFailedDeliveryKeepsLockAndDropsRetry(t *testing.T) {
	f := newFixture()
	f.stats.failNext = true

	// First delivery fails after the event upsert; the lock stays held.
	if err := f.svc.HandleEvent(context.Background(), endedEvent("c1", "dial_failed")); err == nil {
		t.Fatal("expected first delivery to fail")
	}

	// The retry inside the TTL is treated as a duplicate and dropped.
	if err := f.svc.HandleEvent(context.Background(), endedEvent("c1", "dial_failed")); err != nil {
		t.Fatalf("retry should be silently skipped: %v", err)
	}

	if len(f.stats.increments) != 0 {
		t.Errorf("increments = %d, want 0", len(f.stats.increments))
	}
	if len(f.contacts.outcomes) != 1 {
		t.Errorf("outcomes = %d, want 1 (from the first delivery)", len(f.contacts.outcomes))
	}
}

func TestDuplicateCallStartedIsDropped(t *testing.T) {
	f := newFixture()
	req := transport.WebhookRequest{
		Event: EventCallStarted,
		Call:  transport.WebhookCall{CallID: "c1", AgentID: "agent-1"},
	}

	for i := 0; i < 3; i++ {
		if err := f.svc.HandleEvent(context.Background(), req); err != nil {
			t.Fatalf("handle event: %v", err)
		}
	}

	if len(f.contacts.statusSets) != 1 {
		t.Errorf("status sets = %d, want 1", len(f.contacts.statusSets))
	}
}

func TestCallAnalyzedVoicemailCountsOnce(t *testing.T) {
	f := newFixture()

	analyzed := func(callID string) transport.WebhookRequest {
		return transport.WebhookRequest{
			Event: EventCallAnalyzed,
			Call: transport.WebhookCall{
				CallID:  callID,
				AgentID: "agent-1",
				CallAnalysis: &transport.CallAnalysis{
					InVoicemail: true,
					CallSummary: "left a message",
				},
			},
		}
	}

	// The key is released after success, so a late redelivery reaches the
	// handler again; the contact-level flag keeps the counter at one.
	if err := f.svc.HandleEvent(context.Background(), analyzed("c1")); err != nil {
		t.Fatalf("first analyzed: %v", err)
	}
	if err := f.svc.HandleEvent(context.Background(), analyzed("c1")); err != nil {
		t.Fatalf("second analyzed: %v", err)
	}

	vmIncrements := 0
	for _, d := range f.stats.increments {
		vmIncrements += d.TotalAnsweredByVM
	}
	if vmIncrements != 1 {
		t.Errorf("voicemail increments = %d, want 1", vmIncrements)
	}

	event := f.events.byCallID["c1"]
	if event.AnalyzedTranscript != ai.LabelIncomplete {
		t.Errorf("label = %q, want %q", event.AnalyzedTranscript, ai.LabelIncomplete)
	}
	if event.CallSummary != "left a message" {
		t.Errorf("summary = %q", event.CallSummary)
	}
}

func TestMissingCallIDIsAnError(t *testing.T) {
	f := newFixture()
	if err := f.svc.HandleEvent(context.Background(), transport.WebhookRequest{Event: EventCallEnded}); err == nil {
		t.Fatal("expected error for missing call_id")
	}
}
