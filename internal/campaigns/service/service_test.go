package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"callcampaign_backend/internal/campaigns/repository"
	"callcampaign_backend/internal/campaigns/transport"
	contactsrepo "callcampaign_backend/internal/contacts/repository"
	"callcampaign_backend/platform/apperr"
	"callcampaign_backend/platform/logger"
)

// fakeJobs implements the job registry in memory.
type fakeJobs struct {
	byID map[uuid.UUID]*repository.Job
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{byID: make(map[uuid.UUID]*repository.Job)}
}

func (f *fakeJobs) Create(_ context.Context, params repository.CreateJobParams) (repository.Job, error) {
	job := &repository.Job{
		ID:             params.ID,
		AgentID:        params.AgentID,
		Tag:            params.Tag,
		FromNumber:     params.FromNumber,
		ScheduledTime:  params.ScheduledTime,
		Status:         repository.JobPending,
		ShouldContinue: true,
		ContactIDs:     params.ContactIDs,
		ContactCount:   len(params.ContactIDs),
	}
	f.byID[job.ID] = job
	return *job, nil
}

func (f *fakeJobs) GetByID(_ context.Context, id uuid.UUID) (repository.Job, error) {
	job, ok := f.byID[id]
	if !ok {
		return repository.Job{}, apperr.NotFound("job not found")
	}
	return *job, nil
}

func (f *fakeJobs) ListByAgent(_ context.Context, agentID string) ([]repository.Job, error) {
	var jobs []repository.Job
	for _, job := range f.byID {
		if job.AgentID == agentID {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

func (f *fakeJobs) ListAll(_ context.Context, _ int) ([]repository.Job, error) {
	var jobs []repository.Job
	for _, job := range f.byID {
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (f *fakeJobs) SetStatus(_ context.Context, id uuid.UUID, status repository.JobStatus) error {
	job, ok := f.byID[id]
	if !ok {
		return apperr.NotFound("job not found")
	}
	job.Status = status
	return nil
}

func (f *fakeJobs) StopProcessing(_ context.Context, id uuid.UUID) error {
	job, ok := f.byID[id]
	if !ok {
		return apperr.NotFound("job not found")
	}
	job.ShouldContinue = false
	job.Status = repository.JobCancelled
	return nil
}

func (f *fakeJobs) ShouldContinue(_ context.Context, id uuid.UUID) (bool, error) {
	job, ok := f.byID[id]
	if !ok {
		return false, apperr.NotFound("job not found")
	}
	return job.ShouldContinue, nil
}

func (f *fakeJobs) LastScheduledTime(_ context.Context) (time.Time, error) {
	var latest time.Time
	for _, job := range f.byID {
		if job.ScheduledTime.After(latest) {
			latest = job.ScheduledTime
		}
	}
	if latest.IsZero() {
		return time.Time{}, apperr.NotFound("no jobs have been scheduled")
	}
	return latest, nil
}

// fakeContacts implements the contact repository for dispatch tests.
type fakeContacts struct {
	contactsrepo.Repository

	byID    map[uuid.UUID]*contactsrepo.Contact
	pool    []contactsrepo.Contact
	dialing []uuid.UUID
}

func newFakeContacts(n int) *fakeContacts {
	f := &fakeContacts{byID: make(map[uuid.UUID]*contactsrepo.Contact)}
	for i := 0; i < n; i++ {
		contact := &contactsrepo.Contact{
			ID:      uuid.New(),
			Phone:   "+14155552671",
			Status:  contactsrepo.StatusNotCalled,
			AgentID: "agent-1",
			Tag:     "promo",
		}
		f.byID[contact.ID] = contact
		f.pool = append(f.pool, *contact)
	}
	return f
}

func (f *fakeContacts) SelectForDispatch(_ context.Context, _, _ string, limit int) ([]contactsrepo.Contact, error) {
	if limit > len(f.pool) {
		limit = len(f.pool)
	}
	return f.pool[:limit], nil
}

func (f *fakeContacts) GetByID(_ context.Context, id uuid.UUID) (contactsrepo.Contact, error) {
	contact, ok := f.byID[id]
	if !ok {
		return contactsrepo.Contact{}, apperr.NotFound("contact not found")
	}
	return *contact, nil
}

func (f *fakeContacts) SetDialing(_ context.Context, id uuid.UUID, callID string) error {
	contact := f.byID[id]
	contact.Status = contactsrepo.StatusInProgress
	contact.CallID = callID
	f.dialing = append(f.dialing, id)
	return nil
}

// fakeDispatcher records armed and revoked timers.
type fakeDispatcher struct {
	armed   map[string]time.Time
	revoked []string
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{armed: make(map[string]time.Time)}
}

func (f *fakeDispatcher) ScheduleAt(_ context.Context, jobID string, at time.Time) error {
	f.armed[jobID] = at
	return nil
}

func (f *fakeDispatcher) Cancel(_ context.Context, jobID string) error {
	delete(f.armed, jobID)
	f.revoked = append(f.revoked, jobID)
	return nil
}

func (f *fakeDispatcher) List(_ context.Context) ([]Dispatch, error) {
	var out []Dispatch
	for jobID, at := range f.armed {
		out = append(out, Dispatch{JobID: jobID, At: at})
	}
	return out, nil
}

// fakeDialer counts dials and can fail specific numbers.
type fakeDialer struct {
	calls       int
	registers   int
	failNth     int // 1-based; 0 disables
	registerErr error
	onDial      func()
	sequence    []string
}

func (f *fakeDialer) RegisterCall(_ context.Context, _ string) (string, error) {
	if f.registerErr != nil {
		return "", f.registerErr
	}
	f.registers++
	f.sequence = append(f.sequence, "register")
	return "reg-call", nil
}

func (f *fakeDialer) PlaceCall(_ context.Context, _, _, _ string, _ map[string]string) (string, error) {
	f.calls++
	f.sequence = append(f.sequence, "place")
	if f.onDial != nil {
		f.onDial()
	}
	if f.failNth != 0 && f.calls == f.failNth {
		return "", errors.New("provider refused the dial")
	}
	return uuid.NewString(), nil
}

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

type fixture struct {
	svc        *Service
	jobs       *fakeJobs
	contacts   *fakeContacts
	dispatcher *fakeDispatcher
	dialer     *fakeDialer
}

func newFixture(t *testing.T, contacts int) *fixture {
	jobs := newFakeJobs()
	fc := newFakeContacts(contacts)
	dispatcher := newFakeDispatcher()
	dialer := &fakeDialer{}
	svc := New(jobs, fc, dispatcher, dialer, 1000, losAngeles(t), logger.New("test"))
	return &fixture{svc: svc, jobs: jobs, contacts: fc, dispatcher: dispatcher, dialer: dialer}
}

func scheduleReq() transport.ScheduleRequest {
	return transport.ScheduleRequest{
		Hour: 9, Minute: 30, AgentID: "agent-1", Limit: 10,
		FromNumber: "+14155550100", Tag: "Promo",
	}
}

func TestNextRunTimeRollsToTomorrow(t *testing.T) {
	loc := losAngeles(t)
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, loc)

	at := NextRunTime(now, 9, 30, loc)
	want := time.Date(2026, 3, 12, 9, 30, 0, 0, loc)
	if !at.Equal(want) {
		t.Errorf("elapsed time = %v, want %v", at, want)
	}

	at = NextRunTime(now, 15, 0, loc)
	want = time.Date(2026, 3, 11, 15, 0, 0, 0, loc)
	if !at.Equal(want) {
		t.Errorf("future time = %v, want %v", at, want)
	}
}

func TestScheduleCreatesPendingJobAndArmsTimer(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if resp.ContactCount != 3 {
		t.Errorf("contact count = %d, want 3", resp.ContactCount)
	}
	job := f.jobs.byID[resp.JobID]
	if job == nil || job.Status != repository.JobPending {
		t.Fatalf("expected pending job, got %+v", job)
	}
	if _, armed := f.dispatcher.armed[resp.JobID.String()]; !armed {
		t.Error("expected dispatch timer armed under the job id")
	}
}

func TestScheduleWithNoContactsFails(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.svc.Schedule(context.Background(), scheduleReq())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(f.jobs.byID) != 0 {
		t.Error("no job should be created when nothing is callable")
	}
}

func TestCancelBeforeFireLeavesContactsUntouched(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	if err := f.svc.Cancel(context.Background(), resp.JobID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if f.jobs.byID[resp.JobID].Status != repository.JobCancelled {
		t.Errorf("job status = %s, want cancelled", f.jobs.byID[resp.JobID].Status)
	}
	if len(f.dispatcher.revoked) != 1 {
		t.Errorf("revoked timers = %d, want 1", len(f.dispatcher.revoked))
	}
	if f.dialer.calls != 0 {
		t.Errorf("dials = %d, want 0", f.dialer.calls)
	}
	for _, contact := range f.contacts.byID {
		if contact.Status != contactsrepo.StatusNotCalled {
			t.Errorf("contact %s status = %s, want not_called", contact.ID, contact.Status)
		}
	}

	// A fired timer for a cancelled job is a no-op.
	if err := f.svc.Run(context.Background(), resp.JobID); err != nil {
		t.Fatalf("run after cancel: %v", err)
	}
	if f.dialer.calls != 0 {
		t.Errorf("dials after run = %d, want 0", f.dialer.calls)
	}
}

func TestRunDialsWholeBatch(t *testing.T) {
	f := newFixture(t, 4)

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := f.svc.Run(context.Background(), resp.JobID); err != nil {
		t.Fatalf("run: %v", err)
	}

	if f.dialer.calls != 4 {
		t.Errorf("dials = %d, want 4", f.dialer.calls)
	}
	if len(f.contacts.dialing) != 4 {
		t.Errorf("contacts marked dialing = %d, want 4", len(f.contacts.dialing))
	}
	if f.jobs.byID[resp.JobID].Status != repository.JobCompleted {
		t.Errorf("job status = %s, want completed", f.jobs.byID[resp.JobID].Status)
	}
}

func TestRunRegistersBeforeEachDial(t *testing.T) {
	f := newFixture(t, 3)

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := f.svc.Run(context.Background(), resp.JobID); err != nil {
		t.Fatalf("run: %v", err)
	}

	if f.dialer.registers != 3 {
		t.Errorf("registrations = %d, want 3", f.dialer.registers)
	}
	for i := 0; i < len(f.dialer.sequence); i += 2 {
		if f.dialer.sequence[i] != "register" || f.dialer.sequence[i+1] != "place" {
			t.Fatalf("sequence = %v, want register before every place", f.dialer.sequence)
		}
	}
}

func TestRunSkipsContactWhenRegistrationFails(t *testing.T) {
	f := newFixture(t, 2)
	f.dialer.registerErr = errors.New("provider rejected registration")

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := f.svc.Run(context.Background(), resp.JobID); err != nil {
		t.Fatalf("run: %v", err)
	}

	if f.dialer.calls != 0 {
		t.Errorf("dials = %d, want 0 when registration keeps failing", f.dialer.calls)
	}
	if f.jobs.byID[resp.JobID].Status != repository.JobCompleted {
		t.Errorf("job status = %s, want completed", f.jobs.byID[resp.JobID].Status)
	}
}

func TestRunIsolatesPerContactFailures(t *testing.T) {
	f := newFixture(t, 3)
	f.dialer.failNth = 2

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := f.svc.Run(context.Background(), resp.JobID); err != nil {
		t.Fatalf("run: %v", err)
	}

	if f.dialer.calls != 3 {
		t.Errorf("dials = %d, want 3 (failed dial does not abort)", f.dialer.calls)
	}
	if len(f.contacts.dialing) != 2 {
		t.Errorf("contacts marked dialing = %d, want 2", len(f.contacts.dialing))
	}
	if f.jobs.byID[resp.JobID].Status != repository.JobCompleted {
		t.Errorf("job status = %s, want completed", f.jobs.byID[resp.JobID].Status)
	}
}

func TestCancelWhileRunningStopsAfterOneMoreDial(t *testing.T) {
	f := newFixture(t, 5)

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// Flip the durable flag during the second dial; the loop observes it
	// at the next iteration boundary.
	f.dialer.onDial = func() {
		if f.dialer.calls == 2 {
			_ = f.jobs.StopProcessing(context.Background(), resp.JobID)
		}
	}

	if err := f.svc.Run(context.Background(), resp.JobID); err != nil {
		t.Fatalf("run: %v", err)
	}

	if f.dialer.calls != 2 {
		t.Errorf("dials = %d, want 2 (at most one dial after cancel)", f.dialer.calls)
	}
	if f.jobs.byID[resp.JobID].Status != repository.JobCancelled {
		t.Errorf("job status = %s, want cancelled", f.jobs.byID[resp.JobID].Status)
	}
}

func TestCancelFinishedJobConflicts(t *testing.T) {
	f := newFixture(t, 2)

	resp, err := f.svc.Schedule(context.Background(), scheduleReq())
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := f.svc.Run(context.Background(), resp.JobID); err != nil {
		t.Fatalf("run: %v", err)
	}

	err = f.svc.Cancel(context.Background(), resp.JobID)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCancelUnknownJobIsNotFound(t *testing.T) {
	f := newFixture(t, 1)
	err := f.svc.Cancel(context.Background(), uuid.New())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
