package repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the contact persistence operations.
type Repository interface {
	// BulkImport inserts the given rows inside one transaction, skipping
	// rows whose (email, agent_id) already exists. It returns the number
	// of inserted rows and the number of duplicates. Any failure rolls
	// the whole import back.
	BulkImport(ctx context.Context, agentID string, rows []CreateContactParams) (inserted int, duplicates int, err error)

	Create(ctx context.Context, params CreateContactParams) (Contact, error)
	GetByID(ctx context.Context, id uuid.UUID) (Contact, error)
	List(ctx context.Context, params ListContactsParams) ([]Contact, int, error)
	Update(ctx context.Context, params UpdateContactParams) (Contact, error)

	// SelectForDispatch returns up to limit non-deleted not_called contacts
	// for the agent and tag, oldest first.
	SelectForDispatch(ctx context.Context, agentID, tag string, limit int) ([]Contact, error)

	// SetDialing marks a contact in_progress and records the provider call id.
	SetDialing(ctx context.Context, id uuid.UUID, callID string) error

	// SetStatusByCallID applies a reconciled status. Moves that would
	// downgrade a terminal status are ignored and reported as applied=false.
	SetStatusByCallID(ctx context.Context, callID, agentID string, status CallStatus) (applied bool, err error)

	// RecordCallOutcome sets the terminal status, appends the call day to
	// dates_called and links the call event row, in one statement.
	RecordCallOutcome(ctx context.Context, callID, agentID string, status CallStatus, day string, eventID uuid.UUID) error

	// RecordCallAttempt appends the call day and links the call event row
	// without touching the status. Used when the disconnection reason maps
	// to no outcome bucket: the call still happened.
	RecordCallAttempt(ctx context.Context, callID, agentID, day string, eventID uuid.UUID) error

	// MarkVoicemail flags answered_by_vm and sets the voicemail status.
	// Returns applied=false when the contact was already flagged, so the
	// voicemail counter is incremented at most once per contact call.
	MarkVoicemail(ctx context.Context, callID, agentID string) (applied bool, err error)

	SoftDelete(ctx context.Context, id uuid.UUID) error
	SoftDeleteMany(ctx context.Context, ids []uuid.UUID) (int, error)
	SoftDeleteNotCalledByAgent(ctx context.Context, agentID string) (int, error)

	// ResetStatuses is the administrative reset: status back to not_called,
	// voicemail flag cleared, call history emptied.
	ResetStatuses(ctx context.Context, agentID string) (int, error)

	ListTags(ctx context.Context, agentID string) ([]string, error)

	// CountByAgent returns total, not-called and answered contact counts.
	CountByAgent(ctx context.Context, agentID string) (total, notCalled, answered int, err error)
}
