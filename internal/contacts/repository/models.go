package repository

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus is the lifecycle status of a contact's most recent call.
type CallStatus string

const (
	StatusNotCalled   CallStatus = "not_called"
	StatusInProgress  CallStatus = "in_progress"
	StatusCalled      CallStatus = "called"
	StatusNoAnswer    CallStatus = "no_answer"
	StatusVoicemail   CallStatus = "voicemail"
	StatusFailed      CallStatus = "failed"
	StatusTransferred CallStatus = "transferred"
	StatusScheduled   CallStatus = "scheduled"
)

// IsTerminal reports whether the status is an outcome of a finished call.
// Terminal statuses are sticky: reconciliation never downgrades them back
// to not_called or in_progress. Only the administrative reset does.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case StatusCalled, StatusNoAnswer, StatusVoicemail, StatusFailed, StatusTransferred, StatusScheduled:
		return true
	}
	return false
}

// IsValid reports whether s is a member of the closed status set.
func (s CallStatus) IsValid() bool {
	switch s {
	case StatusNotCalled, StatusInProgress, StatusCalled, StatusNoAnswer,
		StatusVoicemail, StatusFailed, StatusTransferred, StatusScheduled:
		return true
	}
	return false
}

// CanTransition reports whether a status move is allowed outside the
// administrative reset. Downgrades from a terminal status are rejected.
func CanTransition(from, to CallStatus) bool {
	if !to.IsValid() {
		return false
	}
	if from.IsTerminal() && (to == StatusNotCalled || to == StatusInProgress) {
		return false
	}
	return true
}

// Contact is a callable lead owned by one voice agent.
type Contact struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Tag              string
	AgentID          string
	DayToBeProcessed string
	Status           CallStatus
	CallID           string
	ReferenceCallID  *uuid.UUID
	DatesCalled      []string
	AnsweredByVM     bool
	IsDeleted        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CreateContactParams holds the fields for a single contact insert.
type CreateContactParams struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Tag              string
	AgentID          string
	DayToBeProcessed string
}

// UpdateContactParams holds optional field updates; nil means unchanged.
type UpdateContactParams struct {
	ID        uuid.UUID
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Tag       *string
}

// ListContactsParams filters the contact page query.
type ListContactsParams struct {
	AgentIDs []string
	Statuses []CallStatus
	Tag      string
	Limit    int
	Offset   int
}
