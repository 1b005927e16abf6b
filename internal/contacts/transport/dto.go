package transport

import "github.com/google/uuid"

// ImportRow is one inbound contact row in a bulk import.
type ImportRow struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type ImportRequest struct {
	AgentID string      `json:"agentId" validate:"required,min=1,max=100"`
	Day     string      `json:"dayToBeProcessed" validate:"omitempty,max=50"`
	Tag     string      `json:"tag" validate:"required,min=1,max=100"`
	Rows    []ImportRow `json:"contacts" validate:"required,min=1,dive"`
}

// RejectedRow names an import row that failed field validation.
type RejectedRow struct {
	Row    ImportRow `json:"row"`
	Reason string    `json:"reason"`
}

type ImportResponse struct {
	Imported   int           `json:"imported"`
	Duplicates int           `json:"duplicates"`
	Rejected   []RejectedRow `json:"rejected"`
}

type CreateContactRequest struct {
	FirstName string `json:"firstname" validate:"required,min=1,max=100"`
	LastName  string `json:"lastname" validate:"omitempty,max=100"`
	Email     string `json:"email" validate:"required,email,max=200"`
	Phone     string `json:"phone" validate:"required,min=1,max=50"`
	Tag       string `json:"tag" validate:"required,min=1,max=100"`
	AgentID   string `json:"agentId" validate:"required,min=1,max=100"`
	Day       string `json:"dayToBeProcessed" validate:"omitempty,max=50"`
}

type UpdateContactRequest struct {
	FirstName *string `json:"firstname,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastname,omitempty" validate:"omitempty,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,min=1,max=50"`
	Tag       *string `json:"tag,omitempty" validate:"omitempty,min=1,max=100"`
}

type ListContactsRequest struct {
	AgentID string `form:"agentId" validate:"omitempty,max=100"`
	Status  string `form:"status" validate:"omitempty,max=50"`
	Tag     string `form:"tag" validate:"omitempty,max=100"`
	Page    int    `form:"page" validate:"omitempty,min=1"`
	Limit   int    `form:"limit" validate:"omitempty,min=1,max=500"`
}

type DeleteManyRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type ContactResponse struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"firstname"`
	LastName         string    `json:"lastname"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Tag              string    `json:"tag"`
	AgentID          string    `json:"agentId"`
	DayToBeProcessed string    `json:"dayToBeProcessed,omitempty"`
	Status           string    `json:"status"`
	CallID           string    `json:"callId,omitempty"`
	DatesCalled      []string  `json:"datesCalled"`
	AnsweredByVM     bool      `json:"answeredByVm"`
	CreatedAt        string    `json:"createdAt"`
	UpdatedAt        string    `json:"updatedAt"`
}

type ContactListResponse struct {
	Items      []ContactResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

type TagListResponse struct {
	Tags []string `json:"tags"`
}

type AffectedResponse struct {
	Affected int `json:"affected"`
}
