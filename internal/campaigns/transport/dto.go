package transport

import "github.com/google/uuid"

type ScheduleRequest struct {
	Hour       int    `json:"hour" validate:"min=0,max=23"`
	Minute     int    `json:"minute" validate:"min=0,max=59"`
	AgentID    string `json:"agentId" validate:"required,min=1,max=100"`
	Limit      int    `json:"limit" validate:"required,min=1,max=1000"`
	FromNumber string `json:"fromNumber" validate:"required,min=1,max=50"`
	Tag        string `json:"tag" validate:"required,min=1,max=100"`
}

type ScheduleResponse struct {
	JobID         uuid.UUID   `json:"jobId"`
	ScheduledTime string      `json:"scheduledTime"`
	ContactCount  int         `json:"contactCount"`
	ContactIDs    []uuid.UUID `json:"contactIds"`
}

type JobResponse struct {
	ID             uuid.UUID   `json:"id"`
	AgentID        string      `json:"agentId"`
	Tag            string      `json:"tag"`
	FromNumber     string      `json:"fromNumber"`
	ScheduledTime  string      `json:"scheduledTime"`
	Status         string      `json:"status"`
	ShouldContinue bool        `json:"shouldContinueProcessing"`
	ContactIDs     []uuid.UUID `json:"contactIds"`
	ContactCount   int         `json:"contactCount"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt"`
}

type JobListResponse struct {
	Items []JobResponse `json:"items"`
}

// ScheduledDispatch is a live timer handle with its next fire time.
type ScheduledDispatch struct {
	JobID        string `json:"jobId"`
	NextFireTime string `json:"nextFireTime"`
}

type ScheduledListResponse struct {
	Items []ScheduledDispatch `json:"items"`
}
