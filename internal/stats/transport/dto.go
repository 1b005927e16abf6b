package transport

import (
	contacts "callcampaign_backend/internal/contacts/transport"
	"callcampaign_backend/internal/stats/repository"
)

type StatsRequest struct {
	AgentIDs   []string `json:"agentIds" validate:"required,min=1"`
	DateFilter string   `json:"dateFilter" validate:"omitempty,oneof=today yesterday this-week this-month total last-schedule"`
	Page       int      `json:"page" validate:"omitempty,min=1"`
	Limit      int      `json:"limit" validate:"omitempty,min=1,max=500"`
}

// AgentCounts is the contact inventory of one agent.
type AgentCounts struct {
	AgentID   string `json:"agentId"`
	Total     int    `json:"total"`
	NotCalled int    `json:"notCalled"`
	Answered  int    `json:"answered"`
}

type StatsResponse struct {
	From     string                       `json:"from,omitempty"`
	To       string                       `json:"to,omitempty"`
	Totals   repository.Totals            `json:"totals"`
	Agents   []AgentCounts                `json:"agents"`
	Contacts contacts.ContactListResponse `json:"contacts"`
}
