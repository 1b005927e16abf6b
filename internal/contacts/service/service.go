// Package service implements contact management and the bulk import pipeline.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"callcampaign_backend/internal/contacts/repository"
	"callcampaign_backend/internal/contacts/transport"
	"callcampaign_backend/platform/logger"
	"callcampaign_backend/platform/phone"
)

// Service provides business logic for contacts.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new contact service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Import partitions the inbound rows into rejected, duplicate and imported
// sets. Field validation rejects rows up front; the repository performs the
// duplicate check and the inserts inside a single transaction, so a failed
// import never leaves a partial batch behind.
func (s *Service) Import(ctx context.Context, req transport.ImportRequest) (transport.ImportResponse, error) {
	tag := strings.ToLower(strings.TrimSpace(req.Tag))

	var rejected []transport.RejectedRow
	valid := make([]repository.CreateContactParams, 0, len(req.Rows))
	for _, row := range req.Rows {
		if reason := rejectReason(row); reason != "" {
			rejected = append(rejected, transport.RejectedRow{Row: row, Reason: reason})
			continue
		}
		valid = append(valid, repository.CreateContactParams{
			FirstName:        strings.TrimSpace(row.FirstName),
			LastName:         strings.TrimSpace(row.LastName),
			Email:            strings.ToLower(strings.TrimSpace(row.Email)),
			Phone:            phone.NormalizeE164(row.Phone),
			Tag:              tag,
			AgentID:          req.AgentID,
			DayToBeProcessed: req.Day,
		})
	}

	inserted, duplicates, err := s.repo.BulkImport(ctx, req.AgentID, valid)
	if err != nil {
		return transport.ImportResponse{}, err
	}

	s.log.Info("contact import finished",
		"agentId", req.AgentID,
		"imported", inserted,
		"duplicates", duplicates,
		"rejected", len(rejected))

	return transport.ImportResponse{
		Imported:   inserted,
		Duplicates: duplicates,
		Rejected:   rejected,
	}, nil
}

func rejectReason(row transport.ImportRow) string {
	switch {
	case strings.TrimSpace(row.FirstName) == "":
		return "missing firstname"
	case strings.TrimSpace(row.Phone) == "":
		return "missing phone"
	case strings.TrimSpace(row.Email) == "":
		return "missing email"
	}
	return ""
}

// Create inserts a single contact.
func (s *Service) Create(ctx context.Context, req transport.CreateContactRequest) (transport.ContactResponse, error) {
	contact, err := s.repo.Create(ctx, repository.CreateContactParams{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:            phone.NormalizeE164(req.Phone),
		Tag:              strings.ToLower(strings.TrimSpace(req.Tag)),
		AgentID:          req.AgentID,
		DayToBeProcessed: req.Day,
	})
	if err != nil {
		return transport.ContactResponse{}, err
	}
	return toContactResponse(contact), nil
}

// GetByID retrieves one contact.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ContactResponse, error) {
	contact, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ContactResponse{}, err
	}
	return toContactResponse(contact), nil
}

// List retrieves a contact page with filters.
func (s *Service) List(ctx context.Context, req transport.ListContactsRequest) (transport.ContactListResponse, error) {
	page, limit := clampPage(req.Page, req.Limit)

	params := repository.ListContactsParams{
		Tag:    req.Tag,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if req.AgentID != "" {
		params.AgentIDs = []string{req.AgentID}
	}
	if req.Status != "" {
		params.Statuses = []repository.CallStatus{repository.CallStatus(req.Status)}
	}

	return s.listPage(ctx, params, page, limit)
}

// ListForAgents retrieves a contact page scoped to the given agents. The
// statistics report uses this so a multi-agent query never includes
// contacts belonging to agents outside the request.
func (s *Service) ListForAgents(ctx context.Context, agentIDs []string, page, limit int) (transport.ContactListResponse, error) {
	page, limit = clampPage(page, limit)
	return s.listPage(ctx, repository.ListContactsParams{
		AgentIDs: agentIDs,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}, page, limit)
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return page, limit
}

func (s *Service) listPage(ctx context.Context, params repository.ListContactsParams, page, limit int) (transport.ContactListResponse, error) {
	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ContactListResponse{}, err
	}

	responses := make([]transport.ContactResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toContactResponse(item))
	}

	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}
	return transport.ContactListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// Update applies optional field updates.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateContactRequest) (transport.ContactResponse, error) {
	params := repository.UpdateContactParams{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Tag:       req.Tag,
	}
	if req.Email != nil {
		lowered := strings.ToLower(strings.TrimSpace(*req.Email))
		params.Email = &lowered
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}
	if req.Tag != nil {
		lowered := strings.ToLower(strings.TrimSpace(*req.Tag))
		params.Tag = &lowered
	}

	contact, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.ContactResponse{}, err
	}
	return toContactResponse(contact), nil
}

// Delete soft-deletes one contact.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

// DeleteMany soft-deletes the given contacts.
func (s *Service) DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	return s.repo.SoftDeleteMany(ctx, ids)
}

// DeleteNotCalled soft-deletes every not-called contact of the agent.
func (s *Service) DeleteNotCalled(ctx context.Context, agentID string) (int, error) {
	affected, err := s.repo.SoftDeleteNotCalledByAgent(ctx, agentID)
	if err != nil {
		return 0, err
	}
	s.log.Info("not-called contacts deleted", "agentId", agentID, "affected", affected)
	return affected, nil
}

// ResetStatuses is the administrative reset for an agent's contacts.
func (s *Service) ResetStatuses(ctx context.Context, agentID string) (int, error) {
	affected, err := s.repo.ResetStatuses(ctx, agentID)
	if err != nil {
		return 0, err
	}
	s.log.Info("contact statuses reset", "agentId", agentID, "affected", affected)
	return affected, nil
}

// ListTags returns the distinct tags for an agent.
func (s *Service) ListTags(ctx context.Context, agentID string) ([]string, error) {
	return s.repo.ListTags(ctx, agentID)
}

func toContactResponse(c repository.Contact) transport.ContactResponse {
	dates := c.DatesCalled
	if dates == nil {
		dates = []string{}
	}
	return transport.ContactResponse{
		ID:               c.ID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Email:            c.Email,
		Phone:            c.Phone,
		Tag:              c.Tag,
		AgentID:          c.AgentID,
		DayToBeProcessed: c.DayToBeProcessed,
		Status:           string(c.Status),
		CallID:           c.CallID,
		DatesCalled:      dates,
		AnsweredByVM:     c.AnsweredByVM,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        c.UpdatedAt.Format(time.RFC3339),
	}
}
