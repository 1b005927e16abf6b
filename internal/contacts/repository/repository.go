// Package repository provides Postgres persistence for contacts.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcampaign_backend/platform/apperr"
)

const contactNotFoundMessage = "contact not found"

const contactColumns = `id, first_name, last_name, email, phone, tag, agent_id,
	day_to_be_processed, status, call_id, reference_call_id, dates_called,
	answered_by_vm, is_deleted, created_at, updated_at`

// Repo implements the contact repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new contact repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Tag, &c.AgentID,
		&c.DayToBeProcessed, &c.Status, &c.CallID, &c.ReferenceCallID, &c.DatesCalled,
		&c.AnsweredByVM, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// BulkImport inserts rows in one transaction, skipping (email, agent_id)
// pairs that already exist. The whole batch rolls back on any failure; the
// unique index on (email, agent_id) backstops concurrent importers.
func (r *Repo) BulkImport(ctx context.Context, agentID string, rows []CreateContactParams) (int, int, error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		emails = append(emails, strings.ToLower(row.Email))
	}

	existing := make(map[string]struct{})
	existingRows, err := tx.Query(ctx,
		`SELECT lower(email) FROM contacts WHERE agent_id = $1 AND lower(email) = ANY($2)`,
		agentID, emails)
	if err != nil {
		return 0, 0, fmt.Errorf("read existing contacts: %w", err)
	}
	for existingRows.Next() {
		var email string
		if err := existingRows.Scan(&email); err != nil {
			existingRows.Close()
			return 0, 0, fmt.Errorf("scan existing contact: %w", err)
		}
		existing[email] = struct{}{}
	}
	existingRows.Close()
	if err := existingRows.Err(); err != nil {
		return 0, 0, fmt.Errorf("read existing contacts: %w", err)
	}

	insertQuery := `
		INSERT INTO contacts (id, first_name, last_name, email, phone, tag, agent_id, day_to_be_processed, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	inserted, duplicates := 0, 0
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		email := strings.ToLower(row.Email)
		if _, ok := existing[email]; ok {
			duplicates++
			continue
		}
		// A repeated email inside the same batch is a duplicate too.
		if _, ok := seen[email]; ok {
			duplicates++
			continue
		}
		seen[email] = struct{}{}

		if _, err := tx.Exec(ctx, insertQuery,
			uuid.New(), row.FirstName, row.LastName, row.Email, row.Phone,
			row.Tag, agentID, row.DayToBeProcessed, StatusNotCalled,
		); err != nil {
			return 0, 0, fmt.Errorf("insert contact %s: %w", row.Email, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit import transaction: %w", err)
	}
	return inserted, duplicates, nil
}

// Create inserts a single contact.
func (r *Repo) Create(ctx context.Context, params CreateContactParams) (Contact, error) {
	query := fmt.Sprintf(`
		INSERT INTO contacts (id, first_name, last_name, email, phone, tag, agent_id, day_to_be_processed, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, contactColumns)

	contact, err := scanContact(r.pool.QueryRow(ctx, query,
		uuid.New(), params.FirstName, params.LastName, params.Email, params.Phone,
		params.Tag, params.AgentID, params.DayToBeProcessed, StatusNotCalled,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Contact{}, apperr.Conflict("contact already exists for this agent")
		}
		return Contact{}, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

// GetByID retrieves a contact by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE id = $1 AND is_deleted = false`, contactColumns)
	contact, err := scanContact(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		return Contact{}, fmt.Errorf("get contact by id: %w", err)
	}
	return contact, nil
}

// List retrieves a contact page with filters.
func (r *Repo) List(ctx context.Context, params ListContactsParams) ([]Contact, int, error) {
	whereClauses := []string{"is_deleted = false"}
	args := []interface{}{}
	argIdx := 1

	if len(params.AgentIDs) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("agent_id = ANY($%d)", argIdx))
		args = append(args, params.AgentIDs)
		argIdx++
	}
	if len(params.Statuses) > 0 {
		statuses := make([]string, 0, len(params.Statuses))
		for _, s := range params.Statuses {
			statuses = append(statuses, string(s))
		}
		whereClauses = append(whereClauses, fmt.Sprintf("status = ANY($%d)", argIdx))
		args = append(args, statuses)
		argIdx++
	}
	if params.Tag != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("tag = $%d", argIdx))
		args = append(args, strings.ToLower(params.Tag))
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM contacts WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, contactColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, total, nil
}

// Update applies optional field updates to a contact.
func (r *Repo) Update(ctx context.Context, params UpdateContactParams) (Contact, error) {
	query := fmt.Sprintf(`
		UPDATE contacts
		SET first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			tag = COALESCE($6, tag),
			updated_at = now()
		WHERE id = $1 AND is_deleted = false
		RETURNING %s`, contactColumns)

	contact, err := scanContact(r.pool.QueryRow(ctx, query,
		params.ID, params.FirstName, params.LastName, params.Email, params.Phone, params.Tag,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Contact{}, apperr.NotFound(contactNotFoundMessage)
		}
		if isUniqueViolation(err) {
			return Contact{}, apperr.Conflict("contact already exists for this agent")
		}
		return Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return contact, nil
}

// SelectForDispatch returns up to limit callable contacts, oldest first.
func (r *Repo) SelectForDispatch(ctx context.Context, agentID, tag string, limit int) ([]Contact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE agent_id = $1 AND tag = $2 AND status = $3 AND is_deleted = false
		ORDER BY created_at ASC
		LIMIT $4`, contactColumns)

	rows, err := r.pool.Query(ctx, query, agentID, strings.ToLower(tag), StatusNotCalled, limit)
	if err != nil {
		return nil, fmt.Errorf("select contacts for dispatch: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select contacts for dispatch: %w", err)
	}
	return contacts, nil
}

// SetDialing marks a contact in_progress with the provider call id.
func (r *Repo) SetDialing(ctx context.Context, id uuid.UUID, callID string) error {
	query := `
		UPDATE contacts
		SET status = $2, call_id = $3, updated_at = now()
		WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id, StatusInProgress, callID)
	if err != nil {
		return fmt.Errorf("set contact dialing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

var terminalStatuses = []string{
	string(StatusCalled), string(StatusNoAnswer), string(StatusVoicemail),
	string(StatusFailed), string(StatusTransferred), string(StatusScheduled),
}

// SetStatusByCallID applies a reconciled status. A move that would
// downgrade a terminal status matches no row and reports applied=false.
func (r *Repo) SetStatusByCallID(ctx context.Context, callID, agentID string, status CallStatus) (bool, error) {
	query := `
		UPDATE contacts
		SET status = $3, updated_at = now()
		WHERE call_id = $1 AND agent_id = $2`
	args := []interface{}{callID, agentID, status}

	if !CanTransition(StatusCalled, status) {
		// Downgrade target: only apply when the current status is not terminal.
		query += ` AND NOT (status = ANY($4))`
		args = append(args, terminalStatuses)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("set status by call id: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// RecordCallOutcome applies a terminal call outcome in one statement.
func (r *Repo) RecordCallOutcome(ctx context.Context, callID, agentID string, status CallStatus, day string, eventID uuid.UUID) error {
	query := `
		UPDATE contacts
		SET status = $3,
			dates_called = array_append(dates_called, $4),
			reference_call_id = $5,
			updated_at = now()
		WHERE call_id = $1 AND agent_id = $2`
	result, err := r.pool.Exec(ctx, query, callID, agentID, status, day, eventID)
	if err != nil {
		return fmt.Errorf("record call outcome: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

// RecordCallAttempt appends the call day and links the call event row,
// leaving the status alone.
func (r *Repo) RecordCallAttempt(ctx context.Context, callID, agentID, day string, eventID uuid.UUID) error {
	query := `
		UPDATE contacts
		SET dates_called = array_append(dates_called, $3),
			reference_call_id = $4,
			updated_at = now()
		WHERE call_id = $1 AND agent_id = $2`
	result, err := r.pool.Exec(ctx, query, callID, agentID, day, eventID)
	if err != nil {
		return fmt.Errorf("record call attempt: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

// MarkVoicemail flags answered_by_vm and sets the voicemail status. A
// contact already flagged matches no row, so the caller increments the
// voicemail counter at most once.
func (r *Repo) MarkVoicemail(ctx context.Context, callID, agentID string) (bool, error) {
	query := `
		UPDATE contacts
		SET answered_by_vm = true, status = $3, updated_at = now()
		WHERE call_id = $1 AND agent_id = $2 AND answered_by_vm = false`
	result, err := r.pool.Exec(ctx, query, callID, agentID, StatusVoicemail)
	if err != nil {
		return false, fmt.Errorf("mark voicemail: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// SoftDelete marks one contact deleted.
func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE contacts SET is_deleted = true, updated_at = now() WHERE id = $1 AND is_deleted = false`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(contactNotFoundMessage)
	}
	return nil
}

// SoftDeleteMany marks the given contacts deleted and returns the count.
func (r *Repo) SoftDeleteMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	query := `UPDATE contacts SET is_deleted = true, updated_at = now() WHERE id = ANY($1) AND is_deleted = false`
	result, err := r.pool.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("soft delete contacts: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// SoftDeleteNotCalledByAgent marks every not-called contact of the agent deleted.
func (r *Repo) SoftDeleteNotCalledByAgent(ctx context.Context, agentID string) (int, error) {
	query := `UPDATE contacts SET is_deleted = true, updated_at = now() WHERE agent_id = $1 AND status = $2 AND is_deleted = false`
	result, err := r.pool.Exec(ctx, query, agentID, StatusNotCalled)
	if err != nil {
		return 0, fmt.Errorf("soft delete not-called contacts: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ResetStatuses is the administrative reset for all of an agent's contacts.
func (r *Repo) ResetStatuses(ctx context.Context, agentID string) (int, error) {
	query := `
		UPDATE contacts
		SET status = $2, answered_by_vm = false, dates_called = '{}', updated_at = now()
		WHERE agent_id = $1 AND is_deleted = false`
	result, err := r.pool.Exec(ctx, query, agentID, StatusNotCalled)
	if err != nil {
		return 0, fmt.Errorf("reset contact statuses: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ListTags returns the distinct tags of the agent's live contacts.
func (r *Repo) ListTags(ctx context.Context, agentID string) ([]string, error) {
	query := `SELECT DISTINCT tag FROM contacts WHERE agent_id = $1 AND is_deleted = false AND tag <> '' ORDER BY tag`
	rows, err := r.pool.Query(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// CountByAgent returns total, not-called and answered contact counts.
func (r *Repo) CountByAgent(ctx context.Context, agentID string) (int, int, int, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = ANY($3))
		FROM contacts
		WHERE agent_id = $1 AND is_deleted = false`

	answered := []string{string(StatusCalled), string(StatusTransferred), string(StatusScheduled)}
	var total, notCalled, answeredCount int
	if err := r.pool.QueryRow(ctx, query, agentID, StatusNotCalled, answered).Scan(&total, &notCalled, &answeredCount); err != nil {
		return 0, 0, 0, fmt.Errorf("count contacts by agent: %w", err)
	}
	return total, notCalled, answeredCount, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
