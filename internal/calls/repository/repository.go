// Package repository provides Postgres persistence for call events.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcampaign_backend/platform/apperr"
)

// CallEvent is the durable record of one provider call. Rows are upserted
// by call_id as webhook deliveries arrive and are never deleted.
type CallEvent struct {
	ID                  uuid.UUID
	CallID              string
	Transcript          string
	RecordingURL        string
	DisconnectionReason string
	AnalyzedTranscript  string
	CallSummary         string
	UserSentiment       string
	AgentSentiment      string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// UpsertOutcomeParams carries the call_ended fields.
type UpsertOutcomeParams struct {
	CallID              string
	Transcript          string
	RecordingURL        string
	DisconnectionReason string
}

// UpsertAnalysisParams carries the call_analyzed fields.
type UpsertAnalysisParams struct {
	CallID             string
	AnalyzedTranscript string
	CallSummary        string
	UserSentiment      string
	AgentSentiment     string
}

// Repository defines the call event persistence operations.
type Repository interface {
	UpsertOutcome(ctx context.Context, params UpsertOutcomeParams) (CallEvent, error)
	UpsertAnalysis(ctx context.Context, params UpsertAnalysisParams) (CallEvent, error)
	GetByCallID(ctx context.Context, callID string) (CallEvent, error)
}

// Repo implements the call event repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new call event repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const callEventColumns = `id, call_id, transcript, recording_url, disconnection_reason,
	analyzed_transcript, call_summary, user_sentiment, agent_sentiment, created_at, updated_at`

func scanCallEvent(row pgx.Row) (CallEvent, error) {
	var e CallEvent
	err := row.Scan(
		&e.ID, &e.CallID, &e.Transcript, &e.RecordingURL, &e.DisconnectionReason,
		&e.AnalyzedTranscript, &e.CallSummary, &e.UserSentiment, &e.AgentSentiment,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// UpsertOutcome writes the call_ended fields, creating the row if absent.
func (r *Repo) UpsertOutcome(ctx context.Context, params UpsertOutcomeParams) (CallEvent, error) {
	query := fmt.Sprintf(`
		INSERT INTO call_events (id, call_id, transcript, recording_url, disconnection_reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (call_id) DO UPDATE SET
			transcript = EXCLUDED.transcript,
			recording_url = EXCLUDED.recording_url,
			disconnection_reason = EXCLUDED.disconnection_reason,
			updated_at = now()
		RETURNING %s`, callEventColumns)

	event, err := scanCallEvent(r.pool.QueryRow(ctx, query,
		uuid.New(), params.CallID, params.Transcript, params.RecordingURL, params.DisconnectionReason,
	))
	if err != nil {
		return CallEvent{}, fmt.Errorf("upsert call outcome: %w", err)
	}
	return event, nil
}

// UpsertAnalysis writes the call_analyzed fields, creating the row if absent.
func (r *Repo) UpsertAnalysis(ctx context.Context, params UpsertAnalysisParams) (CallEvent, error) {
	query := fmt.Sprintf(`
		INSERT INTO call_events (id, call_id, analyzed_transcript, call_summary, user_sentiment, agent_sentiment)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (call_id) DO UPDATE SET
			analyzed_transcript = EXCLUDED.analyzed_transcript,
			call_summary = EXCLUDED.call_summary,
			user_sentiment = EXCLUDED.user_sentiment,
			agent_sentiment = EXCLUDED.agent_sentiment,
			updated_at = now()
		RETURNING %s`, callEventColumns)

	event, err := scanCallEvent(r.pool.QueryRow(ctx, query,
		uuid.New(), params.CallID, params.AnalyzedTranscript, params.CallSummary,
		params.UserSentiment, params.AgentSentiment,
	))
	if err != nil {
		return CallEvent{}, fmt.Errorf("upsert call analysis: %w", err)
	}
	return event, nil
}

// GetByCallID retrieves one call event.
func (r *Repo) GetByCallID(ctx context.Context, callID string) (CallEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM call_events WHERE call_id = $1`, callEventColumns)
	event, err := scanCallEvent(r.pool.QueryRow(ctx, query, callID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallEvent{}, apperr.NotFound("call event not found")
		}
		return CallEvent{}, fmt.Errorf("get call event: %w", err)
	}
	return event, nil
}
