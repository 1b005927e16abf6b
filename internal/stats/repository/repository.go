// Package repository provides Postgres persistence for daily call statistics.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DailyStat is one day of call counters for one agent.
type DailyStat struct {
	Day               string
	AgentID           string
	TotalCalls        int
	TotalAnsweredByVM int
	TotalFailed       int
	TotalTransferred  int
	TotalCallAnswered int
	TotalAppointment  int
}

// Deltas holds counter increments applied in one atomic statement.
type Deltas struct {
	TotalCalls        int
	TotalAnsweredByVM int
	TotalFailed       int
	TotalTransferred  int
	TotalCallAnswered int
	TotalAppointment  int
}

// Totals is the sum of counters over a day range.
type Totals struct {
	TotalCalls        int `json:"totalCalls"`
	TotalAnsweredByVM int `json:"totalAnsweredByVm"`
	TotalFailed       int `json:"totalFailed"`
	TotalTransferred  int `json:"totalTransferred"`
	TotalCallAnswered int `json:"totalCallAnswered"`
	TotalAppointment  int `json:"totalAppointment"`
}

// Repository defines the daily statistics persistence operations.
type Repository interface {
	// IncrementDaily applies the deltas to the (day, agent) row, creating
	// it if absent. The whole increment is one atomic upsert.
	IncrementDaily(ctx context.Context, day, agentID string, deltas Deltas) error

	// SumRange sums counters over an inclusive day range for the given
	// agents. Empty fromDay/toDay leave that side unbounded; days are ISO
	// dates so text comparison orders correctly.
	SumRange(ctx context.Context, agentIDs []string, fromDay, toDay string) (Totals, error)
}

// Repo implements the daily statistics repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new statistics repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// IncrementDaily upserts the counters for one (day, agent) row.
func (r *Repo) IncrementDaily(ctx context.Context, day, agentID string, deltas Deltas) error {
	query := `
		INSERT INTO daily_stats (
			day, agent_id, total_calls, total_answered_by_vm, total_failed,
			total_transferred, total_call_answered, total_appointment
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (day, agent_id) DO UPDATE SET
			total_calls = daily_stats.total_calls + EXCLUDED.total_calls,
			total_answered_by_vm = daily_stats.total_answered_by_vm + EXCLUDED.total_answered_by_vm,
			total_failed = daily_stats.total_failed + EXCLUDED.total_failed,
			total_transferred = daily_stats.total_transferred + EXCLUDED.total_transferred,
			total_call_answered = daily_stats.total_call_answered + EXCLUDED.total_call_answered,
			total_appointment = daily_stats.total_appointment + EXCLUDED.total_appointment`

	if _, err := r.pool.Exec(ctx, query,
		day, agentID, deltas.TotalCalls, deltas.TotalAnsweredByVM, deltas.TotalFailed,
		deltas.TotalTransferred, deltas.TotalCallAnswered, deltas.TotalAppointment,
	); err != nil {
		return fmt.Errorf("increment daily stats: %w", err)
	}
	return nil
}

// SumRange sums counters over an inclusive day range.
func (r *Repo) SumRange(ctx context.Context, agentIDs []string, fromDay, toDay string) (Totals, error) {
	query := `
		SELECT COALESCE(SUM(total_calls), 0),
			COALESCE(SUM(total_answered_by_vm), 0),
			COALESCE(SUM(total_failed), 0),
			COALESCE(SUM(total_transferred), 0),
			COALESCE(SUM(total_call_answered), 0),
			COALESCE(SUM(total_appointment), 0)
		FROM daily_stats
		WHERE agent_id = ANY($1)
			AND ($2 = '' OR day >= $2)
			AND ($3 = '' OR day <= $3)`

	var totals Totals
	if err := r.pool.QueryRow(ctx, query, agentIDs, fromDay, toDay).Scan(
		&totals.TotalCalls, &totals.TotalAnsweredByVM, &totals.TotalFailed,
		&totals.TotalTransferred, &totals.TotalCallAnswered, &totals.TotalAppointment,
	); err != nil {
		return Totals{}, fmt.Errorf("sum daily stats: %w", err)
	}
	return totals, nil
}
