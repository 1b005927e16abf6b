// Package scheduler provides the task-queue backed dispatch timer.
package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	campaignsvc "callcampaign_backend/internal/campaigns/service"
	"callcampaign_backend/platform/config"
)

// Client arms one-shot campaign dispatch tasks. It implements the campaign
// service's DispatchScheduler: the task id equals the job id, so the
// inspector can revoke or list timers by job.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	queue     string
}

// Compile-time check that Client implements DispatchScheduler.
var _ campaignsvc.DispatchScheduler = (*Client)(nil)

// NewClient creates a scheduler client from the Redis configuration.
func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		queue:     queue,
	}, nil
}

// Close releases the underlying Redis connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.inspector != nil {
		_ = c.inspector.Close()
	}
	return c.client.Close()
}

// ScheduleAt arms a one-shot dispatch for the job at the given time.
func (c *Client) ScheduleAt(ctx context.Context, jobID string, at time.Time) error {
	task, err := NewCampaignDispatchTask(CampaignDispatchPayload{JobID: jobID})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(at),
		asynq.Queue(c.queue),
		asynq.TaskID(jobID),
	)
	return err
}

// Cancel revokes the job's timer. A timer that already fired is gone from
// the queue; that is not an error here because the caller falls back to
// the cooperative cancellation flag.
func (c *Client) Cancel(_ context.Context, jobID string) error {
	err := c.inspector.DeleteTask(c.queue, jobID)
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return err
	}
	return nil
}

// List returns the armed dispatch timers with their fire times.
func (c *Client) List(_ context.Context) ([]campaignsvc.Dispatch, error) {
	tasks, err := c.inspector.ListScheduledTasks(c.queue)
	if err != nil {
		return nil, err
	}

	var dispatches []campaignsvc.Dispatch
	for _, task := range tasks {
		if task.Type != TaskCampaignDispatch {
			continue
		}
		dispatches = append(dispatches, campaignsvc.Dispatch{
			JobID: task.ID,
			At:    task.NextProcessAt,
		})
	}
	return dispatches, nil
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
