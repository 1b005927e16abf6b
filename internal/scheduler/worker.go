package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"callcampaign_backend/platform/config"
	"callcampaign_backend/platform/logger"
)

// Runner executes one campaign dispatch batch. Implemented by the
// campaign service.
type Runner interface {
	Run(ctx context.Context, jobID uuid.UUID) error
}

// Worker consumes campaign dispatch tasks when their timers fire.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner Runner
	log    *logger.Logger
}

// NewWorker creates the dispatch worker.
func NewWorker(cfg config.SchedulerConfig, runner Runner, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskCampaignDispatch, w.handleCampaignDispatch)

	return w, nil
}

func (w *Worker) handleCampaignDispatch(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCampaignDispatchPayload(task)
	if err != nil {
		return err
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		return err
	}

	return w.runner.Run(ctx, jobID)
}

// Run serves the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("dispatch worker stopped", "error", err)
	}
}
