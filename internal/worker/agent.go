package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scout/internal/store"
)

// AgentConfig holds configuration for the worker agent.
type AgentConfig struct {
	ID                 string
	Concurrency        int
	PollInterval       time.Duration
	MaxBackoff         time.Duration // Maximum poll backoff when queue is empty (default: 30s)
	HeartbeatInterval  time.Duration // Interval between claim extensions (default: 2m)
	ClaimExtension     time.Duration // How far each heartbeat pushes the claim deadline (default: 5m)
	StaleCheckInterval time.Duration // Interval between stale-job sweeps (default: 1m)
}

// Agent runs the pull loop: poll the queue with adaptive backoff, dispatch
// claimed jobs to a bounded pool of goroutines, heartbeat while they run,
// and sweep stale claims left by dead workers.
type Agent struct {
	queue     store.Queue
	processor *Processor
	config    AgentConfig
	logger    *slog.Logger
	done      chan struct{}
}

// New creates a new worker agent.
func New(q store.Queue, p *Processor, config AgentConfig, logger *slog.Logger) *Agent {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 1 * time.Second
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = 2 * time.Minute
	}
	if config.ClaimExtension <= 0 {
		config.ClaimExtension = 5 * time.Minute
	}
	if config.StaleCheckInterval <= 0 {
		config.StaleCheckInterval = 1 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		queue:     q,
		processor: p,
		config:    config,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Run starts the main pull-loop. It blocks until the context is cancelled.
// On SIGTERM, it stops dequeuing new work and allows in-flight jobs to finish.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("agent starting", "agent_id", a.config.ID, "concurrency", a.config.Concurrency)

	go a.runReaper(ctx)

	// Semaphore to limit concurrency
	sem := make(chan struct{}, a.config.Concurrency)
	var wg sync.WaitGroup

	// Channel to signal when a slot becomes available (adaptive polling)
	pollNow := make(chan struct{}, 1)

	// Current backoff duration (increases on empty queue, resets on work found)
	currentBackoff := a.config.PollInterval

	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
			// Already a poll pending
		}
	}

	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("context cancelled, draining running jobs")
			wg.Wait()
			close(a.done)
			return ctx.Err()

		case <-time.After(currentBackoff):
			triggerPoll()

		case <-pollNow:
			availableSlots := a.config.Concurrency - len(sem)
			if availableSlots <= 0 {
				continue
			}

			items, err := a.queue.DequeueBatch(ctx, availableSlots)
			if err != nil {
				a.logger.Error("dequeue failed", "error", err)
				continue
			}

			if len(items) == 0 {
				// Empty queue: exponential poll backoff capped at MaxBackoff
				currentBackoff = currentBackoff * 2
				if currentBackoff > a.config.MaxBackoff {
					currentBackoff = a.config.MaxBackoff
				}
				continue
			}

			currentBackoff = a.config.PollInterval

			a.logger.Info("claimed jobs", "count", len(items))

			for _, item := range items {
				sem <- struct{}{}

				wg.Add(1)
				go func(item store.QueueItem) {
					defer wg.Done()
					defer func() {
						<-sem
						// A slot opened up: poll again immediately
						triggerPoll()
					}()
					a.processItem(ctx, item)
				}(item)
			}

			if len(items) < availableSlots {
				triggerPoll()
			}
		}
	}
}

// Done returns a channel that is closed when the agent has fully stopped.
func (a *Agent) Done() <-chan struct{} {
	return a.done
}

// processItem runs the processor for one job with a heartbeat keeping the
// claim alive for its duration.
func (a *Agent) processItem(ctx context.Context, item store.QueueItem) {
	heartbeatCtx, cancelHeartbeat := context.WithCancel(context.Background())
	defer cancelHeartbeat()
	go a.runHeartbeat(heartbeatCtx, item.JobID)

	a.processor.Process(ctx, item)
}

// runHeartbeat extends the claim deadline periodically while a job is
// executing, so a long research call is not requeued under a live worker.
func (a *Agent) runHeartbeat(ctx context.Context, jobID int64) {
	ticker := time.NewTicker(a.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			until := time.Now().Add(a.config.ClaimExtension)
			if err := a.queue.ExtendClaim(context.Background(), jobID, until); err != nil {
				a.logger.Warn("heartbeat failed", "job_id", jobID, "error", err)
			}
		}
	}
}

// runReaper periodically returns jobs abandoned by crashed workers to the
// queue.
func (a *Agent) runReaper(ctx context.Context) {
	ticker := time.NewTicker(a.config.StaleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.queue.RequeueStale(ctx)
			if err != nil {
				a.logger.Error("stale sweep failed", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Warn("requeued stale jobs", "count", n)
			}
		}
	}
}
