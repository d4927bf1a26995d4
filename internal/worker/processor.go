// Package worker contains the worker-side logic for assignment processing.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"scout/internal/notify"
	"scout/internal/research"
	"scout/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Default retry policy. maxAttempts and the backoff curve are deliberately
// configuration, not behavior: see ProcessorConfig.
const (
	DefaultMaxAttempts     = 3
	DefaultBackoffBase     = 30 * time.Second
	DefaultBackoffMax      = 10 * time.Minute
	DefaultResearchTimeout = 60 * time.Second
)

// ProcessorStore is the slice of the assignment store the processor needs.
type ProcessorStore interface {
	ClaimAssignment(ctx context.Context, id uuid.UUID) (*store.Assignment, error)
	CompleteAssignment(ctx context.Context, id uuid.UUID, findings string) error
	FailAssignment(ctx context.Context, id uuid.UUID, errMsg string) (int, error)
}

// ProcessorConfig holds the retry policy and timeouts.
type ProcessorConfig struct {
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	ResearchTimeout time.Duration
}

// Processor executes one dequeued job: claim the assignment, run the
// research function, commit the state transition, then fire the derived
// side effects.
type Processor struct {
	store      ProcessorStore
	queue      store.Queue
	researcher research.Researcher
	notes      store.NoteStore
	notifier   *notify.Emitter
	config     ProcessorConfig
	logger     *slog.Logger
}

// NewProcessor creates a processor. Zero config fields get defaults.
func NewProcessor(s ProcessorStore, q store.Queue, r research.Researcher, notes store.NoteStore, n *notify.Emitter, cfg ProcessorConfig, logger *slog.Logger) *Processor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}
	if cfg.ResearchTimeout <= 0 {
		cfg.ResearchTimeout = DefaultResearchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:      s,
		queue:      q,
		researcher: r,
		notes:      notes,
		notifier:   n,
		config:     cfg,
		logger:     logger,
	}
}

// jobPayload is the queue payload written by the controller at enqueue time.
type jobPayload struct {
	Query string                 `json:"query,omitempty"`
	Trace propagation.MapCarrier `json:"trace,omitempty"`
}

// Process handles a single dequeued job. Queue updates run on a background
// context so a graceful drain never leaves a finished job unaccounted for.
func (p *Processor) Process(ctx context.Context, item store.QueueItem) {
	// A dequeued job runs to completion bounded by the research timeout.
	// Shutdown stops the dequeue loop, not work already in flight; an
	// aborted research would count against the assignment's attempts.
	ctx = context.WithoutCancel(ctx)

	traceCtx := ctx
	var payload jobPayload
	if len(item.Payload) > 0 {
		if err := json.Unmarshal(item.Payload, &payload); err == nil && payload.Trace != nil {
			traceCtx = otel.GetTextMapPropagator().Extract(ctx, payload.Trace)
		}
	}

	tracer := otel.Tracer("scout-worker")
	spanCtx, span := tracer.Start(traceCtx, "process_assignment",
		trace.WithAttributes(
			attribute.String("assignment.id", item.AssignmentID.String()),
			attribute.Int64("job.id", item.JobID),
			attribute.Int("job.attempt", item.Attempt),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	log := p.logger.With("assignment_id", item.AssignmentID, "job_id", item.JobID)

	a, err := p.store.ClaimAssignment(spanCtx, item.AssignmentID)
	if err != nil {
		p.handleClaimFailure(log, item, err)
		return
	}

	log.Info("processing assignment", "type", a.Type, "attempt", a.Attempts)

	// The research call is the blocking network operation; bound it.
	researchCtx, cancel := context.WithTimeout(spanCtx, p.config.ResearchTimeout)
	findings, rerr := p.researcher.Research(researchCtx, a.Query)
	cancel()

	if rerr != nil {
		span.RecordError(rerr)
		p.handleResearchFailure(log, item, a, rerr)
		return
	}

	if err := p.store.CompleteAssignment(context.Background(), a.ID, findings); err != nil {
		// The state commit is the durability boundary; without it the work
		// did not happen. Leave the job claimed so the stale reaper retries.
		log.Error("failed to commit completion", "error", err)
		span.RecordError(err)
		return
	}

	if err := p.queue.CompleteJob(context.Background(), item.JobID); err != nil {
		log.Error("failed to mark job succeeded", "error", err)
	}

	// Derived artifacts are best-effort after the commit point: a failure
	// here is logged, never retried as part of this job, and never reverts
	// the completed status.
	p.emitArtifacts(context.Background(), log, a, findings)

	log.Info("assignment completed")
}

func (p *Processor) handleClaimFailure(log *slog.Logger, item store.QueueItem, err error) {
	switch {
	case errors.Is(err, store.ErrAlreadyInProgress):
		// Duplicate dispatch. Another worker holds the assignment; this job
		// has nothing left to do.
		log.Info("assignment already claimed, skipping")
		if qerr := p.queue.CompleteJob(context.Background(), item.JobID); qerr != nil {
			log.Error("failed to retire duplicate job", "error", qerr)
		}
	case errors.Is(err, store.ErrInvalidTransition):
		// Terminal assignment (completed): stale duplicate job.
		log.Info("assignment already terminal, skipping")
		if qerr := p.queue.CompleteJob(context.Background(), item.JobID); qerr != nil {
			log.Error("failed to retire stale job", "error", qerr)
		}
	case errors.Is(err, store.ErrNotFound):
		log.Error("job references missing assignment")
		if qerr := p.queue.FailJob(context.Background(), item.JobID, "assignment not found"); qerr != nil {
			log.Error("failed to mark orphan job failed", "error", qerr)
		}
	default:
		// Storage error: leave the job claimed; the stale reaper redelivers.
		log.Error("claim failed", "error", err)
	}
}

func (p *Processor) handleResearchFailure(log *slog.Logger, item store.QueueItem, a *store.Assignment, rerr error) {
	attempts, err := p.store.FailAssignment(context.Background(), a.ID, rerr.Error())
	if err != nil {
		log.Error("failed to record assignment failure", "error", err)
		return
	}

	if err := p.queue.FailJob(context.Background(), item.JobID, rerr.Error()); err != nil {
		log.Error("failed to mark job failed", "error", err)
	}

	if research.IsPermanent(rerr) {
		log.Warn("research failed permanently", "error", rerr, "attempts", attempts)
		return
	}
	if attempts >= p.config.MaxAttempts {
		log.Warn("research attempts exhausted", "error", rerr, "attempts", attempts)
		return
	}

	delay := p.backoff(attempts)
	runAt := time.Now().UTC().Add(delay)
	if _, err := p.queue.Enqueue(context.Background(), nil, a.ID, item.Payload, runAt); err != nil {
		log.Error("failed to enqueue retry", "error", err)
		return
	}
	log.Info("retry scheduled", "attempts", attempts, "delay", delay)
}

func (p *Processor) emitArtifacts(ctx context.Context, log *slog.Logger, a *store.Assignment, findings string) {
	if p.notes != nil {
		if _, err := p.notes.CreateNote(ctx, a.UserID, a.Title, findings); err != nil {
			log.Error("failed to create note", "error", err)
		}
	}
	if p.notifier != nil {
		if _, err := p.notifier.Emit(ctx, a.UserID, a, findings); err != nil {
			log.Error("failed to emit notification", "error", err)
		}
	}
}

// backoff returns base * 2^(attempts-1) capped at the ceiling.
func (p *Processor) backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := p.config.BackoffBase << (attempts - 1)
	if d > p.config.BackoffMax || d <= 0 {
		d = p.config.BackoffMax
	}
	return d
}
