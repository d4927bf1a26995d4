package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"scout/internal/notify"
	"scout/internal/research"
	"scout/internal/store"
	"scout/internal/store/memory"

	"github.com/google/uuid"
)

type stubResearcher struct {
	findings string
	err      error
	calls    int32
}

func (r *stubResearcher) Research(ctx context.Context, query string) (string, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.err != nil {
		return "", r.err
	}
	return r.findings, nil
}

func newTestProcessor(s *memory.Store, r research.Researcher) *Processor {
	cfg := ProcessorConfig{
		MaxAttempts:     3,
		BackoffBase:     time.Nanosecond, // retries become due immediately
		BackoffMax:      time.Millisecond,
		ResearchTimeout: time.Second,
	}
	return NewProcessor(s, s, r, s, notify.New(s, notify.NoopDeliverer{}, nil), cfg, nil)
}

func createAndEnqueue(t *testing.T, s *memory.Store, query string) *store.Assignment {
	t.Helper()
	a := &store.Assignment{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Title:    query,
		Query:    query,
		Type:     store.AssignmentTypeResearch,
		Priority: 50,
	}
	if err := s.CreateAssignment(context.Background(), nil, a); err != nil {
		t.Fatalf("CreateAssignment failed: %v", err)
	}
	if _, err := s.Enqueue(context.Background(), nil, a.ID, nil, time.Time{}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return a
}

// runCycles dequeues and processes until the queue is empty, with a small
// grace period so near-immediate retry jobs become due.
func runCycles(t *testing.T, s *memory.Store, p *Processor) {
	t.Helper()
	for i := 0; i < 20; i++ {
		items, err := s.DequeueBatch(context.Background(), 10)
		if err != nil {
			t.Fatalf("DequeueBatch failed: %v", err)
		}
		if len(items) == 0 {
			depth, _ := s.Depth(context.Background())
			if depth == 0 {
				return
			}
			time.Sleep(2 * time.Millisecond)
			continue
		}
		for _, item := range items {
			p.Process(context.Background(), item)
		}
	}
	t.Fatal("queue did not drain")
}

func TestProcess_SuccessEndToEnd(t *testing.T) {
	s := memory.New()
	r := &stubResearcher{findings: "5 places worth trying: Joe's, Prince Street, ..."}
	p := newTestProcessor(s, r)
	a := createAndEnqueue(t, s, "best pizza NYC")

	items, err := s.DequeueBatch(context.Background(), 1)
	if err != nil || len(items) != 1 {
		t.Fatalf("dequeue failed: items=%v err=%v", items, err)
	}
	p.Process(context.Background(), items[0])

	got, err := s.GetAssignmentByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != store.AssignmentStatusCompleted {
		t.Errorf("got status %s, want completed", got.Status)
	}
	if got.Findings == nil || *got.Findings != r.findings {
		t.Errorf("findings not committed: %v", got.Findings)
	}
	if n := s.NoteCount(); n != 1 {
		t.Errorf("got %d notes, want exactly 1", n)
	}
	if n := s.NotificationCount(); n != 1 {
		t.Errorf("got %d notifications, want exactly 1", n)
	}
}

func TestProcess_TransientFailureExhaustsRetries(t *testing.T) {
	s := memory.New()
	r := &stubResearcher{err: research.Transient(errors.New("upstream 503"))}
	p := newTestProcessor(s, r)
	a := createAndEnqueue(t, s, "best pizza NYC")

	runCycles(t, s, p)

	got, _ := s.GetAssignmentByID(context.Background(), a.ID)
	if got.Status != store.AssignmentStatusFailed {
		t.Errorf("got status %s, want failed", got.Status)
	}
	if got.Attempts != 3 {
		t.Errorf("got attempts %d, want maxAttempts=3", got.Attempts)
	}
	if got.LastError == nil {
		t.Error("failed assignment must carry last_error")
	}
	if int(r.calls) != 3 {
		t.Errorf("research called %d times, want 3", r.calls)
	}

	// No further automatic retries.
	if depth, _ := s.Depth(context.Background()); depth != 0 {
		t.Errorf("got queue depth %d after exhaustion, want 0", depth)
	}
	if n := s.NotificationCount(); n != 0 {
		t.Errorf("failure must not emit notifications, got %d", n)
	}
}

func TestProcess_PermanentFailureNoRetry(t *testing.T) {
	s := memory.New()
	r := &stubResearcher{err: research.Permanent(errors.New("malformed query"))}
	p := newTestProcessor(s, r)
	a := createAndEnqueue(t, s, "best pizza NYC")

	items, _ := s.DequeueBatch(context.Background(), 1)
	p.Process(context.Background(), items[0])

	got, _ := s.GetAssignmentByID(context.Background(), a.ID)
	if got.Status != store.AssignmentStatusFailed {
		t.Errorf("got status %s, want failed", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("got attempts %d, want 1", got.Attempts)
	}
	if depth, _ := s.Depth(context.Background()); depth != 0 {
		t.Errorf("permanent failure must not schedule a retry, depth=%d", depth)
	}
	if int(r.calls) != 1 {
		t.Errorf("research called %d times, want 1", r.calls)
	}
}

func TestProcess_ConcurrentDuplicateDispatch(t *testing.T) {
	s := memory.New()
	r := &stubResearcher{findings: "findings"}
	p := newTestProcessor(s, r)
	a := createAndEnqueue(t, s, "best pizza NYC")

	// Duplicate trigger: a second job for the same assignment.
	if _, err := s.Enqueue(context.Background(), nil, a.ID, nil, time.Time{}); err != nil {
		t.Fatalf("second enqueue failed: %v", err)
	}

	items, err := s.DequeueBatch(context.Background(), 2)
	if err != nil || len(items) != 2 {
		t.Fatalf("expected 2 jobs, got %v (err=%v)", items, err)
	}

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item store.QueueItem) {
			defer wg.Done()
			p.Process(context.Background(), item)
		}(item)
	}
	wg.Wait()

	got, _ := s.GetAssignmentByID(context.Background(), a.ID)
	if got.Status != store.AssignmentStatusCompleted {
		t.Errorf("got status %s, want completed", got.Status)
	}
	if n := s.NotificationCount(); n != 1 {
		t.Errorf("got %d notifications, want exactly 1", n)
	}
	if n := s.NoteCount(); n != 1 {
		t.Errorf("got %d notes, want exactly 1", n)
	}
	// Only one of the two jobs may have run the research.
	if int(r.calls) != 1 {
		t.Errorf("research called %d times, want 1", r.calls)
	}
}

func TestProcess_RetryAfterManualRetry(t *testing.T) {
	s := memory.New()
	r := &stubResearcher{err: research.Permanent(errors.New("bad query"))}
	p := newTestProcessor(s, r)
	a := createAndEnqueue(t, s, "best pizza NYC")

	items, _ := s.DequeueBatch(context.Background(), 1)
	p.Process(context.Background(), items[0])

	// Operator retries the failed assignment; the upstream recovered.
	if _, err := s.RetryAssignment(context.Background(), a.ID, 3); err != nil {
		t.Fatalf("manual retry failed: %v", err)
	}
	if _, err := s.Enqueue(context.Background(), nil, a.ID, nil, time.Time{}); err != nil {
		t.Fatalf("enqueue after retry failed: %v", err)
	}
	r.err = nil
	r.findings = "it works now"

	items, _ = s.DequeueBatch(context.Background(), 1)
	if len(items) != 1 {
		t.Fatal("retried assignment must be claimable")
	}
	p.Process(context.Background(), items[0])

	got, _ := s.GetAssignmentByID(context.Background(), a.ID)
	if got.Status != store.AssignmentStatusCompleted {
		t.Errorf("got status %s, want completed after manual retry", got.Status)
	}
	if got.LastError != nil {
		t.Error("completion must clear last_error")
	}
}

// shutdownAwareResearcher fails the way a real client does when the
// context it was handed is already cancelled.
type shutdownAwareResearcher struct{}

func (shutdownAwareResearcher) Research(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", research.Transient(err)
	}
	return "sources gathered", nil
}

func TestProcess_FinishesInFlightWorkAfterShutdown(t *testing.T) {
	s := memory.New()
	p := newTestProcessor(s, shutdownAwareResearcher{})
	a := createAndEnqueue(t, s, "best pizza NYC")

	items, err := s.DequeueBatch(context.Background(), 1)
	if err != nil || len(items) != 1 {
		t.Fatalf("DequeueBatch returned %d items, err %v", len(items), err)
	}

	// Cancellation after dequeue models a drain: the agent stops polling
	// while workers finish the jobs they already hold.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Process(ctx, items[0])

	got, err := s.GetAssignmentByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetAssignmentByID failed: %v", err)
	}
	if got.Status != store.AssignmentStatusCompleted {
		t.Fatalf("got status %s, want completed", got.Status)
	}
	if got.Attempts != 0 {
		t.Errorf("got attempts %d, want 0", got.Attempts)
	}
	if got.LastError != nil {
		t.Errorf("got last error %q, want none", *got.LastError)
	}
	if depth, _ := s.Depth(context.Background()); depth != 0 {
		t.Errorf("got queue depth %d, want 0", depth)
	}
}
