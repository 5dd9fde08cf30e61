package ledger

import (
	"context"
	"sync"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 2
)

// AsyncSubmitter delivers events in the background: Submit enqueues and
// returns immediately, a fixed pool of workers drains the queue through the
// wrapped submitter. Delivery is best-effort and at-most-once: when the queue
// is full the event is dropped and reported through the observer, and events
// still queued when the process exits are lost. Use the wrapped submitter
// directly for awaited delivery.
type AsyncSubmitter struct {
	inner    Submitter
	observer SubmitObserver
	queue    chan Event
	wg       sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// AsyncConfig controls queue and worker sizing. Zero values use defaults.
type AsyncConfig struct {
	QueueSize int
	Workers   int
	Observer  SubmitObserver
}

// NewAsyncSubmitter starts the worker pool around an inner submitter.
func NewAsyncSubmitter(inner Submitter, cfg AsyncConfig) *AsyncSubmitter {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	s := &AsyncSubmitter{
		inner:    inner,
		observer: cfg.Observer,
		queue:    make(chan Event, cfg.QueueSize),
	}
	s.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go s.worker()
	}
	return s
}

func (s *AsyncSubmitter) worker() {
	defer s.wg.Done()
	for event := range s.queue {
		// Detached delivery is decoupled from the caller's context; the
		// inner client's own timeout bounds each attempt.
		_, _ = s.inner.Submit(context.Background(), event)
	}
}

// Submit enqueues the event without waiting for the ledger round-trip. The
// returned receipt is always nil. A full queue drops the event rather than
// blocking the invocation path.
func (s *AsyncSubmitter) Submit(ctx context.Context, event Event) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		if s.observer != nil {
			s.observer.OnDrop(ctx, event, "submitter closed")
		}
		return nil, nil
	}

	select {
	case s.queue <- event:
	default:
		if s.observer != nil {
			s.observer.OnDrop(ctx, event, "queue full")
		}
	}
	return nil, nil
}

// Close stops accepting events, drains the queue, and waits for the workers.
// Safe to call more than once.
func (s *AsyncSubmitter) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

var _ Submitter = (*AsyncSubmitter)(nil)
