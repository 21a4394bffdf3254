package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/warpdl/warpcap/pkg/logger"
)

// Scheduler runs capture requests one at a time in priority order.
//
// It starts Stopped. Submit is accepted in any state; requests submitted
// while Stopped wait in the queue until Start. Stop lets the in-flight
// capture finish and leaves queued requests in place, so a later Start
// resumes them. Close is terminal and fails everything still queued.
type Scheduler struct {
	op          Operation
	queue       *Queue
	log         logger.Logger
	hooks       Hooks
	drainOnStop bool

	seq      atomic.Uint64
	running  atomic.Bool
	closed   atomic.Bool
	inFlight atomic.Int32

	submitted     atomic.Uint64
	completed     atomic.Uint64
	failed        atomic.Uint64
	handlerPanics atomic.Uint64

	// mu serializes Start, Stop and Close.
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// closeMu keeps Submit from pushing into a queue Close has already drained.
	closeMu sync.RWMutex
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Running       bool
	Pending       int
	InFlight      int
	Submitted     uint64
	Completed     uint64
	Failed        uint64
	HandlerPanics uint64
}

// New creates a stopped scheduler that runs op for every request.
func New(op Operation, opts ...Option) *Scheduler {
	s := &Scheduler{
		op:  op,
		log: logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = NewQueue()
	}
	return s
}

// Submit queues a capture at the given priority and returns the request ID.
// Exactly one of onSuccess or onFailure will be called, once, after the
// request is dequeued. Nil callbacks are treated as no-ops.
//
// After Close the request is not queued and onFailure(ErrClosed) is called
// on the submitting goroutine.
func (s *Scheduler) Submit(priority Priority, onSuccess func(*Payload), onFailure func(error)) string {
	return s.SubmitRequest(priority, HandlerFuncs{Success: onSuccess, Failure: onFailure})
}

// SubmitRequest is Submit with a Handler value.
func (s *Scheduler) SubmitRequest(priority Priority, h Handler) string {
	if h == nil {
		h = HandlerFuncs{}
	}
	r := &Request{
		ID:          uuid.NewString(),
		Priority:    priority,
		Seq:         s.seq.Add(1),
		SubmittedAt: time.Now(),
		Handler:     h,
	}
	s.submitted.Add(1)

	s.closeMu.RLock()
	if s.closed.Load() {
		s.closeMu.RUnlock()
		s.failed.Add(1)
		s.dispatch(r, nil, ErrClosed)
		return r.ID
	}
	s.queue.Push(r)
	s.closeMu.RUnlock()

	s.log.Debug("queued request %s priority=%s seq=%d", r.ID, r.Priority, r.Seq)
	return r.ID
}

// Start spawns the worker. It returns ErrAlreadyRunning if the worker is
// already running and ErrClosed after Close. Starting again after Stop is
// allowed and resumes the queued requests.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrClosed
	}
	if s.running.Load() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)
	go s.run(ctx, s.done)

	s.log.Info("capture scheduler started, %d requests pending", s.queue.Len())
	return nil
}

// Stop halts the worker and waits for it to exit. The in-flight capture,
// if any, runs to completion and its handler is called before Stop
// returns. It returns ErrNotRunning if the scheduler is stopped.
//
// Stop must not be called from a completion callback or hook: it waits
// for the worker, which is the goroutine running them.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Scheduler) stopLocked() error {
	if !s.running.Load() {
		return ErrNotRunning
	}
	s.cancel()
	s.running.Store(false)
	<-s.done
	s.cancel, s.done = nil, nil

	s.log.Info("capture scheduler stopped, %d requests pending", s.queue.Len())
	return nil
}

// Close stops the scheduler if it is running, then fails every queued
// request with ErrClosed. Later calls return nil and do nothing.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil
	}
	if s.running.Load() {
		_ = s.stopLocked()
	}

	s.closeMu.Lock()
	s.closed.Store(true)
	pending := s.queue.Drain()
	s.closeMu.Unlock()

	for _, r := range pending {
		s.failed.Add(1)
		s.dispatch(r, nil, ErrClosed)
	}
	s.log.Info("capture scheduler closed, %d pending requests abandoned", len(pending))
	return nil
}

// Running reports whether the worker is running.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Queue returns the scheduler's queue.
func (s *Scheduler) Queue() *Queue {
	return s.queue
}

// Status returns current counters.
func (s *Scheduler) Status() Status {
	return Status{
		Running:       s.running.Load(),
		Pending:       s.queue.Len(),
		InFlight:      int(s.inFlight.Load()),
		Submitted:     s.submitted.Load(),
		Completed:     s.completed.Load(),
		Failed:        s.failed.Load(),
		HandlerPanics: s.handlerPanics.Load(),
	}
}

// run is the worker loop. It exits once ctx is cancelled and the current
// request, if any, has been handled.
func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for ctx.Err() == nil {
		r, err := s.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Warning("queue wait interrupted: %v", err)
			continue
		}
		if ctx.Err() != nil {
			// Stopped while popping: the request stays queued.
			s.queue.Push(r)
			break
		}
		s.process(r)
	}

	if s.drainOnStop {
		pending := s.queue.Drain()
		if len(pending) > 0 {
			s.log.Info("draining %d queued requests before stop", len(pending))
		}
		for _, r := range pending {
			s.process(r)
		}
	}
}

// process runs one request to completion and routes the outcome.
func (s *Scheduler) process(r *Request) {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	s.log.Debug("dequeued request %s priority=%s waited=%s", r.ID, r.Priority, r.Wait(time.Now()))
	if s.hooks.OnStart != nil {
		safeCall(s.log, "start hook "+r.ID, func() { s.hooks.OnStart(r) })
	}

	start := time.Now()
	p, err := invoke(withRequest(context.Background(), r), s.log, s.op, r.ID).Await()
	took := time.Since(start)

	if err != nil {
		s.failed.Add(1)
		s.log.Warning("capture %s failed after %s: %v", r.ID, took, err)
	} else {
		s.completed.Add(1)
		s.log.Debug("capture %s done in %s, %s", r.ID, took, humanize.Bytes(uint64(p.Size())))
	}
	s.dispatch(r, p, err)

	if s.hooks.OnComplete != nil {
		safeCall(s.log, "complete hook "+r.ID, func() { s.hooks.OnComplete(r, p, err, took) })
	}
}

// dispatch calls exactly one arm of the request's handler. A panicking
// handler is logged and counted.
func (s *Scheduler) dispatch(r *Request, p *Payload, err error) {
	panicked := safeCall(s.log, "handler "+r.ID, func() {
		if err != nil {
			r.Handler.OnFailure(err)
			return
		}
		r.Handler.OnSuccess(p)
	})
	if panicked {
		s.handlerPanics.Add(1)
	}
}
