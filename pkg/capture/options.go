package capture

import (
	"time"

	"github.com/warpdl/warpcap/pkg/logger"
)

// Hooks observe the worker. Both run on the worker goroutine; a panic in
// a hook is logged and ignored.
type Hooks struct {
	// OnStart is called after a request is dequeued, before its capture starts.
	OnStart func(r *Request)
	// OnComplete is called after the request's handler has returned.
	// Exactly one of p and err is non-nil.
	OnComplete func(r *Request, p *Payload, err error, took time.Duration)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithQueue makes the scheduler consume an existing queue, e.g. one that
// was filled before the scheduler was built.
func WithQueue(q *Queue) Option {
	return func(s *Scheduler) {
		if q != nil {
			s.queue = q
		}
	}
}

// WithDrainOnStop makes Stop process every request queued at the time of
// the call before the worker exits. By default queued requests are left
// in the queue for a later Start.
func WithDrainOnStop(drain bool) Option {
	return func(s *Scheduler) {
		s.drainOnStop = drain
	}
}

// WithHooks registers worker observers.
func WithHooks(h Hooks) Option {
	return func(s *Scheduler) {
		s.hooks = h
	}
}
