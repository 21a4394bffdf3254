package capture

import "time"

// Handler receives the outcome of a capture request. Exactly one of its
// methods is called, exactly once, from the scheduler's worker goroutine.
type Handler interface {
	OnSuccess(p *Payload)
	OnFailure(err error)
}

// HandlerFuncs adapts a pair of functions to Handler. Nil fields are no-ops.
type HandlerFuncs struct {
	Success func(*Payload)
	Failure func(error)
}

func (h HandlerFuncs) OnSuccess(p *Payload) {
	if h.Success != nil {
		h.Success(p)
	}
}

func (h HandlerFuncs) OnFailure(err error) {
	if h.Failure != nil {
		h.Failure(err)
	}
}

// Request is a queued capture. It is immutable once submitted.
type Request struct {
	// ID is returned by Submit and accepted by Queue.Remove.
	ID string
	// Priority determines execution order (higher = sooner).
	Priority Priority
	// Seq is assigned at submission and breaks ties between equal priorities.
	Seq uint64
	// SubmittedAt records when the request entered the queue.
	SubmittedAt time.Time
	// Handler receives the outcome.
	Handler Handler
}

// Wait returns how long the request has been queued relative to now.
func (r *Request) Wait(now time.Time) time.Duration {
	return now.Sub(r.SubmittedAt)
}
