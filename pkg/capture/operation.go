package capture

import (
	"context"
	"fmt"

	"github.com/warpdl/warpcap/pkg/logger"
)

// Operation performs one capture. The scheduler runs it on a dedicated
// goroutine and waits for it to return before dequeuing the next request,
// so implementations never run concurrently with themselves.
//
// The scheduler imposes no timeout; an implementation that wants one
// should derive it from ctx.
type Operation interface {
	Capture(ctx context.Context) (*Payload, error)
}

// OperationFunc adapts an ordinary function to Operation.
type OperationFunc func(ctx context.Context) (*Payload, error)

func (f OperationFunc) Capture(ctx context.Context) (*Payload, error) {
	return f(ctx)
}

// future is the pending outcome of one capture.
type future struct {
	done    chan struct{}
	payload *Payload
	err     error
}

// Await blocks until the capture finishes.
func (f *future) Await() (*Payload, error) {
	<-f.done
	return f.payload, f.err
}

// invoke starts op on its own goroutine and returns immediately.
// Errors, nil payloads and panics all resolve the future with an error,
// so exactly one of payload or err is set once done is closed.
func invoke(ctx context.Context, l logger.Logger, op Operation, requestID string) *future {
	f := &future{done: make(chan struct{})}
	onPanic := func(r interface{}) {
		f.payload = nil
		f.err = fmt.Errorf("%w: %v", ErrCapturePanic, r)
		close(f.done)
	}
	safeGo(l, nil, "capture "+requestID, onPanic, func() {
		p, err := op.Capture(ctx)
		switch {
		case err != nil:
			f.err = err
		case p == nil:
			f.err = ErrNilPayload
		default:
			f.payload = p
		}
		close(f.done)
	})
	return f
}
