package device

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warpdl/warpcap/pkg/capture"
	"github.com/warpdl/warpcap/pkg/logger"
)

// Defaults: half a second per shot, one shot in
// ten fails, 1 KiB frames.
const (
	DefaultDelay       = 500 * time.Millisecond
	DefaultFailureRate = 0.1
	DefaultPayloadSize = 1024
)

// Simulated is a camera that sleeps, then either fails or returns a
// zero-filled frame.
type Simulated struct {
	name        string
	delay       time.Duration
	failureRate float64
	size        int
	width       int
	height      int
	log         logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
	seq atomic.Uint64
}

// SimulatedOption configures a Simulated camera.
type SimulatedOption func(*Simulated)

// WithDelay sets how long each capture takes.
func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithFailureRate sets the probability in [0, 1] that a capture fails.
func WithFailureRate(rate float64) SimulatedOption {
	return func(s *Simulated) {
		switch {
		case rate < 0:
			s.failureRate = 0
		case rate > 1:
			s.failureRate = 1
		default:
			s.failureRate = rate
		}
	}
}

// WithPayloadSize sets the frame size in bytes.
func WithPayloadSize(n int) SimulatedOption {
	return func(s *Simulated) {
		if n >= 0 {
			s.size = n
		}
	}
}

// WithResolution stamps frames with the given dimensions.
func WithResolution(width, height int) SimulatedOption {
	return func(s *Simulated) {
		s.width, s.height = width, height
	}
}

// WithSeed makes the failure sequence deterministic.
func WithSeed(seed uint64) SimulatedOption {
	return func(s *Simulated) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithSimulatedLogger sets the camera's logger.
func WithSimulatedLogger(l logger.Logger) SimulatedOption {
	return func(s *Simulated) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSimulated creates a simulated camera named name.
func NewSimulated(name string, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		name:        name,
		delay:       DefaultDelay,
		failureRate: DefaultFailureRate,
		size:        DefaultPayloadSize,
		log:         logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Name returns the camera name.
func (s *Simulated) Name() string {
	return s.name
}

// Capture waits for the configured delay and returns a frame, or fails with
// capture.ErrCaptureFailed at the configured rate. A done ctx aborts the wait.
func (s *Simulated) Capture(ctx context.Context) (*capture.Payload, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: capture interrupted: %w", s.name, ctx.Err())
		}
	}

	if s.roll() {
		if r, ok := capture.RequestFromContext(ctx); ok {
			s.log.Debug("%s: simulated fault on request %s", s.name, r.ID)
		}
		return nil, fmt.Errorf("%w: %s: simulated sensor fault", capture.ErrCaptureFailed, s.name)
	}

	p := capture.NewPayload(s.name, s.seq.Add(1), make([]byte, s.size))
	p.Width, p.Height = s.width, s.height
	return p, nil
}

func (s *Simulated) roll() bool {
	if s.failureRate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < s.failureRate
}

var _ capture.Operation = (*Simulated)(nil)
