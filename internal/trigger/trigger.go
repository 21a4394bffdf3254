package trigger

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/warpdl/warpcap/pkg/capture"
	"github.com/warpdl/warpcap/pkg/logger"
)

const maxSleepCap = 60 * time.Second

var (
	// ErrInvalidCron is returned for expressions gronx cannot parse.
	ErrInvalidCron = errors.New("invalid cron expression")
	// ErrNoOccurrence is returned for expressions that never fire within a year.
	ErrNoOccurrence = errors.New("cron expression has no occurrence within a year")
)

// Runner owns the trigger heap. It runs a background goroutine that sleeps
// until the next event's trigger time, then calls onTrigger with the event.
type Runner struct {
	addChan    chan Event
	removeChan chan string
	ctx        context.Context
	log        logger.Logger
	done       chan struct{}
}

// New creates and starts a Runner. The goroutine exits when ctx is
// cancelled. onTrigger runs on the Runner's goroutine and should return
// quickly; Submitter is the usual choice.
func New(ctx context.Context, l logger.Logger, onTrigger func(Event)) *Runner {
	if l == nil {
		l = logger.NewNopLogger()
	}
	r := &Runner{
		addChan:    make(chan Event, 64),
		removeChan: make(chan string, 64),
		ctx:        ctx,
		log:        l,
		done:       make(chan struct{}),
	}
	go r.run(onTrigger)
	return r
}

// Add enqueues an event.
func (r *Runner) Add(event Event) {
	select {
	case r.addChan <- event:
	case <-r.ctx.Done():
	}
}

// AddCron validates expr and schedules its first occurrence after now.
func (r *Runner) AddCron(name, expr string, priority capture.Priority, now time.Time) error {
	if err := Validate(expr, now); err != nil {
		return err
	}
	next, err := nextCronOccurrence(expr, now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCron, err)
	}
	r.Add(Event{Name: name, TriggerAt: next, CronExpr: expr, Priority: priority})
	r.log.Info("trigger %s armed, first capture at %s", name, next.Format(time.RFC3339))
	return nil
}

// Remove cancels every pending event with the given name.
func (r *Runner) Remove(name string) {
	select {
	case r.removeChan <- name:
	case <-r.ctx.Done():
	}
}

// Wait blocks until the Runner's goroutine has exited.
func (r *Runner) Wait() {
	<-r.done
}

// run is the single goroutine that owns the heap.
// Recurring events are re-armed with their next cron occurrence after firing.
func (r *Runner) run(onTrigger func(Event)) {
	defer close(r.done)

	h := &eventHeap{}
	heap.Init(h)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			return nil
		}
		dur := time.Until((*h)[0].TriggerAt)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-r.ctx.Done():
			return

		case event := <-r.addChan:
			heapPush(h, event)
			timerCh = resetTimer()

		case name := <-r.removeChan:
			if heapRemoveByName(h, name) {
				r.log.Info("trigger %s removed", name)
			}
			timerCh = resetTimer()

		case <-timerCh:
			now := time.Now()
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				event := heapPop(h)
				r.log.Debug("trigger %s fired, priority=%s", event.Name, event.Priority)
				onTrigger(event)
				if event.CronExpr == "" {
					continue
				}
				next, err := nextCronOccurrence(event.CronExpr, time.Now())
				if err != nil {
					r.log.Warning("trigger %s dropped: %v", event.Name, err)
					continue
				}
				event.TriggerAt = next
				heapPush(h, event)
			}
			timerCh = resetTimer()
		}
	}
}

// Submitter returns an onTrigger callback that submits one capture per
// fired event to s, at the event's priority.
func Submitter(s *capture.Scheduler, h capture.Handler) func(Event) {
	return func(e Event) {
		s.SubmitRequest(e.Priority, h)
	}
}

// Validate checks that expr is a 5-field cron expression that fires at
// least once within a year of from.
func Validate(expr string, from time.Time) error {
	// gronx also accepts a seconds field; periodic captures are minute-grained.
	if len(strings.Fields(expr)) != 5 || !gronx.IsValid(expr) {
		return fmt.Errorf("%w: %q", ErrInvalidCron, expr)
	}
	if !hasOccurrenceWithinYear(expr, from) {
		return fmt.Errorf("%w: %q", ErrNoOccurrence, expr)
	}
	return nil
}

// nextCronOccurrence returns the next time the cron expression fires strictly
// after start.
func nextCronOccurrence(expr string, start time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, start, false)
}

func hasOccurrenceWithinYear(expr string, from time.Time) bool {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return false
	}
	return next.Before(from.Add(365 * 24 * time.Hour))
}
