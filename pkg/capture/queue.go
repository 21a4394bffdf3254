package capture

import (
	"container/heap"
	"context"
	"sync"
)

// Queue is a thread-safe, unbounded priority queue of capture requests.
// Higher priorities are popped first; equal priorities pop in submission
// (Seq) order.
//
// Push never blocks. Pop blocks until a request is available or its
// context is done.
type Queue struct {
	items requestHeap
	mu    sync.Mutex
	// wake holds at most one pending wake-up for a blocked Pop.
	wake chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{
		items: make(requestHeap, 0),
		wake:  make(chan struct{}, 1),
	}
	heap.Init(&q.items)
	return q
}

// Push inserts a request. Safe to call from any number of goroutines.
func (q *Queue) Push(r *Request) {
	q.mu.Lock()
	heapPush(&q.items, r)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes and returns the most urgent request, blocking while the
// queue is empty. It returns ctx.Err() if ctx is done before a request
// arrives.
func (q *Queue) Pop(ctx context.Context) (*Request, error) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			r := heapPop(&q.items)
			more := q.items.Len() > 0
			q.mu.Unlock()
			if more {
				// Pass the wake-up on in case another consumer is parked.
				q.signal()
			}
			return r, nil
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryPop is like Pop but returns nil immediately if the queue is empty.
func (q *Queue) TryPop() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return nil
	}
	return heapPop(&q.items)
}

// Remove deletes a queued request by ID and returns it, or nil if the
// request is not queued (never submitted, or already popped).
func (q *Queue) Remove(id string) *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	return heapRemoveByID(&q.items, id)
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Items returns a snapshot of the queued requests in the order they would
// be popped. The queue is left untouched.
func (q *Queue) Items() []*Request {
	q.mu.Lock()
	cp := make(requestHeap, len(q.items))
	copy(cp, q.items)
	q.mu.Unlock()

	out := make([]*Request, 0, len(cp))
	for cp.Len() > 0 {
		out = append(out, heapPop(&cp))
	}
	return out
}

// Drain removes every queued request and returns them in pop order.
func (q *Queue) Drain() []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Request, 0, q.items.Len())
	for q.items.Len() > 0 {
		out = append(out, heapPop(&q.items))
	}
	return out
}
