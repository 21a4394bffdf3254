package capture

import "container/heap"

// requestHeap implements container/heap.Interface for *Request as a max-heap
// on Priority. Equal priorities pop in ascending Seq order, so the ordering
// is total as long as sequence numbers are unique.
type requestHeap []*Request

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].Seq < h[j].Seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) {
	*h = append(*h, x.(*Request))
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// heapPush adds a request to the heap, maintaining the heap invariant.
func heapPush(h *requestHeap, r *Request) {
	heap.Push(h, r)
}

// heapPop removes and returns the most urgent request.
// Panics if the heap is empty.
func heapPop(h *requestHeap) *Request {
	return heap.Pop(h).(*Request)
}

// heapRemoveByID removes the request with the given ID.
// Returns the request, or nil when no request matched.
func heapRemoveByID(h *requestHeap, id string) *Request {
	for i, r := range *h {
		if r.ID == id {
			return heap.Remove(h, i).(*Request)
		}
	}
	return nil
}
