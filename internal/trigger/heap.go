package trigger

import "container/heap"

// eventHeap implements container/heap.Interface for Event,
// sorted by TriggerAt (earliest first).
type eventHeap []Event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].TriggerAt.Before(h[j].TriggerAt) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *eventHeap, e Event) {
	heap.Push(h, e)
}

// heapPop removes and returns the earliest Event. Panics if the heap is empty.
func heapPop(h *eventHeap) Event {
	return heap.Pop(h).(Event)
}

// heapRemoveByName removes every Event with the given name and reports
// whether any was found.
func heapRemoveByName(h *eventHeap, name string) bool {
	kept := (*h)[:0]
	for _, e := range *h {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	removed := len(kept) < h.Len()
	if removed {
		clear((*h)[len(kept):])
		*h = kept
		heap.Init(h)
	}
	return removed
}
