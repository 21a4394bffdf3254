package capture

import "testing"

func TestHeapPushPopOrdering(t *testing.T) {
	h := &requestHeap{}

	heapPush(h, &Request{ID: "low", Priority: 1, Seq: 1})
	heapPush(h, &Request{ID: "high", Priority: 10, Seq: 2})
	heapPush(h, &Request{ID: "mid", Priority: 5, Seq: 3})

	for _, want := range []string{"high", "mid", "low"} {
		if got := heapPop(h).ID; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestHeapEqualPriorityIsFIFO(t *testing.T) {
	h := &requestHeap{}

	// Pushed out of sequence order on purpose.
	heapPush(h, &Request{ID: "c", Priority: 5, Seq: 30})
	heapPush(h, &Request{ID: "a", Priority: 5, Seq: 10})
	heapPush(h, &Request{ID: "d", Priority: 5, Seq: 40})
	heapPush(h, &Request{ID: "b", Priority: 5, Seq: 20})

	for _, want := range []string{"a", "b", "c", "d"} {
		if got := heapPop(h).ID; got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
}

func TestHeapNegativePriorities(t *testing.T) {
	h := &requestHeap{}
	heapPush(h, &Request{ID: "neg", Priority: -3, Seq: 1})
	heapPush(h, &Request{ID: "zero", Priority: 0, Seq: 2})

	if got := heapPop(h).ID; got != "zero" {
		t.Errorf("expected zero first, got %s", got)
	}
}

func TestHeapRemoveByID(t *testing.T) {
	h := &requestHeap{}
	heapPush(h, &Request{ID: "a", Priority: 10, Seq: 1})
	heapPush(h, &Request{ID: "b", Priority: 5, Seq: 2})
	heapPush(h, &Request{ID: "c", Priority: 1, Seq: 3})

	removed := heapRemoveByID(h, "b")
	if removed == nil || removed.ID != "b" {
		t.Fatalf("expected to remove b, got %v", removed)
	}
	if h.Len() != 2 {
		t.Errorf("expected 2 items after removal, got %d", h.Len())
	}
	if got := heapPop(h).ID; got != "a" {
		t.Errorf("expected a, got %s", got)
	}
	if got := heapPop(h).ID; got != "c" {
		t.Errorf("expected c, got %s", got)
	}
}

func TestHeapRemoveByIDNotFound(t *testing.T) {
	h := &requestHeap{}
	heapPush(h, &Request{ID: "a", Priority: 1, Seq: 1})

	if removed := heapRemoveByID(h, "missing"); removed != nil {
		t.Errorf("expected nil for missing ID, got %v", removed)
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 item to remain, got %d", h.Len())
	}
}
