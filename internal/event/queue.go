package event

import (
	"container/heap"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Event is anything the engine loop dispatches.
type Event interface {
	GetTime() time.Time
}

// MarketEvent carries one candle.
type MarketEvent struct {
	Candle types.Candle
}

func (e MarketEvent) GetTime() time.Time {
	return e.Candle.Timestamp
}

// Queue is a timestamp-ordered event queue. Events with equal timestamps pop in
// insertion order. The loop owns the queue: feeds only Append, the loop only pops.
type Queue struct {
	items eventHeap
	seq   uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Append adds an event.
func (q *Queue) Append(e Event) {
	heap.Push(&q.items, entry{event: e, seq: q.seq})
	q.seq++
}

// Next pops the earliest event. ok is false when the queue is empty.
func (q *Queue) Next() (Event, bool) {
	if len(q.items) == 0 {
		return nil, false
	}

	return heap.Pop(&q.items).(entry).event, true
}

// PopBatch pops every event sharing the earliest timestamp.
func (q *Queue) PopBatch() []Event {
	if len(q.items) == 0 {
		return nil
	}

	ts := q.items[0].event.GetTime()

	var batch []Event
	for len(q.items) > 0 && q.items[0].event.GetTime().Equal(ts) {
		batch = append(batch, heap.Pop(&q.items).(entry).event)
	}

	return batch
}

// Peek returns the earliest event without removing it.
func (q *Queue) Peek() (Event, bool) {
	if len(q.items) == 0 {
		return nil, false
	}

	return q.items[0].event, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.items)
}

// Reset drops every queued event.
func (q *Queue) Reset() {
	q.items = nil
	q.seq = 0
}

type entry struct {
	event Event
	seq   uint64
}

type eventHeap []entry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	ti, tj := h[i].event.GetTime(), h[j].event.GetTime()
	if ti.Equal(tj) {
		return h[i].seq < h[j].seq
	}

	return ti.Before(tj)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}
